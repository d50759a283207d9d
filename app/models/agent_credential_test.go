package models

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAgentCredential(t *testing.T) {
	cred, err := GenerateAgentCredential("0x4444444444444444444444444444444444444444")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(cred.KeyID, "ak_"))
	assert.Len(t, cred.Secret, 64)
	_, err = hex.DecodeString(cred.Secret)
	assert.NoError(t, err, "secret is hex")
	assert.Equal(t, CREDENTIAL_STATUS_ACTIVE, cred.Status)
	assert.True(t, cred.IsActive())

	assert.NoError(t, cred.Validate())
}

func TestGenerateAgentCredential_Unique(t *testing.T) {
	a, err := GenerateAgentCredential("0x4444444444444444444444444444444444444444")
	require.NoError(t, err)
	b, err := GenerateAgentCredential("0x4444444444444444444444444444444444444444")
	require.NoError(t, err)

	assert.NotEqual(t, a.KeyID, b.KeyID)
	assert.NotEqual(t, a.Secret, b.Secret)
}

func TestAgentCredential_IsActive(t *testing.T) {
	for _, status := range []string{CREDENTIAL_STATUS_INACTIVE, CREDENTIAL_STATUS_SUSPENDED} {
		cred := &AgentCredential{Status: status}
		assert.False(t, cred.IsActive(), "status %s", status)
	}
}
