package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentRequest_IsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{status: LINK_STATUS_PENDING, want: false},
		{status: LINK_STATUS_PAID, want: true},
		{status: LINK_STATUS_EXPIRED, want: true},
		{status: LINK_STATUS_CANCELLED, want: true},
	}

	for _, tt := range tests {
		req := &PaymentRequest{Status: tt.status}
		assert.Equal(t, tt.want, req.IsTerminal(), "status %s", tt.status)
	}
}

func TestPaymentRequest_EffectiveStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	pending := &PaymentRequest{Status: LINK_STATUS_PENDING}
	assert.Equal(t, LINK_STATUS_PENDING, pending.EffectiveStatus(now))

	open := &PaymentRequest{Status: LINK_STATUS_PENDING, ExpiresAt: &future}
	assert.Equal(t, LINK_STATUS_PENDING, open.EffectiveStatus(now))

	// past expiry reads as EXPIRED even before the stored status changes
	lapsed := &PaymentRequest{Status: LINK_STATUS_PENDING, ExpiresAt: &past}
	assert.True(t, lapsed.IsExpired(now))
	assert.Equal(t, LINK_STATUS_EXPIRED, lapsed.EffectiveStatus(now))

	// a paid request never reads as expired
	paid := &PaymentRequest{Status: LINK_STATUS_PAID, ExpiresAt: &past}
	assert.False(t, paid.IsExpired(now))
	assert.Equal(t, LINK_STATUS_PAID, paid.EffectiveStatus(now))
}

func TestPaymentRequest_Validate(t *testing.T) {
	req := &PaymentRequest{
		Token:    "USDC",
		Amount:   "5.00",
		Receiver: "0x1111111111111111111111111111111111111111",
		Network:  "ethereum",
		Status:   LINK_STATUS_PENDING,
	}
	assert.NoError(t, req.Validate())

	req.Receiver = "not-an-address"
	assert.Error(t, req.Validate())
}
