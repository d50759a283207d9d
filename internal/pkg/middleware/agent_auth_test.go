package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentpayhq/agentpay/app/models"
	"github.com/agentpayhq/agentpay/app/repository"
	"github.com/agentpayhq/agentpay/internal/pkg/agentcontext"
	"github.com/agentpayhq/agentpay/internal/pkg/hmacsig"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	testWallet = "0x4444444444444444444444444444444444444444"
)

func authTestApp(t *testing.T) (*fiber.App, repository.AgentCredentialRepository) {
	t.Helper()

	creds := repository.NewMemoryAgentCredentialRepository()
	require.NoError(t, creds.Create(&models.AgentCredential{
		KeyID:         "ak_test",
		Secret:        testSecret,
		WalletAddress: testWallet,
		Status:        models.CREDENTIAL_STATUS_ACTIVE,
	}))

	app := fiber.New()
	app.Post("/api/v1/links", AgentAuthMiddleware(creds, 5*time.Minute), func(c *fiber.Ctx) error {
		agent := agentcontext.Get(c)
		return c.JSON(fiber.Map{"keyId": agent.KeyID, "wallet": agent.WalletAddress})
	})
	return app, creds
}

func doSigned(t *testing.T, app *fiber.App, keyID, secret string, ts int64, method, path string, body []byte) (int, string) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderKeyID, keyID)
	req.Header.Set(HeaderTimestamp, fmt.Sprintf("%d", ts))
	req.Header.Set(HeaderSignature, hmacsig.SignRequest(secret, ts, method, path, body))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestAgentAuth_ValidSignature(t *testing.T) {
	app, _ := authTestApp(t)

	status, body := doSigned(t, app, "ak_test", testSecret, time.Now().Unix(), "POST", "/api/v1/links", []byte(`{"amount":"5.00"}`))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "ak_test")
	assert.Contains(t, body, testWallet)
}

func TestAgentAuth_MissingHeaders(t *testing.T) {
	app, _ := authTestApp(t)

	req := httptest.NewRequest("POST", "/api/v1/links", bytes.NewReader([]byte(`{}`)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "unknown_key")
}

func TestAgentAuth_UnknownKey(t *testing.T) {
	app, _ := authTestApp(t)

	status, body := doSigned(t, app, "ak_missing", testSecret, time.Now().Unix(), "POST", "/api/v1/links", []byte(`{}`))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "unknown_key")
}

func TestAgentAuth_InactiveKeyLooksUnknown(t *testing.T) {
	app, creds := authTestApp(t)
	require.NoError(t, creds.UpdateStatus("ak_test", models.CREDENTIAL_STATUS_SUSPENDED))

	status, body := doSigned(t, app, "ak_test", testSecret, time.Now().Unix(), "POST", "/api/v1/links", []byte(`{}`))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "unknown_key")
}

func TestAgentAuth_StaleTimestamp(t *testing.T) {
	app, _ := authTestApp(t)

	stale := time.Now().Add(-10 * time.Minute).Unix()
	status, body := doSigned(t, app, "ak_test", testSecret, stale, "POST", "/api/v1/links", []byte(`{}`))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "stale_request")
}

func TestAgentAuth_FutureTimestamp(t *testing.T) {
	app, _ := authTestApp(t)

	future := time.Now().Add(10 * time.Minute).Unix()
	status, body := doSigned(t, app, "ak_test", testSecret, future, "POST", "/api/v1/links", []byte(`{}`))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "stale_request")
}

func TestAgentAuth_NonNumericTimestamp(t *testing.T) {
	app, _ := authTestApp(t)

	body := []byte(`{}`)
	req := httptest.NewRequest("POST", "/api/v1/links", bytes.NewReader(body))
	req.Header.Set(HeaderKeyID, "ak_test")
	req.Header.Set(HeaderTimestamp, "yesterday")
	req.Header.Set(HeaderSignature, hmacsig.Sign(testSecret, hmacsig.CanonicalRequest("yesterday", "POST", "/api/v1/links", body)))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "stale_request")
}

func TestAgentAuth_TamperedBody(t *testing.T) {
	app, _ := authTestApp(t)

	ts := time.Now().Unix()
	signedBody := []byte(`{"amount":"5.00"}`)
	tampered := []byte(`{"amount":"9.00"}`)

	req := httptest.NewRequest("POST", "/api/v1/links", bytes.NewReader(tampered))
	req.Header.Set(HeaderKeyID, "ak_test")
	req.Header.Set(HeaderTimestamp, fmt.Sprintf("%d", ts))
	req.Header.Set(HeaderSignature, hmacsig.SignRequest(testSecret, ts, "POST", "/api/v1/links", signedBody))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "invalid_signature")
}

func TestAgentAuth_WrongSecret(t *testing.T) {
	app, _ := authTestApp(t)

	status, body := doSigned(t, app, "ak_test", "WRONG", time.Now().Unix(), "POST", "/api/v1/links", []byte(`{}`))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "invalid_signature")
}

func TestAgentAuth_TouchesLastUsed(t *testing.T) {
	app, creds := authTestApp(t)

	status, _ := doSigned(t, app, "ak_test", testSecret, time.Now().Unix(), "POST", "/api/v1/links", []byte(`{}`))
	require.Equal(t, fiber.StatusOK, status)

	cred, err := creds.GetByKeyID("ak_test")
	require.NoError(t, err)
	assert.NotNil(t, cred.LastUsedAt)
}
