package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agentpayhq/agentpay/app/models"
)

func TestFormatTimePtr(t *testing.T) {
	assert.Nil(t, formatTimePtr(nil))

	now := time.Date(2025, 5, 1, 12, 34, 56, 0, time.Local)
	formatted := formatTimePtr(&now)
	assert.IsType(t, "", formatted)

	expected := now.UTC().Format(time.RFC3339)
	assert.Equal(t, expected, formatted)
}

func TestLinkResponse(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	req := &models.PaymentRequest{
		LinkID:    "4521a1f0-0000-0000-0000-000000000000",
		ShortCode: "aB3dE6fG9h",
		Token:     "USDC",
		Amount:    "5.00",
		Receiver:  "0x1111111111111111111111111111111111111111",
		Network:   "ethereum",
		Status:    models.LINK_STATUS_PENDING,
		ExpiresAt: &past,
	}

	out := linkResponse(req, "https://pay.example.com")
	assert.Equal(t, "https://pay.example.com/pay/aB3dE6fG9h", out["link"])
	assert.Equal(t, "4521a1f0-0000-0000-0000-000000000000", out["linkId"])

	// a lapsed pending link is reported as EXPIRED
	assert.Equal(t, models.LINK_STATUS_EXPIRED, out["status"])
}
