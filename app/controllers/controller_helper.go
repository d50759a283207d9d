package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/agentpayhq/agentpay/app/models"
)

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// linkResponse is the canonical JSON view of a payment request. The status is
// the effective status: a pending link past its expiry reads as EXPIRED.
func linkResponse(req *models.PaymentRequest, publicBaseURL string) fiber.Map {
	return fiber.Map{
		"linkId":           req.LinkID,
		"link":             publicBaseURL + "/pay/" + req.ShortCode,
		"token":            req.Token,
		"amount":           req.Amount,
		"receiver":         req.Receiver,
		"description":      req.Description,
		"network":          req.Network,
		"status":           req.EffectiveStatus(time.Now()),
		"settlementTxHash": req.SettlementTxHash,
		"paidAt":           formatTimePtr(req.PaidAt),
		"expiresAt":        formatTimePtr(req.ExpiresAt),
		"createdAt":        req.CreatedAt.UTC().Format(time.RFC3339),
	}
}
