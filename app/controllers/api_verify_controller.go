package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/agentpayhq/agentpay/app/repository"
	"github.com/agentpayhq/agentpay/internal/pkg/agentcontext"
	"github.com/agentpayhq/agentpay/internal/pkg/fees"
	"github.com/agentpayhq/agentpay/internal/pkg/settlement"
)

// VerifyAPI serves the settlement verification endpoint.
// Security: agent signature required via router middleware.
type VerifyAPI struct {
	gateway *settlement.Gateway
}

// NewVerifyAPI creates the verification controller.
func NewVerifyAPI(gateway *settlement.Gateway) *VerifyAPI {
	return &VerifyAPI{gateway: gateway}
}

type verifyRequest struct {
	RequestID    string `json:"requestId" validate:"required,max=64"`
	TxHash       string `json:"txHash" validate:"required,max=80"`
	FeeTxHash    string `json:"feeTxHash" validate:"omitempty,max=80"`
	RewardTxHash string `json:"rewardTxHash" validate:"omitempty,max=80"`
}

// HandleVerify checks the supplied transaction hashes against the expected
// transfer plan and settles the request on success. Safe to retry: a replay
// with the same hash succeeds idempotently.
func (h *VerifyAPI) HandleVerify(c *fiber.Ctx) error {
	agent := agentcontext.Get(c)
	if !agent.Authenticated {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	var body verifyRequest
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid JSON body")
	}
	if err := validator.New().Struct(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", err.Error())
	}

	result, err := h.gateway.Verify(c.Context(), settlement.VerifyInput{
		LinkID:       body.RequestID,
		TxHash:       body.TxHash,
		FeeTxHash:    body.FeeTxHash,
		RewardTxHash: body.RewardTxHash,
		PayerWallet:  agent.WalletAddress,
	})
	if err != nil {
		return verifyError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"status":      result.Request.Status,
		"alreadyPaid": result.AlreadyPaid,
		"verification": fiber.Map{
			"valid":       true,
			"txHash":      result.TxHash,
			"blockNumber": result.BlockNumber,
		},
	})
}

// verifyError maps gateway failures onto the API error taxonomy. Every
// rejected transition is observable by the caller; nothing fails silently.
func verifyError(c *fiber.Ctx, err error) error {
	var receiptErr *settlement.ReceiptNotFoundError
	var failedErr *settlement.TransactionFailedError
	var incompleteErr *settlement.IncompletePaymentError

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", "payment request not found")

	case errors.Is(err, repository.ErrLinkExpired):
		return jsonError(c, fiber.StatusGone, "expired", "payment request has expired")

	case errors.Is(err, repository.ErrInvalidTransition):
		return jsonError(c, fiber.StatusConflict, "invalid_transition", "payment request cannot transition to paid")

	case errors.Is(err, repository.ErrDuplicateSettlement):
		// Distinct from generic failure: someone else already settled with
		// this hash.
		return jsonError(c, fiber.StatusConflict, "duplicate_settlement", "transaction hash already claimed by another request")

	case fees.IsPriceUnavailable(err):
		return jsonError(c, fiber.StatusServiceUnavailable, "price_unavailable", "reward token price unavailable, retry later")

	case errors.As(err, &receiptErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":               "receipt_not_found",
			"message":             receiptErr.Error(),
			"verificationDetails": fiber.Map{"txHash": receiptErr.TxHash},
		})

	case errors.As(err, &failedErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":               "transaction_failed",
			"message":             failedErr.Error(),
			"verificationDetails": fiber.Map{"txHash": failedErr.TxHash},
		})

	case errors.As(err, &incompleteErr):
		details := fiber.Map{
			"leg":      incompleteErr.Leg,
			"token":    incompleteErr.Token,
			"to":       incompleteErr.To,
			"expected": incompleteErr.Expected.String(),
		}
		if incompleteErr.Observed != nil {
			details["observed"] = incompleteErr.Observed.String()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":               "incomplete_payment",
			"message":             incompleteErr.Error(),
			"verificationDetails": details,
		})
	}

	return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", err.Error())
}
