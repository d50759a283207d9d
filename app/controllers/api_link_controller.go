package controllers

import (
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/agentpayhq/agentpay/app/models"
	"github.com/agentpayhq/agentpay/app/repository"
	"github.com/agentpayhq/agentpay/internal/pkg/agentcontext"
	"github.com/agentpayhq/agentpay/internal/pkg/config"
	"github.com/agentpayhq/agentpay/internal/pkg/fees"
	"github.com/agentpayhq/agentpay/internal/pkg/settlement"
	"github.com/agentpayhq/agentpay/internal/pkg/tokens"
)

// LinkAPI serves the payment-link endpoints.
// Security: agent signature required via router middleware.
type LinkAPI struct {
	cfg     *config.Config
	repos   *repository.Repositories
	gateway *settlement.Gateway
}

// NewLinkAPI creates the link controller.
func NewLinkAPI(cfg *config.Config, repos *repository.Repositories, gateway *settlement.Gateway) *LinkAPI {
	return &LinkAPI{cfg: cfg, repos: repos, gateway: gateway}
}

type createLinkRequest struct {
	Amount           string `json:"amount" validate:"required,max=80"`
	Token            string `json:"token" validate:"required,max=20"`
	Network          string `json:"network" validate:"required,max=32"`
	Description      string `json:"description" validate:"max=2000"`
	Receiver         string `json:"receiver" validate:"omitempty,eth_addr"`
	ExpiresInSeconds int64  `json:"expiresInSeconds" validate:"omitempty,gt=0"`
}

// HandleCreateLink publishes a new payment request for the authenticated
// creator.
func (h *LinkAPI) HandleCreateLink(c *fiber.Ctx) error {
	agent := agentcontext.Get(c)
	if !agent.Authenticated {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	var body createLinkRequest
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid JSON body")
	}
	if err := validator.New().Struct(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", err.Error())
	}

	network := strings.ToLower(body.Network)
	token := strings.ToUpper(body.Token)
	payToken, err := tokens.Lookup(network, token)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", err.Error())
	}
	if _, err := tokens.ParseAmount(body.Amount, payToken.Decimals); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", err.Error())
	}

	receiver := body.Receiver
	if receiver == "" {
		receiver = agent.WalletAddress
	}

	keyID := agent.KeyID
	req := &models.PaymentRequest{
		Token:         token,
		Amount:        body.Amount,
		Receiver:      receiver,
		Description:   body.Description,
		Network:       network,
		Status:        models.LINK_STATUS_PENDING,
		CreatorWallet: agent.WalletAddress,
		AgentKeyID:    &keyID,
	}
	if body.ExpiresInSeconds > 0 {
		expiry := time.Now().Add(time.Duration(body.ExpiresInSeconds) * time.Second)
		req.ExpiresAt = &expiry
	}

	if err := h.repos.PaymentRequest.Create(req); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create payment link")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"linkId": req.LinkID,
		"link":   h.cfg.PublicBaseURL + "/pay/" + req.ShortCode,
	})
}

// HandleGetLink returns one payment request owned by the caller.
func (h *LinkAPI) HandleGetLink(c *fiber.Ctx) error {
	agent := agentcontext.Get(c)
	if !agent.Authenticated {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	req, err := h.repos.PaymentRequest.GetByLinkID(c.Params("linkId"))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not_found", "payment link not found")
	}

	return c.JSON(linkResponse(req, h.cfg.PublicBaseURL))
}

// HandleListLinks returns the caller's payment requests, newest first.
func (h *LinkAPI) HandleListLinks(c *fiber.Ctx) error {
	agent := agentcontext.Get(c)
	if !agent.Authenticated {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	reqs, err := h.repos.PaymentRequest.ListByAgentKey(agent.KeyID, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to list payment links")
	}

	links := make([]fiber.Map, 0, len(reqs))
	for i := range reqs {
		links = append(links, linkResponse(&reqs[i], h.cfg.PublicBaseURL))
	}
	return c.JSON(fiber.Map{"links": links})
}

// HandleCancelLink cancels a pending link owned by the caller.
func (h *LinkAPI) HandleCancelLink(c *fiber.Ctx) error {
	agent := agentcontext.Get(c)
	if !agent.Authenticated {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	req, err := h.repos.PaymentRequest.Cancel(c.Params("linkId"), agent.KeyID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return jsonError(c, fiber.StatusNotFound, "not_found", "payment link not found")
		case errors.Is(err, repository.ErrInvalidTransition):
			return jsonError(c, fiber.StatusConflict, "invalid_transition", "only pending links can be cancelled")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to cancel payment link")
	}

	return c.JSON(linkResponse(req, h.cfg.PublicBaseURL))
}

// HandleGetInstructions resolves the current fee terms for the authenticated
// payer and returns the ordered transfer instructions.
func (h *LinkAPI) HandleGetInstructions(c *fiber.Ctx) error {
	agent := agentcontext.Get(c)
	if !agent.Authenticated {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	req, err := h.repos.PaymentRequest.GetByLinkID(c.Params("linkId"))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not_found", "payment link not found")
	}

	now := time.Now()
	switch req.EffectiveStatus(now) {
	case models.LINK_STATUS_PENDING:
		// payable
	case models.LINK_STATUS_EXPIRED:
		return jsonError(c, fiber.StatusGone, "expired", "payment link has expired")
	default:
		return jsonError(c, fiber.StatusConflict, "invalid_transition", "payment link is no longer payable")
	}

	plan, feePlan, err := h.gateway.ExpectedPlan(c.Context(), req, agent.WalletAddress)
	if err != nil {
		if fees.IsPriceUnavailable(err) {
			return jsonError(c, fiber.StatusServiceUnavailable, "price_unavailable", "reward token price unavailable, retry later")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", err.Error())
	}

	payToken, err := tokens.Lookup(req.Network, req.Token)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", err.Error())
	}
	feeDecimals := h.cfg.RewardToken.Decimals
	if feePlan.DeductedFromPayment {
		feeDecimals = payToken.Decimals
	}

	var priceUSD interface{}
	if feePlan.RewardPriceUSD != nil {
		priceUSD = feePlan.RewardPriceUSD.FloatString(8)
	}

	transfers := make([]fiber.Map, 0, len(plan))
	for _, leg := range plan {
		decimals := payToken.Decimals
		if leg.Token == h.cfg.RewardToken.Symbol {
			decimals = h.cfg.RewardToken.Decimals
		}
		transfers = append(transfers, fiber.Map{
			"description":  leg.Description,
			"token":        leg.Token,
			"tokenAddress": leg.TokenAddress,
			"amount":       tokens.FormatAmount(leg.Amount, decimals),
			"to":           leg.To,
		})
	}

	amount, err := tokens.ParseAmount(req.Amount, payToken.Decimals)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", err.Error())
	}
	creatorReceives := new(big.Int).Set(amount)
	if feePlan.DeductedFromPayment {
		creatorReceives.Sub(creatorReceives, feePlan.FeeTotal)
	}

	return c.JSON(fiber.Map{
		"payment": linkResponse(req, h.cfg.PublicBaseURL),
		"fee": fiber.Map{
			"feeToken":               feePlan.FeeToken,
			"feeTotal":               tokens.FormatAmount(feePlan.FeeTotal, feeDecimals),
			"platformShare":          tokens.FormatAmount(feePlan.PlatformShare, feeDecimals),
			"creatorReward":          tokens.FormatAmount(feePlan.CreatorReward, feeDecimals),
			"feeDeductedFromPayment": feePlan.DeductedFromPayment,
			"lcxPriceUsd":            priceUSD,
			"payerBalance":           tokens.FormatAmount(feePlan.PayerBalance, h.cfg.RewardToken.Decimals),
		},
		"transfers":       transfers,
		"creatorReceives": tokens.FormatAmount(creatorReceives, payToken.Decimals),
	})
}
