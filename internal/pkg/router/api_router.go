package router

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/agentpayhq/agentpay/app/controllers"
	"github.com/agentpayhq/agentpay/internal/pkg/env"
	"github.com/agentpayhq/agentpay/internal/pkg/middleware"
)

// ApiRouter wires the settlement API under /api/v1.
type ApiRouter struct {
	deps *Deps
}

func NewApiRouter(deps *Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "AgentPay settlement API",
		})
	})

	v1 := api.Group("/v1")
	v1.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"status": "ok"})
	})

	linkAPI := controllers.NewLinkAPI(h.deps.Config, h.deps.Repos, h.deps.Gateway)
	verifyAPI := controllers.NewVerifyAPI(h.deps.Gateway)

	// Every mutating and fee-revealing route sits behind the signed-request
	// authenticator.
	signed := v1.Group("", middleware.AgentAuthMiddleware(h.deps.Repos.AgentCredential, h.deps.Config.ReplayWindow))
	signed.Post("/links", linkAPI.HandleCreateLink)
	signed.Get("/links", linkAPI.HandleListLinks)
	signed.Get("/links/:linkId", linkAPI.HandleGetLink)
	signed.Post("/links/:linkId/cancel", linkAPI.HandleCancelLink)
	signed.Get("/links/:linkId/instructions", linkAPI.HandleGetInstructions)
	signed.Post("/verify", verifyAPI.HandleVerify)
}

// newLimiterStorage backs the rate limiter with Redis (database 1, the price
// cache uses 0) so limits hold across instances.
func newLimiterStorage() *redisstorage.Storage {
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	return redisstorage.New(redisstorage.Config{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     port,
		Database: 1,
		Reset:    false,
	})
}
