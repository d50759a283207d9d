package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agentpayhq/agentpay/app/repository"
	"github.com/agentpayhq/agentpay/internal/pkg/config"
	"github.com/agentpayhq/agentpay/internal/pkg/settlement"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Deps carries the wired application services into the routers.
type Deps struct {
	Config  *config.Config
	Repos   *repository.Repositories
	Gateway *settlement.Gateway
}

func InstallRouter(app *fiber.App, deps *Deps) {
	setup(app, NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
