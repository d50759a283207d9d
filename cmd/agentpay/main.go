package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/agentpayhq/agentpay/app/repository"
	"github.com/agentpayhq/agentpay/internal/pkg/cache"
	"github.com/agentpayhq/agentpay/internal/pkg/chain"
	"github.com/agentpayhq/agentpay/internal/pkg/config"
	"github.com/agentpayhq/agentpay/internal/pkg/database"
	"github.com/agentpayhq/agentpay/internal/pkg/env"
	"github.com/agentpayhq/agentpay/internal/pkg/fees"
	"github.com/agentpayhq/agentpay/internal/pkg/oracle"
	"github.com/agentpayhq/agentpay/internal/pkg/router"
	"github.com/agentpayhq/agentpay/internal/pkg/settlement"
	"github.com/agentpayhq/agentpay/internal/pkg/sweeper"
)

func main() {
	app, sw := NewApplication()
	defer sw.Stop()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *sweeper.Sweeper) {
	env.SetupEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Config] invalid configuration: %v", err)
	}

	database.SetupDatabase()
	cache.SetupCache()

	// Find the project root whether started from the root or from cmd/agentpay
	basePaths := []string{
		"./",
		"../../",
	}
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}
	if basePath == "" {
		panic("Could not find project root directory")
	}

	repos := repository.NewRepositories(database.GetDB())
	repository.InitializeFactory(database.GetDB())

	oracleOpts := []oracle.Option{oracle.WithRedis(cache.GetClient())}
	if cfg.PriceServeStale {
		oracleOpts = append(oracleOpts, oracle.WithServeStale())
	}
	prices := oracle.NewCache(oracle.NewHTTPFetcher(cfg.PriceAPIURL), cfg.PriceTTL, oracleOpts...)

	resolver := fees.NewResolver(fees.Config{
		FixedFee:            cfg.FixedFee(),
		RewardTokenSymbol:   cfg.RewardToken.Symbol,
		RewardTokenAddress:  cfg.RewardToken.Address,
		RewardTokenDecimals: cfg.RewardToken.Decimals,
	}, prices)

	gateway := settlement.NewGateway(
		repos.PaymentRequest,
		repos.FeeTransaction,
		chain.NewEVMClient(cfg.RPCURLs),
		resolver,
		settlement.Config{
			Treasury:           cfg.TreasuryWallet,
			RewardTokenAddress: cfg.RewardToken.Address,
		},
	)

	sw := sweeper.New(repos.PaymentRequest, time.Minute)
	sw.Start()

	app := fiber.New(fiber.Config{
		AppName: "AgentPay",
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, &router.Deps{
		Config:  cfg,
		Repos:   repos,
		Gateway: gateway,
	})

	return app, sw
}
