package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/platewise/meal-selection/internal/config"
	"github.com/platewise/meal-selection/internal/database"
	"github.com/platewise/meal-selection/internal/handler"
	"github.com/platewise/meal-selection/internal/middleware"
	"github.com/platewise/meal-selection/internal/queue"
	"github.com/platewise/meal-selection/internal/repository"
	"github.com/platewise/meal-selection/internal/router"
	"github.com/platewise/meal-selection/internal/selection"
	"github.com/platewise/meal-selection/internal/service"
)

func main() {
	// Load .env when present; real deployments rely on the environment.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; without it drafts are not recoverable and the
	// cache/rate-limit middleware become pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; draft persistence, caching and rate limiting disabled")
	}

	planRepo := repository.NewPlanRepo(db)
	menuRepo := repository.NewMenuItemRepo(db)
	stagingRepo := repository.NewStagingRepo(db)
	store := repository.NewSelectionStore(db, menuRepo, stagingRepo)

	drafts := selection.NewRedisDraftStore(rdb, cfg.DraftTTL)
	publisher := service.NewAMQPPublisher()
	proposer := service.NewProposer(planRepo, store, publisher, drafts, "selection-api")

	menuHandler := handler.NewMenuHandler(planRepo, menuRepo)
	selectionHandler := handler.NewSelectionHandler(planRepo, proposer, drafts, cfg.CheckoutURL)
	checkoutHandler := handler.NewCheckoutHandler(stagingRepo)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterPublic(e, menuHandler, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterCustomer(e, selectionHandler, checkoutHandler, cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Background consumer that logs staged selections from the broker.
	go func() {
		if err := queue.StartSelectionConsumer(); err != nil {
			log.Printf("selection consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
