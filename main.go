package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mydebts/mydebts-be/internal/api"
	"github.com/mydebts/mydebts-be/internal/cache"
	"github.com/mydebts/mydebts-be/internal/captcha"
	"github.com/mydebts/mydebts-be/internal/config"
	"github.com/mydebts/mydebts-be/internal/database"
	"github.com/mydebts/mydebts-be/internal/logger"
	"github.com/mydebts/mydebts-be/internal/monitoring"
	"github.com/mydebts/mydebts-be/internal/services"
	"github.com/mydebts/mydebts-be/internal/websocket"
)

func main() {
	logger.Init()

	// Debt amounts are JSON numbers on the wire, matching the frontend.
	decimal.MarshalJSONWithoutQuotes = true

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Optional Redis cache for per-user debt lists
	debtCache := cache.NewDebtCache(cfg.RedisAddr)
	if debtCache == nil {
		log.Info().Msg("REDIS_ADDR not set, debt-list caching disabled")
	}

	// Captcha verification; disabled when no secret is configured
	var verifier captcha.Verifier = captcha.Noop{}
	if cfg.TurnstileSecret != "" {
		verifier = captcha.NewTurnstile(cfg.TurnstileSecret)
	} else {
		log.Warn().Msg("TURNSTILE_SECRET not set, captcha verification disabled")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	userService := services.NewUserService(db)
	debtService := services.NewDebtService(db, debtCache, hub)

	// Set up and run the nightly overdue marker
	overdueMarker := monitoring.NewOverdueMarker(debtService)
	go overdueMarker.Run()

	// Set up router
	router := api.NewRouter(hub, debtService, userService, verifier, cfg.FrontendOrigin)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	overdueMarker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
