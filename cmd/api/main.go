package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/infra/http/handlers"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/infra/worker"
	"github.com/xavierca1/leadflow/internal/usecase"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	config.SetupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	health := handlers.NewHealthHandler(version)

	// 1. Lead store
	store, closeStore, err := buildStore(cfg, health)
	if err != nil {
		log.Fatal().Err(err).Msg("open lead store")
	}
	defer closeStore()

	// 2. Gateways and adapters
	sink := buildSink(cfg, store, health)
	transport := buildTransport(cfg, health)

	generator, err := buildGenerator(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create reply generator")
	}

	backend, err := buildFollowUpBackend(cfg, health)
	if err != nil {
		log.Fatal().Err(err).Msg("connect follow-up backend")
	}
	defer backend.Close()

	// 3. UseCases
	gate, err := usecase.NewCompletenessGate(cfg.RequiredFields())
	if err != nil {
		log.Fatal().Err(err).Msg("completeness rule")
	}

	var followUps *usecase.FollowUpScheduler
	if backend.Publisher != nil {
		followUps = usecase.NewFollowUpScheduler(backend.Publisher, cfg.FollowUpSecret, cfg.Campaign())
	}

	chatUC := usecase.NewChatTurnUseCase(generator, gate, sink, buildNotifier(cfg, transport), followUps)
	sendFollowUpUC := usecase.NewSendFollowUpUseCase(cfg.FollowUpSecret, buildFollowUpMailer(cfg, transport), cfg.Campaign())
	statsUC := usecase.NewLeadStatsUseCase(store)

	// 4. Workers
	if err := startWorkers(ctx, cfg, backend, sendFollowUpUC); err != nil {
		log.Fatal().Err(err).Msg("start follow-up worker")
	}
	go worker.NewStatsWorker(statsUC, time.Minute).Start(ctx)

	// 5. Handlers and router
	limiter := middleware.NewRateLimiter(cfg.ChatRateLimit)
	go limiter.Run(ctx.Done())

	router := handlers.NewRouter(handlers.RouterConfig{
		Chat:            handlers.NewChatHandler(chatUC),
		Leads:           handlers.NewLeadHandler(store, statsUC),
		FollowUps:       handlers.NewFollowUpHandler(sendFollowUpUC),
		Health:          health,
		DashboardAPIKey: cfg.DashboardAPIKey,
		ChatLimiter:     limiter,
		AllowedOrigins:  cfg.Origins(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	if cfg.UsesDefaultAPIKey() {
		log.Warn().Msg("dashboard API key is the default; set DASHBOARD_API_KEY to change it")
	} else {
		log.Info().Msg("dashboard API key: custom key set")
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.StoreDriver).
			Str("followups", cfg.FollowUpBackend).
			Strs("required_fields", gate.RequiredFields()).
			Msg("leadflow listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
