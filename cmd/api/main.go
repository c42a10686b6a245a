package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hearthlabs/hearth-assistant/internal/anonymize"
	"github.com/hearthlabs/hearth-assistant/internal/api/router"
	"github.com/hearthlabs/hearth-assistant/internal/app/bootstrap"
	appconfig "github.com/hearthlabs/hearth-assistant/internal/config"
	"github.com/hearthlabs/hearth-assistant/internal/events"
	"github.com/hearthlabs/hearth-assistant/internal/http/handlers"
	"github.com/hearthlabs/hearth-assistant/internal/interaction"
	"github.com/hearthlabs/hearth-assistant/internal/observability/metrics"
	"github.com/hearthlabs/hearth-assistant/internal/policy"
	"github.com/hearthlabs/hearth-assistant/internal/privacy"
	"github.com/hearthlabs/hearth-assistant/internal/safety"
	"github.com/hearthlabs/hearth-assistant/pkg/logging"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting hearth-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.AnonymizationSecret == "" {
		logger.Error("ANONYMIZATION_SECRET must be set")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Backends: Redis for live data, Postgres for audit and archive. Each
	// degrades to in-memory or disabled when unconfigured.
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)

	defaultLevel, err := policy.ParseLevel(cfg.DefaultPrivacyLevel)
	if err != nil {
		logger.Warn("invalid default privacy level, using standard", "value", cfg.DefaultPrivacyLevel)
		defaultLevel = policy.LevelStandard
	}
	policies := bootstrap.BuildPolicyStore(redisClient, defaultLevel, logger)
	store := bootstrap.BuildInteractionStore(redisClient, logger)

	auditSvc, auditDB := bootstrap.BuildAuditService(ctx, cfg, logger)
	if auditDB != nil {
		defer auditDB.Close()
	}
	archiver, archivePool := bootstrap.BuildArchiver(ctx, cfg, logger)
	if archivePool != nil {
		defer archivePool.Close()
	}

	// Pipeline
	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	bus := events.NewBus(logger)
	gate := safety.NewGate(cfg.SafetyGateEnabled)
	collector := interaction.NewCollector(store, policies, gate, bus, logger,
		interaction.WithMetrics(pipelineMetrics))
	if archiver != nil {
		collector.Enforcer().WithArchiver(archiver)
	}

	if auditSvc != nil {
		bus.Subscribe(events.TypeInteractionCaptured, func(ctx context.Context, evt events.Event) error {
			captured, ok := evt.(events.InteractionCapturedV1)
			if !ok || captured.PurgedRecords == 0 {
				return nil
			}
			return auditSvc.LogRetentionPurge(ctx, captured.UserID, captured.PurgedRecords, "capture")
		})
	}

	filter := anonymize.NewFilter(policies,
		anonymize.NewHasher(cfg.AnonymizationSecret),
		anonymize.NewLaplaceNoise(time.Now().UnixNano()),
		logger)
	validator := privacy.NewValidator(privacy.NewDetector())

	// Handlers. The nil branches keep a typed-nil audit service out of the
	// handlers' interface fields.
	var interactions *handlers.InteractionHandler
	var privacyHandler *handlers.PrivacyHandler
	var auditHandler *handlers.AuditHandler
	if auditSvc != nil {
		interactions = handlers.NewInteractionHandler(collector, auditSvc, logger)
		privacyHandler = handlers.NewPrivacyHandler(filter, validator, policies, auditSvc, logger)
		auditHandler = handlers.NewAuditHandler(auditSvc, logger)
	} else {
		interactions = handlers.NewInteractionHandler(collector, nil, logger)
		privacyHandler = handlers.NewPrivacyHandler(filter, validator, policies, nil, logger)
		auditHandler = handlers.NewAuditHandler(nil, logger)
	}

	routerCfg := &router.Config{
		Logger:             logger,
		Interactions:       interactions,
		Privacy:            privacyHandler,
		Audit:              auditHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		CaptureRateLimit:   float64(cfg.CaptureRateLimit),
		CaptureRateBurst:   cfg.CaptureRateBurst,
	}
	r := router.New(routerCfg)

	// Background retention sweeper
	go collector.Enforcer().Run(ctx, cfg.RetentionSweepInterval)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
