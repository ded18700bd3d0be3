package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mizuhara/dyntraits/internal/handlers"
	"github.com/mizuhara/dyntraits/internal/infrastructure/config"
	"github.com/mizuhara/dyntraits/internal/infrastructure/database"
	"github.com/mizuhara/dyntraits/internal/infrastructure/logger"
	"github.com/mizuhara/dyntraits/internal/infrastructure/metrics"
	"github.com/mizuhara/dyntraits/internal/infrastructure/watch"
	"github.com/mizuhara/dyntraits/internal/repositories/postgres"
	"github.com/mizuhara/dyntraits/internal/services"
	"github.com/mizuhara/dyntraits/internal/services/traits"
	"github.com/mizuhara/dyntraits/pkg/cache"
	"github.com/mizuhara/dyntraits/pkg/cache/memorycache"
)

const defaultEnv = "dev"

func main() {
	env := os.Getenv("ENV")
	if env == "" {
		env = defaultEnv
	}

	if err := config.InitConfig(env); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize config: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.InitGlobal(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	log := logger.Global()

	// Connect to database
	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pg.Close()

	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Database).
		Msg("connected to database")

	// Initialize repositories
	schemaRepo := postgres.NewPostgresSchemaRepository(pg.DB)
	traitRepo := postgres.NewPostgresTraitRepository(pg.DB)
	eventRepo := postgres.NewPostgresEventRepository(pg.DB)

	// Read cache for denormalized trait lookups
	var readCache cache.Cache
	if cfg.Cache.Enabled {
		readCache, err = memorycache.New(&memorycache.Config{
			MaxSizeBytes:  cfg.Cache.MaxMemoryBytes,
			DefaultTTL:    time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
			EnableMetrics: cfg.Cache.Metrics,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create read cache")
		}
		defer readCache.Close()
	}

	// Metrics
	collector := metrics.NewCollector()
	if readCache != nil {
		collector.SetCache(readCache)
	}
	exporter := metrics.NewPrometheusExporter(collector)
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			exporter.Update()
		}
	}()

	// Trait update authorization
	var policy traits.AccessPolicy
	if cfg.Auth.PolicyExpression != "" {
		policy, err = traits.NewCELPolicy(cfg.Auth.PolicyExpression)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to compile authorization policy")
		}
		log.Info().Msg("using CEL authorization policy")
	} else {
		policy = traits.NewRolePolicy(cfg.Auth.PrivilegedRoles...)
	}

	// Initialize services
	schemaService := services.NewSchemaService(schemaRepo, eventRepo)
	traitService := services.NewTraitService(
		schemaService,
		traitRepo,
		eventRepo,
		policy,
		readCache,
		time.Duration(cfg.Cache.TTLMinutes)*time.Minute,
		exporter,
		log,
	)

	// Reload schemas when peer instances update metadata
	watcher := watch.NewReloadWatcher(
		cfg.Database.ConnectionString(),
		postgres.SchemaChangedChannel,
		time.Duration(cfg.Cache.TTLMinutes)*time.Minute,
		func(ctx context.Context, contractID string) error {
			exporter.RecordSchemaReload()
			return schemaService.Reload(ctx, contractID)
		},
		log,
	)
	if err := watcher.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to start schema reload watcher")
	}
	defer watcher.Stop()

	// Routes
	wrap := func(operation string, next http.Handler) http.Handler {
		return metrics.Middleware(operation, collector, exporter, next)
	}
	mux := http.NewServeMux()
	handlers.NewTraitHandler(traitService).Register(mux, wrap)
	handlers.NewSchemaHandler(schemaService).Register(mux, wrap)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.HealthCheck(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler: promhttp.Handler(),
	}

	serverErrors := make(chan error, 2)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()
	go func() {
		log.Info().Str("addr", metricsServer.Addr).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-serverErrors:
		log.Fatal().Err(err).Msg("server error")
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown timeout exceeded, forcing stop")
			_ = server.Close()
		}
		_ = metricsServer.Shutdown(shutdownCtx)

		if err := watcher.Stop(); err != nil {
			log.Warn().Err(err).Msg("error stopping reload watcher")
		}
		if err := pg.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing database connection")
		}

		log.Info().Msg("shutdown complete")
	}
}
