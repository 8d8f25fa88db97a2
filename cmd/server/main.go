package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/rumorpulse/internal/adapter/httpserver"
	"github.com/pscheid92/rumorpulse/internal/adapter/metrics"
	"github.com/pscheid92/rumorpulse/internal/app"
	"github.com/pscheid92/rumorpulse/internal/bootstrap"
	"github.com/pscheid92/rumorpulse/internal/crypto"
	"github.com/pscheid92/rumorpulse/internal/platform/config"
	"github.com/pscheid92/rumorpulse/internal/platform/logging"
	"github.com/pscheid92/rumorpulse/internal/platform/version"
	"github.com/pscheid92/rumorpulse/internal/reputation"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func healthChecks(store *bootstrap.Store, rdb *goredis.Client) []httpserver.HealthCheck {
	checks := []httpserver.HealthCheck{
		{Name: "store", Check: store.Ping},
	}
	if rdb != nil {
		checks = append(checks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}
	return checks
}

func run(ctx context.Context, cfg *config.Config) error {
	clock := clockwork.NewRealClock()
	registry := metrics.NewRegistry()
	m := metrics.NewSet(registry)

	store, err := bootstrap.OpenStore(ctx, cfg, m.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg, m.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// Pass nil explicitly to avoid a typed-nil interface.
	var leader app.Leader
	if elector := bootstrap.Leader(rdb, cfg, m.Redis); elector != nil {
		leader = elector
		slog.Info("Finalizer leader election enabled", "instance_id", cfg.InstanceID)
	}

	engine := reputation.NewEngine(store, clock, cfg.ReputationCacheTTL, m.Reputation)
	limits := app.ClaimLimits{MinDuration: cfg.MinClaimDuration, MaxDuration: cfg.MaxClaimDuration}
	svc := app.NewService(store, engine, crypto.NewEd25519Verifier(), clock, limits, m)
	if limiter := bootstrap.VoteLimiter(rdb, cfg, clock); limiter != nil {
		svc.SetVoteLimiter(limiter)
		slog.Info("Vote rate limit enabled", "burst", cfg.VoteRateBurst, "per_minute", cfg.VoteRatePerMinute)
	}
	finalizer := app.NewFinalizer(store, engine, clock, cfg.FinalizeInterval, cfg.FinalizeBatchSize, leader, m.Finalizer)

	srv := httpserver.NewServer(cfg, svc, healthChecks(store, rdb), m, registry, clock)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		finalizer.Run(gctx)
		return nil
	})

	g.Go(func() error {
		slog.Info("Server starting", "port", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}

func main() {
	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().Version, "in_memory", cfg.InMemory())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}
