package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/tickerbell/ticket-service/internal/api/http"
	"github.com/tickerbell/ticket-service/internal/api/http/handlers"
	"github.com/tickerbell/ticket-service/internal/auth"
	"github.com/tickerbell/ticket-service/internal/config"
	"github.com/tickerbell/ticket-service/internal/events"
	"github.com/tickerbell/ticket-service/internal/observability"
	"github.com/tickerbell/ticket-service/internal/persistence"
	"github.com/tickerbell/ticket-service/internal/repository"
	"github.com/tickerbell/ticket-service/internal/service"
	"github.com/tickerbell/ticket-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := observability.InitSentry(cfg.Sentry, cfg.App); err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
	}
	defer observability.FlushSentry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	members := repository.NewMemberRepository(pg.PoolHandle())
	if pg.PoolHandle() == nil {
		logger.Warn("using in-memory member store; members are lost on restart")
		members = repository.NewMemoryMemberRepository()
	}
	attempts := repository.NewLoginAttemptRepository(redis.Client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockWindow())

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger.Named("audit"), metrics))

	codec, err := auth.NewTokenCodec(cfg.Auth)
	if err != nil {
		logger.Fatal("failed to init token codec", zap.Error(err))
	}
	verifier, err := auth.NewCredentialVerifier(members, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("failed to init credential verifier", zap.Error(err))
	}

	loginFilter := auth.NewLoginFilter(auth.LoginFilterDependencies{
		Path:       cfg.Auth.LoginPath,
		Verifier:   verifier,
		Codec:      codec,
		Attempts:   attempts,
		Dispatcher: dispatcher,
		Logger:     logger.Named("login"),
	})
	refreshService := auth.NewRefreshService(auth.RefreshDependencies{
		Codec:      codec,
		Rotate:     cfg.Auth.RefreshRotation,
		Dispatcher: dispatcher,
		Logger:     logger.Named("refresh"),
	})
	memberService := service.NewMemberService(service.MemberDependencies{
		Members:    members,
		Dispatcher: dispatcher,
		Logger:     logger.Named("members"),
		BcryptCost: cfg.Auth.BcryptCost,
	})

	readiness := map[string]handlers.Pinger{"redis": redis}
	if pg.PoolHandle() != nil {
		readiness["postgres"] = pg
	}

	app := httptransport.NewApp(cfg.App, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Members:        handlers.NewMembersHandler(memberService),
		LoginFilter:    loginFilter,
		Refresh:        refreshService,
		AuthMiddleware: auth.NewAuthMiddleware(codec, nil),
		Metrics:        metrics.Handler(),
	})

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
