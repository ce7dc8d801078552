package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cloudemu/engine/internal/api"
	"github.com/cloudemu/engine/internal/api/handlers"
	"github.com/cloudemu/engine/internal/auth"
	"github.com/cloudemu/engine/internal/console"
	"github.com/cloudemu/engine/internal/events"
	"github.com/cloudemu/engine/internal/lock"
	"github.com/cloudemu/engine/internal/metrics"
	"github.com/cloudemu/engine/internal/models"
	"github.com/cloudemu/engine/internal/queue/tasks"
	"github.com/cloudemu/engine/internal/repository"
	"github.com/cloudemu/engine/internal/runtime"
	"github.com/cloudemu/engine/internal/services"
	"github.com/cloudemu/engine/pkg/config"
	"github.com/cloudemu/engine/pkg/database"
	"github.com/cloudemu/engine/pkg/logger"
)

const lockTTL = 2 * time.Minute

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("starting cloud emulator",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
	)

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	log.Info("database connected")

	rt, err := runtime.NewDocker(cfg.RuntimeTimeout)
	if err != nil {
		log.Fatal("failed to create runtime client", zap.Error(err))
	}
	defer rt.Close()

	waitCtx, cancelWait := context.WithTimeout(ctx, 30*time.Second)
	if err := runtime.WaitReady(waitCtx, rt); err != nil {
		log.Warn("container runtime not reachable yet", zap.Error(err))
	}
	cancelWait()

	var locker lock.Locker = lock.NewLocal()
	var reaper services.OrphanReaper
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("redis connection failed", zap.Error(err))
		}
		locker = lock.NewRedis(rdb, lockTTL)

		q := tasks.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer q.Close()
		reaper = q
		log.Info("redis locks and cleanup queue enabled", zap.String("redis", cfg.RedisAddr))
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nc, err := events.NewNATS(cfg.NATSURL)
		if err != nil {
			log.Fatal("nats connection failed", zap.Error(err))
		}
		publisher = nc
	}
	defer publisher.Close()

	m := metrics.New(nil)

	lc := services.Lifecycle{
		Runtime:        rt,
		Locker:         locker,
		Events:         publisher,
		Metrics:        m,
		Reaper:         reaper,
		CleanupOrphans: cfg.CleanupOrphans,
	}

	userRepo := repository.NewUserRepository(db)
	computeSvc := services.NewComputeService(repository.NewInstanceRepository(db), lc)
	databaseSvc := services.NewDatabaseService(repository.NewDBInstanceRepository(db), cfg.DBEndpointHost, lc)

	jwtSecret := []byte(cfg.JWTSecret)
	if len(jwtSecret) == 0 {
		log.Warn("JWT_SECRET not set, using default (INSECURE for production)")
		jwtSecret = []byte("change-me-in-production-please")
	}
	tokens := auth.NewTokens(jwtSecret, auth.DefaultTTL)
	verifier := auth.NewVerifier(tokens, userRepo)

	bridge := console.NewBridge(rt, computeSvc, verifier, console.Options{
		PollInterval: cfg.ConsolePollInterval,
		Metrics:      m,
	})

	router := api.NewRouter(api.Dependencies{
		Verifier:        verifier,
		CORSOrigins:     cfg.CORSOrigins,
		TrustProxy:      cfg.TrustProxy,
		AuthHandler:     handlers.NewAuthHandler(services.NewAuthService(userRepo, tokens)),
		ComputeHandler:  handlers.NewComputeHandler(computeSvc, bridge),
		DatabaseHandler: handlers.NewDatabaseHandler(databaseSvc),
		HealthHandler: handlers.NewHealthHandler(map[string]handlers.Check{
			"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
			"runtime":  rt.Ping,
		}),
		Metrics: m.Handler(),
	})

	// No WriteTimeout: console sessions hold the connection open.
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
