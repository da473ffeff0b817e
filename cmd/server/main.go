package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"servicedesk/backend/internal/cache"
	"servicedesk/backend/internal/config"
	"servicedesk/backend/internal/httpapi"
	"servicedesk/backend/internal/service"
	"servicedesk/backend/internal/store"
	"servicedesk/backend/internal/store/memory"
	pgstore "servicedesk/backend/internal/store/postgres"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run database migrations (up|down|version) and exit")
	steps := flag.Int("steps", 0, "number of migration steps; 0 applies all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}
	logger := config.NewLogger(cfg.LogLevel)

	if *migrateCmd != "" {
		if cfg.DatabaseURL == "" {
			logger.Fatal("DATABASE_URL is required to run migrations")
		}
		version, err := pgstore.Migrate(cfg.DatabaseURL, *migrateCmd, *steps)
		if err != nil {
			logger.WithError(err).Fatal("migration failed")
		}
		logger.WithField("version", version).Info("migrations applied")
		return
	}

	if err := validateConfig(cfg); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.WithError(err).Fatal("invalid SETTLEMENT_TIMEZONE")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			version, err := pgstore.Migrate(cfg.DatabaseURL, "up", 0)
			if err != nil {
				logger.WithError(err).Fatal("migrate on start failed")
			}
			logger.WithField("version", version).Info("schema up to date")
		}
		pg, err := pgstore.New(ctx, cfg.DatabaseURL, loc)
		if err != nil {
			logger.WithError(err).Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback")
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		logger.Info("repository: in-memory")
	}

	snapshots := cache.SnapshotCache(cache.NoopSnapshotCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSnapshotCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.WithError(err).Warn("redis unavailable, using noop snapshot cache")
			_ = redisCache.Close()
		} else {
			snapshots = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("snapshot cache: redis")
		}
	} else {
		logger.Info("snapshot cache: noop")
	}

	svc, err := service.New(repo, service.Options{
		Location: loc,
		Currency: cfg.Currency,
		Cache:    snapshots,
		CacheTTL: cfg.SnapshotCacheTTL(),
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("build settlement service")
	}
	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{"addr": cfg.Address(), "timezone": loc.String(), "currency": svc.Currency()}).Info("settlement backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.WithError(err).Error("close error")
		}
	}

	logger.Info("server stopped")
}

func validateConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("SETTLEMENT_TIMEZONE: %w", err)
	}
	return nil
}
