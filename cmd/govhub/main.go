package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/watercord/NigeriaGovhub-sub001/internal/access"
	"github.com/watercord/NigeriaGovhub-sub001/internal/auth"
	"github.com/watercord/NigeriaGovhub-sub001/internal/config"
	"github.com/watercord/NigeriaGovhub-sub001/internal/content"
	"github.com/watercord/NigeriaGovhub-sub001/internal/db"
	"github.com/watercord/NigeriaGovhub-sub001/internal/feedback"
	"github.com/watercord/NigeriaGovhub-sub001/internal/history"
	"github.com/watercord/NigeriaGovhub-sub001/internal/httpserver"
	"github.com/watercord/NigeriaGovhub-sub001/internal/logging"
	"github.com/watercord/NigeriaGovhub-sub001/internal/metrics"
	"github.com/watercord/NigeriaGovhub-sub001/internal/pages"
	"github.com/watercord/NigeriaGovhub-sub001/internal/sentiment"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("govhub exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	dbConn, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer dbConn.Close()

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	userStore := auth.NewStore(dbConn)
	n, err := auth.SeedFromFile(ctx, userStore, cfg.UsersPath)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	logger.Info("users seeded", "created", n)
	authSvc := auth.NewService(userStore, cfg.JWTSecret, cfg.SessionCookie)

	contentStore := content.NewStore(dbConn)
	if cfg.ContentPath != "" {
		items, err := content.LoadSeed(cfg.ContentPath)
		if err != nil {
			return fmt.Errorf("load content seed: %w", err)
		}
		n, err := contentStore.Seed(ctx, items)
		if err != nil {
			return fmt.Errorf("seed content: %w", err)
		}
		logger.Info("content seeded", "created", n, "listed", len(items))
	}

	var historyStore history.Store = history.NewMemoryStore(cfg.HistoryLimit)
	if cfg.RedisURL != "" {
		rdb, err := history.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		historyStore = history.NewRedisStore(rdb, cfg.HistoryLimit, history.DefaultTTL)
		logger.Info("search history backed by redis")
	}

	var summarizer sentiment.Summarizer
	switch s, err := sentiment.New(ctx, cfg.AI); {
	case err == nil:
		summarizer = s
		logger.Info("feedback summaries enabled", "provider", cfg.AI.Provider)
	case errors.Is(err, sentiment.ErrNotConfigured):
		logger.Info("feedback summaries disabled")
	default:
		return fmt.Errorf("sentiment provider: %w", err)
	}

	m := metrics.New()
	gate := access.NewGate(logger, m)
	feedbackStore := feedback.NewStore(dbConn)

	pg, err := pages.New()
	if err != nil {
		return err
	}
	pg.Auth = authSvc
	pg.Content = contentStore
	pg.Feedback = feedbackStore
	pg.History = historyStore
	pg.Gate = gate
	pg.Metrics = m
	pg.Logger = logger

	handler := httpserver.NewRouter(httpserver.Deps{
		Logger:    logger,
		Auth:      authSvc,
		Gate:      gate,
		Metrics:   m,
		Content:   &content.Handler{Store: contentStore, History: historyStore, Metrics: m, Logger: logger},
		History:   &history.Handler{Store: historyStore, Logger: logger},
		Feedback:  &feedback.Handler{Store: feedbackStore, Items: contentStore, Metrics: m, Logger: logger},
		Sentiment: &sentiment.Handler{Summarizer: summarizer, Feedback: feedbackStore, Metrics: m, Logger: logger},
		Pages:     pg,
	})

	return httpserver.New(cfg.HTTPAddr, handler, logger).Run(ctx)
}
