// Package main runs the auto-termination sweep once and exits. Useful for
// cron-style deployments and manual catch-up runs; the server embeds the
// same sweeper as a polling loop.
package main

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/assohub/backend/config"
	"github.com/assohub/backend/internal/audit"
	"github.com/assohub/backend/internal/membership"
	"github.com/assohub/backend/internal/organizations"
	"github.com/assohub/backend/internal/recognition"
	"github.com/assohub/backend/internal/scheduler"
	"github.com/assohub/backend/pkg/clock"
	"github.com/assohub/backend/pkg/database"
	"github.com/assohub/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	var auditSink *audit.Sink
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, audit events will only be logged", zap.Error(err))
		auditSink = audit.NewSink(nil, logger)
	} else {
		defer rdb.Close()
		auditSink = audit.NewSink(rdb.Client, logger)
	}

	clk := clock.Real{}
	orgRepo := organizations.NewRepository(pool)
	membershipRepo := membership.NewRepository(pool)
	settingsRepo := recognition.NewRepository(pool)
	settingsCache := recognition.NewSettingsCache(settingsRepo, clk, recognition.DefaultTTL, logger)

	sweeper := scheduler.NewSweeper(orgRepo, membershipRepo, settingsCache, auditSink, clk, 0, logger)
	sweeper.RunOnce(ctx)
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
