// Package main runs the membership backend HTTP server with the daily
// auto-termination sweeper and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/assohub/backend/config"
	"github.com/assohub/backend/internal/activities"
	"github.com/assohub/backend/internal/audit"
	"github.com/assohub/backend/internal/members"
	"github.com/assohub/backend/internal/membership"
	"github.com/assohub/backend/internal/middleware"
	"github.com/assohub/backend/internal/organizations"
	"github.com/assohub/backend/internal/recognition"
	"github.com/assohub/backend/internal/scheduler"
	"github.com/assohub/backend/internal/statistics"
	"github.com/assohub/backend/pkg/clock"
	"github.com/assohub/backend/pkg/database"
	"github.com/assohub/backend/pkg/redis"
	"github.com/assohub/backend/pkg/response"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	clk := clock.Real{}
	auditSink := audit.NewSink(rdb.Client, logger)

	// Organizations and settings
	orgRepo := organizations.NewRepository(pool)
	settingsRepo := recognition.NewRepository(pool)
	settingsCache := recognition.NewSettingsCache(settingsRepo, clk, recognition.DefaultTTL, logger)
	orgHandler := organizations.NewHandler(orgRepo, settingsRepo, settingsCache)

	// Members and membership lifecycle
	memberRepo := members.NewRepository(pool)
	memberHandler := members.NewHandler(memberRepo)
	membershipRepo := membership.NewRepository(pool)
	membershipService := membership.NewService(membershipRepo, auditSink, clk, logger)
	membershipHandler := membership.NewHandler(membershipService)

	// Statistics
	statsRepo := statistics.NewRepository(pool)
	aggregator := statistics.NewAggregator(statsRepo, settingsCache, clk, logger)
	statsHandler := statistics.NewHandler(statsRepo, aggregator)

	// Activities and participations
	activityRepo := activities.NewRepository(pool)
	activityHandler := activities.NewHandler(activityRepo, aggregator, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	router.POST("/organizations", orgHandler.Create)
	router.GET("/organizations/:id/settings", orgHandler.GetSettings)
	router.PUT("/organizations/:id/settings", orgHandler.UpdateSettings)

	// Organization-scoped API; tenancy is resolved upstream and arrives as a
	// header.
	api := router.Group("")
	api.Use(middleware.RequireOrganization())
	{
		api.POST("/members", memberHandler.Create)
		api.GET("/members", memberHandler.List)
		api.GET("/members/:id", memberHandler.GetByID)
		api.PUT("/members/:id/details", memberHandler.UpdateDetails)
		api.GET("/members/:id/status", membershipHandler.GetStatus)
		api.POST("/members/:id/periods", membershipHandler.Activate)
		api.GET("/members/:id/periods", membershipHandler.GetHistory)
		api.DELETE("/periods/:id", membershipHandler.Terminate)

		api.POST("/activities", activityHandler.CreateActivity)
		api.PATCH("/activities/:id", activityHandler.UpdateActivity)
		api.POST("/activities/:id/participations", activityHandler.CreateParticipation)
		api.PATCH("/participations/:id", activityHandler.UpdateParticipation)
		api.DELETE("/participations/:id", activityHandler.DeleteParticipation)

		api.GET("/members/:id/statistics", statsHandler.ListByMember)
		api.GET("/members/:id/statistics/:year", statsHandler.GetByYear)
		api.POST("/members/:id/statistics", statsHandler.Recalculate)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	var sweeper *scheduler.Sweeper
	if cfg.Scheduler.Enabled {
		sweeper = scheduler.NewSweeper(orgRepo, membershipRepo, settingsCache, auditSink,
			clk, time.Duration(cfg.Scheduler.PollInterval)*time.Second, logger)
		sweeper.Start(context.Background())
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if sweeper != nil {
		sweeper.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
