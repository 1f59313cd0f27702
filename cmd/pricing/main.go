package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"pressmarket/internal/config"
	cronrunner "pressmarket/internal/cron"
	"pressmarket/internal/db"
	"pressmarket/internal/engine"
	"pressmarket/internal/handler"
	"pressmarket/internal/logger"
	gormrepository "pressmarket/internal/repository/gorm"
	"pressmarket/internal/service"
	signalpkg "pressmarket/internal/signal"
	"pressmarket/internal/stream"
	"pressmarket/internal/tuning"

	_ "pressmarket/docs"
)

func main() {
	cfgPath := os.Getenv("PM_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PM_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	cache := &tuning.Cache{Repo: store, Logger: logger}
	settingsSvc := &service.SettingsService{Repo: store, Cache: cache, Logger: logger}
	if err := settingsSvc.EnsureDefaults(context.Background()); err != nil {
		logger.Fatal("seed tunable defaults failed", zap.Error(err))
	}

	hub := stream.NewHub(logger)
	committer := &service.PriceCommitService{Repo: store, Hub: hub, Logger: logger}
	collector := &signalpkg.Collector{Repo: store, Logger: logger, Window: cfg.Engine.SignalWindow}
	priceEngine := engine.New(store, collector, committer, cache, logger, cfg.Engine.Workers)

	oppSvc := &service.OpportunityService{Repo: store, Logger: logger}
	trendSvc := &service.TrendService{Repo: store}
	autoClose := &service.AutoCloseService{Repo: store, Logger: logger}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(router)
	oppHandler := &handler.OpportunityHandler{
		Opportunities: oppSvc,
		Trend:         trendSvc,
		Engine:        priceEngine,
	}
	oppHandler.Register(router)
	pricingHandler := &handler.PricingHandler{Settings: settingsSvc}
	pricingHandler.Register(router)
	webhookHandler := &handler.WebhookHandler{
		Repo:      store,
		Engine:    priceEngine,
		Logger:    logger,
		EngineTag: cfg.Webhook.EngineTag,
	}
	webhookHandler.Register(router)
	streamHandler := &handler.StreamHandler{Hub: hub, Logger: logger}
	streamHandler.Register(router)

	handler.RegisterDocs(router)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		_, err = cronRunner.Add(cfg.Cron.DeadlineSweep, func(ctx context.Context) {
			if _, err := autoClose.SweepOnce(ctx); err != nil {
				logger.Warn("cron deadline sweep failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register deadline sweep failed", zap.Error(err))
		}
		retention := cfg.Engine.ClickRetention
		if retention <= 0 {
			retention = 30 * 24 * time.Hour
		}
		_, err = cronRunner.Add(cfg.Cron.ClickPrune, func(ctx context.Context) {
			before := time.Now().UTC().Add(-retention)
			n, err := store.DeleteClickEventsBefore(ctx, before)
			if err != nil {
				logger.Warn("cron click prune failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("pruned click events", zap.Int64("count", n))
			}
		})
		if err != nil {
			logger.Warn("cron register click prune failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	if cfg.Engine.Enabled {
		go func() {
			if err := priceEngine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("pricing engine stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
