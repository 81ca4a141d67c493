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
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"botpanel/internal/app"
	"botpanel/internal/client"
	"botpanel/internal/config"
	cronrunner "botpanel/internal/cron"
	"botpanel/internal/db"
	"botpanel/internal/handler"
	"botpanel/internal/logger"
	"botpanel/internal/metrics"
	"botpanel/internal/prefs"

	_ "botpanel/docs"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("BP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("BP_ENV_ONLY"); envOnlyRaw != "" {
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

	store, gdb, closeStore := openPrefs(cfg, logger)
	defer closeStore()

	m := metrics.New(prometheus.DefaultRegisterer)
	api := client.New(cfg.API, logger, m)
	panel, err := app.New(api, app.Options{
		UI:        cfg.UI,
		LogsLimit: cfg.API.LogsLimit,
		Prefs:     store,
		Logger:    logger,
		Metrics:   m,
	})
	if err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}
	defer panel.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := panel.Init(ctx); err != nil {
		logger.Warn("restore preferences failed", zap.Error(err))
	}
	logger.Info("backend", zap.String("base_url", cfg.API.BaseURL), zap.String("connection", string(panel.Connection())))

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	tmpl, err := handler.Templates()
	if err != nil {
		logger.Fatal("parse templates failed", zap.Error(err))
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.RequestLogger(logger))
	engine.Use(handler.ClientHints())
	engine.SetHTMLTemplate(tmpl)

	healthHandler := &handler.HealthHandler{App: panel, DB: gdb}
	healthHandler.Register(engine)
	dashboardHandler := &handler.DashboardHandler{
		App:         panel,
		Logger:      logger,
		PollSeconds: int(cfg.UI.PollInterval / time.Second),
	}
	dashboardHandler.Register(engine)
	stateHandler := &handler.StateHandler{App: panel}
	stateHandler.Register(engine)
	handler.RegisterMetrics(engine, prometheus.DefaultGatherer)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	cronRunner := cronrunner.New(logger, ctx)
	if err := panel.StartPolling(cronRunner); err != nil {
		logger.Fatal("schedule dashboard poll failed", zap.Error(err))
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	panel.StopPolling()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// openPrefs returns the preference store selected by prefs.backend. The
// gorm handle is non-nil only for the db backend. The app closes the store
// itself; the returned func releases the database connection.
func openPrefs(cfg config.Config, logger *zap.Logger) (prefs.Store, *gorm.DB, func()) {
	switch strings.ToLower(strings.TrimSpace(cfg.Prefs.Backend)) {
	case "db":
		conn, err := db.Open(cfg.DB)
		if err != nil {
			logger.Fatal("db open failed", zap.Error(err))
		}
		if err := db.AutoMigrate(conn); err != nil {
			logger.Fatal("auto-migrate failed", zap.Error(err))
		}
		return prefs.NewDBStore(conn.Gorm), conn.Gorm, func() { _ = db.Close(conn) }
	case "redis":
		store := prefs.NewRedisStore(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.Prefix)
		return store, nil, func() {}
	case "", "memory":
		return prefs.NewMemoryStore(), nil, func() {}
	default:
		logger.Warn("unknown prefs backend, using memory", zap.String("backend", cfg.Prefs.Backend))
		return prefs.NewMemoryStore(), nil, func() {}
	}
}
