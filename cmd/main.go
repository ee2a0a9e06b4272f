package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-service/internal/authz"
	"catalog-service/internal/handler"
	"catalog-service/internal/metrics"
	mid "catalog-service/internal/middleware"
	"catalog-service/internal/revocation"
	"catalog-service/internal/service"
	"catalog-service/internal/validation"
	"catalog-service/pkg/config"
	"catalog-service/pkg/database"
	"catalog-service/pkg/jwtutil"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const serviceName = "catalog-service"

func main() {
	// Load configuration
	appConfig, err := config.Load(serviceName)
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: serviceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer func() { _ = log.Sync() }()

	log.Info("Starting catalog-service", appConfig.LogConfig()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize the entity store
	st, err := database.OpenStore(ctx, appConfig, log)
	if err != nil {
		log.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("Failed to close store", zap.Error(err))
		}
	}()

	// Initialize Prometheus metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(appConfig.Metrics.Prefix, registry)
	log.Info("Prometheus metrics initialized", zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Token revocation list
	var revoked revocation.List = revocation.Noop{}
	if appConfig.Redis.Addr != "" {
		client, err := revocation.NewClient(ctx, appConfig.Redis.Addr, appConfig.Redis.Password, appConfig.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = client.Close() }()
		revoked = revocation.NewRedisList(client)
		log.Info("Token revocation list enabled", zap.String("redis_addr", appConfig.Redis.Addr))
	}

	// Services
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey: appConfig.JWT.SigningKey,
		Expiration: appConfig.JWT.Expiration,
	})
	v := validation.New()
	authService := service.NewAuthService(st.Users(), jwt, revoked, v, appMetrics)
	catalog := service.NewCatalogService(st, authz.NewOwnerPolicy(), v, appMetrics)
	imports := service.NewImportService(catalog, appMetrics)

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     appConfig.Server.AllowedOrigins,
		AllowCredentials: true,
	}))
	e.Use(mid.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(mid.MetricsMiddleware(appMetrics))

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(registry)))

	handler.RegisterRoutes(e, handler.Handlers{
		Auth:      handler.NewAuthHandler(authService, appConfig.Cookie),
		Category:  handler.NewCategoryHandler(catalog),
		Product:   handler.NewProductHandler(catalog),
		Inventory: handler.NewInventoryHandler(catalog),
		Upload:    handler.NewUploadHandler(imports),
		Health:    handler.NewHealthHandler(serviceName),
	}, authService, appConfig)

	// Start server
	port := appConfig.Server.Port
	go func() {
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
