package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jgstylez/blackowndemand-backend/api/routes"
	"github.com/jgstylez/blackowndemand-backend/internal/billing"
	"github.com/jgstylez/blackowndemand-backend/internal/nmi"
	"github.com/jgstylez/blackowndemand-backend/internal/payments"
	"github.com/jgstylez/blackowndemand-backend/pkg/config"
	"github.com/jgstylez/blackowndemand-backend/pkg/db"
	"github.com/jgstylez/blackowndemand-backend/pkg/logger"
	"github.com/jgstylez/blackowndemand-backend/pkg/metrics"
	"github.com/jgstylez/blackowndemand-backend/pkg/migrate"
	"github.com/jgstylez/blackowndemand-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// Redis is optional: without it the payment rate limiter disables itself.
	var redisClient *redis.Client
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, payment rate limiting disabled")
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(promRegistry)

	gatewayClient := nmi.NewClient(cfg.NMI, logg)

	billingWriter, err := billing.NewWriter(billing.WriterParams{
		Repo:            billing.NewRepository(dbClient.DB()),
		Logger:          logg,
		Provider:        cfg.Billing.PaymentProvider,
		RequireBusiness: cfg.Billing.RequireBusiness,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing writer", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Gateway:             gatewayClient,
		Recorder:            billingWriter,
		Logger:              logg,
		Metrics:             paymentMetrics,
		StrictNetworkErrors: cfg.NMI.StrictNetworkErrors,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"gateway_env": gatewayClient.Environment(),
	})
	if !gatewayClient.Configured() {
		logg.Warn(ctx, "no gateway security key configured, all payments will be simulated")
	}
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, paymentService, promRegistry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
