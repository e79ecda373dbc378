package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/studhome/studhome-backend/api/routes"
	internalauth "github.com/studhome/studhome-backend/internal/auth"
	"github.com/studhome/studhome-backend/internal/houses"
	"github.com/studhome/studhome-backend/internal/notifications"
	"github.com/studhome/studhome-backend/internal/payments"
	"github.com/studhome/studhome-backend/internal/reconcile"
	"github.com/studhome/studhome-backend/internal/reservations"
	"github.com/studhome/studhome-backend/internal/savedhomes"
	"github.com/studhome/studhome-backend/internal/transactions"
	"github.com/studhome/studhome-backend/internal/users"
	"github.com/studhome/studhome-backend/pkg/auth/session"
	"github.com/studhome/studhome-backend/pkg/campay"
	"github.com/studhome/studhome-backend/pkg/config"
	"github.com/studhome/studhome-backend/pkg/db"
	"github.com/studhome/studhome-backend/pkg/logger"
	"github.com/studhome/studhome-backend/pkg/metrics"
	"github.com/studhome/studhome-backend/pkg/migrate"
	"github.com/studhome/studhome-backend/pkg/redis"
)

// Webhook markers outlive the gateway's retry window so replays are caught.
const webhookMarkerTTL = 48 * time.Hour

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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	campayClient, err := campay.NewClient(cfg.CamPay)
	if err != nil {
		logg.Error(context.Background(), "failed to create campay client", err)
		os.Exit(1)
	}

	mailer := notifications.NewMailer(cfg.Sendgrid)

	userRepo := users.NewRepository(dbClient.DB())
	houseRepo := houses.NewRepository(dbClient.DB())
	txnRepo := transactions.NewRepository(dbClient.DB())
	reservationRepo := reservations.NewRepository(dbClient.DB())
	savedHomeRepo := savedhomes.NewRepository(dbClient.DB())

	houseService, err := houses.NewService(houseRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create houses service", err)
		os.Exit(1)
	}

	txnService, err := transactions.NewService(txnRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	reservationService, err := reservations.NewService(dbClient, reservationRepo, houseRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create reservations service", err)
		os.Exit(1)
	}

	webhookGuard, err := reconcile.NewIdempotencyGuard(redisClient, webhookMarkerTTL, "campay-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	reconcileService, err := reconcile.NewService(
		txnService,
		reservationService,
		userRepo,
		houseRepo,
		campayClient,
		webhookGuard,
		mailer,
		paymentMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(
		txnService,
		reservationService,
		houseService,
		campayClient,
		cfg.CamPay,
		paymentMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	savedHomeService, err := savedhomes.NewService(savedHomeRepo, houseService)
	if err != nil {
		logg.Error(context.Background(), "failed to create saved-homes service", err)
		os.Exit(1)
	}

	authService, err := internalauth.NewService(userRepo, sessionManager, cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Sessions:     sessionManager,
			Auth:         authService,
			Houses:       houseService,
			Payments:     paymentService,
			Reconcile:    reconcileService,
			Transactions: txnService,
			Reservations: reservationService,
			SavedHomes:   savedHomeService,
			Metrics:      registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
