// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-marketplace/internal/config"
	"course-marketplace/internal/domain/ports/adapter"
	pg "course-marketplace/internal/infra/db/postgres"
	"course-marketplace/internal/infra/logging"
	"course-marketplace/internal/infra/metrics"
	payAdapters "course-marketplace/internal/infra/payment"
	red "course-marketplace/internal/infra/redis"
	"course-marketplace/internal/infra/sched"
	"course-marketplace/internal/infra/web"
	"course-marketplace/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	cacheInvalidator := red.NewCacheInvalidator(redisClient)

	var notifier adapter.EventNotifier
	if cfg.Runtime.Dev {
		notifier = red.NoopNotifier{}
	} else {
		notifier = red.NewEventNotifier(redisClient, "purchase.events", logger)
	}

	// ---- Repositories ----
	paymentRepo := pg.NewPaymentRepo(pool)
	transactionRepo := pg.NewTransactionRepo(pool)
	enrollmentRepo := pg.NewEnrollmentRepo(pool)
	courseRepo := pg.NewCourseRepo(pool)
	planRepo := pg.NewPlanRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev {
		gateway = payAdapters.NewNoopPaymentGateway()
		logger.Info().Msg("payment gateway: noop")
	} else {
		gateway, err = payAdapters.NewPaymeeGateway(
			cfg.Payment.Paymee.APIKey,
			cfg.Payment.Paymee.SecretKey,
			cfg.Payment.Paymee.VendorID,
			cfg.Payment.Paymee.ReturnURL,
			cfg.Payment.Paymee.Sandbox,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("paymee gateway")
		}
		logger.Info().Bool("sandbox", cfg.Payment.Paymee.Sandbox).Msg("payment gateway: paymee")
	}

	// ---- Use cases ----
	purchaseUC := usecase.NewPurchaseUseCase(
		paymentRepo, transactionRepo, enrollmentRepo,
		courseRepo, planRepo, userRepo,
		gateway, cacheInvalidator, notifier, txManager, logger,
	)

	// ---- Reconciler ----
	reconciler := sched.NewPaymentReconciler(purchaseUC, paymentRepo, gateway,
		cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger)
	go reconciler.Start(ctx)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret, cfg.Server.JWTTTL)
	srv := web.NewServer(purchaseUC, gateway, auth, rateLimiter,
		cfg.RateLimit.CheckoutPerMinute, cfg.Payment.Paymee.WebhookPath, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Routes(),
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
