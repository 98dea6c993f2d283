package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/microlearn/payments/internal/application/checkout"
	"github.com/microlearn/payments/internal/bootstrap"
	"github.com/microlearn/payments/internal/gateway"
	infraRedis "github.com/microlearn/payments/internal/infrastructure/redis"
	appHTTP "github.com/microlearn/payments/internal/interfaces/http"
	"github.com/microlearn/payments/internal/repository/postgres"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "payments-api", "microlearn")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	cfg := app.Config

	// --- Repositories ---
	paymentRepo := postgres.NewPaymentRepository(app.Pool)
	enrollmentRepo := postgres.NewEnrollmentRepository(app.Pool)
	courseRepo := postgres.NewCourseRepository(app.Pool)
	userRepo := postgres.NewUserRepository(app.Pool)

	// --- Gateway and queue ---
	gw := gateway.NewSSLCommerz(gateway.SSLCommerzConfig{
		StoreID:       cfg.Gateway.StoreID,
		StorePassword: cfg.Gateway.StorePassword,
		Live:          cfg.Gateway.Live,
		Timeout:       cfg.Gateway.Timeout,
	})
	producer := infraRedis.NewProducer(app.Redis)

	policies := checkout.Policies{
		Validation: infraRedis.EnqueueOptions{
			MaxAttempts: cfg.Queue.ValidationMaxAttempts,
			Backoff: infraRedis.BackoffPolicy{
				Initial:    cfg.Queue.BackoffInitial,
				Max:        cfg.Queue.BackoffMax,
				Multiplier: cfg.Queue.BackoffFactor,
			},
		},
		Enrollment: infraRedis.EnqueueOptions{
			MaxAttempts: cfg.Queue.EnrollmentMaxAttempts,
			Backoff: infraRedis.BackoffPolicy{
				Initial:    cfg.Queue.BackoffInitial,
				Max:        cfg.Queue.BackoffMax,
				Multiplier: cfg.Queue.BackoffFactor,
			},
		},
	}

	callbackBase := cfg.URLs.Backend + "/api/v1/courses/payment"
	urls := checkout.CallbackURLs{
		Success: callbackBase + "/success",
		Fail:    callbackBase + "/fail",
		Cancel:  callbackBase + "/cancel",
		IPN:     callbackBase + "/ipn",
	}

	// --- Use cases ---
	initiateUC := checkout.NewInitiatePaymentUseCase(courseRepo, userRepo, paymentRepo, enrollmentRepo, gw, urls)
	confirmUC := checkout.NewConfirmPaymentUseCase(paymentRepo, gw, producer, policies)
	successUC := checkout.NewProcessSuccessUseCase(paymentRepo, producer, confirmUC, policies, cfg.Gateway.InlineTimeout, app.Logger)
	failUC := checkout.NewFailPaymentUseCase(paymentRepo)

	// --- Build router ---
	router := appHTTP.NewRouter(appHTTP.RouterDeps{
		Pool:        app.Pool,
		RedisClient: app.Redis,
		InitiateUC:  initiateUC,
		SuccessUC:   successUC,
		FailUC:      failUC,
		PaymentRepo: paymentRepo,
		Metrics:     app.Metrics,
		CORSConfig:  cfg.Server.CORS,
		JWTSecret:   cfg.Auth.JWTSecret,
		FrontendURL: cfg.URLs.Frontend,
		Logger:      app.Logger,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
