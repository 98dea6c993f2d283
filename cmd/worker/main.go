package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/microlearn/payments/internal/application/checkout"
	appEnrollment "github.com/microlearn/payments/internal/application/enrollment"
	"github.com/microlearn/payments/internal/bootstrap"
	"github.com/microlearn/payments/internal/gateway"
	infraRedis "github.com/microlearn/payments/internal/infrastructure/redis"
	"github.com/microlearn/payments/internal/repository/postgres"
	"github.com/microlearn/payments/internal/worker"
)

const enrollmentGroup = "enrollment-processors"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "payments-worker", "microlearn_worker")
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
	txManager := postgres.NewTxManager(app.Pool)

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

	// --- Use cases and handlers ---
	confirmUC := checkout.NewConfirmPaymentUseCase(paymentRepo, gw, producer, policies)
	failUC := checkout.NewFailPaymentUseCase(paymentRepo)
	enrollUC := appEnrollment.NewEnrollStudentUseCase(enrollmentRepo, courseRepo, txManager)

	validationHandler := worker.NewValidationHandler(confirmUC, failUC, app.Logger)
	enrollmentHandler := worker.NewEnrollmentHandler(enrollUC, app.Logger, app.Metrics)

	workerCfg := cfg.Worker
	validationConsumer := infraRedis.NewConsumer(
		app.Redis,
		infraRedis.ValidationQueue,
		workerCfg.ConsumerGroup,
		cfg.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)
	enrollmentConsumer := infraRedis.NewConsumer(
		app.Redis,
		infraRedis.EnrollmentQueue,
		enrollmentGroup,
		cfg.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)

	// Validation jobs for the same payment are serialized through a redis
	// lock so two consumers cannot race a confirm.
	validationRunner := worker.NewRunner(
		infraRedis.ValidationQueue,
		validationConsumer,
		producer,
		validationHandler,
		app.Logger,
		app.Metrics,
		worker.WithJobLock(app.Redis, workerCfg.LockTTL, func(job *infraRedis.Job) string {
			var payload checkout.ValidationJob
			if err := json.Unmarshal(job.Payload, &payload); err != nil {
				return "job:" + job.ID.String()
			}
			return "payment:" + payload.PaymentID.String()
		}),
	)
	enrollmentRunner := worker.NewRunner(
		infraRedis.EnrollmentQueue,
		enrollmentConsumer,
		producer,
		enrollmentHandler,
		app.Logger,
		app.Metrics,
	)

	app.Logger.Info().
		Str("consumer", cfg.InstanceID).
		Msg("Worker started, listening for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return validationRunner.Run(gCtx)
	})
	g.Go(func() error {
		return enrollmentRunner.Run(gCtx)
	})

	// Promoter moves due retries back onto their streams.
	g.Go(func() error {
		return worker.RunPromoter(
			gCtx,
			producer,
			[]string{infraRedis.ValidationQueue, infraRedis.EnrollmentQueue},
			workerCfg.PromoteInterval,
			app.Logger,
		)
	})

	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}
