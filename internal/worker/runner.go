package worker

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/microlearn/payments/internal/infrastructure/observability"
	infraredis "github.com/microlearn/payments/internal/infrastructure/redis"
)

// Handler processes one job delivery. Returning an error marks the delivery
// failed: the runner schedules a retry or, on the last attempt, calls
// OnExhausted and dead-letters the job.
type Handler interface {
	Handle(ctx context.Context, job *infraredis.Job) error
	OnExhausted(ctx context.Context, job *infraredis.Job, cause error)
}

// Runner drives one queue consumer. Delivery is at-least-once; handlers are
// idempotent, and an optional per-job lock narrows concurrent duplicates.
type Runner struct {
	queue    string
	consumer *infraredis.Consumer
	producer *infraredis.Producer
	handler  Handler
	logger   zerolog.Logger
	metrics  *observability.Metrics

	redisClient *goredis.Client
	lockTTL     time.Duration
	lockKey     func(job *infraredis.Job) string

	claimMinIdle  time.Duration
	claimInterval time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithJobLock makes the runner serialize jobs sharing the same key through
// a redis lock.
func WithJobLock(client *goredis.Client, ttl time.Duration, key func(job *infraredis.Job) string) RunnerOption {
	return func(r *Runner) {
		r.redisClient = client
		r.lockTTL = ttl
		r.lockKey = key
	}
}

// NewRunner creates a runner for a queue.
func NewRunner(
	queue string,
	consumer *infraredis.Consumer,
	producer *infraredis.Producer,
	handler Handler,
	logger zerolog.Logger,
	metrics *observability.Metrics,
	opts ...RunnerOption,
) *Runner {
	r := &Runner{
		queue:         queue,
		consumer:      consumer,
		producer:      producer,
		handler:       handler,
		logger:        logger.With().Str("queue", queue).Logger(),
		metrics:       metrics,
		claimMinIdle:  5 * time.Minute,
		claimInterval: time.Minute,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run consumes the queue until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.consumer.CreateGroup(ctx); err != nil {
		r.logger.Error().Err(err).Msg("Failed to create consumer group (may already exist)")
	}

	lastClaim := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msgs, err := r.consumer.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error().Err(err).Msg("Failed to read from queue")
			time.Sleep(1 * time.Second)
			continue
		}

		if time.Since(lastClaim) > r.claimInterval {
			stale, err := r.consumer.ClaimStale(ctx, r.claimMinIdle)
			if err != nil {
				r.logger.Error().Err(err).Msg("Failed to claim stale messages")
			} else {
				msgs = append(msgs, stale...)
			}
			lastClaim = time.Now()
		}

		for _, msg := range msgs {
			r.process(ctx, msg)
		}
	}
}

func (r *Runner) process(ctx context.Context, msg infraredis.Message) {
	job := msg.Job

	if r.lockKey != nil {
		lock := infraredis.NewDistributedLock(r.redisClient, r.lockKey(job), r.lockTTL)
		acquired, err := lock.Acquire(ctx)
		if err != nil || !acquired {
			// Leave the message pending; the stale claimer redelivers it.
			r.logger.Warn().Str("job_id", job.ID.String()).Msg("Could not acquire lock, skipping")
			return
		}
		defer lock.Release(ctx)
	}

	start := time.Now()
	err := r.handler.Handle(ctx, job)
	r.metrics.WorkerProcessingDuration.WithLabelValues(r.queue).Observe(time.Since(start).Seconds())

	if err == nil {
		r.metrics.WorkerMessagesProcessed.WithLabelValues(r.queue, "success").Inc()
		r.consumer.Ack(ctx, msg.StreamID)
		return
	}

	r.logger.Error().Err(err).
		Str("job_id", job.ID.String()).
		Int("attempt", job.Attempt).
		Int("max_attempts", job.MaxAttempts).
		Msg("Job failed")
	r.metrics.WorkerMessagesProcessed.WithLabelValues(r.queue, "error").Inc()

	if job.LastAttempt() {
		r.handler.OnExhausted(ctx, job, err)
		if dlqErr := r.producer.DeadLetter(ctx, job, err.Error()); dlqErr != nil {
			r.logger.Error().Err(dlqErr).Str("job_id", job.ID.String()).Msg("Failed to dead-letter job")
		} else {
			r.metrics.JobsDeadLettered.WithLabelValues(r.queue).Inc()
		}
	} else {
		if retryErr := r.producer.ScheduleRetry(ctx, job); retryErr != nil {
			r.logger.Error().Err(retryErr).Str("job_id", job.ID.String()).Msg("Failed to schedule retry")
			// Not acked: the stale claimer will redeliver this attempt.
			return
		}
		r.metrics.JobsRetried.WithLabelValues(r.queue).Inc()
	}

	r.consumer.Ack(ctx, msg.StreamID)
}

// RunPromoter periodically moves due retries back onto the streams.
func RunPromoter(ctx context.Context, producer *infraredis.Producer, queues []string, interval time.Duration, logger zerolog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for _, q := range queues {
			if _, err := producer.PromoteDue(ctx, q); err != nil {
				logger.Error().Err(err).Str("queue", q).Msg("Failed to promote delayed jobs")
			}
		}
	}
}
