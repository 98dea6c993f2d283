package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Queue names. Each is a Redis Stream consumed through a consumer group;
// `<stream>:retry` is a sorted set of jobs waiting for their backoff to
// elapse and `<stream>:dead` retains exhausted jobs for inspection.
const (
	ValidationQueue = "payments:validation"
	EnrollmentQueue = "enrollments:creation"
)

const (
	retrySuffix = ":retry"
	deadSuffix  = ":dead"
	jobField    = "job"
)

// BackoffPolicy describes exponential backoff between job attempts.
type BackoffPolicy struct {
	Initial    time.Duration `json:"initial"`
	Max        time.Duration `json:"max"`
	Multiplier float64       `json:"factor"`
}

// Delay returns the backoff before the given retry. attempt is 1-based:
// Delay(1) is the wait after the first failure.
func (b BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.Initial
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * b.Multiplier)
		if d >= b.Max {
			return b.Max
		}
	}
	if d > b.Max {
		return b.Max
	}
	return d
}

// Job is the queue envelope. The payload is opaque to the queue and
// interpreted by the consuming worker.
type Job struct {
	ID          uuid.UUID       `json:"id"`
	Queue       string          `json:"queue"`
	Payload     json.RawMessage `json:"payload"`
	Attempt     int             `json:"attempt"`
	MaxAttempts int             `json:"max_attempts"`
	Backoff     BackoffPolicy   `json:"backoff"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
}

// LastAttempt reports whether the current delivery is the job's final one.
func (j *Job) LastAttempt() bool {
	return j.Attempt >= j.MaxAttempts
}

// EnqueueOptions configure retry behavior for a job.
type EnqueueOptions struct {
	MaxAttempts int
	Backoff     BackoffPolicy
}

// Producer enqueues jobs onto durable streams.
type Producer struct {
	client *redis.Client
}

// NewProducer creates a queue producer.
func NewProducer(client *redis.Client) *Producer {
	return &Producer{client: client}
}

// Enqueue marshals the payload and appends a first-attempt job to the queue.
func (p *Producer) Enqueue(ctx context.Context, queue string, payload any, opts EnqueueOptions) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	backoff := opts.Backoff
	if backoff.Initial <= 0 {
		backoff = BackoffPolicy{Initial: 2 * time.Second, Max: time.Minute, Multiplier: 2.0}
	}

	job := &Job{
		ID:          uuid.New(),
		Queue:       queue,
		Payload:     raw,
		Attempt:     1,
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		EnqueuedAt:  time.Now(),
	}

	if err := p.append(ctx, queue, job); err != nil {
		return nil, err
	}
	return job, nil
}

// ScheduleRetry puts the job on the delayed set with its next attempt count;
// the promoter moves it back onto the stream once the backoff elapses.
func (p *Producer) ScheduleRetry(ctx context.Context, job *Job) error {
	next := *job
	next.Attempt = job.Attempt + 1

	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("marshal retry job: %w", err)
	}

	readyAt := time.Now().Add(job.Backoff.Delay(job.Attempt))
	err = p.client.ZAdd(ctx, job.Queue+retrySuffix, redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: string(data),
	}).Err()
	if err != nil {
		return fmt.Errorf("schedule retry: %w", err)
	}
	return nil
}

// DeadLetter appends an exhausted job to the queue's dead-letter stream,
// where it is retained for manual inspection.
func (p *Producer) DeadLetter(ctx context.Context, job *Job, reason string) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal dead job: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: job.Queue + deadSuffix,
		Values: map[string]any{
			jobField:    string(data),
			"reason":    reason,
			"failed_at": time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("dead-letter job: %w", err)
	}
	return nil
}

// PromoteDue moves jobs whose backoff has elapsed from the delayed set back
// onto the stream. Returns the number of promoted jobs.
func (p *Producer) PromoteDue(ctx context.Context, queue string) (int, error) {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	members, err := p.client.ZRangeByScore(ctx, queue+retrySuffix, &redis.ZRangeBy{
		Min: "-inf", Max: now, Count: 100,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("read delayed jobs: %w", err)
	}

	promoted := 0
	for _, member := range members {
		var job Job
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			// Malformed member: drop it rather than wedging the promoter.
			p.client.ZRem(ctx, queue+retrySuffix, member)
			continue
		}
		if err := p.append(ctx, queue, &job); err != nil {
			return promoted, err
		}
		if err := p.client.ZRem(ctx, queue+retrySuffix, member).Err(); err != nil {
			return promoted, fmt.Errorf("remove promoted job: %w", err)
		}
		promoted++
	}
	return promoted, nil
}

func (p *Producer) append(ctx context.Context, queue string, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: queue,
		Values: map[string]any{jobField: string(data)},
	}).Err()
	if err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Message is a delivered job plus the stream bookkeeping needed to ack it.
type Message struct {
	StreamID string
	Job      *Job
}

// Consumer reads jobs from a queue through a consumer group.
type Consumer struct {
	client        *redis.Client
	queue         string
	group         string
	consumer      string
	batchSize     int64
	blockDuration time.Duration
}

// NewConsumer creates a queue consumer.
func NewConsumer(client *redis.Client, queue, group, consumer string, batchSize int64, blockDuration time.Duration) *Consumer {
	return &Consumer{
		client:        client,
		queue:         queue,
		group:         group,
		consumer:      consumer,
		batchSize:     batchSize,
		blockDuration: blockDuration,
	}
}

// CreateGroup creates the consumer group (and the stream if needed).
func (c *Consumer) CreateGroup(ctx context.Context) error {
	const busyGroupMsg = "BUSYGROUP"
	err := c.client.XGroupCreateMkStream(ctx, c.queue, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), busyGroupMsg) {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Read blocks for up to the configured duration and returns delivered jobs.
func (c *Consumer) Read(ctx context.Context) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.queue, ">"},
		Count:    c.batchSize,
		Block:    c.blockDuration,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	var msgs []Message
	for _, stream := range streams {
		for _, m := range stream.Messages {
			job, err := decodeJob(m)
			if err != nil {
				// Poison entry: ack it so it does not block the group.
				c.Ack(ctx, m.ID)
				continue
			}
			msgs = append(msgs, Message{StreamID: m.ID, Job: job})
		}
	}
	return msgs, nil
}

// Ack acknowledges a delivered message.
func (c *Consumer) Ack(ctx context.Context, streamID string) error {
	if err := c.client.XAck(ctx, c.queue, c.group, streamID).Err(); err != nil {
		return fmt.Errorf("failed to ack message: %w", err)
	}
	return nil
}

// ClaimStale takes over messages another consumer read but never acked,
// e.g. after a worker crash mid-job.
func (c *Consumer) ClaimStale(ctx context.Context, minIdle time.Duration) ([]Message, error) {
	messages, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.queue,
		Group:    c.group,
		Consumer: c.consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    c.batchSize,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim messages: %w", err)
	}

	var msgs []Message
	for _, m := range messages {
		job, err := decodeJob(m)
		if err != nil {
			c.Ack(ctx, m.ID)
			continue
		}
		msgs = append(msgs, Message{StreamID: m.ID, Job: job})
	}
	return msgs, nil
}

func decodeJob(m redis.XMessage) (*Job, error) {
	raw, _ := m.Values[jobField].(string)
	if raw == "" {
		return nil, fmt.Errorf("message %s has no job field", m.ID)
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}
