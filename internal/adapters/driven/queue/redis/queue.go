package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven"
)

const (
	analyticsStream = "phonematch:analytics"
	analyticsGroup  = "phonematch:analytics-workers"

	// Default consumer name prefix
	consumerPrefix = "worker-"

	// How long a delivered event may stay unacknowledged before another worker claims it
	claimTimeout = 5 * time.Minute

	// Approximate cap on the stream length
	defaultMaxLen = 100000
)

// Verify interface compliance
var _ driven.AnalyticsQueue = (*Queue)(nil)

// Config configures the analytics queue
type Config struct {
	// ConsumerName should be unique per worker instance (e.g., hostname + PID)
	ConsumerName string

	// RatePerSec and Burst bound how many events Record accepts.
	// RatePerSec <= 0 disables the limit.
	RatePerSec float64
	Burst      int

	// MaxLen caps the stream length (approximate trimming)
	MaxLen int64
}

// Queue implements AnalyticsQueue using Redis Streams.
// Events are published with XADD and consumed through a consumer group,
// so each event reaches one worker and stays pending until acknowledged.
type Queue struct {
	client       *redis.Client
	consumerName string
	limiter      *rate.Limiter
	maxLen       int64
	dropped      atomic.Int64
}

// NewQueue creates a new Redis-backed analytics queue
func NewQueue(client *redis.Client, cfg Config) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.ConsumerName == "" {
		cfg.ConsumerName = fmt.Sprintf("%s%d", consumerPrefix, time.Now().UnixNano())
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = defaultMaxLen
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = max(1, int(cfg.RatePerSec))
	}

	q := &Queue{
		client:       client,
		consumerName: cfg.ConsumerName,
		limiter:      rate.NewLimiter(limit, burst),
		maxLen:       cfg.MaxLen,
	}

	// Create consumer group if it doesn't exist
	err := q.client.XGroupCreateMkStream(context.Background(), analyticsStream, analyticsGroup, "0").Err()
	if err != nil && !isGroupExistsError(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return q, nil
}

// Record publishes an event. Events over the rate budget are dropped.
func (q *Queue) Record(ctx context.Context, event *domain.SearchEvent) error {
	if event == nil {
		return errors.New("event is required")
	}
	if !q.limiter.Allow() {
		q.dropped.Add(1)
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: analyticsStream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event_id": event.ID.String(),
			"event":    string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Dropped returns how many events were discarded by the rate limit
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

// DequeueWithTimeout retrieves the next event, waiting up to timeout seconds.
// A timeout of 0 blocks until an event arrives or ctx is cancelled.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*driven.QueuedEvent, error) {
	// Abandoned events first
	if ev, err := q.claimAbandoned(ctx); err == nil && ev != nil {
		return ev, nil
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    analyticsGroup,
		Consumer: q.consumerName,
		Streams:  []string{analyticsStream, ">"},
		Count:    1,
		Block:    time.Duration(timeout) * time.Second,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}
	return q.decode(ctx, streams[0].Messages[0]), nil
}

// Ack removes a processed event from the stream
func (q *Queue) Ack(ctx context.Context, messageID string) error {
	pipe := q.client.Pipeline()
	pipe.XAck(ctx, analyticsStream, analyticsGroup, messageID)
	pipe.XDel(ctx, analyticsStream, messageID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to ack event: %w", err)
	}
	return nil
}

// Ping checks if the queue backend is healthy
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close cleans up resources
func (q *Queue) Close() error {
	// Redis client is shared, don't close it here
	return nil
}

// decode turns a stream message into an event. Malformed messages are
// acknowledged and dropped so they are not redelivered forever.
func (q *Queue) decode(ctx context.Context, msg redis.XMessage) *driven.QueuedEvent {
	raw, ok := msg.Values["event"].(string)
	var event domain.SearchEvent
	if !ok || json.Unmarshal([]byte(raw), &event) != nil {
		_ = q.Ack(ctx, msg.ID)
		return nil
	}
	return &driven.QueuedEvent{MessageID: msg.ID, Event: &event}
}

// claimAbandoned claims an event delivered to a worker that never acknowledged it
func (q *Queue) claimAbandoned(ctx context.Context) (*driven.QueuedEvent, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: analyticsStream,
		Group:  analyticsGroup,
		Start:  "-",
		End:    "+",
		Count:  10,
		Idle:   claimTimeout,
	}).Result()
	if err != nil {
		return nil, err
	}

	for _, p := range pending {
		claimed, err := q.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   analyticsStream,
			Group:    analyticsGroup,
			Consumer: q.consumerName,
			MinIdle:  claimTimeout,
			Messages: []string{p.ID},
		}).Result()
		if err != nil || len(claimed) == 0 {
			continue
		}
		if ev := q.decode(ctx, claimed[0]); ev != nil {
			return ev, nil
		}
	}
	return nil, nil
}

func isGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
