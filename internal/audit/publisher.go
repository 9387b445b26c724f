// Package audit records authentication and authorization events on a Redis stream.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/optiwealth/optiwealth/internal/metrics"
)

const (
	// StreamKey is the Redis stream for auth events.
	StreamKey = "stream:auth_events"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// Event types.
const (
	EventRegistered     = "user_registered"
	EventLoginSucceeded = "login_succeeded"
	EventLoginFailed    = "login_failed"
	EventLogout         = "logout"
	EventAccessDenied   = "access_denied"
)

// Event is the compact record written to the stream.
type Event struct {
	Type       string `json:"type"`
	UserID     string `json:"uid,omitempty"`
	EmailHash  string `json:"eh,omitempty"`  // QuickHash of the attempted email
	IPHash     string `json:"iph,omitempty"` // QuickHash of the client IP
	Resource   string `json:"res,omitempty"` // e.g. "portfolio:01J..."
	RequestID  string `json:"rid,omitempty"`
	OccurredAt int64  `json:"t"` // Unix milliseconds
}

// Publisher accepts audit events without blocking the caller.
type Publisher interface {
	PublishAsync(event Event)
}

// NoopPublisher discards events. Used when Redis is not configured.
type NoopPublisher struct{}

// PublishAsync discards the event.
func (NoopPublisher) PublishAsync(Event) {}

// StreamPublisher enqueues audit events to a Redis stream.
type StreamPublisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewStreamPublisher creates a new audit event publisher.
func NewStreamPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *StreamPublisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &StreamPublisher{
		redis:   client,
		logger:  logger.With("component", "audit.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously.
func (p *StreamPublisher) Publish(ctx context.Context, event Event) (string, error) {
	if event.OccurredAt == 0 {
		event.OccurredAt = time.Now().UnixMilli()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"type":    event.Type,
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
func (p *StreamPublisher) PublishAsync(event Event) {
	if event.OccurredAt == 0 {
		event.OccurredAt = time.Now().UnixMilli()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish audit event",
				"type", event.Type,
				"error", err,
			)
			p.metrics.IncAuditEventPublished("dropped")
			return
		}

		p.logger.Debug("audit event published",
			"type", event.Type,
			"stream_id", streamID,
		)
		p.metrics.IncAuditEventPublished("success")
	}()
}
