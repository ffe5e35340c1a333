// Package events publishes notifications about completed work so other
// services can observe the gateway without sitting on the request path.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"synexis/internal/retry"
)

// Type enumerates published event categories.
type Type string

const TypeAskCompleted Type = "ask.completed"

// Event is the envelope written to the bus.
type Event struct {
	ID      uuid.UUID       `json:"id"`
	Type    Type            `json:"type"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// AskCompleted describes one finished ask. The question text is not included.
type AskCompleted struct {
	RequestID  string `json:"request_id,omitempty"`
	User       string `json:"user,omitempty"`
	TogetherOK bool   `json:"together_ok"`
	LlamaOK    bool   `json:"llama_ok"`
	Better     string `json:"better"`
	Preferred  string `json:"preferred,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Publisher is the minimal contract for emitting events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// New builds an event of type t with a JSON-encoded payload.
func New(t Type, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{ID: uuid.New(), Type: t, At: time.Now().UTC(), Payload: body}, nil
}

// PublishWithRetry attempts to publish with retries and exponential backoff.
func PublishWithRetry(ctx context.Context, p Publisher, ev Event, attempts int, base time.Duration) error {
	return retry.Do(ctx, attempts, base, func(ctx context.Context) error {
		return p.Publish(ctx, ev)
	})
}

// Noop drops every event. Used when no bus is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
