package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Subject returns the NATS subject an event type is published on.
func Subject(t Type) string {
	return "events." + string(t)
}

// NewNATS constructs a NATS-backed publisher.
func NewNATS(log *slog.Logger, nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{log: log, nc: nc}
}

type NATSPublisher struct {
	log *slog.Logger
	nc  *nats.Conn
}

func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.Type == "" {
		return errors.New("event type required")
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(Subject(ev.Type), body)
}

// Subscribe delivers decoded events of type t to fn until ctx ends.
func (p *NATSPublisher) Subscribe(ctx context.Context, t Type, fn func(Event)) error {
	sub, err := p.nc.Subscribe(Subject(t), func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			p.log.Error("failed to decode event", "subject", msg.Subject, "err", err)
			return
		}
		fn(ev)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return sub.Unsubscribe()
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return err
	}
	return nil
}
