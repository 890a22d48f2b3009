// Package feed connects the subsystem to NATS: it consumes store change
// events into the dispatcher and takes inbound command requests into the
// composer.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/rutvik18Verticals/ally-xs-transactions/dispatch"
	"github.com/rutvik18Verticals/ally-xs-transactions/telemetry"
)

// ChangeConsumer subscribes to the change subject and feeds every event to
// the dispatcher. Members of the same queue group share the subject.
type ChangeConsumer struct {
	nc         *nats.Conn
	dispatcher *dispatch.Dispatcher
	subject    string
	queue      string
	sub        *nats.Subscription
}

// NewChangeConsumer creates a consumer over an established connection.
func NewChangeConsumer(nc *nats.Conn, dispatcher *dispatch.Dispatcher, subject, queue string) (*ChangeConsumer, error) {
	if nc == nil {
		return nil, errors.New("feed: change consumer requires a NATS connection")
	}
	if dispatcher == nil {
		return nil, errors.New("feed: change consumer requires a dispatcher")
	}
	if subject == "" {
		return nil, errors.New("feed: change consumer requires a subject")
	}
	return &ChangeConsumer{nc: nc, dispatcher: dispatcher, subject: subject, queue: queue}, nil
}

// Start subscribes. Handlers run on the connection's delivery goroutine
// until Close.
func (c *ChangeConsumer) Start(ctx context.Context) error {
	sub, err := c.nc.QueueSubscribe(c.subject, c.queue, func(msg *nats.Msg) {
		c.handle(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.subject, err)
	}
	c.sub = sub

	log.Info().
		Str("subject", c.subject).
		Str("queue", c.queue).
		Msg("Change consumer started")
	return nil
}

func (c *ChangeConsumer) handle(ctx context.Context, msg *nats.Msg) {
	var event dispatch.ChangeEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		telemetry.FeedEventsTotal.With("change", "malformed").Inc()
		log.Warn().
			Err(err).
			Str("subject", msg.Subject).
			Msg("Dropping malformed change event")
		return
	}

	result := c.dispatcher.Process(ctx, event)
	if result.Status == dispatch.StatusRejected {
		telemetry.FeedEventsTotal.With("change", "rejected").Inc()
		return
	}
	telemetry.FeedEventsTotal.With("change", "dispatched").Inc()
}

// Close unsubscribes. The connection itself is owned by the caller.
func (c *ChangeConsumer) Close() error {
	if c.sub == nil {
		return nil
	}
	if err := c.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", c.subject, err)
	}
	c.sub = nil
	return nil
}
