package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rutvik18Verticals/ally-xs-transactions/cfg"
	"github.com/rutvik18Verticals/ally-xs-transactions/publisher"
)

func init() {
	publisher.Register("listener", func(config cfg.PublisherConfiguration, env publisher.Env) (publisher.Publisher, error) {
		if config.NatsURL == "" {
			return nil, fmt.Errorf("listener publisher requires nats_url")
		}
		subject := config.Subject
		if subject == "" {
			subject = "xs.transactions.listener"
		}
		return NewListenerPublisher(config.Name, config.NatsURL, subject)
	})
}

// ListenerNotification is the compact id announcement the transaction
// listener consumes.
type ListenerNotification struct {
	TransactionID int32  `msgpack:"txn"`
	NodeID        string `msgpack:"node"`
	CorrelationID string `msgpack:"cid"`
}

// ListenerPublisher announces new transaction ids to the listener over core
// NATS. The listener polls the store for the body, so only the id travels.
type ListenerPublisher struct {
	name    string
	subject string
	nc      *nats.Conn
}

// NewListenerPublisher connects to NATS.
func NewListenerPublisher(name, url, subject string) (*ListenerPublisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &ListenerPublisher{name: name, subject: subject, nc: nc}, nil
}

// Name returns the configured instance name.
func (p *ListenerPublisher) Name() string { return p.name }

// Responsibility tags this publisher as the listener id target.
func (p *ListenerPublisher) Responsibility() publisher.Responsibility {
	return publisher.ResponsibilityListener
}

// Publish sends the id notification.
func (p *ListenerPublisher) Publish(ctx context.Context, msg publisher.Message) error {
	payload, err := msgpack.Marshal(ListenerNotification{
		TransactionID: msg.TransactionID,
		NodeID:        msg.NodeID,
		CorrelationID: msg.CorrelationID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode listener notification: %w", err)
	}

	if err := p.nc.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.subject, err)
	}
	return nil
}

// Close releases the NATS connection.
func (p *ListenerPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}
