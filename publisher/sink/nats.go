// Package sink holds the concrete publisher targets. Each sink registers
// its factory with the publisher registry at init time.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/rutvik18Verticals/ally-xs-transactions/cfg"
	"github.com/rutvik18Verticals/ally-xs-transactions/publisher"
)

func init() {
	publisher.Register("nats", func(config cfg.PublisherConfiguration, env publisher.Env) (publisher.Publisher, error) {
		if config.NatsURL == "" {
			return nil, fmt.Errorf("nats publisher requires nats_url")
		}
		prefix := config.SubjectPrefix
		if prefix == "" {
			prefix = "xs.transactions.data"
		}
		return NewNatsPublisher(config.Name, config.NatsURL, prefix)
	})
}

// NatsPublisher forwards full transaction data to the microservices bus over
// NATS JetStream, one subject per node under the configured prefix.
type NatsPublisher struct {
	name   string
	prefix string
	nc     *nats.Conn
	js     jetstream.JetStream
}

// NewNatsPublisher connects to NATS and creates a JetStream context.
func NewNatsPublisher(name, url, prefix string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NatsPublisher{name: name, prefix: prefix, nc: nc, js: js}, nil
}

// Name returns the configured instance name.
func (p *NatsPublisher) Name() string { return p.name }

// Responsibility tags this publisher as the microservices data target.
func (p *NatsPublisher) Responsibility() publisher.Responsibility {
	return publisher.ResponsibilityMicroservices
}

// Publish sends the raw envelope to the node's subject, creating the stream
// on first use.
func (p *NatsPublisher) Publish(ctx context.Context, msg publisher.Message) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	subject := p.prefix + "." + sanitizeToken(msg.NodeID)

	streamName := sanitizeStreamName(p.prefix)
	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{p.prefix + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", streamName, err)
	}

	natsMsg := &nats.Msg{
		Subject: subject,
		Data:    msg.Raw,
		Header: nats.Header{
			"transaction_id": []string{fmt.Sprintf("%d", msg.TransactionID)},
			"correlation_id": []string{msg.CorrelationID},
		},
	}
	if _, err := p.js.PublishMsg(ctx, natsMsg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close releases the NATS connection.
func (p *NatsPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// sanitizeToken makes a node id safe as a single subject token. Node ids in
// the field contain spaces and dots; subjects allow neither.
func sanitizeToken(s string) string {
	result := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '.', '*', '>':
			result[i] = '_'
		default:
			result[i] = s[i]
		}
	}
	return string(result)
}

// sanitizeStreamName converts a subject prefix to a valid stream name.
// Stream names cannot contain ".".
func sanitizeStreamName(prefix string) string {
	result := make([]byte, len(prefix))
	for i := 0; i < len(prefix); i++ {
		if prefix[i] == '.' {
			result[i] = '_'
		} else {
			result[i] = prefix[i]
		}
	}
	return string(result)
}
