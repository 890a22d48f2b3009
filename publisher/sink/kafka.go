package sink

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/rutvik18Verticals/ally-xs-transactions/cfg"
	"github.com/rutvik18Verticals/ally-xs-transactions/publisher"
)

const (
	DefaultKafkaBatchSize  = 100
	DefaultKafkaBatchBytes = 1 << 20 // 1MB
)

func init() {
	publisher.Register("kafka", func(config cfg.PublisherConfiguration, env publisher.Env) (publisher.Publisher, error) {
		topic := config.Topic
		if topic == "" {
			topic = "xs-transactions-updates"
		}
		return NewKafkaPublisher(config.Name, config.Brokers, topic)
	})
}

// KafkaPublisher hands raw update envelopes to the comms wrapper through a
// Kafka topic, keyed by node so one well's commands stay ordered.
type KafkaPublisher struct {
	name   string
	topic  string
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher over the given brokers.
func NewKafkaPublisher(name string, brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker address")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              DefaultKafkaBatchSize,
		BatchBytes:             DefaultKafkaBatchBytes,
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{name: name, topic: topic, writer: writer}, nil
}

// Name returns the configured instance name.
func (p *KafkaPublisher) Name() string { return p.name }

// Responsibility tags this publisher as the comms wrapper target.
func (p *KafkaPublisher) Responsibility() publisher.Responsibility {
	return publisher.ResponsibilityCommsWrapper
}

// Publish writes the raw envelope keyed by node id.
func (p *KafkaPublisher) Publish(ctx context.Context, msg publisher.Message) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.NodeID),
		Value: msg.Raw,
		Headers: []kafka.Header{
			{Key: "correlation_id", Value: []byte(msg.CorrelationID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
