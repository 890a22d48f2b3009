package sink

import "github.com/rutvik18Verticals/ally-xs-transactions/publisher"

// Compile-time interface verification
var (
	_ publisher.Publisher = (*NatsPublisher)(nil)
	_ publisher.Publisher = (*ListenerPublisher)(nil)
	_ publisher.Publisher = (*KafkaPublisher)(nil)
	_ publisher.Publisher = (*LegacyStorePublisher)(nil)
)
