package telemetry

// ComposeBuckets covers envelope composition latency, dominated by the
// node/port lookups and the transaction id allocation round trips.
var ComposeBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

var (
	// ComposeTotal counts composed envelopes by task and result (success, rejected, failed)
	ComposeTotal CounterVec = noopCounterVec{}

	// ComposeDurationSeconds measures envelope composition latency
	ComposeDurationSeconds Histogram = NoopStat{}

	// AllocatorRetriesTotal counts transaction id candidates discarded as already live
	AllocatorRetriesTotal Counter = NoopStat{}

	// DispatchTotal counts dispatched change events by terminal status (success, rejected)
	DispatchTotal CounterVec = noopCounterVec{}

	// PublishTotal counts publisher invocations by responsibility and result (success, failed, suppressed)
	PublishTotal CounterVec = noopCounterVec{}

	// PersistRetriesTotal counts persistence pipeline retry sleeps
	PersistRetriesTotal Counter = NoopStat{}

	// FeedEventsTotal counts inbound feed messages by kind and outcome
	FeedEventsTotal CounterVec = noopCounterVec{}

	// LiveTransactions tracks transaction ids claimed in-process and not yet released
	LiveTransactions Gauge = NoopStat{}
)

func initMetrics() {
	ComposeTotal = NewCounterVec(
		"compose_total",
		"Composed transaction envelopes by task and result",
		[]string{"task", "result"},
	)
	ComposeDurationSeconds = NewHistogram(
		"compose_duration_seconds",
		"Latency of envelope composition",
		ComposeBuckets,
	)
	AllocatorRetriesTotal = NewCounter(
		"allocator_retries_total",
		"Transaction id candidates discarded because the store reported them live",
	)
	DispatchTotal = NewCounterVec(
		"dispatch_total",
		"Dispatched change events by terminal status",
		[]string{"status"},
	)
	PublishTotal = NewCounterVec(
		"publish_total",
		"Publisher invocations by responsibility and result",
		[]string{"responsibility", "result"},
	)
	PersistRetriesTotal = NewCounter(
		"persist_retries_total",
		"Persistence pipeline retry sleeps",
	)
	FeedEventsTotal = NewCounterVec(
		"feed_events_total",
		"Inbound feed messages by kind and outcome",
		[]string{"kind", "outcome"},
	)
	LiveTransactions = NewGauge(
		"live_transactions",
		"Transaction ids claimed in-process and not yet released",
	)
}
