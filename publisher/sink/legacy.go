package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rutvik18Verticals/ally-xs-transactions/cfg"
	"github.com/rutvik18Verticals/ally-xs-transactions/persist"
	"github.com/rutvik18Verticals/ally-xs-transactions/publisher"
	"github.com/rutvik18Verticals/ally-xs-transactions/store"
	"github.com/rutvik18Verticals/ally-xs-transactions/transaction"
)

func init() {
	publisher.Register("legacydb", func(config cfg.PublisherConfiguration, env publisher.Env) (publisher.Publisher, error) {
		if env.Transactions == nil {
			return nil, fmt.Errorf("legacydb publisher requires a transaction store")
		}
		return NewLegacyStorePublisher(config.Name, env.Transactions, env.Retry)
	})
}

// LegacyStorePublisher persists update envelopes into the legacy transaction
// table through the deserialize, map, persist pipeline.
type LegacyStorePublisher struct {
	name     string
	pipeline *persist.Pipeline[transaction.UpdatePayload, store.TransactionRow]
}

// NewLegacyStorePublisher wires the pipeline stages to the store.
func NewLegacyStorePublisher(name string, txns publisher.TransactionWriter, retry persist.Config) (*LegacyStorePublisher, error) {
	decode := func(raw string) (*transaction.UpdatePayload, error) {
		var p transaction.UpdatePayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, err
		}
		return &p, nil
	}
	persistFn := func(ctx context.Context, row *store.TransactionRow) error {
		return txns.Insert(ctx, row)
	}

	pipeline, err := persist.NewPipeline(retry, decode, store.MapEnvelopeToRow, persistFn)
	if err != nil {
		return nil, fmt.Errorf("failed to build persistence pipeline: %w", err)
	}
	return &LegacyStorePublisher{name: name, pipeline: pipeline}, nil
}

// Name returns the configured instance name.
func (p *LegacyStorePublisher) Name() string { return p.name }

// Responsibility tags this publisher as the legacy store target.
func (p *LegacyStorePublisher) Responsibility() publisher.Responsibility {
	return publisher.ResponsibilityLegacyStore
}

// Publish runs the raw envelope through the pipeline. Pipeline failures
// surface as errors so the dispatcher can count them.
func (p *LegacyStorePublisher) Publish(ctx context.Context, msg publisher.Message) error {
	res := p.pipeline.Run(ctx, string(msg.Raw))
	if !res.OK() {
		return fmt.Errorf("pipeline %s: %s", res.Kind, res.Message)
	}
	return nil
}

// Close is a no-op; the store handle is owned by the caller.
func (p *LegacyStorePublisher) Close() error { return nil }
