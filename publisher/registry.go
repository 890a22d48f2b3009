package publisher

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/rutvik18Verticals/ally-xs-transactions/cfg"
	"github.com/rutvik18Verticals/ally-xs-transactions/persist"
	"github.com/rutvik18Verticals/ally-xs-transactions/store"
)

// TransactionWriter persists transaction rows. Satisfied by the legacy
// transaction store; narrowed here to avoid coupling sinks to the concrete
// store.
type TransactionWriter interface {
	Insert(ctx context.Context, row *store.TransactionRow) error
}

// Env carries the shared dependencies publishers may need at build time.
type Env struct {
	Transactions TransactionWriter
	Retry        persist.Config
}

// Factory builds a publisher from its configuration.
type Factory func(config cfg.PublisherConfiguration, env Env) (Publisher, error)

var (
	factories = make(map[string]Factory)
	factoryMu sync.RWMutex
)

// Register registers a publisher factory for a type. Sinks call this from
// init.
func Register(pubType string, factory Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[pubType] = factory
}

func create(config cfg.PublisherConfiguration, env Env) (Publisher, error) {
	factoryMu.RLock()
	factory, exists := factories[config.Type]
	factoryMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown publisher type: %s", config.Type)
	}
	return factory(config, env)
}

// Build assembles the configured publisher set. Disabled entries are
// skipped; entries with node patterns are wrapped in a filter. On error all
// publishers built so far are closed.
func Build(configs []cfg.PublisherConfiguration, env Env) ([]Publisher, error) {
	publishers := make([]Publisher, 0, len(configs))

	closeAll := func() {
		for _, p := range publishers {
			p.Close()
		}
	}

	for _, config := range configs {
		if !config.Enabled {
			log.Info().
				Str("publisher", config.Name).
				Msg("Publisher disabled, skipping")
			continue
		}

		pub, err := create(config, env)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to build publisher %q: %w", config.Name, err)
		}

		if len(config.NodePatterns) > 0 {
			filter, err := NewNodeFilter(config.NodePatterns)
			if err != nil {
				pub.Close()
				closeAll()
				return nil, fmt.Errorf("failed to build publisher %q: %w", config.Name, err)
			}
			pub = NewFiltered(pub, filter)
		}

		log.Info().
			Str("publisher", config.Name).
			Str("type", config.Type).
			Str("responsibility", pub.Responsibility().String()).
			Msg("Publisher registered")
		publishers = append(publishers, pub)
	}

	return publishers, nil
}
