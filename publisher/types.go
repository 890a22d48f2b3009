package publisher

import (
	"context"
	"fmt"

	"github.com/rutvik18Verticals/ally-xs-transactions/transaction"
)

// Responsibility tags a publisher with the role it plays in the update
// fan-out. The dispatcher routes on these tags.
type Responsibility int

const (
	// ResponsibilityUnknown is the zero value and never routes.
	ResponsibilityUnknown Responsibility = iota
	// ResponsibilityMicroservices forwards full transaction data to the
	// downstream microservices bus. Suppressed for legacy wells.
	ResponsibilityMicroservices
	// ResponsibilityListener notifies the transaction listener that a new
	// transaction id is in flight.
	ResponsibilityListener
	// ResponsibilityLegacyStore persists the update into the legacy
	// transaction table.
	ResponsibilityLegacyStore
	// ResponsibilityCommsWrapper hands the raw update to the comms wrapper
	// for device delivery.
	ResponsibilityCommsWrapper
)

// String returns the wire tag of the responsibility. The first two spellings
// carry a typo inherited from the upstream consumers; they are load-bearing
// and must not be corrected.
func (r Responsibility) String() string {
	switch r {
	case ResponsibilityMicroservices:
		return "PublishTransationDataToMicroservices"
	case ResponsibilityListener:
		return "PublishTransationIdToListener"
	case ResponsibilityLegacyStore:
		return "PublishStoreUpdateDataToLegacyDBStore"
	case ResponsibilityCommsWrapper:
		return "PublishStoreUpdateDataToCommsWrapper"
	default:
		return "Unknown"
	}
}

// ParseResponsibility maps a wire tag back to its responsibility.
func ParseResponsibility(s string) (Responsibility, error) {
	for _, r := range []Responsibility{
		ResponsibilityMicroservices,
		ResponsibilityListener,
		ResponsibilityLegacyStore,
		ResponsibilityCommsWrapper,
	} {
		if r.String() == s {
			return r, nil
		}
	}
	return ResponsibilityUnknown, fmt.Errorf("unknown responsibility %q", s)
}

// Message is one update handed to a publisher. Raw holds the serialized
// envelope exactly as it arrived; Envelope is the decoded form for targets
// that need individual columns.
type Message struct {
	TransactionID int32
	NodeID        string
	CorrelationID string
	Raw           []byte
	Envelope      *transaction.UpdatePayload
}

// Publisher is one downstream target of the update fan-out.
type Publisher interface {
	// Name returns the configured instance name, for logs.
	Name() string
	// Responsibility returns the routing tag of this publisher.
	Responsibility() Responsibility
	// Publish delivers one update to the target.
	Publish(ctx context.Context, msg Message) error
	// Close releases any resources held by the publisher.
	Close() error
}
