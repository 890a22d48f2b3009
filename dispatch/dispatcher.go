package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/rutvik18Verticals/ally-xs-transactions/publisher"
	"github.com/rutvik18Verticals/ally-xs-transactions/telemetry"
	"github.com/rutvik18Verticals/ally-xs-transactions/transaction"
)

const (
	actionInsert            = "Insert"
	payloadTypeTransactions = "tblTransactions"
)

// Status is the terminal outcome of one dispatched event.
type Status int

const (
	// StatusSuccess means the event was routed and the fan-out ran. Individual
	// publisher failures do not demote a success; they are counted instead.
	StatusSuccess Status = iota
	// StatusRejected means the event failed validation and nothing was
	// published.
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result reports what happened to one change event.
type Result struct {
	Status    Status
	Message   string
	Published int
	Failed    int
}

// NodeSource resolves node master records for asset checks.
type NodeSource interface {
	GetNode(ctx context.Context, assetID, correlationID string) (*transaction.Node, error)
}

// LegacyRouter classifies a well by its poc type.
type LegacyRouter interface {
	IsLegacyWell(ctx context.Context, pocType int16, correlationID string) (bool, error)
}

// Dispatcher routes change events to the configured publishers.
type Dispatcher struct {
	nodes      NodeSource
	router     LegacyRouter
	publishers []publisher.Publisher
}

// NewDispatcher creates a dispatcher over the publisher set.
func NewDispatcher(nodes NodeSource, router LegacyRouter, publishers []publisher.Publisher) (*Dispatcher, error) {
	if nodes == nil {
		return nil, fmt.Errorf("dispatch: dispatcher requires a node source")
	}
	if router == nil {
		return nil, fmt.Errorf("dispatch: dispatcher requires a legacy router")
	}
	return &Dispatcher{nodes: nodes, router: router, publishers: publishers}, nil
}

// Process runs one change event through validate, decode, asset check, route
// and fan-out. It never panics; an escaped panic from a downstream stage is
// converted into a rejection.
func (d *Dispatcher) Process(ctx context.Context, event ChangeEvent) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("correlation_id", event.CorrelationID).
				Interface("panic", r).
				Msg("Recovered panic while dispatching change event")
			result = d.reject(event, fmt.Sprintf("panic while dispatching: %v", r))
		}
	}()

	// Validate. The payload type gate runs before the action gate.
	if event.PayloadType != payloadTypeTransactions {
		return d.reject(event, fmt.Sprintf("%s is not supported.", event.PayloadType))
	}
	if event.Action != actionInsert {
		return d.reject(event, fmt.Sprintf("Received invalid action %s.", event.Action))
	}

	// Decode.
	var envelope transaction.UpdatePayload
	if err := json.Unmarshal([]byte(event.Payload), &envelope); err != nil {
		return d.reject(event, fmt.Sprintf("failed to decode update payload: %v", err))
	}
	txRaw, ok := envelope.Value(transaction.ColumnTransactionID)
	if !ok || txRaw == "" {
		return d.reject(event, "update payload is missing a TransactionID column")
	}
	txID64, err := strconv.ParseInt(txRaw, 10, 32)
	if err != nil {
		return d.reject(event, fmt.Sprintf("update payload has a non-numeric TransactionID %q", txRaw))
	}
	txID := int32(txID64)
	nodeID, ok := envelope.Value(transaction.ColumnNodeID)
	if !ok || nodeID == "" {
		return d.reject(event, "update payload is missing a NodeID column")
	}

	// Asset check.
	node, err := d.nodes.GetNode(ctx, nodeID, event.CorrelationID)
	if err != nil {
		return d.reject(event, fmt.Sprintf("failed to look up node %q: %v", nodeID, err))
	}
	if node == nil {
		return d.reject(event, fmt.Sprintf("unknown asset %q", nodeID))
	}
	if !node.Enabled {
		return d.reject(event, "Cannot perform action on a disabled asset.")
	}

	// Route.
	legacy, err := d.router.IsLegacyWell(ctx, node.PocType, event.CorrelationID)
	if err != nil {
		return d.reject(event, fmt.Sprintf("failed to classify poc type %d: %v", node.PocType, err))
	}

	msg := publisher.Message{
		TransactionID: txID,
		NodeID:        node.NodeID,
		CorrelationID: event.CorrelationID,
		Raw:           []byte(event.Payload),
		Envelope:      &envelope,
	}

	// Fan-out. Publishers fire in configured order; a failure in one does
	// not stop the rest.
	for _, pub := range d.publishers {
		resp := pub.Responsibility()
		if legacy && !legacyResponsibility(resp) {
			telemetry.PublishTotal.With(resp.String(), "suppressed").Inc()
			log.Debug().
				Str("correlation_id", event.CorrelationID).
				Str("publisher", pub.Name()).
				Str("node_id", node.NodeID).
				Msg("Publisher suppressed for legacy well")
			continue
		}

		if err := pub.Publish(ctx, msg); err != nil {
			result.Failed++
			telemetry.PublishTotal.With(resp.String(), "failed").Inc()
			log.Error().
				Err(err).
				Str("correlation_id", event.CorrelationID).
				Str("publisher", pub.Name()).
				Int32("transaction_id", txID).
				Msg("Publisher failed")
			continue
		}
		result.Published++
		telemetry.PublishTotal.With(resp.String(), "success").Inc()
	}

	result.Status = StatusSuccess
	telemetry.DispatchTotal.With(result.Status.String()).Inc()
	log.Info().
		Str("correlation_id", event.CorrelationID).
		Int32("transaction_id", txID).
		Str("node_id", node.NodeID).
		Bool("legacy_well", legacy).
		Int("published", result.Published).
		Int("failed", result.Failed).
		Msg("Dispatched change event")
	return result
}

func (d *Dispatcher) reject(event ChangeEvent, message string) Result {
	telemetry.DispatchTotal.With(StatusRejected.String()).Inc()
	log.Warn().
		Str("correlation_id", event.CorrelationID).
		Str("message", message).
		Msg("Rejected change event")
	return Result{Status: StatusRejected, Message: message}
}

// legacyResponsibility reports whether a responsibility still fires for a
// legacy well. Legacy wells are fed by the single-store update path, so the
// microservices data stream and the comms wrapper stay quiet for them.
func legacyResponsibility(r publisher.Responsibility) bool {
	return r == publisher.ResponsibilityListener || r == publisher.ResponsibilityLegacyStore
}
