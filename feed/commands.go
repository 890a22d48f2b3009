package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/rutvik18Verticals/ally-xs-transactions/dispatch"
	"github.com/rutvik18Verticals/ally-xs-transactions/telemetry"
	"github.com/rutvik18Verticals/ally-xs-transactions/transaction"
)

// CommandRequest is one inbound device-command request.
type CommandRequest struct {
	Action             string             `json:"Action"`
	AssetID            string             `json:"AssetId"`
	Addresses          []string           `json:"Addresses,omitempty"`
	Values             map[string]float32 `json:"Values,omitempty"`
	ControlType        string             `json:"ControlType,omitempty"`
	EquipmentSelection int32              `json:"EquipmentSelection,omitempty"`
	CorrelationID      string             `json:"CorrelationId,omitempty"`
}

// CommandReply is sent back on the request's reply subject when one is set.
type CommandReply struct {
	TransactionID int32  `json:"TransactionId,omitempty"`
	Error         string `json:"Error,omitempty"`
}

// IDReleaser discards a claimed transaction id that will never reach the
// store. Satisfied by the id allocator.
type IDReleaser interface {
	Release(id int32)
}

// CommandConsumer turns command requests into composed envelopes and emits
// them as Insert change events on the change subject, where the change
// consumer picks them up for fan-out.
type CommandConsumer struct {
	nc            *nats.Conn
	composer      *transaction.Composer
	releaser      IDReleaser
	subject       string
	changeSubject string
	queue         string
	sub           *nats.Subscription

	// emit publishes one composed envelope as a change event. Defaults to
	// publishChange; replaceable in tests.
	emit func(correlationID string, envelope *transaction.UpdatePayload) error
}

// NewCommandConsumer creates a consumer over an established connection. A
// nil releaser skips claim cleanup on emit failure.
func NewCommandConsumer(nc *nats.Conn, composer *transaction.Composer, releaser IDReleaser, subject, changeSubject, queue string) (*CommandConsumer, error) {
	if nc == nil {
		return nil, errors.New("feed: command consumer requires a NATS connection")
	}
	if composer == nil {
		return nil, errors.New("feed: command consumer requires a composer")
	}
	if subject == "" || changeSubject == "" {
		return nil, errors.New("feed: command consumer requires command and change subjects")
	}
	c := &CommandConsumer{
		nc:            nc,
		composer:      composer,
		releaser:      releaser,
		subject:       subject,
		changeSubject: changeSubject,
		queue:         queue,
	}
	c.emit = c.publishChange
	return c, nil
}

// Start subscribes.
func (c *CommandConsumer) Start(ctx context.Context) error {
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
		Msg("Command consumer started")
	return nil
}

func (c *CommandConsumer) handle(ctx context.Context, msg *nats.Msg) {
	var req CommandRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		telemetry.FeedEventsTotal.With("command", "malformed").Inc()
		log.Warn().
			Err(err).
			Str("subject", msg.Subject).
			Msg("Dropping malformed command request")
		return
	}
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}

	envelope, err := c.compose(ctx, req)
	if err != nil {
		telemetry.FeedEventsTotal.With("command", "rejected").Inc()
		c.reply(msg, CommandReply{Error: err.Error()})
		return
	}

	if err := c.emit(req.CorrelationID, envelope); err != nil {
		telemetry.FeedEventsTotal.With("command", "failed").Inc()
		log.Error().
			Err(err).
			Str("correlation_id", req.CorrelationID).
			Msg("Failed to emit change event for command")
		// The envelope will never reach the store; free its claimed id.
		if id, perr := strconv.ParseInt(envelope.TransactionID(), 10, 32); perr == nil && c.releaser != nil {
			c.releaser.Release(int32(id))
		}
		c.reply(msg, CommandReply{Error: "failed to emit change event"})
		return
	}

	telemetry.FeedEventsTotal.With("command", "accepted").Inc()
	txID, _ := strconv.ParseInt(envelope.TransactionID(), 10, 32)
	c.reply(msg, CommandReply{TransactionID: int32(txID)})
}

// compose routes the request to the composer entry point matching its
// action. Actions without a dedicated entry point go through Create, which
// rejects the ones that have no encoding.
func (c *CommandConsumer) compose(ctx context.Context, req CommandRequest) (*transaction.UpdatePayload, error) {
	action, ok := transaction.ParseAction(req.Action)
	if !ok {
		return nil, &transaction.ValidationError{Message: fmt.Sprintf("Invalid action %s.", req.Action)}
	}

	switch action {
	case transaction.ActionGetData:
		return c.composer.CreateReadRegisterPayload(ctx, req.AssetID, req.Addresses, req.CorrelationID)
	case transaction.ActionSetData:
		return c.composer.CreateWriteRegisterPayload(ctx, req.AssetID, req.Values, req.CorrelationID)
	case transaction.ActionWellControl:
		controlType, ok := transaction.ParseDeviceControlType(req.ControlType)
		if !ok {
			return nil, &transaction.ValidationError{Message: fmt.Sprintf("Invalid control type %s.", req.ControlType)}
		}
		if req.EquipmentSelection != 0 {
			return c.composer.CreateWellControlPayloadForEquipment(ctx, req.AssetID, controlType, req.EquipmentSelection, req.CorrelationID)
		}
		return c.composer.CreateWellControlPayload(ctx, req.AssetID, controlType, req.CorrelationID)
	default:
		return c.composer.Create(ctx, transaction.Request{Action: action, AssetID: req.AssetID}, req.CorrelationID)
	}
}

func (c *CommandConsumer) publishChange(correlationID string, envelope *transaction.UpdatePayload) error {
	raw, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to serialize envelope: %w", err)
	}

	event := dispatch.ChangeEvent{
		Action:        "Insert",
		PayloadType:   "tblTransactions",
		Payload:       string(raw),
		CorrelationID: correlationID,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize change event: %w", err)
	}

	if err := c.nc.Publish(c.changeSubject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", c.changeSubject, err)
	}
	return nil
}

func (c *CommandConsumer) reply(msg *nats.Msg, reply CommandReply) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		return
	}
	if err := msg.Respond(data); err != nil {
		log.Warn().
			Err(err).
			Str("subject", msg.Subject).
			Msg("Failed to respond to command request")
	}
}

// Close unsubscribes.
func (c *CommandConsumer) Close() error {
	if c.sub == nil {
		return nil
	}
	if err := c.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", c.subject, err)
	}
	c.sub = nil
	return nil
}
