package transaction

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rutvik18Verticals/ally-xs-transactions/telemetry"
	"github.com/rutvik18Verticals/ally-xs-transactions/wire"
)

// Composition defaults applied when a Request leaves the field zero.
const (
	DefaultPriority           = 5
	DefaultEquipmentSelection = 7
)

// Request describes one outbound device command.
type Request struct {
	Action  Action
	AssetID string

	// Registers maps register address to write value. Values are ignored
	// for read requests. Duplicate addresses collapse by map semantics.
	Registers map[int32]float32

	// ControlType selects the well control action for ActionWellControl.
	ControlType DeviceControlType

	// EquipmentSelection selects the controller equipment bank for well
	// control; zero takes DefaultEquipmentSelection.
	EquipmentSelection int32

	// IntervalSeconds future-dates the request; zero dispatches immediately.
	IntervalSeconds int

	// Priority of the transaction row; zero takes DefaultPriority.
	Priority int

	// EventGroupID is appended to read/write buffers only when present.
	EventGroupID *int32
}

// Composer assembles transaction envelopes for outbound device commands.
type Composer struct {
	nodes     NodeLookup
	datatypes DataTypeLookup
	allocator *IDAllocator
	source    string
	now       func() time.Time
}

// NewComposer creates a composer. All dependencies are required.
func NewComposer(nodes NodeLookup, datatypes DataTypeLookup, allocator *IDAllocator, source string) (*Composer, error) {
	if nodes == nil {
		return nil, errors.New("transaction: composer requires a node lookup")
	}
	if datatypes == nil {
		return nil, errors.New("transaction: composer requires a datatype lookup")
	}
	if allocator == nil {
		return nil, errors.New("transaction: composer requires an id allocator")
	}
	if source == "" {
		return nil, errors.New("transaction: composer requires a source identity")
	}
	return &Composer{
		nodes:     nodes,
		datatypes: datatypes,
		allocator: allocator,
		source:    source,
		now:       time.Now,
	}, nil
}

// CreateReadRegisterPayload composes a GetData envelope for the given
// register addresses. Addresses are decimal strings; duplicates collapse.
func (c *Composer) CreateReadRegisterPayload(ctx context.Context, assetID string, addresses []string, correlationID string) (*UpdatePayload, error) {
	regs := make(map[int32]float32, len(addresses))
	for _, raw := range addresses {
		addr, err := parseAddress(raw)
		if err != nil {
			return nil, c.fail(ActionGetData, correlationID, "Invalid register address "+raw+".")
		}
		regs[addr] = 0
	}
	return c.Create(ctx, Request{Action: ActionGetData, AssetID: assetID, Registers: regs}, correlationID)
}

// CreateWriteRegisterPayload composes a SetData envelope for the given
// address/value pairs. Addresses are decimal strings.
func (c *Composer) CreateWriteRegisterPayload(ctx context.Context, assetID string, values map[string]float32, correlationID string) (*UpdatePayload, error) {
	regs := make(map[int32]float32, len(values))
	for raw, v := range values {
		addr, err := parseAddress(raw)
		if err != nil {
			return nil, c.fail(ActionSetData, correlationID, "Invalid register address "+raw+".")
		}
		regs[addr] = v
	}
	return c.Create(ctx, Request{Action: ActionSetData, AssetID: assetID, Registers: regs}, correlationID)
}

// CreateWellControlPayload composes a WellControl envelope with the default
// equipment selection.
func (c *Composer) CreateWellControlPayload(ctx context.Context, assetID string, controlType DeviceControlType, correlationID string) (*UpdatePayload, error) {
	return c.Create(ctx, Request{Action: ActionWellControl, AssetID: assetID, ControlType: controlType}, correlationID)
}

// CreateWellControlPayloadForEquipment composes a WellControl envelope
// targeting a specific controller equipment bank.
func (c *Composer) CreateWellControlPayloadForEquipment(ctx context.Context, assetID string, controlType DeviceControlType, equipmentSelection int32, correlationID string) (*UpdatePayload, error) {
	return c.Create(ctx, Request{
		Action:             ActionWellControl,
		AssetID:            assetID,
		ControlType:        controlType,
		EquipmentSelection: equipmentSelection,
	}, correlationID)
}

// Create runs the full composition pipeline for a request: resolve the node,
// encode the binary input buffer, resolve the port, allocate a transaction
// id, and assemble the envelope. Validation failures return a
// ValidationError; unsupported actions return InvalidActionError or
// NotYetSupportedError. Nothing here panics.
func (c *Composer) Create(ctx context.Context, req Request, correlationID string) (*UpdatePayload, error) {
	start := c.now()

	switch req.Action {
	case ActionGetData, ActionSetData, ActionWellControl:
	case ActionGetCard, ActionGetHistory, ActionDownloadConfig:
		log.Warn().
			Str("correlation_id", correlationID).
			Stringer("action", req.Action).
			Msg("Action family is not implemented yet")
		telemetry.ComposeTotal.With(req.Action.String(), "rejected").Inc()
		return nil, &NotYetSupportedError{Action: req.Action}
	default:
		log.Warn().
			Str("correlation_id", correlationID).
			Stringer("action", req.Action).
			Msg("Received invalid action")
		telemetry.ComposeTotal.With(req.Action.String(), "rejected").Inc()
		return nil, &InvalidActionError{Action: req.Action}
	}

	// Common validation gate for every action kind.
	if req.AssetID == "" {
		return nil, c.fail(req.Action, correlationID, "Asset id is required.")
	}
	nodeID, err := c.nodes.ResolveNodeID(ctx, req.AssetID, correlationID)
	if err != nil {
		telemetry.ComposeTotal.With(req.Action.String(), "failed").Inc()
		return nil, wrapLookup("resolve node id", correlationID, err)
	}
	if nodeID == "" {
		return nil, c.fail(req.Action, correlationID, "Unable to resolve a node for asset "+req.AssetID+".")
	}

	input, err := c.encodeInput(ctx, req, nodeID, correlationID)
	if err != nil {
		if !IsValidation(err) {
			telemetry.ComposeTotal.With(req.Action.String(), "failed").Inc()
		}
		return nil, err
	}

	// Port resolution failure is a hard failure, unlike the poc type above.
	portID, ok, err := c.nodes.ResolvePortID(ctx, req.AssetID, correlationID)
	if err != nil {
		telemetry.ComposeTotal.With(req.Action.String(), "failed").Inc()
		return nil, wrapLookup("resolve port id", correlationID, err)
	}
	if !ok {
		return nil, c.fail(req.Action, correlationID, "No port assigned to node "+nodeID+".")
	}

	id, err := c.allocator.Allocate(ctx, correlationID)
	if err != nil {
		telemetry.ComposeTotal.With(req.Action.String(), "failed").Inc()
		return nil, wrapLookup("allocate transaction id", correlationID, err)
	}

	requestDate := c.now().Add(time.Duration(req.IntervalSeconds) * time.Second)
	if req.Action == ActionWellControl && req.IntervalSeconds > 0 {
		c.auditFutureControl(req, id)
	}

	priority := req.Priority
	if priority == 0 {
		priority = DefaultPriority
	}
	task, _ := req.Action.Task()
	txID := strconv.FormatInt(int64(id), 10)

	env := &UpdatePayload{
		Key: []ColumnValue{
			{Column: ColumnTransactionID, Value: txID},
		},
		Data: []ColumnValue{
			{Column: ColumnTransactionID, Value: txID},
			{Column: ColumnDateRequest, Value: requestDate.Format(DateRequestFormat)},
			{Column: ColumnPortID, Value: strconv.FormatInt(int64(portID), 10)},
			{Column: ColumnTask, Value: task},
			{Column: ColumnInput, Value: base64.StdEncoding.EncodeToString(input)},
			{Column: ColumnNodeID, Value: nodeID},
			{Column: ColumnPriority, Value: strconv.Itoa(priority)},
			{Column: ColumnSource, Value: c.source},
			{Column: ColumnCorrelationID, Value: correlationID},
		},
	}

	telemetry.ComposeTotal.With(task, "success").Inc()
	telemetry.ComposeDurationSeconds.Observe(c.now().Sub(start).Seconds())
	log.Info().
		Str("correlation_id", correlationID).
		Str("node_id", nodeID).
		Str("transaction_id", txID).
		Str("task", task).
		Msg("Composed transaction envelope")

	return env, nil
}

// encodeInput builds the binary input buffer for the request.
func (c *Composer) encodeInput(ctx context.Context, req Request, nodeID, correlationID string) ([]byte, error) {
	var enc wire.Encoder
	enc.PushString(nodeID)

	switch req.Action {
	case ActionGetData:
		enc.PushInteger(opCodeGetData)
		addrs := make([]int32, 0, len(req.Registers))
		for addr := range req.Registers {
			addrs = append(addrs, addr)
		}
		enc.PushRegList(BuildReadRegList(addrs))

	case ActionSetData:
		enc.PushInteger(opCodeSetData)
		rl, err := BuildWriteRegList(ctx, c.datatypes, req.AssetID, req.Registers, correlationID)
		if err != nil {
			return nil, wrapLookup("build write register list", correlationID, err)
		}
		enc.PushRegList(rl)

	case ActionWellControl:
		if !req.ControlType.Valid() {
			return nil, c.fail(req.Action, correlationID, "Unknown device control type "+req.ControlType.String()+".")
		}
		enc.PushInteger(req.ControlType.Code())

		// Poc type resolution failure is soft: encode zero and proceed.
		pocType, ok, err := c.nodes.ResolvePocTypeID(ctx, req.AssetID, correlationID)
		if err != nil || !ok {
			log.Warn().
				Err(err).
				Str("correlation_id", correlationID).
				Str("node_id", nodeID).
				Msg("Poc type unresolved, encoding zero")
			pocType = 0
		}
		enc.PushInteger(int32(pocType))

		equip := req.EquipmentSelection
		if equip == 0 {
			equip = DefaultEquipmentSelection
		}
		enc.PushInteger(equip)
	}

	if req.EventGroupID != nil && req.Action != ActionWellControl {
		enc.PushInteger(*req.EventGroupID)
	}

	if err := enc.Err(); err != nil {
		return nil, c.fail(req.Action, correlationID, "Node id "+nodeID+" is too long to encode.")
	}
	return enc.Bytes(), nil
}

// auditFutureControl is the audit hook for future-dated well control
// actions. The legacy system never implemented it; it stays a no-op.
func (c *Composer) auditFutureControl(req Request, id int32) {}

// fail logs and returns a ValidationError.
func (c *Composer) fail(action Action, correlationID, message string) error {
	log.Warn().
		Str("correlation_id", correlationID).
		Stringer("action", action).
		Msg(message)
	telemetry.ComposeTotal.With(action.String(), "rejected").Inc()
	return &ValidationError{Message: message}
}

func wrapLookup(op, correlationID string, err error) error {
	log.Error().
		Err(err).
		Str("correlation_id", correlationID).
		Msgf("Failed to %s", op)
	return fmt.Errorf("%s: %w", op, err)
}

func parseAddress(raw string) (int32, error) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}
