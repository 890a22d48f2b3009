package transaction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutvik18Verticals/ally-xs-transactions/wire"
)

type fakeNodeLookup struct {
	nodeID    string
	nodeErr   error
	portID    int16
	portOK    bool
	portErr   error
	pocTypeID int16
	pocOK     bool
	pocErr    error
	node      *Node
}

func (f *fakeNodeLookup) ResolveNodeID(ctx context.Context, assetID, correlationID string) (string, error) {
	return f.nodeID, f.nodeErr
}

func (f *fakeNodeLookup) ResolvePortID(ctx context.Context, assetID, correlationID string) (int16, bool, error) {
	return f.portID, f.portOK, f.portErr
}

func (f *fakeNodeLookup) ResolvePocTypeID(ctx context.Context, assetID, correlationID string) (int16, bool, error) {
	return f.pocTypeID, f.pocOK, f.pocErr
}

func (f *fakeNodeLookup) GetNode(ctx context.Context, assetID, correlationID string) (*Node, error) {
	return f.node, nil
}

func newTestComposer(t *testing.T, nodes *fakeNodeLookup, datatypes DataTypeLookup) *Composer {
	t.Helper()

	alloc, err := NewIDAllocator(&fakeChecker{}, &scriptedRand{values: []int32{999, 776}})
	require.NoError(t, err)

	if datatypes == nil {
		datatypes = &fakeDataTypes{}
	}
	c, err := NewComposer(nodes, datatypes, alloc, "ally-xs")
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return c
}

func TestNewComposer_RequiresDependencies(t *testing.T) {
	nodes := &fakeNodeLookup{}
	datatypes := &fakeDataTypes{}
	alloc, _ := NewIDAllocator(&fakeChecker{}, nil)

	if _, err := NewComposer(nil, datatypes, alloc, "ally-xs"); err == nil {
		t.Error("expected error for nil node lookup")
	}
	if _, err := NewComposer(nodes, nil, alloc, "ally-xs"); err == nil {
		t.Error("expected error for nil datatype lookup")
	}
	if _, err := NewComposer(nodes, datatypes, nil, "ally-xs"); err == nil {
		t.Error("expected error for nil allocator")
	}
	if _, err := NewComposer(nodes, datatypes, alloc, ""); err == nil {
		t.Error("expected error for empty source")
	}
}

func TestCreateReadRegisterPayload(t *testing.T) {
	nodes := &fakeNodeLookup{nodeID: "theta sam", portID: 32, portOK: true}
	c := newTestComposer(t, nodes, nil)

	env, err := c.CreateReadRegisterPayload(context.Background(), "asset-1", []string{"10001", "10003", "10004"}, "cid-1")
	require.NoError(t, err)
	require.NotNil(t, env)

	// Key carries the single TransactionID entry.
	require.Len(t, env.Key, 1)
	assert.Equal(t, ColumnTransactionID, env.Key[0].Column)
	assert.Equal(t, "777", env.Key[0].Value)

	// Data column order is a legacy contract.
	wantColumns := []string{
		ColumnTransactionID, ColumnDateRequest, ColumnPortID, ColumnTask,
		ColumnInput, ColumnNodeID, ColumnPriority, ColumnSource, ColumnCorrelationID,
	}
	require.Len(t, env.Data, len(wantColumns))
	for i, want := range wantColumns {
		assert.Equal(t, want, env.Data[i].Column, "column %d", i)
	}

	assert.Equal(t, ColumnValue{Column: ColumnPortID, Value: "32"}, env.Data[2])
	assert.Equal(t, ColumnValue{Column: ColumnTask, Value: "GetData"}, env.Data[3])
	assert.Equal(t, "theta sam", env.Data[5].Value)
	assert.Equal(t, "5", env.Data[6].Value)
	assert.Equal(t, "ally-xs", env.Data[7].Value)
	assert.Equal(t, "cid-1", env.Data[8].Value)
	assert.Equal(t, "2026-03-14T09:30:00", env.Data[1].Value)

	// The Input column decodes back into the binary read request.
	raw, err := base64.StdEncoding.DecodeString(env.Data[4].Value)
	require.NoError(t, err)

	d := wire.NewDecoder(raw)
	nodeID, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "theta sam", nodeID)

	op, err := d.ReadInteger()
	require.NoError(t, err)
	assert.Equal(t, int32(1), op)

	rl, err := d.ReadRegList()
	require.NoError(t, err)
	assert.Equal(t, []float32{10001, 10003, 10004}, rl.Addresses)
	assert.Equal(t, []float32{0, 0, 0}, rl.DataTypes)
	assert.Equal(t, 0, d.Remaining())
}

func TestCreateReadRegisterPayload_UnresolvedNode(t *testing.T) {
	nodes := &fakeNodeLookup{nodeID: "", portID: 32, portOK: true}
	c := newTestComposer(t, nodes, nil)

	env, err := c.CreateReadRegisterPayload(context.Background(), "asset-1", []string{"10001"}, "cid-1")
	require.Error(t, err)
	assert.Nil(t, env)
	assert.True(t, IsValidation(err))
}

func TestCreate_EmptyAssetID(t *testing.T) {
	c := newTestComposer(t, &fakeNodeLookup{nodeID: "theta sam", portOK: true}, nil)

	env, err := c.CreateReadRegisterPayload(context.Background(), "", []string{"10001"}, "cid-1")
	require.Error(t, err)
	assert.Nil(t, env)
	assert.True(t, IsValidation(err))
}

func TestCreateWriteRegisterPayload(t *testing.T) {
	nodes := &fakeNodeLookup{nodeID: "theta sam", portID: 32, portOK: true}
	datatypes := &fakeDataTypes{types: map[int32]int16{10001: 1}}
	c := newTestComposer(t, nodes, datatypes)

	env, err := c.CreateWriteRegisterPayload(context.Background(), "asset-1", map[string]float32{
		"10001": 1.5,
		"10002": 2.5,
	}, "cid-1")
	require.NoError(t, err)

	task, _ := env.Value(ColumnTask)
	assert.Equal(t, "SetData", task)

	input, _ := env.Value(ColumnInput)
	raw, err := base64.StdEncoding.DecodeString(input)
	require.NoError(t, err)

	d := wire.NewDecoder(raw)
	_, err = d.ReadString()
	require.NoError(t, err)

	op, err := d.ReadInteger()
	require.NoError(t, err)
	assert.Equal(t, int32(2), op)

	rl, err := d.ReadRegList()
	require.NoError(t, err)
	assert.Equal(t, []float32{10001, 10002}, rl.Addresses)
	assert.Equal(t, []float32{1, float32(DataTypeModiconFloat)}, rl.DataTypes)
	assert.Equal(t, []float32{1.5, 2.5}, rl.Values)
}

func TestCreateWellControlPayload(t *testing.T) {
	nodes := &fakeNodeLookup{nodeID: "theta sam", portID: 32, portOK: true, pocTypeID: 8, pocOK: true}
	c := newTestComposer(t, nodes, nil)

	env, err := c.CreateWellControlPayload(context.Background(), "asset-1", ControlStartWell, "cid-1")
	require.NoError(t, err)

	assert.Equal(t, ColumnValue{Column: ColumnTask, Value: "WellControl"}, env.Data[3])

	input, _ := env.Value(ColumnInput)
	raw, err := base64.StdEncoding.DecodeString(input)
	require.NoError(t, err)

	d := wire.NewDecoder(raw)
	nodeID, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "theta sam", nodeID)

	for _, want := range []int32{1, 8, 7} {
		n, err := d.ReadInteger()
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	assert.Equal(t, 0, d.Remaining())
}

func TestCreateWellControlPayload_PocTypeSoftFailure(t *testing.T) {
	// Poc type resolution failure encodes a zero poc type; composition
	// proceeds, unlike the port failure below.
	nodes := &fakeNodeLookup{nodeID: "theta sam", portID: 32, portOK: true, pocErr: errors.New("poc lookup down")}
	c := newTestComposer(t, nodes, nil)

	env, err := c.CreateWellControlPayloadForEquipment(context.Background(), "asset-1", ControlStopWell, 3, "cid-1")
	require.NoError(t, err)

	input, _ := env.Value(ColumnInput)
	raw, err := base64.StdEncoding.DecodeString(input)
	require.NoError(t, err)

	d := wire.NewDecoder(raw)
	_, err = d.ReadString()
	require.NoError(t, err)
	for _, want := range []int32{2, 0, 3} {
		n, err := d.ReadInteger()
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
}

func TestCreate_PortHardFailure(t *testing.T) {
	nodes := &fakeNodeLookup{nodeID: "theta sam", portOK: false, pocTypeID: 8, pocOK: true}
	c := newTestComposer(t, nodes, nil)

	env, err := c.CreateWellControlPayload(context.Background(), "asset-1", ControlStartWell, "cid-1")
	require.Error(t, err)
	assert.Nil(t, env)
	assert.True(t, IsValidation(err))
}

func TestCreate_UnknownControlType(t *testing.T) {
	nodes := &fakeNodeLookup{nodeID: "theta sam", portID: 32, portOK: true}
	c := newTestComposer(t, nodes, nil)

	_, err := c.CreateWellControlPayload(context.Background(), "asset-1", DeviceControlType(42), "cid-1")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestCreate_EventGroupAppended(t *testing.T) {
	nodes := &fakeNodeLookup{nodeID: "theta sam", portID: 32, portOK: true}
	c := newTestComposer(t, nodes, nil)

	group := int32(12)
	env, err := c.Create(context.Background(), Request{
		Action:       ActionGetData,
		AssetID:      "asset-1",
		Registers:    map[int32]float32{10001: 0},
		EventGroupID: &group,
	}, "cid-1")
	require.NoError(t, err)

	input, _ := env.Value(ColumnInput)
	raw, err := base64.StdEncoding.DecodeString(input)
	require.NoError(t, err)

	d := wire.NewDecoder(raw)
	_, err = d.ReadString()
	require.NoError(t, err)
	_, err = d.ReadInteger()
	require.NoError(t, err)
	_, err = d.ReadRegList()
	require.NoError(t, err)

	tail, err := d.ReadInteger()
	require.NoError(t, err)
	assert.Equal(t, int32(12), tail)
	assert.Equal(t, 0, d.Remaining())
}

func TestCreate_FutureDispatchInterval(t *testing.T) {
	nodes := &fakeNodeLookup{nodeID: "theta sam", portID: 32, portOK: true, pocTypeID: 8, pocOK: true}
	c := newTestComposer(t, nodes, nil)

	env, err := c.Create(context.Background(), Request{
		Action:          ActionWellControl,
		AssetID:         "asset-1",
		ControlType:     ControlScan,
		IntervalSeconds: 90,
	}, "cid-1")
	require.NoError(t, err)

	date, _ := env.Value(ColumnDateRequest)
	assert.Equal(t, "2026-03-14T09:31:30", date)
}

func TestCreate_NotYetSupportedActions(t *testing.T) {
	c := newTestComposer(t, &fakeNodeLookup{nodeID: "theta sam", portID: 32, portOK: true}, nil)

	for _, action := range []Action{ActionGetCard, ActionGetHistory, ActionDownloadConfig} {
		_, err := c.Create(context.Background(), Request{Action: action, AssetID: "asset-1"}, "cid-1")
		var nys *NotYetSupportedError
		require.ErrorAs(t, err, &nys, "action %v", action)
		assert.Equal(t, action, nys.Action)
	}
}

func TestCreate_InvalidAction(t *testing.T) {
	c := newTestComposer(t, &fakeNodeLookup{nodeID: "theta sam", portID: 32, portOK: true}, nil)

	_, err := c.Create(context.Background(), Request{Action: Action(77), AssetID: "asset-1"}, "cid-1")
	var inv *InvalidActionError
	require.ErrorAs(t, err, &inv)
}

func TestEnvelope_JSONRoundTrip(t *testing.T) {
	nodes := &fakeNodeLookup{nodeID: "theta sam", portID: 32, portOK: true}
	c := newTestComposer(t, nodes, nil)

	env, err := c.CreateReadRegisterPayload(context.Background(), "asset-1", []string{"10001"}, "cid-1")
	require.NoError(t, err)

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded UpdatePayload
	require.NoError(t, json.Unmarshal(data, &decoded))

	nodeID, ok := decoded.Value(ColumnNodeID)
	require.True(t, ok)
	assert.Equal(t, "theta sam", nodeID)

	txID, ok := decoded.Value(ColumnTransactionID)
	require.True(t, ok)
	assert.Equal(t, env.TransactionID(), txID)
}
