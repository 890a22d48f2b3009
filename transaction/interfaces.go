package transaction

import "context"

// Node is the node-master record for an asset.
type Node struct {
	NodeID  string
	PocType int16
	Enabled bool
}

// NodeLookup resolves the field-communication identity of an asset.
type NodeLookup interface {
	// ResolveNodeID returns the node id for the asset, or "" when the asset
	// is unknown.
	ResolveNodeID(ctx context.Context, assetID, correlationID string) (string, error)

	// ResolvePortID returns the physical port assigned to the asset's node.
	// ok is false when no port is assigned.
	ResolvePortID(ctx context.Context, assetID, correlationID string) (portID int16, ok bool, err error)

	// ResolvePocTypeID returns the poc type code of the asset's controller.
	// ok is false when the controller type is unknown.
	ResolvePocTypeID(ctx context.Context, assetID, correlationID string) (pocTypeID int16, ok bool, err error)

	// GetNode returns the node-master record for the asset, or nil when the
	// asset is unknown.
	GetNode(ctx context.Context, assetID, correlationID string) (*Node, error)
}

// DataTypeLookup resolves register datatype codes in batch.
type DataTypeLookup interface {
	// GetParameterDataTypes returns a datatype code per address. Addresses
	// absent from the result take the caller's default.
	GetParameterDataTypes(ctx context.Context, assetID string, addresses []int32, correlationID string) (map[int32]int16, error)
}

// Checker reports whether a transaction id is live in the backing store.
type Checker interface {
	TransactionIDExists(ctx context.Context, id int32, correlationID string) (bool, error)
}
