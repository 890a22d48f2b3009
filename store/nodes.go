package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/rutvik18Verticals/ally-xs-transactions/transaction"
)

// datatypeCacheSize bounds the parameter datatype cache. Poc types reuse the
// same register map across wells, so the hit rate is high even at this size.
const datatypeCacheSize = 4096

// NodeStore resolves node master records, poc types and parameter datatypes
// from the legacy database. It implements the composer's NodeLookup and
// DataTypeLookup and the dispatcher's node source and legacy router.
type NodeStore struct {
	db      *sql.DB
	dtCache *lru.Cache[string, int16]
}

// NewNodeStore creates a node store over an open legacy database handle.
func NewNodeStore(db *sql.DB) (*NodeStore, error) {
	if db == nil {
		return nil, errors.New("store: node store requires a database handle")
	}

	cache, err := lru.New[string, int16](datatypeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create datatype cache: %w", err)
	}
	return &NodeStore{db: db, dtCache: cache}, nil
}

// ResolveNodeID returns the node id for an asset, or "" when the asset is
// unknown. Assets are addressed by GUID, with a node-id fallback for callers
// that already hold the field identity.
func (s *NodeStore) ResolveNodeID(ctx context.Context, assetID, correlationID string) (string, error) {
	query, args, err := dialect.From("tblNodeMaster").
		Select("NodeID").
		Where(goqu.ExOr{"AssetGUID": assetID, "NodeID": assetID}).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("build node id query: %w", err)
	}

	var nodeID string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&nodeID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query node id: %w", err)
	}
	return nodeID, nil
}

// ResolvePortID returns the physical port assigned to the asset's node. A
// missing row and a NULL port both resolve as not found.
func (s *NodeStore) ResolvePortID(ctx context.Context, assetID, correlationID string) (int16, bool, error) {
	port, ok, err := s.scanNullableInt16(ctx, "PortID", assetID)
	if err != nil {
		return 0, false, err
	}
	return port, ok, nil
}

// ResolvePocTypeID returns the poc type code of the asset's controller.
func (s *NodeStore) ResolvePocTypeID(ctx context.Context, assetID, correlationID string) (int16, bool, error) {
	poc, ok, err := s.scanNullableInt16(ctx, "PocType", assetID)
	if err != nil {
		return 0, false, err
	}
	return poc, ok, nil
}

// GetNode returns the node master record for an asset, or nil when the
// asset is unknown.
func (s *NodeStore) GetNode(ctx context.Context, assetID, correlationID string) (*transaction.Node, error) {
	query, args, err := dialect.From("tblNodeMaster").
		Select("NodeID", goqu.COALESCE(goqu.C("PocType"), 0), "Enabled").
		Where(goqu.ExOr{"AssetGUID": assetID, "NodeID": assetID}).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build node query: %w", err)
	}

	var node transaction.Node
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&node.NodeID, &node.PocType, &node.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query node: %w", err)
	}
	return &node, nil
}

// IsLegacyWell reports whether a poc type routes through the legacy
// single-store update path.
func (s *NodeStore) IsLegacyWell(ctx context.Context, pocType int16, correlationID string) (bool, error) {
	query, args, err := dialect.From("tblPocTypes").
		Select("LegacyWell").
		Where(goqu.Ex{"PocType": pocType}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build poc type query: %w", err)
	}

	var legacy bool
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&legacy)
	if errors.Is(err, sql.ErrNoRows) {
		// Unknown poc types take the modern path.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query poc type: %w", err)
	}
	return legacy, nil
}

// GetParameterDataTypes returns a datatype code per address for the asset's
// poc type. Addresses with no parameter row are absent from the result; the
// caller applies its own default.
func (s *NodeStore) GetParameterDataTypes(ctx context.Context, assetID string, addresses []int32, correlationID string) (map[int32]int16, error) {
	if len(addresses) == 0 {
		return map[int32]int16{}, nil
	}

	pocType, ok, err := s.ResolvePocTypeID(ctx, assetID, correlationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Debug().
			Str("correlation_id", correlationID).
			Str("asset_id", assetID).
			Msg("No poc type for asset, datatype lookup returns empty")
		return map[int32]int16{}, nil
	}

	result := make(map[int32]int16, len(addresses))
	var misses []int32
	for _, addr := range addresses {
		if dt, hit := s.dtCache.Get(datatypeKey(pocType, addr)); hit {
			result[addr] = dt
		} else {
			misses = append(misses, addr)
		}
	}
	if len(misses) == 0 {
		return result, nil
	}

	addrVals := make([]interface{}, len(misses))
	for i, addr := range misses {
		addrVals[i] = addr
	}
	query, args, err := dialect.From("tblParameters").
		Select("Address", "DataType").
		Where(goqu.Ex{"PocType": pocType, "Address": addrVals}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build parameter query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query parameters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr int32
		var dt int16
		if err := rows.Scan(&addr, &dt); err != nil {
			return nil, fmt.Errorf("scan parameter: %w", err)
		}
		result[addr] = dt
		s.dtCache.Add(datatypeKey(pocType, addr), dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read parameters: %w", err)
	}

	return result, nil
}

func (s *NodeStore) scanNullableInt16(ctx context.Context, column, assetID string) (int16, bool, error) {
	query, args, err := dialect.From("tblNodeMaster").
		Select(column).
		Where(goqu.ExOr{"AssetGUID": assetID, "NodeID": assetID}).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, false, fmt.Errorf("build %s query: %w", column, err)
	}

	var value sql.NullInt16
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query %s: %w", column, err)
	}
	if !value.Valid {
		return 0, false, nil
	}
	return value.Int16, true, nil
}

func datatypeKey(pocType int16, addr int32) string {
	return fmt.Sprintf("%d:%d", pocType, addr)
}
