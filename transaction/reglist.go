package transaction

import (
	"context"
	"fmt"
	"slices"

	"github.com/rutvik18Verticals/ally-xs-transactions/wire"
)

// DataTypeModiconFloat is the fallback datatype code for write registers the
// parameter lookup does not know: float, Modicon representation.
const DataTypeModiconFloat int16 = 3

// BuildReadRegList builds the five-column register list for a read request.
// Datatype is 0 for every address and the value column is a placeholder;
// only the address column is meaningful on a read.
func BuildReadRegList(addresses []int32) wire.RegList {
	sorted := slices.Clone(addresses)
	slices.Sort(sorted)

	rl := newRegList(len(sorted))
	for _, addr := range sorted {
		appendRow(&rl, addr, 0, 0)
	}
	return rl
}

// BuildWriteRegList builds the register list for a write request, resolving
// a datatype code per address through a single batch lookup. Addresses
// missing from the lookup result default to DataTypeModiconFloat. Duplicate
// addresses cannot occur; the input is a map and last value wins upstream.
func BuildWriteRegList(ctx context.Context, lookup DataTypeLookup, assetID string, values map[int32]float32, correlationID string) (wire.RegList, error) {
	if len(values) == 0 {
		return wire.RegList{}, nil
	}

	addrs := make([]int32, 0, len(values))
	for addr := range values {
		addrs = append(addrs, addr)
	}
	slices.Sort(addrs)

	types, err := lookup.GetParameterDataTypes(ctx, assetID, addrs, correlationID)
	if err != nil {
		return wire.RegList{}, fmt.Errorf("resolve parameter datatypes: %w", err)
	}

	rl := newRegList(len(addrs))
	for _, addr := range addrs {
		dt, ok := types[addr]
		if !ok {
			dt = DataTypeModiconFloat
		}
		appendRow(&rl, addr, dt, values[addr])
	}
	return rl, nil
}

func newRegList(n int) wire.RegList {
	return wire.RegList{
		Addresses: make([]float32, 0, n),
		DataTypes: make([]float32, 0, n),
		Values:    make([]float32, 0, n),
		DBValues:  make([]float32, 0, n),
		BitInfos:  make([]float32, 0, n),
	}
}

// appendRow adds one address row. The db-value and bit-info columns are
// always 0 on outbound requests.
func appendRow(rl *wire.RegList, addr int32, dt int16, value float32) {
	rl.Addresses = append(rl.Addresses, float32(addr))
	rl.DataTypes = append(rl.DataTypes, float32(dt))
	rl.Values = append(rl.Values, value)
	rl.DBValues = append(rl.DBValues, 0)
	rl.BitInfos = append(rl.BitInfos, 0)
}
