package wire

// RegList holds the five parallel columns of a register request, one entry
// per distinct address, sorted ascending by address. Builders are expected
// to keep the columns equal length; PushRegList writes them as-is.
type RegList struct {
	Addresses []float32
	DataTypes []float32
	Values    []float32
	DBValues  []float32
	BitInfos  []float32
}

// Len returns the number of addresses in the list.
func (r RegList) Len() int { return len(r.Addresses) }

// columns returns the five columns in their wire order.
func (r RegList) columns() [5][]float32 {
	return [5][]float32{r.Addresses, r.DataTypes, r.Values, r.DBValues, r.BitInfos}
}
