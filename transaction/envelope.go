package transaction

// Column names of the UpdatePayload envelope. The names and the order of the
// Data section are a contract consumed by legacy readers; assemble in the
// composer is the only producer.
const (
	ColumnTransactionID = "TransactionID"
	ColumnDateRequest   = "DateRequest"
	ColumnPortID        = "PortID"
	ColumnTask          = "Task"
	ColumnInput         = "Input"
	ColumnNodeID        = "NodeID"
	ColumnPriority      = "Priority"
	ColumnSource        = "Source"
	ColumnCorrelationID = "CorrelationId"
)

// DateRequestFormat is the timestamp layout of the DateRequest column.
const DateRequestFormat = "2006-01-02T15:04:05"

// ColumnValue is one column/value string pair of the envelope.
type ColumnValue struct {
	Column string `json:"Column"`
	Value  string `json:"Value"`
}

// UpdatePayload is the wire envelope for one stored transaction. Key holds a
// single TransactionID entry; Data holds the ordered column list. The
// payload is produced once by the composer, serialized, and deserialized
// once by the dispatcher. It is never mutated in place.
type UpdatePayload struct {
	Key  []ColumnValue `json:"Key"`
	Data []ColumnValue `json:"Data"`
}

// Value returns the value of the named column in the Data section. Lookup
// is by column name, not position, so reordered producers still decode.
func (p *UpdatePayload) Value(column string) (string, bool) {
	for _, cv := range p.Data {
		if cv.Column == column {
			return cv.Value, true
		}
	}
	return "", false
}

// TransactionID returns the Key entry's transaction id, or "" when absent.
func (p *UpdatePayload) TransactionID() string {
	if len(p.Key) == 0 {
		return ""
	}
	return p.Key[0].Value
}
