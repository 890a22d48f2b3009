package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/doug-martin/goqu/v9"

	"github.com/rutvik18Verticals/ally-xs-transactions/transaction"
)

// TransactionRow is one tblTransactions record in the legacy schema.
type TransactionRow struct {
	TransactionID int32  `db:"TransactionID"`
	DateRequest   string `db:"DateRequest"`
	PortID        int16  `db:"PortID"`
	Task          string `db:"Task"`
	Input         string `db:"Input"` // base64 binary buffer, stored verbatim
	NodeID        string `db:"NodeID"`
	Priority      int    `db:"Priority"`
	Source        string `db:"Source"`
	CorrelationID string `db:"CorrelationID"`
}

// TransactionStore reads and writes the legacy tblTransactions table. It
// implements the allocator's existence check and is the persist target of
// the legacy-store publisher.
type TransactionStore struct {
	db *sql.DB
}

// NewTransactionStore creates a transaction store over an open legacy
// database handle.
func NewTransactionStore(db *sql.DB) (*TransactionStore, error) {
	if db == nil {
		return nil, errors.New("store: transaction store requires a database handle")
	}
	return &TransactionStore{db: db}, nil
}

// TransactionIDExists reports whether the id is live in the store.
func (s *TransactionStore) TransactionIDExists(ctx context.Context, id int32, correlationID string) (bool, error) {
	query, args, err := dialect.From("tblTransactions").
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"TransactionID": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build transaction existence query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("query transaction existence: %w", err)
	}
	return count > 0, nil
}

// Insert writes one transaction row. The primary key rejects duplicate ids,
// which is the final arbiter when two allocators race across processes.
func (s *TransactionStore) Insert(ctx context.Context, row *TransactionRow) error {
	query, args, err := dialect.Insert("tblTransactions").
		Rows(row).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build transaction insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert transaction %d: %w", row.TransactionID, err)
	}
	return nil
}

// transactionColumns is the select list shared by Get and Recent; the order
// matches their scans.
var transactionColumns = []interface{}{
	"CorrelationID", "DateRequest", "Input", "NodeID",
	"PortID", "Priority", "Source", "Task", "TransactionID",
}

// Get returns one transaction row, or nil when the id is unknown.
func (s *TransactionStore) Get(ctx context.Context, id int32) (*TransactionRow, error) {
	query, args, err := dialect.From("tblTransactions").
		Select(transactionColumns...).
		Where(goqu.Ex{"TransactionID": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build transaction query: %w", err)
	}

	var row TransactionRow
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&row.CorrelationID, &row.DateRequest, &row.Input, &row.NodeID,
		&row.PortID, &row.Priority, &row.Source, &row.Task, &row.TransactionID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query transaction %d: %w", id, err)
	}
	return &row, nil
}

// Recent returns the newest rows by request date, up to limit.
func (s *TransactionStore) Recent(ctx context.Context, limit uint) ([]TransactionRow, error) {
	if limit == 0 {
		limit = 50
	}
	query, args, err := dialect.From("tblTransactions").
		Select(transactionColumns...).
		Order(goqu.C("DateRequest").Desc()).
		Limit(limit).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build recent transactions query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent transactions: %w", err)
	}
	defer rows.Close()

	var result []TransactionRow
	for rows.Next() {
		var row TransactionRow
		if err := rows.Scan(
			&row.CorrelationID, &row.DateRequest, &row.Input, &row.NodeID,
			&row.PortID, &row.Priority, &row.Source, &row.Task, &row.TransactionID,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read recent transactions: %w", err)
	}
	return result, nil
}

// MapEnvelopeToRow converts a decoded update payload into its legacy table
// row. A missing or non-numeric TransactionID is a mapping failure.
func MapEnvelopeToRow(p *transaction.UpdatePayload) (*TransactionRow, error) {
	txRaw, ok := p.Value(transaction.ColumnTransactionID)
	if !ok || txRaw == "" {
		return nil, errors.New("payload is missing a TransactionID column")
	}
	txID, err := strconv.ParseInt(txRaw, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid TransactionID %q: %w", txRaw, err)
	}

	row := &TransactionRow{TransactionID: int32(txID)}
	row.DateRequest, _ = p.Value(transaction.ColumnDateRequest)
	row.Task, _ = p.Value(transaction.ColumnTask)
	row.Input, _ = p.Value(transaction.ColumnInput)
	row.NodeID, _ = p.Value(transaction.ColumnNodeID)
	row.Source, _ = p.Value(transaction.ColumnSource)
	row.CorrelationID, _ = p.Value(transaction.ColumnCorrelationID)

	if raw, ok := p.Value(transaction.ColumnPortID); ok && raw != "" {
		port, err := strconv.ParseInt(raw, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid PortID %q: %w", raw, err)
		}
		row.PortID = int16(port)
	}
	if raw, ok := p.Value(transaction.ColumnPriority); ok && raw != "" {
		priority, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid Priority %q: %w", raw, err)
		}
		row.Priority = priority
	}

	return row, nil
}
