// Package store provides the SQLite-backed legacy stores: the node master
// registry the composer and dispatcher resolve assets against, and the
// transaction table the allocator checks and the legacy publisher writes.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/mattn/go-sqlite3"
)

// dialect builds SQL for the legacy SQLite schema.
var dialect = goqu.Dialect("sqlite3")

const schema = `
CREATE TABLE IF NOT EXISTS tblNodeMaster (
	NodeID    TEXT PRIMARY KEY,
	AssetGUID TEXT,
	PortID    INTEGER,
	PocType   INTEGER,
	Enabled   INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idxNodeMasterAsset ON tblNodeMaster(AssetGUID);

CREATE TABLE IF NOT EXISTS tblPocTypes (
	PocType    INTEGER PRIMARY KEY,
	LegacyWell INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tblParameters (
	PocType  INTEGER NOT NULL,
	Address  INTEGER NOT NULL,
	DataType INTEGER NOT NULL,
	PRIMARY KEY (PocType, Address)
);

CREATE TABLE IF NOT EXISTS tblTransactions (
	TransactionID INTEGER PRIMARY KEY,
	DateRequest   TEXT,
	PortID        INTEGER,
	Task          TEXT,
	Input         TEXT,
	NodeID        TEXT,
	Priority      INTEGER,
	Source        TEXT,
	CorrelationID TEXT
);
`

// Open opens the legacy SQLite database in WAL mode and ensures the schema
// exists. The caller owns the returned handle.
func Open(path string, busyTimeoutMS int) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(path, ":memory:") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += fmt.Sprintf("%s_journal_mode=WAL&_busy_timeout=%d", sep, busyTimeoutMS)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy database: %w", err)
	}
	if strings.Contains(path, ":memory:") {
		// Each connection gets its own in-memory database; pin the pool.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure legacy schema: %w", err)
	}

	return db, nil
}
