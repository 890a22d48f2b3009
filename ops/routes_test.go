package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutvik18Verticals/ally-xs-transactions/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := store.Open(":memory:", 1000)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		INSERT INTO tblNodeMaster (NodeID, AssetGUID, PortID, PocType, Enabled) VALUES
			('theta sam', 'asset-1', 32, 8, 1),
			('well-7', 'asset-2', 14, 8, 1);
	`)
	require.NoError(t, err)

	nodes, err := store.NewNodeStore(db)
	require.NoError(t, err)
	txns, err := store.NewTransactionStore(db)
	require.NoError(t, err)

	require.NoError(t, txns.Insert(context.Background(), &store.TransactionRow{
		TransactionID: 777,
		DateRequest:   "2026-03-14T09:30:00",
		PortID:        32,
		Task:          "GetData",
		NodeID:        "theta sam",
		Priority:      5,
		Source:        "ally-xs",
	}))

	return NewRouter(NewHandlers(nodes, txns))
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestTransactionByID(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/777", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var row store.TransactionRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, int32(777), row.TransactionID)
	assert.Equal(t, "theta sam", row.NodeID)
}

func TestTransactionByID_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionByID_BadID(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentTransactions(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []store.TransactionRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, int32(777), rows[0].TransactionID)
}

func TestNodeByID(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nodes/well-7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "well-7")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nodes/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
