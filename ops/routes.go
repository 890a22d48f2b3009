// Package ops exposes the operational HTTP surface: Prometheus metrics, a
// health probe and read-only queries over the legacy transaction store.
package ops

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/rutvik18Verticals/ally-xs-transactions/store"
	"github.com/rutvik18Verticals/ally-xs-transactions/telemetry"
)

// Handlers serves the ops endpoints.
type Handlers struct {
	nodes *store.NodeStore
	txns  *store.TransactionStore
}

// NewHandlers creates the handler set over the legacy stores.
func NewHandlers(nodes *store.NodeStore, txns *store.TransactionStore) *Handlers {
	return &Handlers{nodes: nodes, txns: txns}
}

// NewRouter registers all ops routes using chi router
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", telemetry.MetricsHandler())
	r.Get("/healthz", h.handleHealth)

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.handleRecentTransactions)
		r.Get("/{txnID}", h.handleTransactionByID)
	})
	r.Get("/nodes/{nodeID}", h.handleNodeByID)

	return r
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, map[string]string{"status": "ok"})
}

// handleRecentTransactions returns the newest transactions; ?limit= caps the
// page size.
func (h *Handlers) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	var limit uint
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = uint(parsed)
	}

	rows, err := h.txns.Recent(r.Context(), limit)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		rows = []store.TransactionRow{}
	}
	writeJSONResponse(w, rows)
}

func (h *Handlers) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "txnID")
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	row, err := h.txns.Get(r.Context(), int32(id))
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if row == nil {
		writeErrorResponse(w, http.StatusNotFound, "transaction not found")
		return
	}
	writeJSONResponse(w, row)
}

func (h *Handlers) handleNodeByID(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	node, err := h.nodes.GetNode(r.Context(), nodeID, "")
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if node == nil {
		writeErrorResponse(w, http.StatusNotFound, "node not found")
		return
	}
	writeJSONResponse(w, node)
}

func writeJSONResponse(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("Failed to encode ops response")
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
