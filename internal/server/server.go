// Package server exposes the ledger over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/splitledger/splitledger/internal/metrics"
	"github.com/splitledger/splitledger/internal/service"
	"github.com/splitledger/splitledger/internal/storage"
)

// Server holds the HTTP handlers for the ledger service.
type Server struct {
	svc *service.LedgerService
}

// New creates a Server around the given service.
func New(svc *service.LedgerService) *Server {
	return &Server{svc: svc}
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/scopes", s.handleCreateScope)
	mux.HandleFunc("GET /api/v1/scopes/{scopeID}", s.handleGetScope)
	mux.HandleFunc("POST /api/v1/scopes/{scopeID}/members", s.handleAddMembers)
	mux.HandleFunc("DELETE /api/v1/scopes/{scopeID}/members/{memberID}", s.handleRemoveMember)

	mux.HandleFunc("POST /api/v1/expenses", s.handleLogExpense)
	mux.HandleFunc("GET /api/v1/expenses/{expenseID}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/v1/expenses/{expenseID}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/v1/expenses/{expenseID}", s.handleRemoveExpense)

	mux.HandleFunc("POST /api/v1/settlements", s.handleRecordSettlement)
	mux.HandleFunc("POST /api/v1/settlements/{settlementID}/complete", s.handleCompleteSettlement)
	mux.HandleFunc("POST /api/v1/settlements/{settlementID}/cancel", s.handleCancelSettlement)

	mux.HandleFunc("GET /api/v1/scopes/{scopeID}/balances", s.handleBalances)
	mux.HandleFunc("GET /api/v1/scopes/{scopeID}/transfers", s.handleScopedTransfers)
	mux.HandleFunc("GET /api/v1/transfers", s.handleGlobalTransfers)

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}

// writeJSON encodes a response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps service and storage errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decode reads a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
