package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

const defaultActivityLimit = 50

type transactionList struct {
	Transactions []core.Transaction `json:"transactions"`
	Balance      float64            `json:"balance"`
}

// handleListTransactions lists the ledger newest first. ?type= narrows it
// to income or expense.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := s.deps.Transactions.List(r.Context())
	balance := s.deps.Transactions.Balance(r.Context())

	if typ := core.TransactionType(strings.ToLower(r.URL.Query().Get("type"))); typ != "" {
		if !typ.IsValid() {
			v := &core.ValidationError{}
			v.Add("type", "must be income or expense")
			writeError(w, r, v)
			return
		}
		filtered := make([]core.Transaction, 0, len(txs))
		for _, tx := range txs {
			if tx.Type == typ {
				filtered = append(filtered, tx)
			}
		}
		txs = filtered
	}

	NewResponse().JSON(transactionList{Transactions: txs, Balance: balance}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in, ok := s.transactionInput(w, r)
	if !ok {
		return
	}
	tx, err := s.deps.Transactions.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(tx).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, ok := s.transactionInput(w, r)
	if !ok {
		return
	}
	tx, err := s.deps.Transactions.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Transactions.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) transactionInput(w http.ResponseWriter, r *http.Request) (services.TransactionInput, bool) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return services.TransactionInput{}, false
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return services.TransactionInput{}, false
	}
	return in, true
}

// handleSummary serves the cached dashboard. ?date= computes it as of
// another day instead.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := parseDateField("date", raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		NewResponse().JSON(s.deps.Dashboard.Snapshot(r.Context(), d)).Write(w)
		return
	}
	NewResponse().JSON(s.deps.Dashboard.Latest(r.Context())).Write(w)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.deps.Dashboard.Analytics(r.Context(), s.today())).Write(w)
}

// handleActivity lists the ledger events the worker recorded, newest first.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	events := worker.Recent(r.Context(), s.deps.Store, queryInt(r, "limit", defaultActivityLimit))
	NewResponse().JSON(map[string]any{"events": events}).Write(w)
}
