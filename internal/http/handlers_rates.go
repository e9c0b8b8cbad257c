package http

import (
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Rates.For(r.Context(), r.URL.Query().Get("base"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(t).Write(w)
}

type conversion struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Result    float64 `json:"result"`
	Formatted string  `json:"formatted"`
	Source    string  `json:"source"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := core.ParseAmount(q.Get("amount"))
	if err != nil {
		writeError(w, r, fmt.Errorf("amount %q: %w", q.Get("amount"), err))
		return
	}
	from := strings.ToUpper(strings.TrimSpace(q.Get("from")))
	to := strings.ToUpper(strings.TrimSpace(q.Get("to")))
	if from == "" {
		from = s.deps.Rates.Base()
	}
	if to == "" {
		to = s.deps.Rates.Base()
	}

	result, table, err := s.deps.Rates.Convert(amount, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(conversion{
		Amount:    amount,
		From:      from,
		To:        to,
		Result:    result,
		Formatted: core.FormatCurrency(result, to),
		Source:    table.Source,
	}).Write(w)
}
