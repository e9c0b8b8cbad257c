package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/goals"
	"fintrack/internal/services"
)

const maxBodyBytes = 1 << 20

// amount accepts a JSON number or a string such as "12,50". Strings that
// do not parse decode as zero so validation reports the field.
type amount float64

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := core.ParseAmount(s)
		if err != nil {
			v = 0
		}
		*a = amount(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*a = amount(f)
	return nil
}

type transactionRequest struct {
	Type        string `json:"type"`
	Amount      amount `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

func (req transactionRequest) input() (services.TransactionInput, error) {
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return services.TransactionInput{}, err
	}
	return services.TransactionInput{
		Type:        core.TransactionType(strings.ToLower(strings.TrimSpace(req.Type))),
		Amount:      float64(req.Amount),
		Category:    sanitizeInput(req.Category),
		Date:        date,
		Description: sanitizeInput(req.Description),
	}, nil
}

type goalRequest struct {
	Name     string `json:"name"`
	Target   amount `json:"target"`
	Deadline string `json:"deadline"`
	Category string `json:"category"`
}

func (req goalRequest) input() (goals.Input, error) {
	deadline, err := parseDateField("deadline", req.Deadline)
	if err != nil {
		return goals.Input{}, err
	}
	return goals.Input{
		Name:     sanitizeInput(req.Name),
		Target:   float64(req.Target),
		Deadline: deadline,
		Category: sanitizeInput(req.Category),
	}, nil
}

type spendingRequest struct {
	Use goals.SpendingSource `json:"use"`
}

// parseDateField leaves an empty value for the validator and rejects a
// malformed one.
func parseDateField(field, s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		v := &core.ValidationError{}
		v.Add(field, "must be a date in YYYY-MM-DD format")
		return core.Date{}, v
	}
	return d, nil
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

// confirmed reports whether the client acknowledged a confirmation prompt.
func confirmed(r *http.Request) bool {
	if ok, err := strconv.ParseBool(r.URL.Query().Get("confirm")); err == nil && ok {
		return true
	}
	ok, err := strconv.ParseBool(r.Header.Get("X-Confirm"))
	return err == nil && ok
}

// queryInt returns the named query parameter, or def when it is absent
// or not a positive integer.
func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// clientIP strips the port from RemoteAddr, which chi's RealIP has
// already rewritten from the forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
