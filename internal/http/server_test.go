package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

type offlineFetcher struct{}

func (offlineFetcher) Latest(_ context.Context, base string) (rates.Table, error) {
	return rates.Table{}, fmt.Errorf("%w: rates for %s", core.ErrNetwork, base)
}

type testServer struct {
	srv *Server
	mem *memory.Store
}

func newTestServer(t *testing.T, mutate func(*Deps)) *testServer {
	t.Helper()
	logger := applog.Discard()
	mem := memory.New()
	store := storage.NewAccessor(mem, logger)
	txs := services.NewTransactionService(store, nil, logger)
	deps := Deps{
		Store:              store,
		Transactions:       txs,
		Goals:              services.NewGoalService(txs, logger),
		Dashboard:          services.NewDashboardService(store, logger),
		Rates:              rates.NewBoard(offlineFetcher{}, "HKD", logger),
		Logger:             logger,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv := NewServer(":0", deps)
	srv.today = func() core.Date { return core.MustParseDate("2024-03-15") }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{srv: srv, mem: mem}
}

func (ts *testServer) do(method, path, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, code, w.Body.String())
	}
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		w := ts.do(http.MethodGet, path, "")
		wantStatus(t, w, http.StatusOK)
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("%s Content-Type = %q", path, ct)
		}
		if w.Header().Get("X-Request-Id") == "" {
			t.Errorf("%s missing X-Request-Id", path)
		}
		if w.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s missing security headers", path)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		want    int
	}{
		{"enabled", true, http.StatusOK},
		{"disabled", false, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, func(d *Deps) { d.MetricsEnabled = tt.enabled })
			w := ts.do(http.MethodGet, "/metrics", "")
			wantStatus(t, w, tt.want)
		})
	}
}

func TestTransactionsAPI(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodPost, "/api/transactions",
		`{"type":"income","amount":"1000,50","category":"salary","date":"2024-03-01"}`)
	wantStatus(t, w, http.StatusCreated)
	income := decode[core.Transaction](t, w)
	if income.Amount != 1000.5 || income.ID == 0 {
		t.Fatalf("created = %+v", income)
	}

	w = ts.do(http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":40,"category":"food","date":"2024-03-02","description":" lunch "}`)
	wantStatus(t, w, http.StatusCreated)
	exp := decode[core.Transaction](t, w)
	if exp.Description != "lunch" {
		t.Errorf("Description = %q, want trimmed", exp.Description)
	}

	w = ts.do(http.MethodGet, "/api/transactions", "")
	wantStatus(t, w, http.StatusOK)
	list := decode[transactionList](t, w)
	if len(list.Transactions) != 2 || list.Balance != 960.5 {
		t.Fatalf("list = %+v", list)
	}
	if list.Transactions[0].ID != exp.ID {
		t.Errorf("first = %d, want newest %d", list.Transactions[0].ID, exp.ID)
	}

	w = ts.do(http.MethodGet, "/api/transactions?type=expense", "")
	if got := decode[transactionList](t, w); len(got.Transactions) != 1 || got.Transactions[0].Type != core.Expense {
		t.Errorf("filtered = %+v", got.Transactions)
	}
	w = ts.do(http.MethodGet, "/api/transactions?type=gift", "")
	wantStatus(t, w, http.StatusUnprocessableEntity)

	w = ts.do(http.MethodPut, fmt.Sprintf("/api/transactions/%d", exp.ID),
		`{"type":"expense","amount":45,"category":"food","date":"2024-03-02"}`)
	wantStatus(t, w, http.StatusOK)
	if got := decode[core.Transaction](t, w); got.Amount != 45 || got.ID != exp.ID {
		t.Errorf("updated = %+v", got)
	}

	w = ts.do(http.MethodDelete, fmt.Sprintf("/api/transactions/%d", exp.ID), "")
	wantStatus(t, w, http.StatusNoContent)

	w = ts.do(http.MethodDelete, fmt.Sprintf("/api/transactions/%d", exp.ID), "")
	wantStatus(t, w, http.StatusNotFound)
}

func TestTransactionsAPI_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantFields []string
	}{
		{
			name:       "every invalid field reported",
			method:     http.MethodPost,
			path:       "/api/transactions",
			body:       `{"type":"gift","amount":"abc","category":"","date":""}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"type", "amount", "category", "date"},
		},
		{
			name:       "negative amount",
			method:     http.MethodPost,
			path:       "/api/transactions",
			body:       `{"type":"expense","amount":-5,"category":"food","date":"2024-03-01"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"amount"},
		},
		{
			name:       "malformed date",
			method:     http.MethodPost,
			path:       "/api/transactions",
			body:       `{"type":"expense","amount":5,"category":"food","date":"03/01/2024"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"date"},
		},
		{
			name:       "malformed json",
			method:     http.MethodPost,
			path:       "/api/transactions",
			body:       `{"type":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid id",
			method:     http.MethodDelete,
			path:       "/api/transactions/abc",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown id",
			method:     http.MethodPut,
			path:       "/api/transactions/42",
			body:       `{"type":"expense","amount":5,"category":"food","date":"2024-03-01"}`,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			w := ts.do(tt.method, tt.path, tt.body)
			wantStatus(t, w, tt.wantStatus)

			body := decode[errorBody](t, w)
			for _, f := range tt.wantFields {
				if _, ok := body.Fields[f]; !ok {
					t.Errorf("fields %v missing %q", body.Fields, f)
				}
			}
			if len(body.Fields) != len(tt.wantFields) {
				t.Errorf("fields = %v, want %v", body.Fields, tt.wantFields)
			}
		})
	}
}

func TestTransactionsAPI_StorageFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.mem.FailWrites(errors.New("disk full"))

	w := ts.do(http.MethodPost, "/api/transactions",
		`{"type":"income","amount":10,"category":"salary","date":"2024-03-01"}`)
	wantStatus(t, w, http.StatusServiceUnavailable)

	w = ts.do(http.MethodGet, "/api/transactions", "")
	if got := decode[transactionList](t, w); len(got.Transactions) != 0 {
		t.Errorf("failed write left %d transactions", len(got.Transactions))
	}
}

func TestGoalsAPI_Lifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	wantStatus(t, ts.do(http.MethodPost, "/api/transactions",
		`{"type":"income","amount":750,"category":"salary","date":"2024-03-01"}`), http.StatusCreated)

	w := ts.do(http.MethodPost, "/api/goals",
		`{"name":"Bike","target":"1000","deadline":"2024-12-31","category":"purchase"}`)
	wantStatus(t, w, http.StatusCreated)
	goal := decode[core.Goal](t, w)
	base := fmt.Sprintf("/api/goals/%d", goal.ID)

	w = ts.do(http.MethodPost, base+"/pin", "")
	wantStatus(t, w, http.StatusOK)
	if !decode[core.Goal](t, w).Pinned {
		t.Error("pin did not toggle")
	}

	// Achieve needs confirmation.
	w = ts.do(http.MethodPost, base+"/achieve", "")
	wantStatus(t, w, http.StatusPreconditionRequired)
	if got := decode[errorBody](t, w).Prompt; got != `Mark "Bike" as achieved?` {
		t.Errorf("prompt = %q", got)
	}
	if v := ts.do(http.MethodGet, base, ""); decode[core.Goal](t, v).Achieved {
		t.Fatal("unconfirmed achieve changed the goal")
	}

	w = ts.do(http.MethodPost, base+"/achieve", "", "X-Confirm", "true")
	wantStatus(t, w, http.StatusOK)
	achieved := decode[core.Goal](t, w)
	if !achieved.Achieved || achieved.AchievedAt.String() != "2024-03-15" {
		t.Fatalf("achieved = %+v", achieved)
	}
	if achieved.FrozenCurrent == nil || *achieved.FrozenCurrent != 750 {
		t.Errorf("FrozenCurrent = %v, want 750", achieved.FrozenCurrent)
	}

	wantStatus(t, ts.do(http.MethodPost, base+"/achieve?confirm=true", ""), http.StatusConflict)
	wantStatus(t, ts.do(http.MethodPost, base+"/pin", ""), http.StatusConflict)

	// Editing keeps the frozen snapshot.
	w = ts.do(http.MethodPut, base, `{"name":"Bike","target":"1000","deadline":"2024-12-31","category":"purchase"}`)
	wantStatus(t, w, http.StatusOK)
	if edited := decode[core.Goal](t, w); !edited.Achieved || edited.FrozenCurrent == nil {
		t.Errorf("edited = %+v", edited)
	}

	// First mark in spending goes through; the second asks.
	w = ts.do(http.MethodPost, base+"/spending", `{"use":"deadline"}`)
	wantStatus(t, w, http.StatusCreated)
	spent := decode[spendingBody](t, w)
	if spent.AlreadyMarked || spent.Transaction.Amount != 1000 || spent.Transaction.Date.String() != "2024-12-31" {
		t.Errorf("spending = %+v", spent)
	}

	w = ts.do(http.MethodPost, base+"/spending", `{"use":"achieved"}`)
	wantStatus(t, w, http.StatusPreconditionRequired)
	if got := decode[errorBody](t, w).Prompt; got != `Caution: You have already added "Bike" to spending.` {
		t.Errorf("prompt = %q", got)
	}

	w = ts.do(http.MethodPost, base+"/spending?confirm=true", `{"use":"achieved"}`)
	wantStatus(t, w, http.StatusCreated)
	if again := decode[spendingBody](t, w); !again.AlreadyMarked || again.Transaction.Date.String() != "2024-03-15" {
		t.Errorf("second spending = %+v", again)
	}

	w = ts.do(http.MethodGet, "/api/transactions", "")
	if got := decode[transactionList](t, w); len(got.Transactions) != 3 || got.Balance != -1250 {
		t.Errorf("ledger after spending = %d txs, balance %v", len(got.Transactions), got.Balance)
	}

	w = ts.do(http.MethodGet, "/api/goals", "")
	board := decode[struct {
		Active   []json.RawMessage `json:"active"`
		Achieved []json.RawMessage `json:"achieved"`
	}](t, w)
	if len(board.Active) != 0 || len(board.Achieved) != 1 {
		t.Errorf("board = %d active, %d achieved", len(board.Active), len(board.Achieved))
	}

	// Delete needs confirmation too.
	w = ts.do(http.MethodDelete, base, "")
	wantStatus(t, w, http.StatusPreconditionRequired)
	if got := decode[errorBody](t, w).Prompt; got != `Are you sure you want to delete "Bike"?` {
		t.Errorf("prompt = %q", got)
	}
	wantStatus(t, ts.do(http.MethodDelete, base, "", "X-Confirm", "1"), http.StatusNoContent)
	wantStatus(t, ts.do(http.MethodGet, base, ""), http.StatusNotFound)
}

func TestGoalsAPI_Errors(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodPost, "/api/goals", `{"name":"","target":0,"deadline":"","category":""}`)
	wantStatus(t, w, http.StatusUnprocessableEntity)
	if got := decode[errorBody](t, w).Fields; len(got) != 4 {
		t.Errorf("fields = %v, want 4", got)
	}

	w = ts.do(http.MethodPost, "/api/goals", `{"name":"Trip","target":500,"deadline":"2024-06-01","category":"travel"}`)
	wantStatus(t, w, http.StatusCreated)
	goal := decode[core.Goal](t, w)
	base := fmt.Sprintf("/api/goals/%d", goal.ID)

	wantStatus(t, ts.do(http.MethodPost, base+"/spending", `{"use":"deadline"}`), http.StatusConflict)
	wantStatus(t, ts.do(http.MethodPost, "/api/goals/999/achieve?confirm=true", ""), http.StatusNotFound)
	wantStatus(t, ts.do(http.MethodDelete, "/api/goals/999?confirm=true", ""), http.StatusNotFound)
	wantStatus(t, ts.do(http.MethodPost, "/api/goals/999/spending", `{"use":"deadline"}`), http.StatusNotFound)
	wantStatus(t, ts.do(http.MethodPost, base+"/spending", `{"use":`), http.StatusBadRequest)

	wantStatus(t, ts.do(http.MethodPost, base+"/achieve?confirm=true", ""), http.StatusOK)
	w = ts.do(http.MethodPost, base+"/spending", `{"use":"someday"}`)
	wantStatus(t, w, http.StatusUnprocessableEntity)
	if _, ok := decode[errorBody](t, w).Fields["use"]; !ok {
		t.Errorf("body = %s, want use field", w.Body.String())
	}
}

func TestSummaryAndAnalytics(t *testing.T) {
	ts := newTestServer(t, nil)
	wantStatus(t, ts.do(http.MethodPost, "/api/transactions",
		`{"type":"income","amount":200,"category":"salary","date":"2024-03-01"}`), http.StatusCreated)
	wantStatus(t, ts.do(http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":50,"category":"food","date":"2024-03-05"}`), http.StatusCreated)

	w := ts.do(http.MethodGet, "/api/summary?date=2024-03-15", "")
	wantStatus(t, w, http.StatusOK)
	snap := decode[services.Snapshot](t, w)
	if snap.Balance.Value != 150 || snap.MonthExpense.Value != 50 || len(snap.LatestExpenses) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}

	wantStatus(t, ts.do(http.MethodGet, "/api/summary", ""), http.StatusOK)
	wantStatus(t, ts.do(http.MethodGet, "/api/summary?date=yesterday", ""), http.StatusUnprocessableEntity)

	w = ts.do(http.MethodGet, "/api/analytics", "")
	wantStatus(t, w, http.StatusOK)
	rep := decode[services.Report](t, w)
	if rep.AllTime.Balance != 150 || len(rep.ExpenseByCategory) != 1 {
		t.Errorf("report = %+v", rep)
	}
}

func TestActivityAPI(t *testing.T) {
	ts := newTestServer(t, nil)
	events := []amqp.Event{
		*amqp.NewEvent(amqp.KindTransactionCreated, 1, 10, "first"),
		*amqp.NewEvent(amqp.KindTransactionCreated, 2, 20, "second"),
	}
	if !storage.Save(context.Background(), ts.srv.deps.Store, storage.KeyActivity, events) {
		t.Fatal("seeding activity failed")
	}

	w := ts.do(http.MethodGet, "/api/activity?limit=1", "")
	wantStatus(t, w, http.StatusOK)
	got := decode[struct {
		Events []amqp.Event `json:"events"`
	}](t, w)
	if len(got.Events) != 1 || got.Events[0].EntityID != 2 {
		t.Errorf("events = %+v, want newest only", got.Events)
	}
}

func TestRatesAPI(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodGet, "/api/rates", "")
	wantStatus(t, w, http.StatusOK)
	table := decode[rates.Table](t, w)
	if table.Base != "HKD" || table.Source != rates.SourceFallback {
		t.Errorf("table = %+v", table)
	}

	w = ts.do(http.MethodGet, "/api/rates?base=usd", "")
	wantStatus(t, w, http.StatusOK)
	if got := decode[rates.Table](t, w); got.Base != "USD" || got.Source != rates.SourceDerived {
		t.Errorf("USD table = %+v", got)
	}

	wantStatus(t, ts.do(http.MethodGet, "/api/rates?base=ZZZ", ""), http.StatusUnprocessableEntity)
}

func TestConvertAPI(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantResult float64
		wantTo     string
	}{
		{"hkd to usd", "amount=100&from=HKD&to=USD", http.StatusOK, 12.8, "USD"},
		{"lower case codes", "amount=100&from=hkd&to=jpy", http.StatusOK, 1950, "JPY"},
		{"same currency", "amount=42.5&from=EUR&to=EUR", http.StatusOK, 42.5, "EUR"},
		{"defaults to base", "amount=7", http.StatusOK, 7, "HKD"},
		{"unknown currency", "amount=1&from=HKD&to=ZZZ", http.StatusUnprocessableEntity, 0, ""},
		{"bad amount", "amount=ten&from=HKD&to=USD", http.StatusUnprocessableEntity, 0, ""},
		{"missing amount", "from=HKD&to=USD", http.StatusUnprocessableEntity, 0, ""},
	}

	ts := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(http.MethodGet, "/api/convert?"+tt.query, "")
			wantStatus(t, w, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}
			got := decode[conversion](t, w)
			if math.Abs(got.Result-tt.wantResult) > 1e-9 || got.To != tt.wantTo {
				t.Errorf("conversion = %+v, want %v %s", got, tt.wantResult, tt.wantTo)
			}
			if got.Formatted == "" || got.Source != rates.SourceFallback {
				t.Errorf("conversion = %+v", got)
			}
		})
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) { d.RateLimitPerMinute = 2 })
	body := `{"type":"income","amount":1,"category":"salary","date":"2024-03-01"}`

	for i := 0; i < 2; i++ {
		wantStatus(t, ts.do(http.MethodPost, "/api/transactions", body), http.StatusCreated)
	}
	w := ts.do(http.MethodPost, "/api/transactions", body)
	wantStatus(t, w, http.StatusTooManyRequests)
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	// Reads are not limited.
	for i := 0; i < 5; i++ {
		wantStatus(t, ts.do(http.MethodGet, "/api/transactions", ""), http.StatusOK)
	}
}

func TestShutdownTwice(t *testing.T) {
	ts := newTestServer(t, nil)
	if err := ts.srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("first Shutdown() error = %v", err)
	}
	if err := ts.srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown() error = %v", err)
	}
}
