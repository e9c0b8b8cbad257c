package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

var errBadRequest = errors.New("malformed request")

// ResponseBuilder provides a fluent API for JSON responses.
type ResponseBuilder struct {
	status  int
	headers map[string]string
	body    any
}

// NewResponse creates a builder with status 200 and no body.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		status:  http.StatusOK,
		headers: make(map[string]string),
	}
}

// Status sets the HTTP status code.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.status = code
	return b
}

// Header sets a response header.
func (b *ResponseBuilder) Header(key, value string) *ResponseBuilder {
	b.headers[key] = value
	return b
}

// JSON sets the value encoded as the body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the response. A builder without a body writes headers only.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	if b.body == nil {
		w.WriteHeader(b.status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.status)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	Prompt string            `json:"prompt,omitempty"`
}

// statusFor maps a service error to its HTTP status and log category.
func statusFor(err error) (int, string) {
	switch {
	case core.IsValidation(err), errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrUnknownCurrency):
		return http.StatusUnprocessableEntity, applog.ErrorTypeValidation
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, applog.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrGoalAchieved), errors.Is(err, core.ErrGoalActive):
		return http.StatusConflict, applog.ErrorTypeConflict
	case errors.Is(err, core.ErrAlreadyMarked):
		return http.StatusPreconditionRequired, applog.ErrorTypeConflict
	case errors.Is(err, core.ErrStorage):
		return http.StatusServiceUnavailable, applog.ErrorTypeStorage
	case errors.Is(err, core.ErrNetwork):
		return http.StatusBadGateway, applog.ErrorTypeNetwork
	default:
		return http.StatusInternalServerError, applog.ErrorTypeInternal
	}
}

// writeError logs err and writes it as a JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	body := errorBody{Error: err.Error()}

	var v *core.ValidationError
	if errors.As(err, &v) {
		body.Error = "validation failed"
		body.Fields = v.Fields
	}
	if status == http.StatusInternalServerError {
		body.Error = "internal error"
	}

	logger := applog.FromContext(r.Context())
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", applog.FieldError, err, applog.FieldErrorType, kind)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", applog.FieldError, err, applog.FieldErrorType, kind)
	}

	NewResponse().Status(status).JSON(body).Write(w)
}

// writeConfirm asks the client to repeat the request with confirmation.
func writeConfirm(w http.ResponseWriter, prompt string) {
	NewResponse().
		Status(http.StatusPreconditionRequired).
		JSON(errorBody{Error: "confirmation required", Prompt: prompt}).
		Write(w)
}
