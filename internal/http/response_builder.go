// Package http provides HTTP server and handler implementations.
//
// This file implements a small builder for JSON responses and the mapping
// from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"mibolsillo/internal/core"
	applog "mibolsillo/internal/log"
	"mibolsillo/internal/session"
)

// Error codes carried in the "error" field of error bodies.
const (
	CodeInvalidFilter = "invalid_filter"
	CodeNotFound      = "not_found"
	CodeBadRequest    = "bad_request"
	CodeRateLimited   = "rate_limited"
	CodeInternal      = "internal"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// EmptyBody is returned with 200 when a query matched nothing, so the client
// can render an empty state.
type EmptyBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body writes only
// the status.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: code, Message: message})
}

// EmptyResponse creates the 200 empty-state response.
func EmptyResponse(message string) *JSONResponseBuilder {
	return NewJSONResponse().Body(EmptyBody{Status: "empty", Message: message})
}

// writeJSON writes v with 200.
func writeJSON(w http.ResponseWriter, v any) {
	NewJSONResponse().Body(v).Write(w)
}

// writeError maps err to a response. Unexpected errors are logged and their
// text is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrEmptyResult):
		EmptyResponse(err.Error()).Write(w)
	case errors.Is(err, core.ErrInvalidFilter):
		ErrorResponse(http.StatusBadRequest, CodeInvalidFilter, err.Error()).Write(w)
	case errors.Is(err, core.ErrUnknownUser), errors.Is(err, session.ErrSessionNotFound):
		ErrorResponse(http.StatusNotFound, CodeNotFound, err.Error()).Write(w)
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(), "Request failed", err,
			applog.ComponentHTTP, applog.OpRead,
			applog.NewFields().WithErrorType(applog.ErrorTypeInternal).WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
		ErrorResponse(http.StatusInternalServerError, CodeInternal, "internal error").Write(w)
	}
}
