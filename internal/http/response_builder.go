// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and the mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"vegledger/internal/core"
	applog "vegledger/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Send writes headers, status and body. A nil payload writes no body.
func (b *JSONResponseBuilder) Send(w http.ResponseWriter) error {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return nil
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, err = w.Write(append(body, '\n'))
	return err
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeJSON sends v with the given status, logging encode failures.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := NewJSONResponse().Status(status).JSON(v).Send(w); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to write response", applog.FieldError, err.Error())
	}
}

// writeError maps err onto a status code: validation 422, missing entity 404,
// store failure 503 and anything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		logger.DebugContext(ctx, "Validation failed",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeValidation)
		writeJSON(w, r, http.StatusUnprocessableEntity, errorBody{Error: ve.Err.Error(), Field: ve.Field})
	case errors.Is(err, errMalformedBody):
		writeJSON(w, r, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		logger.DebugContext(ctx, "Entity not found",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeNotFound)
		writeJSON(w, r, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, core.ErrPersistence):
		logger.ErrorContext(ctx, "Storage unavailable",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypePersistence)
		writeJSON(w, r, http.StatusServiceUnavailable, errorBody{Error: "storage unavailable, change not saved"})
	default:
		fields := applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "")
		fields[applog.FieldErrorType] = applog.ErrorTypeInternal
		applog.NewStructuredLogger(logger).LogError(ctx, "Request failed", err, applog.ComponentHTTP, r.Method, fields)
		writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
