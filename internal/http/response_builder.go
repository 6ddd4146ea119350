// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses.
// Successful responses carry the bare JSON value; failures carry a single
// {"error": "..."} object.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"salesdash/internal/core"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Error string `json:"error"`
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

// Body sets the value serialized as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter. A value that
// cannot be encoded turns into the generic internal error.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	payload, err := json.Marshal(b.body)
	status := b.statusCode
	if err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		payload, _ = json.Marshal(ErrorBody{Error: core.MsgInternal})
		status = http.StatusInternalServerError
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

// OK creates a 200 response carrying v.
func OK(v any) *JSONResponseBuilder {
	return NewJSONResponse().Body(v)
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// InternalServerError creates a 500 response with the generic message.
// Details of the failure are logged, never returned.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, core.MsgInternal)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "Not found.")
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}
