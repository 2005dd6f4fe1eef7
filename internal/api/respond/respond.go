// Package respond provides the JSON response envelope used by every handler.
// Successful responses carry the resource (or array) as the body; failures
// carry {"error": msg} or, for validation, {"error": ..., "errors": {...}}.
package respond

import (
	"encoding/json"
	"net/http"
)

const contentType = "application/json"

// ErrorBody is the failure envelope.
type ErrorBody struct {
	Error  string              `json:"error"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// JSON writes data with the given status code. A nil data still produces a
// JSON body ("null"); use NoContent for bodyless responses.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK writes data with 200.
func OK(w http.ResponseWriter, data any) { JSON(w, http.StatusOK, data) }

// Created writes data with 201.
func Created(w http.ResponseWriter, data any) { JSON(w, http.StatusCreated, data) }

// NoContent writes 204 with an empty body.
func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

// Error writes {"error": message} with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// ValidationError writes the 400 envelope carrying field-level messages.
func ValidationError(w http.ResponseWriter, errs map[string][]string) {
	JSON(w, http.StatusBadRequest, ErrorBody{Error: "Validation failed", Errors: errs})
}

// Unauthorized writes the 401 envelope.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "Unauthorized")
}

// Forbidden writes the 403 envelope.
func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Forbidden"
	}
	Error(w, http.StatusForbidden, message)
}

// NotFound writes the 404 envelope.
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	Error(w, http.StatusNotFound, message)
}

// Internal writes the generic 500 envelope. Details never reach the client.
func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "Internal server error")
}
