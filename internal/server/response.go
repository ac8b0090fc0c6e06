// Package server provides the HTTP server, router, middleware, and JSON
// response helpers for the thesis archive API.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// successResponse wraps a data payload. Count and Message are set for list
// responses only.
type successResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

// errorResponse is the failure envelope.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// JSON writes a success envelope with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successResponse{Success: true, Data: data})
}

// List writes a 200 success envelope carrying the item count and a message.
func List(w http.ResponseWriter, data any, count int, message string) {
	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Data:    data,
		Count:   &count,
		Message: message,
	})
}

// Error writes a failure envelope. details is omitted when empty.
func Error(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{
		Error:   message,
		Details: details,
	})
}

// writeJSON marshals v to JSON and writes it to the response writer.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent, so we can only log.
		slog.Error("failed to encode JSON response", "error", err)
	}
}
