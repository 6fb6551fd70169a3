package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the {code, data} shape every counter endpoint answers with.
// Code 0 means success; no other code is produced today.
type Envelope struct {
	Code int `json:"code"`
	Data any `json:"data"`
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers are gone already
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// WriteData writes a successful envelope carrying data.
func WriteData(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Code: 0, Data: data})
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	WriteJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
}

// WriteHTML writes body as an HTML document.
func WriteHTML(w http.ResponseWriter, status int, body []byte) {
	writeRaw(w, status, "text/html; charset=utf-8", body)
}

// WriteText writes s verbatim. The content type mirrors what the mini-program
// SDK expects from a bare string reply.
func WriteText(w http.ResponseWriter, status int, s string) {
	writeRaw(w, status, "text/html; charset=utf-8", []byte(s))
}

func writeRaw(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write response body", "error", err)
	}
}
