package httpx

import (
	"net/http"

	"github.com/sundayezeilo/wxcounter/internal/errx"
)

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
// Anything unclassified is a plain 500.
func ErrorKindToStatus(kind errx.Kind) int {
	switch kind {
	case errx.Invalid:
		return http.StatusBadRequest
	case errx.Forbidden:
		return http.StatusForbidden
	case errx.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKindToCode maps errx.Kind to the "error" field of ErrorResponse.
func ErrorKindToCode(kind errx.Kind) string {
	switch kind {
	case errx.Invalid:
		return "invalid_request"
	case errx.Forbidden:
		return "forbidden"
	case errx.Unavailable:
		return "unavailable"
	default:
		return "internal_error"
	}
}

// WriteKindError answers with the status and code derived from err's kind.
// Messages for server-side kinds are generic so backend details stay in logs.
func WriteKindError(w http.ResponseWriter, err error) {
	kind := errx.KindOf(err)
	status := ErrorKindToStatus(kind)

	msg := "an unexpected error occurred"
	if status < http.StatusInternalServerError {
		msg = err.Error()
	}
	WriteError(w, status, ErrorKindToCode(kind), msg, nil)
}
