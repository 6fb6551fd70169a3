package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// MaxRequestBodySize caps request bodies at 1MB.
const MaxRequestBodySize = 1 << 20

// ErrEmptyBody is returned by DecodeJSON when the request carries no body.
// Callers that treat a missing body as "no input" check for it with errors.Is.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes a single JSON value from the request body.
// Unknown fields are ignored: mini-program clients routinely send extra keys.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var zeroValue T

	if r.Body == nil || r.Body == http.NoBody {
		return zeroValue, ErrEmptyBody
	}

	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)
	defer func() {
		_ = r.Body.Close()
	}()

	decoder := json.NewDecoder(r.Body)

	var v T
	if err := decoder.Decode(&v); err != nil {
		var syntaxErr *json.SyntaxError
		var unmarshalErr *json.UnmarshalTypeError
		var maxBytesErr *http.MaxBytesError

		switch {
		case errors.Is(err, io.EOF):
			return zeroValue, ErrEmptyBody
		case errors.As(err, &syntaxErr):
			return zeroValue, fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return zeroValue, errors.New("malformed JSON: unexpected end of input")
		case errors.As(err, &unmarshalErr):
			return zeroValue, fmt.Errorf("invalid value for field %q", unmarshalErr.Field)
		case errors.As(err, &maxBytesErr):
			return zeroValue, fmt.Errorf("request body too large (max %d bytes)", MaxRequestBodySize)
		default:
			return zeroValue, fmt.Errorf("failed to decode JSON: %w", err)
		}
	}

	if decoder.More() {
		return zeroValue, errors.New("request body contains multiple JSON objects")
	}

	return v, nil
}

// IsForm reports whether the request body is URL-encoded form data.
func IsForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/x-www-form-urlencoded"
}

// FormValue reads key from a URL-encoded body, bounded like DecodeJSON.
func FormValue(r *http.Request, key string) (string, error) {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)
	}
	if err := r.ParseForm(); err != nil {
		return "", fmt.Errorf("malformed form body: %w", err)
	}
	return r.PostForm.Get(key), nil
}
