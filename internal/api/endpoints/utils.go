package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"dealer-support-chat/internal/api"
)

type HTTPError = api.HTTPError

const maxBodyBytes = 64 * 1024

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	return api.WriteJSON(w, status, v)
}

func MethodHandler(
	w http.ResponseWriter,
	r *http.Request,
	allowed map[string]func(http.ResponseWriter, *http.Request) error,
) error {
	if handler, ok := allowed[r.Method]; ok {
		return handler(w, r)
	}
	return &HTTPError{
		StatusCode: http.StatusMethodNotAllowed,
		Message:    "Method not allowed.",
		ErrorLog:   fmt.Errorf("method %s not allowed on %s", r.Method, r.URL.Path),
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode %s body: %w", r.URL.Path, err),
		}
	}
	return nil
}

// pathID returns the single segment following prefix.
func pathID(path, prefix, what string) (string, error) {
	trimmed := strings.TrimPrefix(path, prefix)
	if trimmed == path {
		return "", &HTTPError{StatusCode: http.StatusNotFound, Message: what + " not found", ErrorLog: fmt.Errorf("path mismatch: %s", path)}
	}
	id := strings.Trim(trimmed, "/")
	if id == "" || strings.Contains(id, "/") {
		return "", &HTTPError{StatusCode: http.StatusNotFound, Message: what + " not found", ErrorLog: fmt.Errorf("bad %s path: %s", what, path)}
	}
	return id, nil
}
