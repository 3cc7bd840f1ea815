package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"trainingops/internal/adapters/http/middleware"
	"trainingops/internal/adapters/storage"
)

// maxJSONBody bounds JSON request bodies. A commit carries at most a few
// thousand candidates.
const maxJSONBody = 8 << 20

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// notFoundOr writes 404 for storage.ErrNotFound and a generic 500 otherwise.
func notFoundOr(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, what+" not found", http.StatusNotFound)
		return
	}
	internalError(w, err)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

// operatorEmail returns the authenticated operator's address, or "" for anonymous access.
func operatorEmail(r *http.Request) string {
	op, _ := middleware.OperatorFromContext(r.Context())
	return op.Email
}

// intParam parses a non-negative integer query parameter, falling back to def.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
