package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const operatorContextKey contextKey = "operator"

// Operator is the authenticated caller of the API.
type Operator struct {
	Email string
}

// OperatorKeys verifies operator credentials against bcrypt hashes of their API keys.
type OperatorKeys struct {
	hashes map[string][]byte // lowercased email -> bcrypt hash
}

// NewOperatorKeys builds a verifier from an email to bcrypt-hash map.
// PRE: hashes were produced by HashKey or bcrypt.GenerateFromPassword
// POST: emails are matched case-insensitively
func NewOperatorKeys(hashes map[string]string) *OperatorKeys {
	k := &OperatorKeys{hashes: make(map[string][]byte, len(hashes))}
	for email, h := range hashes {
		k.hashes[strings.ToLower(strings.TrimSpace(email))] = []byte(h)
	}
	return k
}

// Enabled reports whether any operator is configured.
func (k *OperatorKeys) Enabled() bool {
	return k != nil && len(k.hashes) > 0
}

// Verify reports whether key is the API key of the operator with the given email.
func (k *OperatorKeys) Verify(email, key string) bool {
	if !k.Enabled() || key == "" {
		return false
	}
	hash, ok := k.hashes[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(key)) == nil
}

// HashKey returns the bcrypt hash to put in the operator key list.
func HashKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Authenticate returns middleware that requires HTTP Basic credentials
// (operator email and API key) on every request outside publicPaths.
// With no operators configured every request passes as an anonymous operator.
func Authenticate(keys *OperatorKeys, publicPaths ...string) func(http.Handler) http.Handler {
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if !keys.Enabled() {
				next.ServeHTTP(w, r.WithContext(ContextWithOperator(r.Context(), Operator{})))
				return
			}
			email, key, ok := r.BasicAuth()
			if !ok || !keys.Verify(email, key) {
				slog.Warn("auth_denied", "path", r.URL.Path, "operator", email, "has_credentials", ok)
				w.Header().Set("WWW-Authenticate", `Basic realm="trainingops"`)
				http.Error(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			op := Operator{Email: strings.ToLower(strings.TrimSpace(email))}
			next.ServeHTTP(w, r.WithContext(ContextWithOperator(r.Context(), op)))
		})
	}
}

// OperatorFromContext extracts the operator from the request context.
func OperatorFromContext(ctx context.Context) (Operator, bool) {
	op, ok := ctx.Value(operatorContextKey).(Operator)
	return op, ok
}

// ContextWithOperator returns a context carrying op.
func ContextWithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, operatorContextKey, op)
}
