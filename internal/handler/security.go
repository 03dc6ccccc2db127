package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/salesdesk/order-engine/internal/domain/auth"
)

// principalKey is the context key for the authenticated principal.
type principalKey struct{}

// PrincipalFromContext extracts the authenticated principal. A zero Principal
// (no role, no privilege) is returned when none is present.
func PrincipalFromContext(ctx context.Context) auth.Principal {
	if p, ok := ctx.Value(principalKey{}).(auth.Principal); ok {
		return p
	}
	return auth.Principal{}
}

// Security authenticates API requests via HMAC-SHA256 hashed API keys and
// resolves the acting principal (role + privilege level) for the edit-lock
// capability check.
type Security struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurity creates a Security with the given API key repository and HMAC
// pepper.
func NewSecurity(apikeys auth.Repository, pepper []byte) *Security {
	return &Security{apikeys: apikeys, pepper: pepper}
}

// Middleware rejects requests without a valid API key and stores the
// resolved principal in the request context.
func (s *Security) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := apiKeyFrom(r)
		if key == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Code: 401, Message: "missing api key"})
			return
		}

		info, err := s.authenticate(r.Context(), key)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Code: 401, Message: "unauthorized"})
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, info.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate computes the HMAC-SHA256 of the provided key, looks it up,
// and performs a constant-time comparison to prevent timing attacks.
func (s *Security) authenticate(ctx context.Context, key string) (*auth.APIKeyInfo, error) {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(key))
	hash := mac.Sum(nil)

	info, err := s.apikeys.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		return nil, err
	}

	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(hash, stored) != 1 {
		return nil, errUnauthorized
	}
	return info, nil
}

var errUnauthorized = &unauthorizedError{}

type unauthorizedError struct{}

func (*unauthorizedError) Error() string { return "unauthorized" }

func apiKeyFrom(r *http.Request) string {
	if key := r.Header.Get("api_key"); key != "" {
		return key
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
