// ABOUTME: HTTP middleware for JWT authentication on API endpoints
// ABOUTME: Extracts a bearer token from the Authorization header and adds the user to context

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Vladimir-28/FitLife/internal/store"
)

// UserLookup loads a user by id
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*store.User, error)
}

// errNoBearer means the request carried no Authorization header at all.
var errNoBearer = errors.New("missing authorization header")

// extractBearerToken extracts a bearer token from the Authorization header.
func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errNoBearer
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", errors.New("empty token")
	}
	return token, nil
}

// OptionalAuthMiddleware attempts JWT auth but lets anonymous requests through.
// A request that presents a bearer token must present a valid one: a bad or
// expired token, or one for a deleted user, is rejected with 401 rather than
// silently downgraded to anonymous.
func OptionalAuthMiddleware(users UserLookup, verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractBearerToken(r.Header.Get("Authorization"))
			if errors.Is(err, errNoBearer) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				writeAuthError(w, "Token inválido")
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				logger.Debug("rejected bearer token", "error", err)
				if errors.Is(err, ErrExpiredToken) {
					writeAuthError(w, "Token expirado")
					return
				}
				writeAuthError(w, "Token inválido")
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					logger.Error("failed to load token user", "user_id", userID, "error", err)
				}
				writeAuthError(w, "Token inválido")
				return
			}

			authCtx := &AuthContext{UserID: user.ID, Email: user.Email}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
