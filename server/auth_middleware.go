package server

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const ContextKeyAccessToken contextKey = "access_token"

// RequireBearer rejects requests without a bearer token and stores the token in the context.
// Validating it is the backend's job.
func (s *Server) RequireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, failure("Missing Authorization header"))
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "bearer") {
			writeJSON(w, http.StatusUnauthorized, failure("Invalid Authorization header format"))
			return
		}

		token = strings.TrimSpace(token)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, failure("Empty token"))
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyAccessToken, token)
		next(w, r.WithContext(ctx))
	}
}

func accessToken(r *http.Request) string {
	token, _ := r.Context().Value(ContextKeyAccessToken).(string)
	return token
}
