package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloudemu/engine/internal/api/types"
	"github.com/cloudemu/engine/pkg/logger"
	"go.uber.org/zap"
)

type userKeyType string

const UserEmailKey userKeyType = "user_email"

// TokenVerifier resolves a bearer token to the caller's email.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Auth validates a Bearer token and adds the user's email to the context.
func Auth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				unauthorized(w)
				return
			}
			email, err := v.Verify(r.Context(), strings.TrimSpace(ah[len("Bearer "):]))
			if err != nil {
				logger.L().Debug("bearer token rejected", zap.String("id", GetRequestID(r.Context())), zap.Error(err))
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), UserEmailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(types.APIResponse{
		Success: false,
		Error:   &types.APIError{Code: "unauthorized", Message: http.StatusText(http.StatusUnauthorized)},
	})
}

func GetUserEmail(ctx context.Context) string {
	if v := ctx.Value(UserEmailKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
