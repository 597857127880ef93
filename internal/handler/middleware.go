package handler

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ogulyaev/todo-api/internal/repo"
	"github.com/ogulyaev/todo-api/pkg/respond"
)

type ctxKey int

const userIDKey ctxKey = iota

// WithUser scopes every request to an existing user. The caller's id
// arrives in the X-User-ID header, where the auth gateway in front of
// this service puts it after verifying the session token.
func WithUser(users repo.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
			if err != nil || id <= 0 {
				respond.Error(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, err := users.GetByID(r.Context(), id)
			if err != nil {
				if err != repo.ErrorNotFound {
					logger.Error("failed to resolve user", zap.Int64("user_id", id), zap.Error(err))
				}
				respond.Error(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated owner id placed by WithUser.
func UserID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}
