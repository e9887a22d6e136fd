package middleware

import (
	"net/http"

	"storefront-be/internal/apperror"
	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/rbac"
	"storefront-be/internal/transport"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

// Auth attaches the caller identity when a token is present. Requests
// without a token pass through anonymously; a bad token is rejected.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(tokenStr, secret)
			if err != nil {
				logger.FromCtx(r.Context()).Debug("rejecting token", zap.Error(err))
				transport.WriteError(r.Context(), w, apperror.New(apperror.KindUnauthorized, "invalid or expired token"))
				return
			}

			ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.Email, claims.Role)
			ctx = rbac.WithActor(ctx, rbac.Actor{UserID: claims.UserID, Email: claims.Email, Role: claims.Role})
			ctx = logger.WithUserID(ctx, claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := rbac.ActorFrom(r.Context()); !ok {
			transport.WriteError(r.Context(), w, apperror.New(apperror.KindUnauthorized, "authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAction rejects callers whose role does not grant action.
func RequireAction(action rbac.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := rbac.ActorFrom(r.Context())
			if !ok {
				transport.WriteError(r.Context(), w, apperror.New(apperror.KindUnauthorized, "authentication required"))
				return
			}
			if !actor.Can(action) {
				transport.WriteError(r.Context(), w, apperror.New(apperror.KindForbidden, "action currently unavailable"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
