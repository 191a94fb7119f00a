package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"origen/internal/platform/token"
	id "origen/pkg/domain"
	dErrors "origen/pkg/domain-errors"
	"origen/pkg/platform/httputil"
	"origen/pkg/requestcontext"
)

// RequireAuth validates the bearer token and injects actor identity, tenant
// scope, and capability claims into the request context.
func RequireAuth(tokens *token.Manager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || raw == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "bearer token required"))
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}

			actorID, err := id.ParseStaffID(claims.Subject)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token subject is not a valid actor"))
				return
			}
			ctx = requestcontext.WithActorID(ctx, actorID)
			ctx = requestcontext.WithCapabilities(ctx, claims.Capabilities)
			if claims.ActorType != "" {
				ctx = requestcontext.WithActor(ctx, requestcontext.ActorType(claims.ActorType))
			} else {
				ctx = requestcontext.WithActor(ctx, requestcontext.ActorStaff)
			}
			if tenantID, err := id.ParseTenantID(claims.TenantID); err == nil {
				ctx = requestcontext.WithTenantID(ctx, tenantID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
