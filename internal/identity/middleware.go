package identity

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/audithub/audithub/internal/authz"
	"github.com/audithub/audithub/internal/platform/httpx"
)

type callerContextKey struct{}

// ContextWithCaller stores the authenticated caller in context.
func ContextWithCaller(ctx context.Context, caller authz.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext extracts the authenticated caller from context.
func CallerFromContext(ctx context.Context) (authz.Caller, bool) {
	caller, ok := ctx.Value(callerContextKey{}).(authz.Caller)
	return caller, ok
}

// Middleware authenticates every request on the wrapped routes and injects
// the caller into the request context.
func Middleware(resolver *Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if logger != nil {
					logger.Warn("resolve credential", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithCaller(r.Context(), caller)))
		})
	}
}
