package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/logger"
)

// SessionHeader lets a front end tag requests with its cart session for log correlation.
const SessionHeader = "X-Cart-Session"

// RequestLogger builds a request-scoped logger enriched with correlation_id,
// session, trace_id and span_id and stores it via logger.NewContext.
//
// Mount it after RequestLogging and Tracing so those fields are present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if s := r.Header.Get(SessionHeader); s != "" && logger.SessionFromContext(ctx) == "" {
				ctx = logger.WithSession(ctx, s)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
