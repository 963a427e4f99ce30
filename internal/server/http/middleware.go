package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/arxivchat/internal/observability"
)

// requestIDMiddleware gives every request a UUID request ID. An incoming
// X-Request-Id is kept only if it is itself a UUID. The ID is stored under
// chi's key so middleware.GetReqID sees it.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(middleware.RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		w.Header().Set(middleware.RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// correlationIDMiddleware stores the request ID and correlation ID in the
// request context. The correlation ID comes from X-Correlation-ID and
// defaults to the request ID.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = requestID
		}

		w.Header().Set("X-Correlation-ID", correlationID)
		ctx := observability.WithRequestContextFull(r.Context(), observability.RequestContext{
			RequestID:     requestID,
			CorrelationID: correlationID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLoggingMiddleware logs one line per request and records HTTP metrics
// labelled by route pattern.
func requestLoggingMiddleware(logger zerolog.Logger, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			metrics.RecordHTTPRequest(route, r.Method, strconv.Itoa(status), elapsed.Seconds())

			log := observability.LoggerFromContext(r.Context(), logger)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", elapsed).
				Msg("request handled")
		})
	}
}

// recoverMiddleware turns handler panics into a JSON 500.
func recoverMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					reqLogger := observability.LoggerFromContext(r.Context(), logger)
					reqLogger.Error().
						Interface("panic", rec).
						Str("path", r.URL.Path).
						Msg("handler panicked")
					writeError(w, http.StatusInternalServerError, errCategoryInternal, detailUnexpected)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// jsonContentTypeMiddleware sets Content-Type: application/json for all responses.
func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware answers CORS preflights and decorates responses for allowed
// origins. Origins may use one "*" wildcard, e.g. "https://*.railway.app".
// allowAll accepts every origin.
func corsMiddleware(allowedOrigins []string, allowAll bool) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	}
	if allowAll {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	}
	return cors.Handler(opts)
}

// trustedHostMiddleware rejects requests whose Host header is not listed.
func trustedHostMiddleware(allowedHosts []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := r.Host
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}
			if !matchesAny(strings.ToLower(host), allowedHosts) {
				writeError(w, http.StatusBadRequest, errCategoryBadRequest, detailInvalidHost)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// matchesAny reports whether host matches one of patterns. "*" matches
// anything; a "*." segment matches one or more leading subdomain labels, so
// "*.railway.app" matches "app.railway.app" but not "railway.app".
func matchesAny(value string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "*":
			return true
		case strings.Contains(p, "*."):
			i := strings.Index(p, "*.")
			prefix, suffix := p[:i], p[i+1:]
			v := strings.ToLower(value)
			if strings.HasPrefix(v, prefix) && strings.HasSuffix(v, suffix) &&
				len(v) > len(prefix)+len(suffix) &&
				!strings.ContainsAny(v[len(prefix):len(v)-len(suffix)], "/:@") {
				return true
			}
		case p == strings.ToLower(value):
			return true
		}
	}
	return false
}
