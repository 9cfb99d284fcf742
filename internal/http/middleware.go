package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/acai_cart/internal/session"
	"github.com/fjod/acai_cart/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const SessionHeader = "X-Session-ID"

type ctxKey int

const sessionKey ctxKey = iota

// SessionProvider hands out the session for a client id.
type SessionProvider interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// SessionMiddleware resolves the X-Session-ID header to a session, issuing a
// new id when the header is missing or malformed. The id is echoed back on
// every response.
func SessionMiddleware(sessions SessionProvider, logger *zap.Logger) func(http.Handler) http.Handler {
	rs := newResponder(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if !validSessionID(id) {
				id = uuid.NewString()
			}

			s, err := sessions.Get(r.Context(), id)
			if err != nil {
				rs.handleError(w, err)
				return
			}

			w.Header().Set(SessionHeader, id)
			ctx := context.WithValue(r.Context(), sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}

func validSessionID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// RequestLogger writes one structured line per request.
func RequestLogger(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.WithTrace(r.Context(), l).Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
