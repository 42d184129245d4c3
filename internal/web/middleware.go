package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/flashdeck/internal/domain"
)

type ctxKey int

const userIDKey ctxKey = iota

func userID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLog logs every request once, at warn for 4xx and error for 5xx.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		fields := []interface{}{
			"method", strings.ToUpper(r.Method),
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		}
		switch {
		case rec.status >= 500:
			s.log.Error("HTTP request", fields...)
		case rec.status >= 400:
			s.log.Warn("HTTP request", fields...)
		default:
			s.log.Info("HTTP request", fields...)
		}
	})
}

// sessionToken reads the session cookie, falling back to a bearer token.
func (s *Server) sessionToken(r *http.Request) string {
	if c, err := r.Cookie(s.opts.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if auth, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(auth)
	}
	return ""
}

// authenticate rejects requests without a live session and stores the
// session's user in the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.sessionToken(r)
		if token == "" {
			s.writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
			return
		}
		session, err := s.db.FindSession(r.Context(), token, time.Now().Add(-s.opts.SessionMaxAge))
		if errors.Is(err, domain.ErrNotFound) {
			s.writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired session")
			return
		}
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, session.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
