package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/ppiankov/claimadjudicate/internal/session"
	"github.com/ppiankov/claimadjudicate/internal/worker"
	"go.uber.org/zap"
)

// SessionCookie names the cookie holding the reviewer's session id
const SessionCookie = "claim_session"

type contextKey string

const sessionKey contextKey = "session"

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *responseRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

// Logging logs every request once it completes
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request completed",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("endpoint", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("status_code", rec.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.Bool("success", rec.statusCode < 400),
			)
		})
	}
}

// Recover turns a panic into a 500 response
func (s *Server) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				var err error
				switch x := rec.(type) {
				case string:
					err = fmt.Errorf("%s", x)
				case error:
					err = x
				default:
					err = fmt.Errorf("unknown panic: %v", x)
				}
				s.log.Error("panic recovered",
					zap.String("endpoint", r.URL.Path),
					zap.Error(err),
					zap.Stack("stack"),
				)
				if isAPI(r) {
					s.writeError(w, errInternal(err))
					return
				}
				s.renderError(w, errInternal(err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RateLimit rejects clients that exceed the limiter's rate, keyed by remote IP
func (s *Server) RateLimit(l *worker.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				if isAPI(r) {
					s.writeError(w, errTooManyRequests)
					return
				}
				s.renderError(w, errTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Sessions attaches the reviewer's session to the request, issuing a new
// cookie when the old one is missing or expired
func (s *Server) Sessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}
		sess, created := s.store.GetOrCreate(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sess.ID,
				Path:     "/",
				MaxAge:   int(s.cfg.Session.TTL.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			s.log.Debug("session created", zap.String("session", sess.ID))
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionKey).(*session.Session)
	return sess
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
