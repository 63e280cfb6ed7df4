package adapthttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"meters/internal/app"
	"meters/internal/domain"
)

// RequestIDHeader carries the request trace ID.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// tracingMiddleware keeps an incoming X-Request-ID or assigns a new one.
func tracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// loggingMiddleware logs one line per request at a level chosen by status.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		level := zapcore.InfoLevel
		switch {
		case rec.status >= http.StatusInternalServerError:
			level = zapcore.ErrorLevel
		case rec.status >= http.StatusBadRequest:
			level = zapcore.WarnLevel
		}
		s.log.Log(level, "request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestIDFrom(r.Context())),
		)
	})
}

// rescueMiddleware turns a handler panic into a 500 response.
func (s *Server) rescueMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				s.log.Error("request panic",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", p),
					zap.String("stack", string(debug.Stack())),
					zap.String("request_id", requestIDFrom(r.Context())),
				)
				writeError(w, r, fmt.Errorf("%w: panic", domain.ErrInternal))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authGate resolves the bearer token once per request and stores the result
// in the request context. It never rejects a request; the require*
// wrappers decide.
func (s *Server) authGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := s.authenticate(r)
		if !res.Authenticated && res.Reason != reasonNoToken {
			s.log.Debug("authentication failed",
				zap.String("reason", res.Reason),
				zap.String("request_id", requestIDFrom(r.Context())),
			)
		}
		next.ServeHTTP(w, r.WithContext(app.WithAuthentication(r.Context(), res)))
	})
}

const (
	reasonNoToken     = "missing or invalid token"
	reasonUnavailable = "access denied: authentication unavailable"
)

func (s *Server) authenticate(r *http.Request) (res domain.AuthenticationResult) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("authentication panic",
				zap.Any("panic", p),
				zap.String("stack", string(debug.Stack())),
				zap.String("request_id", requestIDFrom(r.Context())),
			)
			res = domain.AuthenticationResult{Reason: reasonUnavailable}
		}
	}()

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return domain.AuthenticationResult{Reason: reasonNoToken}
	}

	res, err := s.tokens.Authenticate(r.Context(), strings.TrimSpace(parts[1]))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return domain.AuthenticationResult{Reason: err.Error()}
		}
		s.log.Error("resolve token subject",
			zap.Error(err),
			zap.String("request_id", requestIDFrom(r.Context())),
		)
		return domain.AuthenticationResult{Reason: reasonUnavailable}
	}
	return res
}

// requireAuthenticated rejects requests without a valid identity with 401.
func requireAuthenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := app.AuthenticationFrom(r.Context())
		if !ok || !res.Authenticated {
			reason := reasonNoToken
			if ok && res.Reason != "" {
				reason = res.Reason
			}
			writeError(w, r, domain.KindError(domain.ErrUnauthenticated, reason))
			return
		}
		next(w, r)
	}
}

// requireAdmin rejects unauthenticated requests with 401 and non-admins with 403.
func requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return requireAuthenticated(func(w http.ResponseWriter, r *http.Request) {
		res, _ := app.AuthenticationFrom(r.Context())
		if !app.PolicyFor(res.Role).IsAdmin() {
			writeError(w, r, domain.KindError(domain.ErrForbidden, "administrator role required"))
			return
		}
		next(w, r)
	})
}

func caller(r *http.Request) domain.AuthenticationResult {
	res, _ := app.AuthenticationFrom(r.Context())
	return res
}
