package httputil

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/logger"
)

const (
	requestIDHeader   = "X-Request-ID"
	maxRequestIDBytes = 64
)

type ctxKey int

const (
	requestKey ctxKey = iota
	staffKey
)

// Staff is the signed-in clinic user attached to a request.
type Staff struct {
	ID    int64
	Email string
	Role  string
}

// requestState is shared by every middleware on one request so the access
// log can see who the auth layer resolved further down the chain.
type requestState struct {
	id    string
	staff *Staff
}

// RequestID reuses the caller's X-Request-ID when it is sane, otherwise mints one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > maxRequestIDBytes {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestKey, &requestState{id: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger writes one access line per request. 5xx responses log at error
// level and 4xx at warn.
func Logger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			reqLog := log.WithRequestID(GetRequestID(r.Context()))
			role := ""
			if st := state(r.Context()); st != nil && st.staff != nil {
				reqLog = reqLog.WithUserID(st.staff.ID)
				role = st.staff.Role
			}

			ev := reqLog.Info()
			switch {
			case sw.status >= http.StatusInternalServerError:
				ev = reqLog.Error()
			case sw.status >= http.StatusBadRequest:
				ev = reqLog.Warn()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routePattern(r)).
				Str("role", role).
				Int("status", sw.status).
				Int("bytes", sw.bytes).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("request handled")
		})
	}
}

// Recoverer turns a handler panic into the standard 500 envelope.
func Recoverer(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.WithRequestID(GetRequestID(r.Context())).Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				Error(w, errors.Internal("an unexpected error occurred"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

func state(ctx context.Context) *requestState {
	st, _ := ctx.Value(requestKey).(*requestState)
	return st
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	if st := state(ctx); st != nil {
		return st.id
	}
	return ""
}

// StaffFrom returns the signed-in user, or nil on public routes.
func StaffFrom(ctx context.Context) *Staff {
	s, _ := ctx.Value(staffKey).(*Staff)
	return s
}

// GetUserID returns the signed-in user's id, 0 when there is none.
func GetUserID(ctx context.Context) int64 {
	if s := StaffFrom(ctx); s != nil {
		return s.ID
	}
	return 0
}

// WithUserContext attaches the signed-in user to ctx and to the request's
// access log line.
func WithUserContext(ctx context.Context, userID int64, email, role string) context.Context {
	s := &Staff{ID: userID, Email: email, Role: role}
	if st := state(ctx); st != nil {
		st.staff = s
	}
	return context.WithValue(ctx, staffKey, s)
}
