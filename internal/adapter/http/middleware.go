package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"hydration/internal/app"
	"hydration/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

const sessionCookie = "session"

// authMiddleware validates session tokens and forward auth headers.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.disableAuth {
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), s.localUser)))
			return
		}

		// Forward auth from a trusted reverse proxy wins over cookies.
		if remoteUser := r.Header.Get("Remote-User"); remoteUser != "" {
			user, err := s.authSvc.ValidateForwardAuth(r.Context(), remoteUser)
			if err == nil && user != nil {
				next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
				return
			}
			if errors.Is(err, app.ErrAuthUnavailable) {
				s.log.ErrorContext(r.Context(), "forward auth", "remote_user", remoteUser, "err", err)
				writeError(w, http.StatusServiceUnavailable, errors.New("authentication unavailable"))
				return
			}
			s.log.WarnContext(r.Context(), "forward auth rejected", "remote_user", remoteUser, "err", err)
		}

		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}

		user, err := s.authSvc.ValidateSession(r.Context(), cookie.Value, r.UserAgent())
		switch {
		case errors.Is(err, app.ErrSessionNotFound), errors.Is(err, app.ErrSessionExpired), errors.Is(err, app.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		case errors.Is(err, app.ErrAuthUnavailable):
			s.log.ErrorContext(r.Context(), "validate session", "err", err)
			writeError(w, http.StatusServiceUnavailable, errors.New("authentication unavailable"))
			return
		case err != nil:
			s.log.ErrorContext(r.Context(), "validate session", "err", err)
			writeError(w, http.StatusInternalServerError, errors.New("internal error"))
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func withUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// userFromContext returns the authenticated user. Handlers behind
// authMiddleware can rely on it being set.
func userFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userContextKey).(*domain.User)
	return u
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		s.log.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
		)
	})
}
