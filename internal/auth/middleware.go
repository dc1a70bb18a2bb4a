package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/ziadkadry99/smart-summarizer/internal/ui"
	"github.com/ziadkadry99/smart-summarizer/internal/users"
)

type contextKey struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *users.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the user stored by LoadUser or RequireToken.
func UserFromContext(ctx context.Context) *users.User {
	u, _ := ctx.Value(contextKey{}).(*users.User)
	return u
}

// CurrentUser is UserFromContext for a request.
func CurrentUser(r *http.Request) *users.User {
	return UserFromContext(r.Context())
}

// Middleware guards page routes.
type Middleware struct {
	sessions *Sessions
	users    *users.Store
	logger   *zap.Logger
}

// NewMiddleware creates the session middleware.
func NewMiddleware(s *Sessions, store *users.Store, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{sessions: s, users: store, logger: logger}
}

// LoadUser reloads the signed-in user from the database on every request
// so role and status changes apply immediately.
func (m *Middleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.sessions.UserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		u, err := m.users.GetByID(r.Context(), id)
		switch {
		case errors.Is(err, users.ErrNotFound):
			m.sessions.Logout(w, r)
		case err != nil:
			m.logger.Error("loading session user", zap.Int64("user_id", id), zap.Error(err))
		default:
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

// deactivated ends the session of a user who was deactivated while signed in.
func (m *Middleware) deactivated(w http.ResponseWriter, r *http.Request) {
	m.sessions.Logout(w, r)
	m.sessions.AddToast(w, r, ui.ToastDanger, "Your account has been deactivated.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// RequireUser allows any active signed-in account.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := CurrentUser(r)
		if u == nil {
			m.sessions.AddToast(w, r, ui.ToastWarning, "Please log in to access this page.")
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		if !u.Active {
			m.deactivated(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin allows active administrators only.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := CurrentUser(r)
		if u == nil {
			m.sessions.AddToast(w, r, ui.ToastWarning, "Please log in to access this page.")
			http.Redirect(w, r, "/admin/login", http.StatusFound)
			return
		}
		if !u.Active {
			m.deactivated(w, r)
			return
		}
		if !u.IsAdmin() {
			m.sessions.AddToast(w, r, ui.ToastDanger, "You do not have permission to access this page.")
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Home is where a signed-in user lands.
func Home(u *users.User) string {
	if u.IsAdmin() {
		return "/admin/dashboard"
	}
	return "/dashboard"
}
