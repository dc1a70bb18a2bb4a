package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/smart-summarizer/internal/audit"
	"github.com/ziadkadry99/smart-summarizer/internal/ui"
	"github.com/ziadkadry99/smart-summarizer/internal/users"
	"github.com/ziadkadry99/smart-summarizer/internal/web"
)

// Handlers serves the sign-in, registration and password reset pages.
type Handlers struct {
	users    *users.Store
	sessions *Sessions
	render   *web.Renderer
	audit    *audit.Store
	resetTTL time.Duration
	baseURL  string
	logger   *zap.Logger
}

// HandlersConfig collects the dependencies of Handlers.
type HandlersConfig struct {
	Users    *users.Store
	Sessions *Sessions
	Renderer *web.Renderer
	Audit    *audit.Store
	// ResetTTL is how long password reset links stay valid.
	ResetTTL time.Duration
	// BaseURL prefixes reset links. Empty means derive it from the request.
	BaseURL string
	Logger  *zap.Logger
}

// NewHandlers creates the auth page handlers.
func NewHandlers(cfg HandlersConfig) *Handlers {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = 24 * time.Hour
	}
	return &Handlers{
		users:    cfg.Users,
		sessions: cfg.Sessions,
		render:   cfg.Renderer,
		audit:    cfg.Audit,
		resetTTL: cfg.ResetTTL,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:   cfg.Logger,
	}
}

// RegisterRoutes mounts the auth pages. r must already run LoadUser.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/login", h.handleLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/admin/login", h.handleAdminLogin)
	r.Post("/admin/login", h.handleAdminLogin)
	r.Get("/register", h.handleRegister)
	r.Post("/register", h.handleRegister)
	r.Get("/logout", h.handleLogout)
	r.Get("/forgot-password", h.handleForgotPassword)
	r.Post("/forgot-password", h.handleForgotPassword)
	r.Get("/reset-password/{token}", h.handleResetPassword)
	r.Post("/reset-password/{token}", h.handleResetPassword)
}

type loginPage struct {
	Email string
	Next  string
}

type registerPage struct {
	Email string
	Name  string
}

type forgotPage struct {
	ResetURL string
}

type resetPage struct {
	Token string
}

// redirectSignedIn sends active signed-in users to their dashboard.
func (h *Handlers) redirectSignedIn(w http.ResponseWriter, r *http.Request) bool {
	u := CurrentUser(r)
	if u == nil || !u.Active {
		return false
	}
	http.Redirect(w, r, Home(u), http.StatusFound)
	return true
}

// safeNext accepts only local absolute paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if h.redirectSignedIn(w, r) {
		return
	}
	page := loginPage{Next: safeNext(r.URL.Query().Get("next"))}
	if r.Method != http.MethodPost {
		h.render.Render(w, r, "auth/login.html", page)
		return
	}

	page.Email = users.NormalizeEmail(r.FormValue("email"))
	u, err := h.users.Authenticate(r.Context(), page.Email, r.FormValue("password"))
	switch {
	case errors.Is(err, users.ErrInvalidCredentials):
		h.sessions.AddToast(w, r, ui.ToastDanger, "Invalid email or password.")
		h.render.Render(w, r, "auth/login.html", page)
		return
	case errors.Is(err, users.ErrInactive):
		h.sessions.AddToast(w, r, ui.ToastDanger, "Your account has been deactivated. Please contact administrator.")
		h.render.Render(w, r, "auth/login.html", page)
		return
	case err != nil:
		h.fail(w, r, "login", err)
		return
	}

	if err := h.sessions.Login(w, r, u, r.FormValue("remember") != ""); err != nil {
		h.fail(w, r, "saving session", err)
		return
	}
	h.logger.Info("user logged in", zap.Int64("user_id", u.ID))

	if page.Next != "" {
		http.Redirect(w, r, page.Next, http.StatusFound)
		return
	}
	http.Redirect(w, r, Home(u), http.StatusFound)
}

func (h *Handlers) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if h.redirectSignedIn(w, r) {
		return
	}
	var page loginPage
	if r.Method != http.MethodPost {
		h.render.Render(w, r, "auth/admin_login.html", page)
		return
	}

	page.Email = users.NormalizeEmail(r.FormValue("email"))
	u, err := h.users.AuthenticateAdmin(r.Context(), page.Email, r.FormValue("password"))
	switch {
	case errors.Is(err, users.ErrInvalidCredentials):
		h.sessions.AddToast(w, r, ui.ToastDanger, "Invalid admin credentials.")
		h.render.Render(w, r, "auth/admin_login.html", page)
		return
	case errors.Is(err, users.ErrInactive):
		h.sessions.AddToast(w, r, ui.ToastDanger, "Admin account is deactivated.")
		h.render.Render(w, r, "auth/admin_login.html", page)
		return
	case err != nil:
		h.fail(w, r, "admin login", err)
		return
	}

	if err := h.sessions.Login(w, r, u, false); err != nil {
		h.fail(w, r, "saving session", err)
		return
	}
	h.logger.Info("admin logged in", zap.Int64("user_id", u.ID))
	http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
}

func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	if h.redirectSignedIn(w, r) {
		return
	}
	var page registerPage
	if r.Method != http.MethodPost {
		h.render.Render(w, r, "auth/register.html", page)
		return
	}

	page.Email = users.NormalizeEmail(r.FormValue("email"))
	page.Name = strings.TrimSpace(r.FormValue("name"))
	password := r.FormValue("password")

	problems := users.ValidateRegistration(page.Email, password, r.FormValue("confirm_password"), page.Name)
	if _, err := h.users.GetByEmail(r.Context(), page.Email); err == nil {
		problems = append(problems, "Email already registered.")
	}

	var u *users.User
	if len(problems) == 0 {
		var err error
		u, err = h.users.Create(r.Context(), page.Email, page.Name, password, users.RoleUser)
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			problems = append(problems, "Email already registered.")
		case err != nil:
			h.fail(w, r, "registering user", err)
			return
		}
	}
	if len(problems) > 0 {
		for _, p := range problems {
			h.sessions.AddToast(w, r, ui.ToastDanger, p)
		}
		h.render.Render(w, r, "auth/register.html", page)
		return
	}

	h.record(r, audit.Entry{
		ActorID:    u.ID,
		Action:     audit.ActionUserRegistered,
		TargetType: audit.TargetUser,
		TargetID:   strconv.FormatInt(u.ID, 10),
		Summary:    "Registered " + u.Email,
	})
	h.sessions.AddToast(w, r, ui.ToastSuccess, "Registration successful! Please log in.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.logger.Warn("clearing session", zap.Error(err))
	}
	h.sessions.AddToast(w, r, ui.ToastInfo, "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if h.redirectSignedIn(w, r) {
		return
	}
	var page forgotPage
	if r.Method != http.MethodPost {
		h.render.Render(w, r, "auth/forgot_password.html", page)
		return
	}

	u, err := h.users.GetByEmail(r.Context(), r.FormValue("email"))
	if errors.Is(err, users.ErrNotFound) {
		// The reply must not reveal whether the address is registered.
		h.sessions.AddToast(w, r, ui.ToastInfo, "If the email exists, a reset link has been generated.")
		h.render.Render(w, r, "auth/forgot_password.html", page)
		return
	}
	if err != nil {
		h.fail(w, r, "looking up user", err)
		return
	}

	rt, err := h.users.IssueResetToken(r.Context(), u.ID, h.resetTTL)
	if err != nil {
		h.fail(w, r, "issuing reset token", err)
		return
	}
	h.record(r, audit.Entry{
		ActorID:    u.ID,
		Action:     audit.ActionPasswordResetRequested,
		TargetType: audit.TargetUser,
		TargetID:   strconv.FormatInt(u.ID, 10),
		Summary:    "Password reset requested for " + u.Email,
	})

	page.ResetURL = h.base(r) + "/reset-password/" + rt.Token
	h.sessions.AddToast(w, r, ui.ToastInfo, "Password reset token generated. Use this link:")
	h.render.Render(w, r, "auth/forgot_password.html", page)
}

func (h *Handlers) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if h.redirectSignedIn(w, r) {
		return
	}
	token := chi.URLParam(r, "token")
	if _, err := h.users.LookupResetToken(r.Context(), token); err != nil {
		if !errors.Is(err, users.ErrInvalidResetToken) {
			h.logger.Error("looking up reset token", zap.Error(err))
		}
		h.sessions.AddToast(w, r, ui.ToastDanger, "Invalid or expired reset token.")
		http.Redirect(w, r, "/forgot-password", http.StatusFound)
		return
	}

	page := resetPage{Token: token}
	if r.Method != http.MethodPost {
		h.render.Render(w, r, "auth/reset_password.html", page)
		return
	}

	password := r.FormValue("password")
	if len(password) < users.MinPasswordLength {
		h.sessions.AddToast(w, r, ui.ToastDanger, "Password must be at least 6 characters long.")
		h.render.Render(w, r, "auth/reset_password.html", page)
		return
	}
	if password != r.FormValue("confirm_password") {
		h.sessions.AddToast(w, r, ui.ToastDanger, "Passwords do not match.")
		h.render.Render(w, r, "auth/reset_password.html", page)
		return
	}

	u, err := h.users.ResetPassword(r.Context(), token, password)
	if errors.Is(err, users.ErrInvalidResetToken) {
		h.sessions.AddToast(w, r, ui.ToastDanger, "Invalid or expired reset token.")
		http.Redirect(w, r, "/forgot-password", http.StatusFound)
		return
	}
	if err != nil {
		h.fail(w, r, "resetting password", err)
		return
	}

	h.record(r, audit.Entry{
		ActorID:    u.ID,
		Action:     audit.ActionPasswordReset,
		TargetType: audit.TargetUser,
		TargetID:   strconv.FormatInt(u.ID, 10),
		Summary:    "Password reset for " + u.Email,
	})
	h.sessions.AddToast(w, r, ui.ToastSuccess, "Password reset successful! Please log in.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) base(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (h *Handlers) record(r *http.Request, e audit.Entry) {
	if h.audit == nil {
		return
	}
	if err := h.audit.Log(r.Context(), e); err != nil {
		h.logger.Warn("writing audit entry", zap.String("action", string(e.Action)), zap.Error(err))
	}
}

// fail logs err and sends the browser back to the login page, which is how
// unexpected errors surface on pages.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error(op, zap.Error(err))
	http.Redirect(w, r, "/login", http.StatusFound)
}
