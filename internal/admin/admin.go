// Package admin serves the administrator pages under /admin.
package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/smart-summarizer/internal/audit"
	"github.com/ziadkadry99/smart-summarizer/internal/auth"
	"github.com/ziadkadry99/smart-summarizer/internal/notifications"
	"github.com/ziadkadry99/smart-summarizer/internal/reports"
	"github.com/ziadkadry99/smart-summarizer/internal/settings"
	"github.com/ziadkadry99/smart-summarizer/internal/summaries"
	"github.com/ziadkadry99/smart-summarizer/internal/ui"
	"github.com/ziadkadry99/smart-summarizer/internal/users"
	"github.com/ziadkadry99/smart-summarizer/internal/web"
)

// DefaultSettingsNoticeDelay coalesces settings saves into one broadcast.
const DefaultSettingsNoticeDelay = 30 * time.Second

// Config collects the dependencies of Admin.
type Config struct {
	Users         *users.Store
	Summaries     *summaries.Store
	Notifications *notifications.Store
	Dispatcher    *notifications.Dispatcher
	Settings      *settings.Store
	Defaults      settings.Summarization
	Reports       *reports.Generator
	Audit         *audit.Store
	Sessions      *auth.Sessions
	Renderer      *web.Renderer
	// RequireAdmin guards every admin route.
	RequireAdmin func(http.Handler) http.Handler
	ItemsPerPage int
	// SettingsNoticeDelay is how long settings must stay unchanged before
	// users are notified. Zero uses DefaultSettingsNoticeDelay.
	SettingsNoticeDelay time.Duration
	Logger              *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Admin serves the administrator pages.
type Admin struct {
	users         *users.Store
	summaries     *summaries.Store
	notifications *notifications.Store
	dispatcher    *notifications.Dispatcher
	settings      *settings.Store
	defaults      settings.Summarization
	reports       *reports.Generator
	audit         *audit.Store
	sessions      *auth.Sessions
	render        *web.Renderer
	requireAdmin  func(http.Handler) http.Handler
	perPage       int
	logger        *zap.Logger
	now           func() time.Time

	settingsNotice *ui.Debouncer
}

// New creates an Admin. Call Close on shutdown to deliver a pending
// settings notice.
func New(cfg Config) *Admin {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ItemsPerPage <= 0 {
		cfg.ItemsPerPage = 10
	}
	if cfg.SettingsNoticeDelay <= 0 {
		cfg.SettingsNoticeDelay = DefaultSettingsNoticeDelay
	}
	a := &Admin{
		users:         cfg.Users,
		summaries:     cfg.Summaries,
		notifications: cfg.Notifications,
		dispatcher:    cfg.Dispatcher,
		settings:      cfg.Settings,
		defaults:      cfg.Defaults,
		reports:       cfg.Reports,
		audit:         cfg.Audit,
		sessions:      cfg.Sessions,
		render:        cfg.Renderer,
		requireAdmin:  cfg.RequireAdmin,
		perPage:       cfg.ItemsPerPage,
		logger:        cfg.Logger,
		now:           cfg.Now,
	}
	a.settingsNotice = ui.Debounce(a.announceSettings, cfg.SettingsNoticeDelay)
	return a
}

// RegisterRoutes mounts the admin pages and the audit JSON API under /admin.
func (a *Admin) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		if a.requireAdmin != nil {
			r.Use(a.requireAdmin)
		}
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
		})
		r.Get("/dashboard", a.handleDashboard)
		r.Get("/users", a.handleUsers)
		r.Get("/users/{id}", a.handleUserDetail)
		r.Post("/users/{id}/toggle", a.handleToggleUser)
		r.Get("/settings", a.handleSettings)
		r.Post("/settings", a.handleSettings)
		r.Get("/reports", a.handleReports)
		r.Get("/reports/download/{type}", a.handleDownloadReport)
		r.Get("/notifications", a.handleNotifications)
		r.Post("/notifications", a.handleNotifications)
		r.Get("/audit", a.handleAudit)

		audit.RegisterRoutes(r, a.audit)
	})
}

// Close delivers a pending settings notice immediately.
func (a *Admin) Close() {
	a.settingsNotice.Flush()
}

// announceSettings broadcasts the current summarization settings.
func (a *Admin) announceSettings() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := a.settings.Load(ctx, a.defaults)
	if err != nil {
		a.logger.Error("loading settings for notice", zap.Error(err))
		return
	}
	n := &notifications.Notification{
		Title: "Summarization settings updated",
		Message: fmt.Sprintf(
			"Summary lengths are now **short %d%%**, **medium %d%%** and **long %d%%** of the input. "+
				"Texts may have up to %s words.",
			cfg.ShortPercentage, cfg.MediumPercentage, cfg.LongPercentage,
			ui.FormatNumber(int64(cfg.MaxInputWords))),
	}
	if err := a.dispatcher.Send(ctx, n); err != nil {
		a.logger.Error("sending settings notice", zap.Error(err))
	}
}

// record writes an audit entry. Failures are logged only.
func (a *Admin) record(r *http.Request, e audit.Entry) {
	if a.audit == nil {
		return
	}
	if u := auth.CurrentUser(r); u != nil {
		e.ActorID = u.ID
	}
	if err := a.audit.Log(r.Context(), e); err != nil {
		a.logger.Warn("writing audit entry", zap.String("action", string(e.Action)), zap.Error(err))
	}
}

func (a *Admin) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	a.logger.Error(op, zap.Error(err))
	http.Redirect(w, r, "/login", http.StatusFound)
}
