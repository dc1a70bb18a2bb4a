// Package portal serves the pages of signed-in users: dashboard,
// summarizer, history, profile and notifications.
package portal

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/smart-summarizer/internal/auth"
	"github.com/ziadkadry99/smart-summarizer/internal/notifications"
	"github.com/ziadkadry99/smart-summarizer/internal/summaries"
	"github.com/ziadkadry99/smart-summarizer/internal/users"
	"github.com/ziadkadry99/smart-summarizer/internal/web"
)

// UploadConfig limits document uploads.
type UploadConfig struct {
	Dir               string
	MaxBytes          int64
	AllowedExtensions []string
}

// Config collects the dependencies of a Portal.
type Config struct {
	Service       *summaries.Service
	Summaries     *summaries.Store
	Notifications *notifications.Store
	Users         *users.Store
	Sessions      *auth.Sessions
	Renderer      *web.Renderer
	// RequireUser guards every portal route.
	RequireUser  func(http.Handler) http.Handler
	Uploads      UploadConfig
	ItemsPerPage int
	Logger       *zap.Logger
}

// Portal serves the user pages.
type Portal struct {
	service       *summaries.Service
	summaries     *summaries.Store
	notifications *notifications.Store
	users         *users.Store
	sessions      *auth.Sessions
	render        *web.Renderer
	requireUser   func(http.Handler) http.Handler
	uploads       UploadConfig
	perPage       int
	logger        *zap.Logger
}

// New creates a Portal.
func New(cfg Config) *Portal {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.ItemsPerPage <= 0 {
		cfg.ItemsPerPage = 10
	}
	if cfg.Uploads.MaxBytes <= 0 {
		cfg.Uploads.MaxBytes = 16 << 20
	}
	if len(cfg.Uploads.AllowedExtensions) == 0 {
		cfg.Uploads.AllowedExtensions = []string{"txt", "pdf", "docx"}
	}
	return &Portal{
		service:       cfg.Service,
		summaries:     cfg.Summaries,
		notifications: cfg.Notifications,
		users:         cfg.Users,
		sessions:      cfg.Sessions,
		render:        cfg.Renderer,
		requireUser:   cfg.RequireUser,
		uploads:       cfg.Uploads,
		perPage:       cfg.ItemsPerPage,
		logger:        cfg.Logger,
	}
}

// RegisterRoutes mounts the portal pages behind RequireUser.
func (p *Portal) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if p.requireUser != nil {
			r.Use(p.requireUser)
		}
		r.Get("/dashboard", p.handleDashboard)
		r.Get("/summarize", p.handleSummarize)
		r.Post("/summarize", p.handleSummarize)
		r.Post("/upload", p.handleUpload)
		r.Get("/history", p.handleHistory)
		r.Get("/history/{id}", p.handleViewSummary)
		r.Post("/history/{id}/delete", p.handleDeleteSummary)
		r.Get("/download/{id}", p.handleDownload)
		r.Get("/profile", p.handleProfile)
		r.Post("/profile", p.handleProfile)
		r.Get("/notifications", p.handleNotifications)
	})
}

func (p *Portal) supportedTypes() string {
	return strings.Join(p.uploads.AllowedExtensions, ", ")
}

// fail logs err and falls back to the login page, which redirects signed-in
// users to their dashboard.
func (p *Portal) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	p.logger.Error(op, zap.Error(err))
	http.Redirect(w, r, "/login", http.StatusFound)
}
