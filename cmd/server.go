package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/smart-summarizer/internal/admin"
	"github.com/ziadkadry99/smart-summarizer/internal/api"
	"github.com/ziadkadry99/smart-summarizer/internal/audit"
	"github.com/ziadkadry99/smart-summarizer/internal/auth"
	"github.com/ziadkadry99/smart-summarizer/internal/config"
	"github.com/ziadkadry99/smart-summarizer/internal/db"
	"github.com/ziadkadry99/smart-summarizer/internal/metrics"
	"github.com/ziadkadry99/smart-summarizer/internal/notifications"
	"github.com/ziadkadry99/smart-summarizer/internal/portal"
	"github.com/ziadkadry99/smart-summarizer/internal/reports"
	"github.com/ziadkadry99/smart-summarizer/internal/server"
	"github.com/ziadkadry99/smart-summarizer/internal/settings"
	"github.com/ziadkadry99/smart-summarizer/internal/summaries"
	"github.com/ziadkadry99/smart-summarizer/internal/summarizer"
	"github.com/ziadkadry99/smart-summarizer/internal/users"
	"github.com/ziadkadry99/smart-summarizer/internal/web"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Smart Text Summarizer web server",
	Long:  `Starts the web application: user portal, admin pages, JSON API and live notifications.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx := context.Background()
		created, err := seed(ctx, database, cfg)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
			return fmt.Errorf("creating upload directory: %w", err)
		}

		m := metrics.New()
		summ, err := newSummarizer(cfg, logger, m)
		if err != nil {
			return err
		}

		// Create and start server.
		srv := server.New(server.Config{Port: cfg.Server.Port}, database, logger, m)

		// Register all feature routes.
		if err := registerAllRoutes(srv, cfg, summ, logger); err != nil {
			return err
		}

		// Graceful shutdown.
		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-sigCtx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown", zap.Error(err))
			}
		}()

		printBanner(cfg, created, summ)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func printBanner(cfg *config.Config, adminCreated bool, summ *summarizer.Summarizer) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(os.Stderr, rule)
	fmt.Fprintf(os.Stderr, "Smart Text Summarizer v%s\n", Version)
	fmt.Fprintln(os.Stderr, rule)
	fmt.Fprintf(os.Stderr, "  URL:      %s\n", cfg.Server.BaseURL)
	fmt.Fprintf(os.Stderr, "  Port:     %d\n", cfg.Server.Port)
	fmt.Fprintf(os.Stderr, "  Database: %s\n", cfg.Database.Path)
	if summ.NeuralAvailable() {
		fmt.Fprintf(os.Stderr, "  Neural:   %s (%s)\n", cfg.Summarizer.Provider, cfg.Summarizer.ModelFor())
	} else {
		fmt.Fprintln(os.Stderr, "  Neural:   disabled")
	}
	if adminCreated {
		fmt.Fprintln(os.Stderr, "\nAdmin Credentials:")
		fmt.Fprintf(os.Stderr, "  Email:    %s\n", cfg.Admin.Email)
		fmt.Fprintf(os.Stderr, "  Password: %s\n", cfg.Admin.Password)
	}
	fmt.Fprintln(os.Stderr, rule)
}

// registerAllRoutes wires the stores and mounts every feature package.
func registerAllRoutes(srv *server.Server, cfg *config.Config, summ *summarizer.Summarizer, logger *zap.Logger) error {
	database := srv.Database()
	r := srv.Router()

	userStore := users.NewStore(database)
	summaryStore := summaries.NewStore(database)
	settingsStore := settings.NewStore(database)
	notifStore := notifications.NewStore(database)
	auditStore := audit.NewStore(database)

	sessions := auth.NewSessions(cfg.Server.SecretKey, cfg.Auth.SessionMaxAge, strings.HasPrefix(cfg.Server.BaseURL, "https://"))
	mw := auth.NewMiddleware(sessions, userStore, logger)
	tokens := auth.NewTokens(cfg.Server.SecretKey, cfg.Auth.APITokenTTL)

	renderer, err := web.NewRenderer(auth.CurrentUser, sessions.Toasts, logger)
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	// Notifications
	hub := notifications.NewHub(logger)
	dispatcher := notifications.NewDispatcher(notifStore, hub, cfg.Notifications.WebhookURL, logger)
	srv.OnShutdown(hub.Close)

	defaults := settingsDefaults(cfg)
	service := summaries.NewService(summaryStore, settingsStore, defaults, summ)

	// JSON API (bearer tokens, no cookies)
	api.New(api.Config{
		Users:           userStore,
		Summaries:       summaryStore,
		Service:         service,
		Tokens:          tokens,
		AllowAllOrigins: cfg.Server.AllowAllOrigins,
		Logger:          logger,
	}).RegisterRoutes(r)

	adm := admin.New(admin.Config{
		Users:         userStore,
		Summaries:     summaryStore,
		Notifications: notifStore,
		Dispatcher:    dispatcher,
		Settings:      settingsStore,
		Defaults:      defaults,
		Reports:       reports.NewGenerator(database),
		Audit:         auditStore,
		Sessions:      sessions,
		Renderer:      renderer,
		RequireAdmin:  mw.RequireAdmin,
		ItemsPerPage:  cfg.ItemsPerPage,
		Logger:        logger,
	})
	srv.OnShutdown(adm.Close)

	r.Group(func(r chi.Router) {
		r.Use(mw.LoadUser)

		// Authentication pages
		auth.NewHandlers(auth.HandlersConfig{
			Users:    userStore,
			Sessions: sessions,
			Renderer: renderer,
			Audit:    auditStore,
			ResetTTL: cfg.Auth.ResetTokenTTL,
			BaseURL:  cfg.Server.BaseURL,
			Logger:   logger,
		}).RegisterRoutes(r)

		// User portal
		portal.New(portal.Config{
			Service:       service,
			Summaries:     summaryStore,
			Notifications: notifStore,
			Users:         userStore,
			Sessions:      sessions,
			Renderer:      renderer,
			RequireUser:   mw.RequireUser,
			Uploads: portal.UploadConfig{
				Dir:               cfg.Uploads.Dir,
				MaxBytes:          cfg.Uploads.MaxBytes,
				AllowedExtensions: cfg.Uploads.AllowedExtensions,
			},
			ItemsPerPage: cfg.ItemsPerPage,
			Logger:       logger,
		}).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireUser)
			notifications.RegisterRoutes(r, notifStore, hub, sessions.UserID)
		})

		// Admin pages
		adm.RegisterRoutes(r)
	})

	return nil
}

// openServerDatabase is shared by commands that need the seeded database.
func openServerDatabase(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := seed(ctx, database, cfg); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 5000, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
