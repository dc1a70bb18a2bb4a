package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/smart-summarizer/internal/audit"
	"github.com/ziadkadry99/smart-summarizer/internal/notifications"
	"github.com/ziadkadry99/smart-summarizer/internal/reports"
	"github.com/ziadkadry99/smart-summarizer/internal/settings"
	"github.com/ziadkadry99/smart-summarizer/internal/summaries"
	"github.com/ziadkadry99/smart-summarizer/internal/summarizer"
	"github.com/ziadkadry99/smart-summarizer/internal/ui"
	"github.com/ziadkadry99/smart-summarizer/internal/users"
	"github.com/ziadkadry99/smart-summarizer/internal/web"
)

const (
	dashboardRecent     = 10
	recentNotifications = 20
	detailSummaries     = 20
)

type dashboardPage struct {
	TotalUsers     int
	ActiveUsers    int
	TotalSummaries int
	TodaySummaries int
	WeekSummaries  int
	NewUsers       int
	Recent         []summaries.Summary
	ByLength       map[string]int
}

func (a *Admin) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := a.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.AddDate(0, 0, -7)

	var (
		page dashboardPage
		err  error
	)
	steps := []struct {
		op  string
		run func() error
	}{
		{"counting users", func() (err error) {
			page.TotalUsers, err = a.users.Count(ctx, users.ListFilter{Role: users.RoleUser})
			return
		}},
		{"counting active users", func() (err error) {
			page.ActiveUsers, err = a.users.Count(ctx, users.ListFilter{Role: users.RoleUser, Status: "active"})
			return
		}},
		{"counting summaries", func() (err error) {
			page.TotalSummaries, err = a.summaries.Count(ctx)
			return
		}},
		{"counting today's summaries", func() (err error) {
			page.TodaySummaries, err = a.summaries.CountSince(ctx, today)
			return
		}},
		{"counting week's summaries", func() (err error) {
			page.WeekSummaries, err = a.summaries.CountSince(ctx, weekAgo)
			return
		}},
		{"counting new users", func() (err error) {
			page.NewUsers, err = a.users.CountCreatedSince(ctx, users.RoleUser, weekAgo)
			return
		}},
		{"listing recent summaries", func() (err error) {
			page.Recent, err = a.summaries.Recent(ctx, dashboardRecent)
			return
		}},
		{"counting summaries by length", func() (err error) {
			page.ByLength, err = a.summaries.CountByLength(ctx)
			return
		}},
	}
	for _, s := range steps {
		if err = s.run(); err != nil {
			a.fail(w, r, s.op, err)
			return
		}
	}
	a.render.Render(w, r, "admin/dashboard.html", page)
}

type usersPage struct {
	Users      []users.User
	Pagination web.Pagination
	Search     string
	Status     string
}

func (a *Admin) handleUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := users.ListFilter{
		Role:   users.RoleUser,
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Status: r.URL.Query().Get("status"),
	}

	total, err := a.users.Count(ctx, filter)
	if err != nil {
		a.fail(w, r, "counting users", err)
		return
	}
	pg := web.NewPagination(web.PageParam(r), a.perPage, total).WithRequest(r)
	filter.Limit, filter.Offset = pg.PerPage, pg.Offset()
	list, err := a.users.List(ctx, filter)
	if err != nil {
		a.fail(w, r, "listing users", err)
		return
	}

	a.render.Render(w, r, "admin/users.html", usersPage{
		Users:      list,
		Pagination: pg,
		Search:     filter.Search,
		Status:     filter.Status,
	})
}

// userFromURL loads the {id} user or sends the admin back to the list.
func (a *Admin) userFromURL(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err == nil {
		var u *users.User
		u, err = a.users.GetByID(r.Context(), id)
		if err == nil {
			return u, true
		}
	}
	if err != nil && !errors.Is(err, users.ErrNotFound) && !errors.Is(err, strconv.ErrSyntax) {
		a.logger.Error("loading user", zap.Error(err))
	}
	a.sessions.AddToast(w, r, ui.ToastDanger, "User not found.")
	http.Redirect(w, r, "/admin/users", http.StatusFound)
	return nil, false
}

type userDetailPage struct {
	Account      *users.User
	Summaries    []summaries.Summary
	SummaryCount int
}

func (a *Admin) handleUserDetail(w http.ResponseWriter, r *http.Request) {
	u, ok := a.userFromURL(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	count, err := a.summaries.CountByUser(ctx, u.ID)
	if err != nil {
		a.fail(w, r, "counting summaries", err)
		return
	}
	list, err := a.summaries.ListByUser(ctx, u.ID, detailSummaries, 0)
	if err != nil {
		a.fail(w, r, "listing summaries", err)
		return
	}
	a.render.Render(w, r, "admin/user_detail.html", userDetailPage{
		Account:      u,
		Summaries:    list,
		SummaryCount: count,
	})
}

func (a *Admin) handleToggleUser(w http.ResponseWriter, r *http.Request) {
	u, ok := a.userFromURL(w, r)
	if !ok {
		return
	}

	active, err := a.users.Toggle(r.Context(), u.ID)
	switch {
	case errors.Is(err, users.ErrAdminImmutable):
		a.sessions.AddToast(w, r, ui.ToastDanger, "Cannot modify admin account.")
	case err != nil:
		a.fail(w, r, "toggling user", err)
		return
	default:
		status, action := "deactivated", audit.ActionUserDeactivated
		if active {
			status, action = "activated", audit.ActionUserActivated
		}
		msg := fmt.Sprintf("User %s has been %s.", u.Email, status)
		a.record(r, audit.Entry{
			Action:     action,
			TargetType: audit.TargetUser,
			TargetID:   strconv.FormatInt(u.ID, 10),
			Summary:    msg,
		})
		a.sessions.AddToast(w, r, ui.ToastSuccess, msg)
	}
	http.Redirect(w, r, "/admin/users", http.StatusFound)
}

type settingsPage struct {
	Settings settings.Summarization
}

func (a *Admin) handleSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		cfg, err := a.settings.Load(ctx, a.defaults)
		if err != nil {
			a.fail(w, r, "loading settings", err)
			return
		}
		a.render.Render(w, r, "admin/settings.html", settingsPage{Settings: cfg})
		return
	}

	cfg := settings.Summarization{
		ShortPercentage:  formInt(r, "short_percentage"),
		MediumPercentage: formInt(r, "medium_percentage"),
		LongPercentage:   formInt(r, "long_percentage"),
		MaxInputWords:    formInt(r, "max_input_words"),
		Mode:             summarizer.Mode(r.FormValue("summarization_mode")),
	}
	err := a.settings.Save(ctx, cfg)
	var invalid *settings.ValidationError
	switch {
	case errors.As(err, &invalid):
		a.sessions.AddToast(w, r, ui.ToastDanger, invalid.Msg)
	case err != nil:
		a.fail(w, r, "saving settings", err)
		return
	default:
		a.record(r, audit.Entry{
			Action:     audit.ActionSettingsUpdated,
			TargetType: audit.TargetSettings,
			Summary: fmt.Sprintf("short=%d%% medium=%d%% long=%d%% max_words=%d mode=%s",
				cfg.ShortPercentage, cfg.MediumPercentage, cfg.LongPercentage, cfg.MaxInputWords, cfg.Mode),
		})
		a.settingsNotice.Trigger()
		a.sessions.AddToast(w, r, ui.ToastSuccess, "Settings updated successfully.")
	}
	http.Redirect(w, r, "/admin/settings", http.StatusFound)
}

// formInt parses an integer form field; anything unparsable is 0 and
// fails validation.
func formInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	if err != nil {
		return 0
	}
	return n
}

type reportsPage struct {
	Types []reports.Type
}

func (a *Admin) handleReports(w http.ResponseWriter, r *http.Request) {
	a.render.Render(w, r, "admin/reports.html", reportsPage{Types: reports.Types})
}

func (a *Admin) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	typ := reports.Type(chi.URLParam(r, "type"))
	period := r.URL.Query().Get("period")

	report, err := a.reports.Generate(r.Context(), typ, period, a.now())
	if errors.Is(err, reports.ErrUnknownType) {
		a.sessions.AddToast(w, r, ui.ToastDanger, "Invalid report type.")
		http.Redirect(w, r, "/admin/reports", http.StatusFound)
		return
	}
	if err != nil {
		a.fail(w, r, "generating report", err)
		return
	}

	web.Attachment(w, "text/csv; charset=utf-8", report.Filename)
	if err := report.WriteCSV(w); err != nil {
		a.logger.Error("writing report", zap.String("type", string(typ)), zap.Error(err))
	}
}

type notificationsPage struct {
	Users  []users.User
	Recent []notifications.Notification
}

func (a *Admin) handleNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method == http.MethodPost {
		a.sendNotification(w, r)
		return
	}

	active, err := a.users.List(ctx, users.ListFilter{Role: users.RoleUser, Status: "active"})
	if err != nil {
		a.fail(w, r, "listing users", err)
		return
	}
	recent, err := a.notifications.Recent(ctx, recentNotifications)
	if err != nil {
		a.fail(w, r, "listing notifications", err)
		return
	}
	a.render.Render(w, r, "admin/notifications.html", notificationsPage{Users: active, Recent: recent})
}

func (a *Admin) sendNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer http.Redirect(w, r, "/admin/notifications", http.StatusFound)

	n := &notifications.Notification{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Message: strings.TrimSpace(r.FormValue("message")),
	}
	if n.Title == "" || n.Message == "" {
		a.sessions.AddToast(w, r, ui.ToastDanger, "Title and message are required.")
		return
	}

	recipient := "all users"
	if r.FormValue("target") == "user" {
		id, err := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
		var u *users.User
		if err == nil {
			u, err = a.users.GetByID(ctx, id)
		}
		if err != nil {
			a.sessions.AddToast(w, r, ui.ToastDanger, "Please select a valid user.")
			return
		}
		n.UserID = &u.ID
		recipient = u.Email
	}

	if err := a.dispatcher.Send(ctx, n); err != nil {
		a.logger.Error("sending notification", zap.Error(err))
		a.sessions.AddToast(w, r, ui.ToastDanger, "Error sending notification.")
		return
	}
	a.record(r, audit.Entry{
		Action:     audit.ActionNotificationSent,
		TargetType: audit.TargetNotification,
		TargetID:   n.ID,
		Summary:    fmt.Sprintf("%q sent to %s", n.Title, recipient),
	})
	a.sessions.AddToast(w, r, ui.ToastSuccess, "Notification sent to "+recipient+".")
}

type auditPage struct {
	Entries    []audit.Entry
	Pagination web.Pagination
	Actions    []audit.Action
	Action     string
}

func (a *Admin) handleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := audit.QueryFilter{Action: audit.Action(r.URL.Query().Get("action"))}

	total, err := a.audit.Count(ctx, filter)
	if err != nil {
		a.fail(w, r, "counting audit entries", err)
		return
	}
	pg := web.NewPagination(web.PageParam(r), a.perPage, total).WithRequest(r)
	filter.Limit, filter.Offset = pg.PerPage, pg.Offset()
	entries, err := a.audit.Query(ctx, filter)
	if err != nil {
		a.fail(w, r, "querying audit entries", err)
		return
	}
	a.render.Render(w, r, "admin/audit.html", auditPage{
		Entries:    entries,
		Pagination: pg,
		Actions:    audit.Actions,
		Action:     string(filter.Action),
	})
}
