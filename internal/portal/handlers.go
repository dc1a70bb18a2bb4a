package portal

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/smart-summarizer/internal/auth"
	"github.com/ziadkadry99/smart-summarizer/internal/extract"
	"github.com/ziadkadry99/smart-summarizer/internal/notifications"
	"github.com/ziadkadry99/smart-summarizer/internal/settings"
	"github.com/ziadkadry99/smart-summarizer/internal/summaries"
	"github.com/ziadkadry99/smart-summarizer/internal/summarizer"
	"github.com/ziadkadry99/smart-summarizer/internal/ui"
	"github.com/ziadkadry99/smart-summarizer/internal/users"
	"github.com/ziadkadry99/smart-summarizer/internal/web"
)

const (
	dashboardRecent         = 5
	defaultCustomPercentage = 40
)

type dashboardPage struct {
	SummaryCount int
	Recent       []summaries.Summary
	Unread       int
}

func (p *Portal) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := auth.CurrentUser(r)

	count, err := p.summaries.CountByUser(ctx, u.ID)
	if err != nil {
		p.fail(w, r, "counting summaries", err)
		return
	}
	recent, err := p.summaries.ListByUser(ctx, u.ID, dashboardRecent, 0)
	if err != nil {
		p.fail(w, r, "listing summaries", err)
		return
	}
	unread, err := p.notifications.CountUnread(ctx, u.ID)
	if err != nil {
		p.fail(w, r, "counting notifications", err)
		return
	}

	p.render.Render(w, r, "user/dashboard.html", dashboardPage{
		SummaryCount: count,
		Recent:       recent,
		Unread:       unread,
	})
}

type summarizePage struct {
	Settings         settings.Summarization
	InputText        string
	Length           string
	Mode             string
	Engine           string
	CustomPercentage int
	NeuralAvailable  bool

	Result      *summarizer.Result
	LengthLabel string
	SummaryID   int64
}

func (p *Portal) handleSummarize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg, err := p.service.Settings(ctx)
	if err != nil {
		p.fail(w, r, "loading settings", err)
		return
	}

	page := summarizePage{
		Settings:         cfg,
		Length:           string(summarizer.LengthMedium),
		Mode:             string(cfg.Mode),
		Engine:           string(summarizer.EngineClassic),
		CustomPercentage: defaultCustomPercentage,
		NeuralAvailable:  p.service.NeuralAvailable(),
	}
	if r.Method != http.MethodPost {
		p.render.Render(w, r, "user/summarize.html", page)
		return
	}

	page.InputText = strings.TrimSpace(r.FormValue("text"))
	if v := r.FormValue("length"); v != "" {
		page.Length = v
	}
	if v := r.FormValue("mode"); v != "" {
		page.Mode = v
	}
	if v := r.FormValue("engine"); v != "" {
		page.Engine = v
	}
	if n, err := strconv.Atoi(r.FormValue("custom_percentage")); err == nil {
		page.CustomPercentage = n
	}

	sum, res, err := p.service.Summarize(ctx, auth.CurrentUser(r).ID, summaries.Request{
		Text:             page.InputText,
		Length:           page.Length,
		Mode:             page.Mode,
		Engine:           page.Engine,
		CustomPercentage: page.CustomPercentage,
	})
	var inputErr *summaries.InputError
	switch {
	case errors.As(err, &inputErr):
		p.sessions.AddToast(w, r, inputErr.Kind, inputErr.Msg)
		p.render.Render(w, r, "user/summarize.html", page)
		return
	case err != nil:
		p.logger.Error("summarizing", zap.Error(err))
		p.sessions.AddToast(w, r, ui.ToastDanger, "Error generating summary: "+err.Error())
		p.render.Render(w, r, "user/summarize.html", page)
		return
	}

	page.Result = res
	page.LengthLabel = res.LengthLabel()
	page.SummaryID = sum.ID
	p.render.Render(w, r, "user/summarize.html", page)
}

type uploadResponse struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

func (p *Portal) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, p.uploads.MaxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "File is too large"})
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file selected"})
		return
	}
	if !extract.Allowed(header.Filename, p.uploads.AllowedExtensions) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "File type not allowed. Supported: " + p.supportedTypes(),
		})
		return
	}

	text, err := p.extractUpload(file, header.Filename)
	if errors.Is(err, extract.ErrEmpty) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Could not extract text from file"})
		return
	}
	if err != nil {
		p.logger.Warn("extracting upload", zap.String("filename", header.Filename), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Text:     text,
		Filename: extract.SanitizeFilename(header.Filename),
	})
}

// extractUpload stores the upload in a temporary file under the upload
// directory, extracts its text and removes the file again.
func (p *Portal) extractUpload(src io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(p.uploads.Dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(p.uploads.Dir, "upload-*."+extract.Extension(filename))
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return extract.FromFile(tmp.Name())
}

type historyPage struct {
	Summaries  []summaries.Summary
	Pagination web.Pagination
}

func (p *Portal) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := auth.CurrentUser(r)

	total, err := p.summaries.CountByUser(ctx, u.ID)
	if err != nil {
		p.fail(w, r, "counting summaries", err)
		return
	}
	pg := web.NewPagination(web.PageParam(r), p.perPage, total).WithRequest(r)
	list, err := p.summaries.ListByUser(ctx, u.ID, pg.PerPage, pg.Offset())
	if err != nil {
		p.fail(w, r, "listing summaries", err)
		return
	}
	p.render.Render(w, r, "user/history.html", historyPage{Summaries: list, Pagination: pg})
}

// summaryFromURL loads the {id} summary of the signed-in user. Missing
// summaries send the browser to the login page.
func (p *Portal) summaryFromURL(w http.ResponseWriter, r *http.Request) (*summaries.Summary, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil, false
	}
	sum, err := p.summaries.GetForUser(r.Context(), id, auth.CurrentUser(r).ID)
	if errors.Is(err, summaries.ErrNotFound) {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil, false
	}
	if err != nil {
		p.fail(w, r, "loading summary", err)
		return nil, false
	}
	return sum, true
}

type summaryPage struct {
	Summary *summaries.Summary
}

func (p *Portal) handleViewSummary(w http.ResponseWriter, r *http.Request) {
	sum, ok := p.summaryFromURL(w, r)
	if !ok {
		return
	}
	p.render.Render(w, r, "user/summary.html", summaryPage{Summary: sum})
}

func (p *Portal) handleDeleteSummary(w http.ResponseWriter, r *http.Request) {
	sum, ok := p.summaryFromURL(w, r)
	if !ok {
		return
	}
	if err := p.summaries.SoftDelete(r.Context(), sum.ID, sum.UserID); err != nil {
		p.fail(w, r, "deleting summary", err)
		return
	}
	p.sessions.AddToast(w, r, ui.ToastSuccess, "Summary deleted successfully.")
	http.Redirect(w, r, "/history", http.StatusFound)
}

func (p *Portal) handleDownload(w http.ResponseWriter, r *http.Request) {
	sum, ok := p.summaryFromURL(w, r)
	if !ok {
		return
	}
	web.Attachment(w, "text/plain; charset=utf-8", sum.DownloadName())
	io.WriteString(w, sum.DownloadText())
}

func (p *Portal) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		p.render.Render(w, r, "user/profile.html", nil)
		return
	}

	ctx := r.Context()
	u := auth.CurrentUser(r)
	switch r.FormValue("action") {
	case "update_profile":
		err := p.users.UpdateName(ctx, u.ID, r.FormValue("name"))
		switch {
		case errors.Is(err, users.ErrEmptyName):
			p.sessions.AddToast(w, r, ui.ToastDanger, "Name cannot be empty.")
		case err != nil:
			p.fail(w, r, "updating name", err)
			return
		default:
			p.sessions.AddToast(w, r, ui.ToastSuccess, "Profile updated successfully.")
		}

	case "change_password":
		next := r.FormValue("new_password")
		if next != r.FormValue("confirm_password") {
			p.sessions.AddToast(w, r, ui.ToastDanger, "New passwords do not match.")
			break
		}
		err := p.users.ChangePassword(ctx, u.ID, r.FormValue("current_password"), next)
		switch {
		case errors.Is(err, users.ErrInvalidCredentials):
			p.sessions.AddToast(w, r, ui.ToastDanger, "Current password is incorrect.")
		case errors.Is(err, users.ErrPasswordTooShort):
			p.sessions.AddToast(w, r, ui.ToastDanger, "New password must be at least 6 characters.")
		case err != nil:
			p.fail(w, r, "changing password", err)
			return
		default:
			p.sessions.AddToast(w, r, ui.ToastSuccess, "Password changed successfully.")
		}
	}
	http.Redirect(w, r, "/profile", http.StatusFound)
}

type notificationsPage struct {
	Notifications []notifications.Notification
	Pagination    web.Pagination
}

// handleNotifications lists a page of notifications and marks them read.
// The page still shows which ones were unread.
func (p *Portal) handleNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := auth.CurrentUser(r)

	total, err := p.notifications.CountForUser(ctx, u.ID)
	if err != nil {
		p.fail(w, r, "counting notifications", err)
		return
	}
	pg := web.NewPagination(web.PageParam(r), p.perPage, total).WithRequest(r)
	list, err := p.notifications.ListForUser(ctx, u.ID, pg.PerPage, pg.Offset())
	if err != nil {
		p.fail(w, r, "listing notifications", err)
		return
	}

	ids := make([]string, 0, len(list))
	for _, n := range list {
		if !n.Read {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) > 0 {
		if err := p.notifications.MarkRead(ctx, u.ID, ids); err != nil {
			p.logger.Warn("marking notifications read", zap.Error(err))
		}
	}

	p.render.Render(w, r, "user/notifications.html", notificationsPage{Notifications: list, Pagination: pg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
