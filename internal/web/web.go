// Package web renders the server-side pages and serves the embedded
// static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/smart-summarizer/internal/notifications"
	"github.com/ziadkadry99/smart-summarizer/internal/ui"
	"github.com/ziadkadry99/smart-summarizer/internal/users"
)

//go:embed templates static
var assets embed.FS

// Static serves the embedded static assets. Mount it with the /static
// prefix stripped.
func Static() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// UserFunc returns the signed-in user of a request, or nil.
type UserFunc func(*http.Request) *users.User

// ToastFunc consumes the pending toasts of a request.
type ToastFunc func(http.ResponseWriter, *http.Request) []ui.Toast

// View is the value every page template executes against.
type View struct {
	User   *users.User
	Toasts []ui.Toast
	Now    time.Time
	Path   string
	Data   any
}

// Renderer executes page templates inside the shared layout.
type Renderer struct {
	pages  map[string]*template.Template
	user   UserFunc
	toasts ToastFunc
	logger *zap.Logger
	now    func() time.Time
}

// NewRenderer parses every page under templates/. Either func may be nil.
func NewRenderer(user UserFunc, toasts ToastFunc, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Renderer{
		pages:  pages,
		user:   user,
		toasts: toasts,
		logger: logger,
		now:    time.Now,
	}, nil
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template)
	for _, dir := range []string{"auth", "user", "admin"} {
		files, err := fs.Glob(assets, path.Join("templates", dir, "*.html"))
		if err != nil {
			return nil, fmt.Errorf("listing %s templates: %w", dir, err)
		}
		for _, file := range files {
			name := path.Join(dir, path.Base(file))
			tmpl, err := template.New("layout.html").Funcs(Funcs()).ParseFS(assets, "templates/layout.html", file)
			if err != nil {
				return nil, fmt.Errorf("parsing template %s: %w", name, err)
			}
			pages[name] = tmpl
		}
	}
	return pages, nil
}

// Render writes page with a 200 status.
func (rn *Renderer) Render(w http.ResponseWriter, r *http.Request, page string, data any) {
	rn.RenderStatus(w, r, http.StatusOK, page, data)
}

// RenderStatus executes page into a buffer and writes it with status. Toasts
// are consumed before anything is written so the session cookie can be
// updated.
func (rn *Renderer) RenderStatus(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	tmpl, ok := rn.pages[page]
	if !ok {
		rn.logger.Error("unknown template", zap.String("page", page))
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	view := View{Now: rn.now(), Path: r.URL.Path, Data: data}
	if rn.user != nil {
		view.User = rn.user(r)
	}
	if rn.toasts != nil {
		view.Toasts = rn.toasts(w, r)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		rn.logger.Error("rendering template", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Funcs returns the template helpers shared by all pages.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatNumber":   formatNumber,
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"title":          ui.Title,
		"markdown":       notifications.RenderMessage,
		"add":            func(a, b int) int { return a + b },
		"sub":            func(a, b int) int { return a - b },
	}
}

func formatNumber(v any) string {
	switch n := v.(type) {
	case int:
		return ui.FormatNumber(int64(n))
	case int64:
		return ui.FormatNumber(n)
	case int32:
		return ui.FormatNumber(int64(n))
	case float64:
		return ui.FormatNumber(int64(n))
	default:
		return fmt.Sprint(v)
	}
}

func timeValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}

func formatDate(v any) string {
	t, ok := timeValue(v)
	if !ok {
		return "N/A"
	}
	return t.Format("2006-01-02")
}

func formatDateTime(v any) string {
	t, ok := timeValue(v)
	if !ok {
		return "Never"
	}
	return t.Format("2006-01-02 15:04")
}

// Pagination describes one page of a list.
type Pagination struct {
	Page    int
	PerPage int
	Total   int
	Pages   int

	path  string
	query url.Values
}

// Attachment sets the headers for a file download named filename.
func Attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}

// NewPagination clamps page and perPage to at least 1.
func NewPagination(page, perPage, total int) Pagination {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	return Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   (total + perPage - 1) / perPage,
	}
}

// WithRequest makes URL keep the path and other query parameters of r.
func (p Pagination) WithRequest(r *http.Request) Pagination {
	p.path = r.URL.Path
	p.query = r.URL.Query()
	return p
}

// URL links to page n.
func (p Pagination) URL(n int) string {
	q := url.Values{}
	for k, v := range p.query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(n))
	return p.path + "?" + q.Encode()
}

// Offset is the number of rows before this page.
func (p Pagination) Offset() int { return (p.Page - 1) * p.PerPage }

func (p Pagination) HasPrev() bool { return p.Page > 1 }
func (p Pagination) HasNext() bool { return p.Page < p.Pages }
func (p Pagination) PrevNum() int  { return p.Page - 1 }
func (p Pagination) NextNum() int  { return p.Page + 1 }

// Numbers lists every page number, for the pager links.
func (p Pagination) Numbers() []int {
	nums := make([]int, p.Pages)
	for i := range nums {
		nums[i] = i + 1
	}
	return nums
}

// PageParam reads the 1-based ?page= query parameter.
func PageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
