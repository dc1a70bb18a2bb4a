// Package api serves the JSON API under /api/v1. Clients exchange their
// credentials for a bearer token at /api/v1/token.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/smart-summarizer/internal/auth"
	"github.com/ziadkadry99/smart-summarizer/internal/summaries"
	"github.com/ziadkadry99/smart-summarizer/internal/summarizer"
	"github.com/ziadkadry99/smart-summarizer/internal/users"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	// maxBodyBytes bounds JSON request bodies.
	maxBodyBytes = 4 << 20
)

// Config collects the dependencies of the API.
type Config struct {
	Users     *users.Store
	Summaries *summaries.Store
	Service   *summaries.Service
	Tokens    *auth.Tokens
	// AllowAllOrigins allows CORS requests from any origin (dev mode).
	AllowAllOrigins bool
	Logger          *zap.Logger
}

// API serves /api/v1.
type API struct {
	users     *users.Store
	summaries *summaries.Store
	service   *summaries.Service
	tokens    *auth.Tokens
	allowAll  bool
	logger    *zap.Logger
}

// New creates an API.
func New(cfg Config) *API {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &API{
		users:     cfg.Users,
		summaries: cfg.Summaries,
		service:   cfg.Service,
		tokens:    cfg.Tokens,
		allowAll:  cfg.AllowAllOrigins,
		logger:    cfg.Logger,
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (a *API) RegisterRoutes(r chi.Router) {
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if a.allowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(corsOpts))
		r.Post("/token", a.handleToken)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireToken(a.tokens, a.users))
			r.Post("/summarize", a.handleSummarize)
			r.Get("/summaries", a.handleListSummaries)
			r.Get("/summaries/{id}", a.handleGetSummary)
			r.Delete("/summaries/{id}", a.handleDeleteSummary)
		})
	})
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := a.users.Authenticate(r.Context(), users.NormalizeEmail(req.Email), req.Password)
	switch {
	case errors.Is(err, users.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	case errors.Is(err, users.ErrInactive):
		writeError(w, http.StatusForbidden, "Your account has been deactivated.")
		return
	case err != nil:
		a.internal(w, "authenticating", err)
		return
	}

	token, expires, err := a.tokens.Issue(u)
	if err != nil {
		a.internal(w, "issuing token", err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires})
}

type summarizeRequest struct {
	Text             string `json:"text"`
	Length           string `json:"length"`
	Mode             string `json:"mode"`
	Engine           string `json:"engine"`
	CustomPercentage int    `json:"custom_percentage"`
}

type summarizeResponse struct {
	ID int64 `json:"id"`
	*summarizer.Result
}

func (a *API) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !decode(w, r, &req) {
		return
	}

	sum, res, err := a.service.Summarize(r.Context(), auth.CurrentUser(r).ID, summaries.Request{
		Text:             req.Text,
		Length:           req.Length,
		Mode:             req.Mode,
		Engine:           req.Engine,
		CustomPercentage: req.CustomPercentage,
	})
	var inputErr *summaries.InputError
	if errors.As(err, &inputErr) {
		writeError(w, http.StatusBadRequest, inputErr.Msg)
		return
	}
	if err != nil {
		a.internal(w, "summarizing", err)
		return
	}
	writeJSON(w, http.StatusCreated, summarizeResponse{ID: sum.ID, Result: res})
}

type listResponse struct {
	Summaries []summaries.Summary `json:"summaries"`
	Total     int                 `json:"total"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

func (a *API) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.CurrentUser(r).ID

	limit := queryInt(r, "limit", defaultLimit)
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	offset := max(queryInt(r, "offset", 0), 0)

	total, err := a.summaries.CountByUser(ctx, userID)
	if err != nil {
		a.internal(w, "counting summaries", err)
		return
	}
	list, err := a.summaries.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		a.internal(w, "listing summaries", err)
		return
	}
	if list == nil {
		list = []summaries.Summary{}
	}
	writeJSON(w, http.StatusOK, listResponse{Summaries: list, Total: total, Limit: limit, Offset: offset})
}

func (a *API) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := summaryID(w, r)
	if !ok {
		return
	}
	sum, err := a.summaries.GetForUser(r.Context(), id, auth.CurrentUser(r).ID)
	if errors.Is(err, summaries.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Summary not found.")
		return
	}
	if err != nil {
		a.internal(w, "loading summary", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *API) handleDeleteSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := summaryID(w, r)
	if !ok {
		return
	}
	err := a.summaries.SoftDelete(r.Context(), id, auth.CurrentUser(r).ID)
	if errors.Is(err, summaries.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Summary not found.")
		return
	}
	if err != nil {
		a.internal(w, "deleting summary", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func summaryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid summary id.")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return n
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return false
	}
	return true
}

func (a *API) internal(w http.ResponseWriter, op string, err error) {
	a.logger.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal server error.")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
