package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/smart-summarizer/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, role) VALUES (7, 'admin@example.com', 'Admin', 'x', 'admin')`)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}

	entry := Entry{
		ID:         "test-1",
		ActorID:    7,
		Action:     ActionUserDeactivated,
		TargetType: TargetUser,
		TargetID:   "12",
		Summary:    "Deactivated bob@example.com",
	}
	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ActorID != 7 {
		t.Errorf("ActorID = %d, want 7", got.ActorID)
	}
	if got.ActorEmail != "admin@example.com" {
		t.Errorf("ActorEmail = %q, want %q", got.ActorEmail, "admin@example.com")
	}
	if got.Action != ActionUserDeactivated {
		t.Errorf("Action = %q, want %q", got.Action, ActionUserDeactivated)
	}
	if got.TargetType != TargetUser || got.TargetID != "12" {
		t.Errorf("target = %s/%s, want user/12", got.TargetType, got.TargetID)
	}
	if got.Summary != entry.Summary {
		t.Errorf("Summary = %q, want %q", got.Summary, entry.Summary)
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestLogGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{ActorID: 1, Action: ActionSettingsUpdated, Summary: "updated"}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if len(entries[0].ID) != 36 {
		t.Errorf("ID = %q, want a UUID", entries[0].ID)
	}
	if entries[0].ActorEmail != "" {
		t.Errorf("ActorEmail = %q, want empty for unknown actor", entries[0].ActorEmail)
	}
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ActorID: 1, Action: ActionUserDeactivated, Timestamp: base},
		{ActorID: 1, Action: ActionUserActivated, Timestamp: base.Add(time.Hour)},
		{ActorID: 2, Action: ActionSettingsUpdated, Timestamp: base.Add(2 * time.Hour)},
		{ActorID: 2, Action: ActionNotificationSent, Timestamp: base.Add(3 * time.Hour)},
	}
	for _, e := range entries {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
}

func TestQueryNewestFirst(t *testing.T) {
	store := setupStore(t)
	seed(t, store)

	entries, err := store.Query(context.Background(), QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	if entries[0].Action != ActionNotificationSent {
		t.Errorf("first = %q, want %q", entries[0].Action, ActionNotificationSent)
	}
	if entries[3].Action != ActionUserDeactivated {
		t.Errorf("last = %q, want %q", entries[3].Action, ActionUserDeactivated)
	}
}

func TestQueryFilterByActor(t *testing.T) {
	store := setupStore(t)
	seed(t, store)

	entries, err := store.Query(context.Background(), QueryFilter{ActorID: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.ActorID != 2 {
			t.Errorf("ActorID = %d, want 2", e.ActorID)
		}
	}
}

func TestQueryFilterByAction(t *testing.T) {
	store := setupStore(t)
	seed(t, store)

	entries, err := store.Query(context.Background(), QueryFilter{Action: ActionSettingsUpdated})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != ActionSettingsUpdated {
		t.Fatalf("got %+v, want one settings_updated entry", entries)
	}
}

func TestQueryFilterByTimeRange(t *testing.T) {
	store := setupStore(t)
	seed(t, store)

	since := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	until := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	filter := QueryFilter{Since: &since, Until: &until}

	entries, err := store.Query(context.Background(), filter)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	n, err := store.Count(context.Background(), filter)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestQueryLimitOffset(t *testing.T) {
	store := setupStore(t)
	seed(t, store)
	ctx := context.Background()

	page1, err := store.Query(ctx, QueryFilter{Limit: 3})
	if err != nil {
		t.Fatalf("Query page 1: %v", err)
	}
	if len(page1) != 3 {
		t.Errorf("page 1 = %d entries, want 3", len(page1))
	}

	page2, err := store.Query(ctx, QueryFilter{Limit: 3, Offset: 3})
	if err != nil {
		t.Fatalf("Query page 2: %v", err)
	}
	if len(page2) != 1 {
		t.Errorf("page 2 = %d entries, want 1", len(page2))
	}

	total, err := store.Count(ctx, QueryFilter{Limit: 1})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 4 {
		t.Errorf("Count = %d, want 4 (limit ignored)", total)
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	seed(t, store)
	ctx := context.Background()

	n, err := store.DeleteBefore(ctx, time.Date(2026, 3, 1, 13, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}

	remaining, _ := store.Count(ctx, QueryFilter{})
	if remaining != 2 {
		t.Errorf("remaining = %d, want 2", remaining)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupStore(t)
	_, err := store.GetByID(context.Background(), "missing")
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFilterFromQuery(t *testing.T) {
	f := FilterFromQuery(map[string][]string{
		"actor":  {"3"},
		"action": {"settings_updated"},
		"since":  {"2026-03-01T00:00:00Z"},
		"until":  {"not-a-time"},
		"limit":  {"10"},
		"offset": {"20"},
	})
	if f.ActorID != 3 || f.Action != ActionSettingsUpdated || f.Limit != 10 || f.Offset != 20 {
		t.Errorf("unexpected filter: %+v", f)
	}
	if f.Since == nil || f.Since.Day() != 1 {
		t.Errorf("Since = %v, want 2026-03-01", f.Since)
	}
	if f.Until != nil {
		t.Errorf("Until = %v, want nil for malformed input", f.Until)
	}
}

func setupRouter(t *testing.T) (chi.Router, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func TestHTTPGetByID(t *testing.T) {
	r, store := setupRouter(t)
	if err := store.Log(context.Background(), Entry{ID: "http-1", ActorID: 1, Action: ActionUserActivated, Summary: "Activated"}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit/http-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "http-1" || got.Action != ActionUserActivated {
		t.Errorf("got %+v", got)
	}
}

func TestHTTPGetByIDNotFound(t *testing.T) {
	r, _ := setupRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/audit/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHTTPQueryWithFilter(t *testing.T) {
	r, store := setupRouter(t)
	seed(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/audit/?action=user_activated", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []Entry
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Action != ActionUserActivated {
		t.Errorf("got %+v", got)
	}
}

func TestHTTPQueryEmptyIsArray(t *testing.T) {
	r, _ := setupRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/audit/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want []", body)
	}
}
