package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ziadkadry99/smart-summarizer/internal/db"
	"github.com/ziadkadry99/smart-summarizer/internal/metrics"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return New(Config{Port: 0}, database, nil, metrics.New())
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := setupTestServer(t)

	w := serve(srv, "GET", "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestHealthCheckClosedDatabase(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	srv := New(Config{}, database, nil, nil)
	database.Close()

	if w := serve(srv, "GET", "/healthz"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestRootAndUnknownRedirectToLogin(t *testing.T) {
	srv := setupTestServer(t)

	for _, path := range []string{"/", "/no/such/page"} {
		w := serve(srv, "GET", path)
		if w.Code != http.StatusFound {
			t.Errorf("%s: expected 302, got %d", path, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/login" {
			t.Errorf("%s: expected redirect to /login, got %q", path, loc)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	srv := setupTestServer(t)

	w := serve(srv, "GET", "/static/app.js")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "function debounce") {
		t.Error("expected app.js contents")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	serve(srv, "GET", "/healthz")

	w := serve(srv, "GET", "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `smartsum_http_requests_total{method="GET",route="/healthz",status="200"} 1`) {
		t.Errorf("expected healthz request to be counted, got:\n%s", w.Body.String())
	}
}

func TestRecoversFromPanics(t *testing.T) {
	srv := setupTestServer(t)
	srv.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	if w := serve(srv, "GET", "/boom"); w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestShutdownRunsHooksInReverse(t *testing.T) {
	srv := setupTestServer(t)

	var order []string
	srv.OnShutdown(func() { order = append(order, "first") })
	srv.OnShutdown(func() { order = append(order, "second") })

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if strings.Join(order, ",") != "second,first" {
		t.Errorf("unexpected hook order %v", order)
	}

	// Hooks run once.
	srv.Shutdown(context.Background())
	if len(order) != 2 {
		t.Errorf("hooks ran again: %v", order)
	}
}
