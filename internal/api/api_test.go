package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ziadkadry99/smart-summarizer/internal/auth"
	"github.com/ziadkadry99/smart-summarizer/internal/db"
	"github.com/ziadkadry99/smart-summarizer/internal/settings"
	"github.com/ziadkadry99/smart-summarizer/internal/summaries"
	"github.com/ziadkadry99/smart-summarizer/internal/summarizer"
	"github.com/ziadkadry99/smart-summarizer/internal/users"
)

const articleText = `Rivers shape the land they flow through over thousands of years. ` +
	`Water carries sediment from mountains down to the plains and the sea. ` +
	`Floods deposit fertile soil that farmers have relied on since ancient times. ` +
	`Dams change this pattern by trapping sediment behind concrete walls. ` +
	`Engineers now design channels that let some sediment pass through the dam. ` +
	`Healthy rivers also support fish, birds and the people who live along the banks.`

type testEnv struct {
	srv       *httptest.Server
	users     *users.Store
	summaries *summaries.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	env := &testEnv{
		users:     users.NewStore(database, users.WithHashCost(bcrypt.MinCost)),
		summaries: summaries.NewStore(database),
	}
	service := summaries.NewService(env.summaries, settings.NewStore(database), settings.Summarization{
		ShortPercentage:  20,
		MediumPercentage: 40,
		LongPercentage:   60,
		MaxInputWords:    10000,
		Mode:             summarizer.ModeExtractive,
	}, summarizer.New())

	r := chi.NewRouter()
	New(Config{
		Users:           env.users,
		Summaries:       env.summaries,
		Service:         service,
		Tokens:          auth.NewTokens("api-test-secret-with-enough-length", time.Hour),
		AllowAllOrigins: true,
	}).RegisterRoutes(r)

	env.srv = httptest.NewServer(r)
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) token(t *testing.T, email string) string {
	t.Helper()
	_, err := e.users.Create(context.Background(), email, "Test User", "secret1", users.RoleUser)
	require.NoError(t, err)

	resp, data := e.do(t, http.MethodPost, "/api/v1/token", "", tokenRequest{Email: email, Password: "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var got tokenResponse
	require.NoError(t, json.Unmarshal(data, &got))
	require.NotEmpty(t, got.Token)
	assert.True(t, got.ExpiresAt.After(time.Now()))
	return got.Token
}

func TestTokenErrors(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	u, err := env.users.Create(ctx, "ann@example.com", "Ann", "secret1", users.RoleUser)
	require.NoError(t, err)

	resp, data := env.do(t, http.MethodPost, "/api/v1/token", "", tokenRequest{Email: "ann@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(data), "Invalid email or password.")

	require.NoError(t, env.users.SetActive(ctx, u.ID, false))
	resp, _ = env.do(t, http.MethodPost, "/api/v1/token", "", tokenRequest{Email: "ANN@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/token", "", "not an object")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequiresToken(t *testing.T) {
	env := setupTestEnv(t)

	resp, _ := env.do(t, http.MethodGet, "/api/v1/summaries", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/summaries", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSummarizeAndManage(t *testing.T) {
	env := setupTestEnv(t)
	token := env.token(t, "ann@example.com")

	resp, data := env.do(t, http.MethodPost, "/api/v1/summarize", token, summarizeRequest{
		Text: articleText, Length: "custom", CustomPercentage: 30,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var created struct {
		ID               int64  `json:"id"`
		Summary          string `json:"summary"`
		Type             string `json:"summary_type"`
		TargetPercentage int    `json:"target_percentage"`
	}
	require.NoError(t, json.Unmarshal(data, &created))
	assert.NotZero(t, created.ID)
	assert.NotEmpty(t, created.Summary)
	assert.Equal(t, "extractive", created.Type)
	assert.Equal(t, 30, created.TargetPercentage)

	resp, data = env.do(t, http.MethodGet, "/api/v1/summaries", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list listResponse
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Summaries, 1)
	assert.Equal(t, "custom (30%)", list.Summaries[0].Length)

	path := "/api/v1/summaries/" + strconv.FormatInt(created.ID, 10)
	resp, data = env.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got summaries.Summary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, created.Summary, got.SummaryText)

	resp, _ = env.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = env.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSummarizeValidation(t *testing.T) {
	env := setupTestEnv(t)
	token := env.token(t, "ann@example.com")

	resp, data := env.do(t, http.MethodPost, "/api/v1/summarize", token, summarizeRequest{Text: "too short"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "Please enter at least 30 words for effective summarization.")

	resp, data = env.do(t, http.MethodPost, "/api/v1/summarize", token, summarizeRequest{Text: articleText, Engine: "quantum"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "Unknown summarization engine.")
}

func TestSummariesAreScopedToUser(t *testing.T) {
	env := setupTestEnv(t)
	annToken := env.token(t, "ann@example.com")
	bobToken := env.token(t, "bob@example.com")

	resp, data := env.do(t, http.MethodPost, "/api/v1/summarize", annToken, summarizeRequest{Text: articleText})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created summarizeResponse
	require.NoError(t, json.Unmarshal(data, &created))

	resp, _ = env.do(t, http.MethodGet, "/api/v1/summaries/"+strconv.FormatInt(created.ID, 10), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data = env.do(t, http.MethodGet, "/api/v1/summaries?limit=500&offset=-3", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list listResponse
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Zero(t, list.Total)
	assert.Empty(t, list.Summaries)
	assert.Equal(t, defaultLimit, list.Limit)
	assert.Zero(t, list.Offset)
}

func TestDeactivatedTokenForbidden(t *testing.T) {
	env := setupTestEnv(t)
	token := env.token(t, "ann@example.com")

	u, err := env.users.GetByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	require.NoError(t, env.users.SetActive(context.Background(), u.ID, false))

	resp, _ := env.do(t, http.MethodGet, "/api/v1/summaries", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, env.srv.URL+"/api/v1/summarize", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
