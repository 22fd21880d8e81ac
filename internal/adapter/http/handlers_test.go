package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	adapthttp "hydration/internal/adapter/http"
	"hydration/internal/adapter/kv"
	"hydration/internal/adapter/memory"
	"hydration/internal/app"
	"hydration/internal/domain"
	"hydration/internal/logging"
)

// ---------------------------------------------------------------------------
// Mock repositories (function-fields pattern)
// ---------------------------------------------------------------------------

type mockIntakeRepo struct {
	addFn     func(ctx context.Context, e domain.IntakeEntry) (int, error)
	undoFn    func(ctx context.Context, userID int64, day string) (*domain.IntakeEntry, int, error)
	resetFn   func(ctx context.Context, userID int64, day string) error
	totalFn   func(ctx context.Context, userID int64, day string) (int, error)
	entriesFn func(ctx context.Context, userID int64, day string) ([]domain.IntakeEntry, error)
	daysFn    func(ctx context.Context, userID int64, limit int) ([]domain.DailyRecord, error)
}

func (m *mockIntakeRepo) AddEntry(ctx context.Context, e domain.IntakeEntry) (int, error) {
	if m.addFn != nil {
		return m.addFn(ctx, e)
	}
	return e.AmountML, nil
}

func (m *mockIntakeRepo) DeleteLatestEntry(ctx context.Context, userID int64, day string) (*domain.IntakeEntry, int, error) {
	if m.undoFn != nil {
		return m.undoFn(ctx, userID, day)
	}
	return nil, 0, nil
}

func (m *mockIntakeRepo) ResetDay(ctx context.Context, userID int64, day string) error {
	if m.resetFn != nil {
		return m.resetFn(ctx, userID, day)
	}
	return nil
}

func (m *mockIntakeRepo) DayTotal(ctx context.Context, userID int64, day string) (int, error) {
	if m.totalFn != nil {
		return m.totalFn(ctx, userID, day)
	}
	return 0, nil
}

func (m *mockIntakeRepo) ListEntries(ctx context.Context, userID int64, day string) ([]domain.IntakeEntry, error) {
	if m.entriesFn != nil {
		return m.entriesFn(ctx, userID, day)
	}
	return nil, nil
}

func (m *mockIntakeRepo) ListDays(ctx context.Context, userID int64, limit int) ([]domain.DailyRecord, error) {
	if m.daysFn != nil {
		return m.daysFn(ctx, userID, limit)
	}
	return nil, nil
}

var errConnRefused = errors.New("dial tcp: connection refused")

// flakyUsers fails every lookup while down is set.
type flakyUsers struct {
	domain.UserRepository
	down *atomic.Bool
}

func (u flakyUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if u.down.Load() {
		return nil, errConnRefused
	}
	return u.UserRepository.GetByUsername(ctx, username)
}

func (u flakyUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u.down.Load() {
		return nil, errConnRefused
	}
	return u.UserRepository.GetByID(ctx, id)
}

func (u flakyUsers) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	if u.down.Load() {
		return nil, errConnRefused
	}
	return u.UserRepository.Create(ctx, username, passwordHash)
}

// flakySessions fails every lookup while down is set.
type flakySessions struct {
	domain.SessionRepository
	down *atomic.Bool
}

func (s flakySessions) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if s.down.Load() {
		return nil, errConnRefused
	}
	return s.SessionRepository.GetByToken(ctx, token)
}

func (s flakySessions) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	if s.down.Load() {
		return errConnRefused
	}
	return s.SessionRepository.Create(ctx, userID, token, userAgent, ip, expiresAt)
}

// ---------------------------------------------------------------------------
// Test-server helper
// ---------------------------------------------------------------------------

type testEnv struct {
	*httptest.Server
	mem *memory.DB
}

func newServer(t *testing.T, repo *mockIntakeRepo, withAuth bool) *testEnv {
	t.Helper()
	mem := memory.New()
	return newServerWithAuthStores(t, repo, mem, mem, mem.NewSessionRepo(), withAuth)
}

// newServerWithAuthStores wires the handlers to the given user and session
// repositories; mem is kept on the env for assertions.
func newServerWithAuthStores(t *testing.T, repo *mockIntakeRepo, mem *memory.DB, users domain.UserRepository, sessions domain.SessionRepository, withAuth bool) *testEnv {
	t.Helper()

	if repo == nil {
		repo = &mockIntakeRepo{}
	}
	store, err := kv.Open(kv.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	log := logging.Discard()
	svc := adapthttp.Services{
		Intake:   app.NewIntakeService(repo, store, store, nil, log, time.UTC),
		History:  app.NewHistoryService(repo, store, log, time.UTC),
		Profile:  app.NewProfileService(store, log),
		Settings: app.NewSettingsService(store, log),
		Auth:     app.NewAuthService(users, sessions, time.Hour).WithIdentityCache(store, time.Minute),
	}

	webDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html></html>"), 0o600); err != nil {
		t.Fatal(err)
	}

	srv := adapthttp.New(svc, adapthttp.OIDCConfig{}, log, webDir)
	if !withAuth {
		srv = srv.WithoutAuth()
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{Server: ts, mem: mem}
}

func newTestServer(t *testing.T, repo *mockIntakeRepo) *testEnv {
	t.Helper()
	return newServer(t, repo, false)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return m
}

func doJSON(t *testing.T, client *http.Client, method, url string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d; body: %s", want, resp.StatusCode, b)
	}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/health", nil)
	expectStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
	if resp.Header.Get("Cache-Control") != "no-store" {
		t.Fatalf("expected no-store, got %q", resp.Header.Get("Cache-Control"))
	}
}

func TestIntakeRecord(t *testing.T) {
	tests := []struct {
		name       string
		payload    any
		wantStatus int
	}{
		{"valid", map[string]any{"amountMl": 250}, http.StatusOK},
		{"max", map[string]any{"amountMl": 5000}, http.StatusOK},
		{"zero", map[string]any{"amountMl": 0}, http.StatusBadRequest},
		{"negative", map[string]any{"amountMl": -100}, http.StatusBadRequest},
		{"too large", map[string]any{"amountMl": 5001}, http.StatusBadRequest},
		{"unknown field", map[string]any{"amountMl": 250, "liters": 1}, http.StatusBadRequest},
	}

	ts := newTestServer(t, &mockIntakeRepo{
		addFn: func(_ context.Context, e domain.IntakeEntry) (int, error) {
			return 1000 + e.AmountML, nil
		},
	})

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/intake", tc.payload)
			expectStatus(t, resp, tc.wantStatus)

			if tc.wantStatus == http.StatusOK {
				body := decodeBody(t, resp)
				if _, ok := body["entry"]; !ok {
					t.Fatal("response missing 'entry' field")
				}
				if body["goalMl"] != float64(domain.DefaultDailyGoalML) {
					t.Fatalf("expected default goal, got %v", body["goalMl"])
				}
			}
		})
	}
}

func TestIntakeTodayFromRemote(t *testing.T) {
	ts := newTestServer(t, &mockIntakeRepo{
		totalFn: func(_ context.Context, _ int64, _ string) (int, error) {
			return 1500, nil
		},
	})

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/intake/today", nil)
	expectStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	if body["totalMl"] != 1500.0 {
		t.Fatalf("expected totalMl=1500, got %v", body["totalMl"])
	}
	if body["cached"] != false {
		t.Fatalf("expected cached=false, got %v", body["cached"])
	}
}

func TestIntakeTodayFallsBackToCache(t *testing.T) {
	remoteDown := false
	ts := newTestServer(t, &mockIntakeRepo{
		addFn: func(_ context.Context, _ domain.IntakeEntry) (int, error) {
			return 750, nil
		},
		totalFn: func(_ context.Context, _ int64, _ string) (int, error) {
			if remoteDown {
				return 0, errors.New("connection refused")
			}
			return 750, nil
		},
	})

	resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/intake", map[string]any{"amountMl": 750})
	expectStatus(t, resp, http.StatusOK)

	remoteDown = true
	resp = doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/intake/today", nil)
	expectStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	if body["cached"] != true {
		t.Fatalf("expected cached=true, got %v", body["cached"])
	}
	if body["totalMl"] != 750.0 {
		t.Fatalf("expected totalMl=750, got %v", body["totalMl"])
	}
}

func TestIntakeTodayUnavailable(t *testing.T) {
	ts := newTestServer(t, &mockIntakeRepo{
		totalFn: func(_ context.Context, _ int64, _ string) (int, error) {
			return 0, errors.New("connection refused")
		},
	})

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/intake/today", nil)
	expectStatus(t, resp, http.StatusServiceUnavailable)
}

func TestIntakeTodayInvalidDay(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/intake/today?day=yesterday", nil)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestIntakeReset(t *testing.T) {
	var resetDay string
	ts := newTestServer(t, &mockIntakeRepo{
		resetFn: func(_ context.Context, _ int64, day string) error {
			resetDay = day
			return nil
		},
	})

	resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/intake/reset", nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if body["day"] != resetDay || resetDay == "" {
		t.Fatalf("expected day %q, got %v", resetDay, body["day"])
	}

	resp = doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/intake/reset", map[string]any{"day": "2026-02-01"})
	expectStatus(t, resp, http.StatusOK)
	if resetDay != "2026-02-01" {
		t.Fatalf("expected reset of 2026-02-01, got %q", resetDay)
	}

	resp = doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/intake/reset", map[string]any{"day": "02/01/2026"})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestIntakeUndoLast(t *testing.T) {
	ts := newTestServer(t, &mockIntakeRepo{
		undoFn: func(_ context.Context, _ int64, day string) (*domain.IntakeEntry, int, error) {
			return &domain.IntakeEntry{ID: "e-2", Day: day, AmountML: 300}, 500, nil
		},
	})

	resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/intake/undo-last", nil)
	expectStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	if body["undone"] != true {
		t.Fatalf("expected undone=true, got %v", body["undone"])
	}
	if body["totalMl"] != 500.0 {
		t.Fatalf("expected totalMl=500, got %v", body["totalMl"])
	}
}

func TestIntakeStats(t *testing.T) {
	base := time.Date(2026, 2, 8, 8, 0, 0, 0, time.UTC)
	ts := newTestServer(t, &mockIntakeRepo{
		entriesFn: func(_ context.Context, _ int64, day string) ([]domain.IntakeEntry, error) {
			return []domain.IntakeEntry{
				{ID: "a", Day: day, AmountML: 250, Timestamp: base},
				{ID: "b", Day: day, AmountML: 500, Timestamp: base.Add(2 * time.Hour)},
			}, nil
		},
	})

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/intake/stats?day=2026-02-08", nil)
	expectStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	items, ok := body["items"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 items, got %v", body["items"])
	}
	last := items[1].(map[string]any)
	if last["cumulativeTotal"] != 750.0 || last["label"] != "10:00" {
		t.Fatalf("unexpected last point: %v", last)
	}
	if body["totalMl"] != 750.0 {
		t.Fatalf("expected totalMl=750, got %v", body["totalMl"])
	}
}

func TestHistory(t *testing.T) {
	records := []domain.DailyRecord{
		{Day: "2026-02-08", TotalML: 2200},
		{Day: "2026-02-07", TotalML: 900},
	}
	var gotLimit int
	ts := newTestServer(t, &mockIntakeRepo{
		daysFn: func(_ context.Context, _ int64, limit int) ([]domain.DailyRecord, error) {
			gotLimit = limit
			return records, nil
		},
	})

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/history?limit=5", nil)
	expectStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	arr, ok := body["items"].([]any)
	if !ok || len(arr) != 2 {
		t.Fatalf("expected 2 items, got %v", body["items"])
	}
	if gotLimit != 5 {
		t.Fatalf("expected limit 5, got %d", gotLimit)
	}
	first := arr[0].(map[string]any)
	if first["label"] != "02-08" || first["goalMet"] != true {
		t.Fatalf("unexpected first point: %v", first)
	}
}

func TestProfileLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	client := http.DefaultClient

	resp := doJSON(t, client, http.MethodGet, ts.URL+"/api/profile/image", nil)
	expectStatus(t, resp, http.StatusNotFound)

	resp = doJSON(t, client, http.MethodPut, ts.URL+"/api/profile", map[string]any{"name": "  Robin  "})
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["name"] != "Robin" {
		t.Fatalf("expected trimmed name, got %v", body["name"])
	}

	img := append(append([]byte{}, pngHeader...), make([]byte, 64)...)
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/profile/image", bytes.NewReader(img))
	req.Header.Set("Content-Type", "image/png")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	expectStatus(t, resp, http.StatusOK)

	resp = doJSON(t, client, http.MethodGet, ts.URL+"/api/profile/image", nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
	got, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(got, img) {
		t.Fatal("image bytes differ")
	}

	resp = doJSON(t, client, http.MethodGet, ts.URL+"/api/profile", nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["name"] != "Robin" || body["imageRef"] == nil {
		t.Fatalf("unexpected profile: %v", body)
	}

	resp = doJSON(t, client, http.MethodDelete, ts.URL+"/api/profile", nil)
	expectStatus(t, resp, http.StatusOK)

	resp = doJSON(t, client, http.MethodGet, ts.URL+"/api/profile/image", nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestProfileNameLengthIgnoresPadding(t *testing.T) {
	ts := newTestServer(t, nil)
	name := strings.Repeat("é", 64)

	resp := doJSON(t, http.DefaultClient, http.MethodPut, ts.URL+"/api/profile", map[string]any{"name": "   " + name + "\t"})
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["name"] != name {
		t.Fatalf("expected trimmed 64-rune name, got %v", body["name"])
	}

	resp = doJSON(t, http.DefaultClient, http.MethodPut, ts.URL+"/api/profile", map[string]any{"name": " " + name + "x "})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestProfileImageRejectsText(t *testing.T) {
	ts := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/profile/image", bytes.NewReader([]byte("hello world")))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestSettings(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/settings", nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if body["notificationsEnabled"] != false || body["dailyGoalMl"] != 2000.0 {
		t.Fatalf("unexpected defaults: %v", body)
	}

	resp = doJSON(t, http.DefaultClient, http.MethodPatch, ts.URL+"/api/settings",
		map[string]any{"notificationsEnabled": true, "dailyGoalMl": 2500})
	expectStatus(t, resp, http.StatusOK)
	body = decodeBody(t, resp)
	if body["notificationsEnabled"] != true || body["dailyGoalMl"] != 2500.0 {
		t.Fatalf("unexpected settings: %v", body)
	}

	resp = doJSON(t, http.DefaultClient, http.MethodPatch, ts.URL+"/api/settings", map[string]any{"dailyGoalMl": 50})
	expectStatus(t, resp, http.StatusBadRequest)
	if body := decodeBody(t, resp); body["fields"] == nil {
		t.Fatalf("expected field errors, got %v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"GET intake", http.MethodGet, "/api/intake"},
		{"PUT intake/today", http.MethodPut, "/api/intake/today"},
		{"GET intake/reset", http.MethodGet, "/api/intake/reset"},
		{"GET intake/undo-last", http.MethodGet, "/api/intake/undo-last"},
		{"POST intake/stats", http.MethodPost, "/api/intake/stats"},
		{"POST history", http.MethodPost, "/api/history"},
		{"POST profile", http.MethodPost, "/api/profile"},
		{"DELETE profile/image", http.MethodDelete, "/api/profile/image"},
		{"PUT settings", http.MethodPut, "/api/settings"},
		{"GET auth/login", http.MethodGet, "/api/auth/login"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.DefaultClient, tc.method, ts.URL+tc.path, nil)
			expectStatus(t, resp, http.StatusMethodNotAllowed)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newServer(t, nil, true)

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/intake/today", nil)
	expectStatus(t, resp, http.StatusUnauthorized)

	// Public endpoints stay reachable.
	resp = doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/health", nil)
	expectStatus(t, resp, http.StatusOK)
	resp = doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/auth/config", nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["sso_enabled"] != false || body["auth_enabled"] != true {
		t.Fatalf("unexpected auth config: %v", body)
	}
}

func TestLoginFlow(t *testing.T) {
	ts := newServer(t, nil, true)
	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}

	creds := map[string]any{"username": "alice", "password": "s3cret"}
	resp := doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/setup", creds)
	expectStatus(t, resp, http.StatusOK)

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/setup", creds)
	expectStatus(t, resp, http.StatusConflict)

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/login",
		map[string]any{"username": "alice", "password": "wrong"})
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/login", creds)
	expectStatus(t, resp, http.StatusOK)

	resp = doJSON(t, client, http.MethodGet, ts.URL+"/api/auth/me", nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["username"] != "alice" {
		t.Fatalf("expected alice, got %v", body["username"])
	}

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/logout", nil)
	expectStatus(t, resp, http.StatusOK)

	resp = doJSON(t, client, http.MethodGet, ts.URL+"/api/intake/today", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestForwardAuth(t *testing.T) {
	ts := newServer(t, nil, true)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/auth/me", nil)
	req.Header.Set("Remote-User", "bob")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	expectStatus(t, resp, http.StatusOK)

	if body := decodeBody(t, resp); body["username"] != "bob" {
		t.Fatalf("expected bob, got %v", body["username"])
	}
	if n, _ := ts.mem.Count(context.Background()); n != 1 {
		t.Fatalf("expected bob provisioned, got %d users", n)
	}
}

func TestAuthenticatedTodayDuringOutage(t *testing.T) {
	var down atomic.Bool
	mem := memory.New()
	repo := &mockIntakeRepo{
		totalFn: func(_ context.Context, _ int64, _ string) (int, error) {
			if down.Load() {
				return 0, errConnRefused
			}
			return 750, nil
		},
	}
	ts := newServerWithAuthStores(t, repo, mem,
		flakyUsers{UserRepository: mem, down: &down},
		flakySessions{SessionRepository: mem.NewSessionRepo(), down: &down}, true)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}
	creds := map[string]any{"username": "alice", "password": "s3cret"}
	expectStatus(t, doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/setup", creds), http.StatusOK)
	expectStatus(t, doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/login", creds), http.StatusOK)

	forwarded := func(user string) *http.Response {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/intake/today", nil)
		req.Header.Set("Remote-User", user)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	// Both identities are validated and their totals cached while the remote is up.
	expectStatus(t, doJSON(t, client, http.MethodGet, ts.URL+"/api/intake/today", nil), http.StatusOK)
	expectStatus(t, forwarded("bob"), http.StatusOK)

	down.Store(true)

	for name, resp := range map[string]*http.Response{
		"cookie":       doJSON(t, client, http.MethodGet, ts.URL+"/api/intake/today", nil),
		"forward auth": forwarded("bob"),
	} {
		t.Run(name, func(t *testing.T) {
			expectStatus(t, resp, http.StatusOK)
			body := decodeBody(t, resp)
			if body["cached"] != true || body["totalMl"] != 750.0 {
				t.Fatalf("expected cached total 750, got %v", body)
			}
		})
	}

	// Identities never seen before cannot be vouched for.
	expectStatus(t, forwarded("carol"), http.StatusServiceUnavailable)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/intake/today", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "unknown"})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	expectStatus(t, resp, http.StatusServiceUnavailable)

	resp = doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/auth/login", creds)
	expectStatus(t, resp, http.StatusServiceUnavailable)
}

func TestSSODisabled(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/api/auth/sso/login", nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, http.DefaultClient, http.MethodPost, ts.URL+"/api/intake", map[string]any{"amountMl": 200})
	expectStatus(t, resp, http.StatusOK)

	resp = doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/metrics", nil)
	expectStatus(t, resp, http.StatusOK)
	b, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(b, []byte("hydration_intake_entries_recorded_total")) {
		t.Fatal("metrics missing intake counter")
	}
}

func TestSPAFallback(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/history", nil)
	expectStatus(t, resp, http.StatusOK)
	b, _ := io.ReadAll(resp.Body)
	if string(b) != "<html></html>" {
		t.Fatalf("expected index.html, got %q", b)
	}
}
