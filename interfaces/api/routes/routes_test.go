package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"faceauth/application/serviceimpl"
	"faceauth/domain/dto"
	"faceauth/infrastructure/memory"
	"faceauth/interfaces/api/handlers"
	"faceauth/interfaces/api/middleware"
	"faceauth/pkg/config"
	"faceauth/pkg/facematch"
	"faceauth/pkg/logger"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "faceauth-logs")
	if err != nil {
		panic(err)
	}
	if err := logger.Init(dir, false); err != nil {
		panic(err)
	}
	code := m.Run()
	logger.Default().Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

const testAdminToken = "admin-token"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	return newTestAppWith(t, func(*config.Config) {})
}

func newTestAppWith(t *testing.T, mutate func(cfg *config.Config)) *fiber.App {
	t.Helper()

	cfg := &config.Config{
		JWT:   config.JWTConfig{Secret: "test-secret", TTL: time.Hour},
		Admin: config.AdminConfig{Token: testAdminToken},
		Matching: config.MatchingConfig{
			Threshold:          facematch.DefaultThreshold,
			Dimension:          facematch.DescriptorSize,
			DefaultDisplayName: "New User",
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}
	mutate(cfg)

	store := memory.NewStore()
	svc := &handlers.Services{
		FaceAuthService: serviceimpl.NewFaceAuthService(store.Identities(), store.Descriptors(), nil, serviceimpl.FaceAuthConfig{
			Threshold:          cfg.Matching.Threshold,
			Dimension:          cfg.Matching.Dimension,
			DefaultDisplayName: cfg.Matching.DefaultDisplayName,
		}),
		SessionService: serviceimpl.NewSessionService(memory.NewRevocations(), cfg.JWT.Secret, cfg.JWT.TTL),
	}
	h := handlers.NewHandlers(svc, &handlers.Dependencies{
		IdentityRepository:   store.Identities(),
		DescriptorRepository: store.Descriptors(),
	})

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	SetupRoutes(app, h, svc, cfg)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}, headers map[string]string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("%s %s: invalid json %q", method, path, raw)
		}
	}
	return resp.StatusCode, env
}

func descriptor(first float32) map[string]interface{} {
	v := make([]float32, facematch.DescriptorSize)
	v[0] = first
	return map[string]interface{}{"descriptor": v}
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestFaceLoginFlow(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodPost, "/api/v1/auth/descriptor", descriptor(0.1), nil)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on enrollment, got %d (%s)", status, env.Message)
	}
	var enrolled dto.AuthResponse
	if err := json.Unmarshal(env.Data, &enrolled); err != nil {
		t.Fatalf("decode auth response: %v", err)
	}
	if enrolled.Status != "enrolled" || !enrolled.IsNewlyEnrolled || enrolled.Token == "" {
		t.Errorf("unexpected enrollment response: %+v", enrolled)
	}
	if enrolled.Distance != nil {
		t.Errorf("enrollment should not report a distance")
	}

	status, env = do(t, app, http.MethodPost, "/api/v1/auth/descriptor", descriptor(0.1), nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d", status)
	}
	var loggedIn dto.AuthResponse
	if err := json.Unmarshal(env.Data, &loggedIn); err != nil {
		t.Fatalf("decode auth response: %v", err)
	}
	if loggedIn.Status != "logged_in" || loggedIn.IdentityID != enrolled.IdentityID {
		t.Errorf("expected login as %s, got %+v", enrolled.IdentityID, loggedIn)
	}
	if loggedIn.Distance == nil || *loggedIn.Distance > 1e-9 {
		t.Errorf("expected distance ~0, got %v", loggedIn.Distance)
	}

	token := loggedIn.Token

	status, env = do(t, app, http.MethodGet, "/api/v1/identities/me", nil, bearer(token))
	if status != http.StatusOK {
		t.Fatalf("expected 200 from /me, got %d", status)
	}
	var me dto.IdentityResponse
	json.Unmarshal(env.Data, &me)
	if me.DisplayName != "New User" || !me.IsNewlyEnrolled {
		t.Errorf("unexpected identity: %+v", me)
	}

	status, _ = do(t, app, http.MethodPatch, "/api/v1/identities/me", map[string]string{"display_name": "   "}, bearer(token))
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for blank name, got %d", status)
	}

	status, env = do(t, app, http.MethodPatch, "/api/v1/identities/me", map[string]string{"display_name": "Alice"}, bearer(token))
	if status != http.StatusOK {
		t.Fatalf("expected 200 on rename, got %d (%s)", status, env.Message)
	}
	json.Unmarshal(env.Data, &me)
	if me.DisplayName != "Alice" || me.IsNewlyEnrolled {
		t.Errorf("unexpected identity after rename: %+v", me)
	}

	status, _ = do(t, app, http.MethodPost, "/api/v1/auth/logout", nil, bearer(token))
	if status != http.StatusOK {
		t.Fatalf("expected 200 on logout, got %d", status)
	}
	status, _ = do(t, app, http.MethodGet, "/api/v1/identities/me", nil, bearer(token))
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", status)
	}
}

func TestFailedAttemptsUseGenericMessage(t *testing.T) {
	app := newTestApp(t)

	status, env := do(t, app, http.MethodPost, "/api/v1/auth/descriptor", map[string]interface{}{"descriptor": []float32{1, 2, 3}}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for short descriptor, got %d", status)
	}
	if env.Message != handlers.FailedAuthMessage || env.Error != "" {
		t.Errorf("failure leaked details: message=%q error=%q", env.Message, env.Error)
	}

	status, _ = do(t, app, http.MethodPost, "/api/v1/auth/descriptor", map[string]interface{}{"descriptor": []float32{}}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for empty descriptor, got %d", status)
	}

	// Server-side extraction is disabled in this app
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/face", strings.NewReader(""))
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("POST /auth/face: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without image, got %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	status, _ := do(t, app, http.MethodGet, "/api/v1/identities/me", nil, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", status)
	}
	status, _ = do(t, app, http.MethodGet, "/api/v1/identities/me", nil, bearer("garbage"))
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid token, got %d", status)
	}
}

func TestAdminLogsRequireAdminToken(t *testing.T) {
	app := newTestApp(t)

	status, _ := do(t, app, http.MethodGet, "/api/v1/admin/logs", nil, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 without admin token, got %d", status)
	}

	status, env := do(t, app, http.MethodGet, "/api/v1/admin/logs?lines=5", nil, map[string]string{"X-Admin-Token": testAdminToken})
	if status != http.StatusOK || !env.Success {
		t.Errorf("expected 200 with admin token, got %d", status)
	}

	// Query strings end up in access logs, so the token is header-only
	status, _ = do(t, app, http.MethodGet, "/api/v1/admin/logs?token="+testAdminToken, nil, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for token in query string, got %d", status)
	}
}

func TestAdminLogsClosedWithoutAdminToken(t *testing.T) {
	app := newTestAppWith(t, func(cfg *config.Config) { cfg.Admin.Token = "" })

	for _, token := range []string{"", "test-secret"} {
		status, _ := do(t, app, http.MethodGet, "/api/v1/admin/logs", nil, map[string]string{"X-Admin-Token": token})
		if status != http.StatusUnauthorized {
			t.Errorf("token %q: expected 401 when ADMIN_TOKEN is unset, got %d", token, status)
		}
	}
}

func TestHealthRoutes(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health: status=%v err=%v", resp, err)
	}

	do(t, app, http.MethodPost, "/api/v1/auth/descriptor", descriptor(0), nil)

	req = httptest.NewRequest(http.MethodGet, "/health/detailed", nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("GET /health/detailed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var health handlers.DetailedHealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Metrics == nil || health.Metrics.Descriptors != 1 || health.Metrics.Identities != 1 {
		t.Errorf("unexpected metrics: %+v", health.Metrics)
	}
	if health.Status != "healthy" {
		t.Errorf("expected healthy with optional components disabled, got %s", health.Status)
	}
}
