package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yanote/notes/backend/go-services/internal/config"
	"github.com/yanote/notes/backend/go-services/internal/note"
	"github.com/yanote/notes/backend/go-services/internal/tokens"
)

func memoryConfig() *config.Config {
	cfg := &config.Config{Backend: config.BackendMemory}
	cfg.JWT.Secret = "server-test-secret-32-bytes-xxxx"
	cfg.JWT.AccessTokenTTL = 15 * time.Minute
	cfg.JWT.RefreshTokenTTL = time.Hour
	return cfg
}

func bootstrap(t *testing.T, cfg *config.Config) (*App, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close(context.Background()) })
	return app, New(app.Deps)
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOpsEndpoints(t *testing.T) {
	_, r := bootstrap(t, memoryConfig())

	w := get(r, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", w.Body.String())

	w = get(r, "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ready"`)

	w = get(r, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "/notes/")

	w = get(r, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "notes_slug_conflicts_total")

	req := httptest.NewRequest(http.MethodOptions, "/add/", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestReadyReportsMissingDeps(t *testing.T) {
	cfg := memoryConfig()
	cfg.Keycloak.URL = "http://127.0.0.1:1"
	cfg.Keycloak.Realm = "realm"
	_, r := bootstrap(t, cfg)

	w := get(r, "/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Deps map[string]bool `json:"deps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Deps["oidc"])
	require.True(t, body.Deps["storage"])
}

func TestBootstrapUsesRedis(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	cfg := memoryConfig()
	cfg.Redis.Host = m.Host()
	cfg.Redis.Port = m.Port()
	app, r := bootstrap(t, cfg)
	require.NotNil(t, app.Redis)

	ctx := context.Background()
	refresh, err := app.Sessions.CreateSession(ctx, "sub-1", time.Hour)
	require.NoError(t, err)
	require.True(t, m.Exists("session:"+refresh))

	require.Equal(t, http.StatusOK, get(r, "/ready", "").Code)
}

func TestBootstrapRejectsUnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.Backend = "sqlite"
	_, err := Bootstrap(context.Background(), cfg)
	require.Error(t, err)
}

func unsignedIDToken(claims map[string]interface{}) string {
	b, _ := json.Marshal(claims)
	return "hdr." + base64.RawURLEncoding.EncodeToString(b) + ".sig"
}

// TestNoteLifecycle drives login, note creation and account deletion through the whole stack.
func TestNoteLifecycle(t *testing.T) {
	kc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "kc-at",
			"token_type":   "Bearer",
			"id_token":     unsignedIDToken(map[string]interface{}{"sub": "kc-alice", "name": "Alice"}),
		})
	}))
	defer kc.Close()

	cfg := memoryConfig()
	cfg.Keycloak.URL = kc.URL
	cfg.Keycloak.Realm = "realm"
	cfg.Keycloak.ClientID = "notes"
	cfg.Keycloak.AllowInsecure = true
	app, r := bootstrap(t, cfg)
	ctx := context.Background()

	// anonymous create goes to login
	form := url.Values{"title": {"Первая заметка"}, "text": {"hello"}}
	req := httptest.NewRequest(http.MethodPost, "/add/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/auth/login?next=%2Fadd%2F", w.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"mode":"password","username":"alice","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	// the login cookie is enough for browser requests
	req = httptest.NewRequest(http.MethodPost, "/add/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/done/", w.Header().Get("Location"))

	u, err := app.Users.GetBySub(ctx, "kc-alice")
	require.NoError(t, err)
	n, err := app.Notes.GetForAuthor(ctx, u.ID, note.Slugify("Первая заметка"))
	require.NoError(t, err)
	require.Equal(t, "hello", n.Text)

	tok, err := tokens.GenerateAccessToken(cfg, u, time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	count, err := app.Notes.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)

	// the account is gone, so its token no longer opens the notes
	require.Equal(t, http.StatusFound, get(r, "/notes/", tok).Code)
}

func TestRateLimitEnabled(t *testing.T) {
	cfg := memoryConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.1, Burst: 1}
	_, r := bootstrap(t, cfg)

	require.Equal(t, http.StatusOK, get(r, "/health", "").Code)
	require.Equal(t, http.StatusTooManyRequests, get(r, "/health", "").Code)
}
