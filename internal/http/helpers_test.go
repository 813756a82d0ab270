package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"grocerly/internal/config"
	"grocerly/internal/http/handlers"
	applog "grocerly/internal/log"
	"grocerly/internal/repos"
)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	return newAppWith(t, config.Test())
}

func newAppWith(t *testing.T, cfg config.Config) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(cfg.DB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return handlers.NewApp(cfg, handlers.NewDeps(db, cfg, nil)), db
}

// call sends body as JSON (nil for none) with an optional bearer token.
func call(t *testing.T, app *fiber.App, method, path string, body any, token string) (*http.Response, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func signup(t *testing.T, app *fiber.App, name, email, contact string) {
	t.Helper()
	resp, env := call(t, app, "POST", "/api/user/register", map[string]any{
		"username": name, "email": email, "contact_no": contact, "password": "secret123",
	}, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)
}

func login(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp, env := call(t, app, "POST", "/api/user/login", map[string]any{"email": email, "password": "secret123"}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)
	data := decode[struct {
		AccessToken string `json:"accessToken"`
	}](t, env.Data)
	require.NotEmpty(t, data.AccessToken)
	return data.AccessToken
}

func cookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	mu sync.Mutex
	w  bytes.Buffer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	lw := &lockedWriter{}
	applog.SetOutput(lw)
	defer applog.SetOutput(os.Stdout)

	fn()

	lw.mu.Lock()
	defer lw.mu.Unlock()
	var out []logEntry
	for _, line := range strings.Split(strings.TrimSpace(lw.w.String()), "\n") {
		var e logEntry
		if json.Unmarshal([]byte(line), &e) == nil {
			out = append(out, e)
		}
	}
	return out
}

func findLog(entries []logEntry, action string) *logEntry {
	for i := range entries {
		if entries[i].Action == action {
			return &entries[i]
		}
	}
	return nil
}
