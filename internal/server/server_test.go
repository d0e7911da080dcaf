package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"thoughtnet/internal/bootstrap"
	"thoughtnet/internal/config"
	"thoughtnet/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:      "0",
		Env:       "test",
		DBDriver:  config.DriverSQLite,
		JWTSecret: "test-secret-that-is-long-enough-for-hs256",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *fiber.App) {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	store := bootstrap.GormStore(testutil.NewSQLiteDB(t))
	s, err := NewServerWithDeps(cfg, store, nil)
	require.NoError(t, err)
	return s, s.NewApp()
}

type response struct {
	status int
	body   []byte
}

func (r response) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, dst), string(r.body))
}

func (r response) object(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	r.decode(t, &m)
	return m
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any, headers ...string) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(data)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: data}
}

func createUser(t *testing.T, app *fiber.App, username string) map[string]any {
	t.Helper()
	r := doRequest(t, app, http.MethodPost, "/api/users", map[string]string{
		"username": username,
		"email":    username + "@example.com",
	})
	require.Equal(t, http.StatusCreated, r.status, string(r.body))
	return r.object(t)
}

func createThought(t *testing.T, app *fiber.App, user map[string]any, text string) map[string]any {
	t.Helper()
	r := doRequest(t, app, http.MethodPost, "/api/thoughts", map[string]any{
		"thoughtText": text,
		"username":    user["username"],
		"userId":      user["id"],
	})
	require.Equal(t, http.StatusCreated, r.status, string(r.body))
	return r.object(t)
}
