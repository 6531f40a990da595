package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemarket/internal/client"
	"coursemarket/internal/config"
	"coursemarket/internal/handlers"
	"coursemarket/internal/models"
	"coursemarket/internal/records"
	"coursemarket/internal/server"
)

func newAPI(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend, err := records.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	seed, err := records.Encode([]models.Course{{ID: "c1", Title: "Go basics"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(backend.Dir(), "courses.json"), seed, 0o644))

	cfg := &config.AppConfig{
		Environment: "test",
		Security:    config.SecurityConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
		Admin:       config.AdminConfig{Name: "Admin", Email: "admin@x.com", Password: "admin-pass"},
	}
	set := handlers.NewHandlerSet(zerolog.Nop(), backend, nil, nil, cfg)
	require.NoError(t, set.Bootstrap(context.Background()))

	ts := httptest.NewServer(server.NewHTTPServer(cfg, zerolog.Nop(), set).Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

type session struct {
	t        *testing.T
	api      string
	credFile string
}

func (s session) run(args ...string) (string, error) {
	s.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"-api", s.api, "-credentials", s.credFile}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestPurchaseAndReviewFromTerminal(t *testing.T) {
	api := newAPI(t)
	dir := t.TempDir()
	alice := session{t: t, api: api, credFile: filepath.Join(dir, "alice", "credential.json")}
	admin := session{t: t, api: api, credFile: filepath.Join(dir, "admin", "credential.json")}

	out, err := alice.run("register", "Alice", "a@x.com", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "a@x.com")

	cred, ok, err := client.NewFileStore(alice.credFile).Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, cred.Token)

	out, err = alice.run("buy", "c1")
	require.NoError(t, err)
	purchase := decode[models.Purchase](t, out)
	assert.Equal(t, models.StatusPending, purchase.Status)

	_, err = admin.run("login", "admin@x.com", "admin-pass")
	require.NoError(t, err)
	out, err = admin.run("moderate", "purchase", "1", "approved")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, decode[models.Purchase](t, out).Status)

	out, err = alice.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, decode[models.User](t, out).Courses)

	out, err = alice.run("review", "c1", "5", "very", "good")
	require.NoError(t, err)
	review := decode[models.Review](t, out)
	assert.Equal(t, "very good", review.Text)

	_, err = admin.run("moderate", "review", "1", "approved")
	require.NoError(t, err)

	out, err = alice.run("reviews", "c1")
	require.NoError(t, err)
	assert.Len(t, decode[[]models.Review](t, out), 1)

	out, err = alice.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "logged out")
	_, err = os.Stat(alice.credFile)
	assert.True(t, os.IsNotExist(err))

	_, err = alice.run("buy", "c1")
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestUsageErrors(t *testing.T) {
	s := session{t: t, api: "http://127.0.0.1:1", credFile: filepath.Join(t.TempDir(), "c.json")}

	for _, args := range [][]string{
		{},
		{"nope"},
		{"login", "only-email"},
		{"moderate", "purchase", "x", "approved"},
		{"delete", "course", "1"},
		{"review", "c1", "five"},
	} {
		_, err := s.run(args...)
		assert.ErrorIs(t, err, errUsage, "%v", args)
	}
}
