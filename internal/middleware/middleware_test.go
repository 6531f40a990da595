package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemarket/internal/models"
	"coursemarket/internal/records"
	"coursemarket/internal/repository"
	"coursemarket/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticRevocations map[string]bool

func (s staticRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	return s[id], nil
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	tokens := security.NewTokenIssuer("secret", time.Hour)
	revoked := staticRevocations{}

	r := gin.New()
	r.GET("/me", Auth(tokens, revoked), func(c *gin.Context) {
		claims, ok := Claims(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": claims.UserID})
	})

	w := serve(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"missing_token"}`, w.Body.String())

	w = httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", "garbage")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"invalid_token"}`, w.Body.String())

	token, claims, err := tokens.Issue(models.Identity{ID: 3, Email: "a@x.com", Role: models.UserRoleUser})
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3}`, w.Body.String())

	for _, scheme := range []string{"bearer", "BEARER"} {
		w = httptest.NewRecorder()
		req, _ = http.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", scheme+" "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, scheme)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	revoked[claims.ID] = true
	w = serve(r, http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	backend, err := records.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	users := repository.NewUserRepository(backend)
	ctx := context.Background()

	admin, err := users.Create(ctx, models.User{Name: "Admin", Email: "admin@x.com", Role: models.UserRoleAdmin})
	require.NoError(t, err)
	member, err := users.Create(ctx, models.User{Name: "Member", Email: "m@x.com", Role: models.UserRoleUser})
	require.NoError(t, err)

	tokens := security.NewTokenIssuer("secret", time.Hour)
	r := gin.New()
	r.GET("/admin", Auth(tokens, nil), RequireAdmin(users), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})

	adminToken, _, err := tokens.Issue(admin.Identity())
	require.NoError(t, err)
	w := serve(r, http.MethodGet, "/admin", adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"admin@x.com"}`, w.Body.String())

	memberToken, _, err := tokens.Issue(member.Identity())
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/admin", memberToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The role claim inside the token is not trusted on its own.
	forged, _, err := tokens.Issue(models.Identity{ID: member.ID, Email: member.Email, Role: models.UserRoleAdmin})
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/admin", forged)
	assert.Equal(t, http.StatusForbidden, w.Code)

	ghost, _, err := tokens.Issue(models.Identity{ID: 99, Email: "ghost@x.com", Role: models.UserRoleAdmin})
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/admin", ghost)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestIDAndRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(zerolog.Nop()), Recovery(zerolog.Nop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(requestIDHeader, "bad id with spaces")
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(requestIDHeader), 36)

	w = serve(r, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://shop.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://shop.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
