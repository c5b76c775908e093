package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quill-ai-go/internal/model"
	"quill-ai-go/internal/repository"
	"quill-ai-go/internal/service"
	"quill-ai-go/internal/testutil"
	"quill-ai-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBlacklist map[string]bool

func (m memBlacklist) Add(_ context.Context, t string, _ time.Duration) error { m[t] = true; return nil }
func (m memBlacklist) Contains(_ context.Context, t string) (bool, error)     { return m[t], nil }

func setup(t *testing.T) (*gin.Engine, *token.JWTManager, memBlacklist) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "alice", model.RoleUser)
	testutil.CreateUser(t, db, "root", model.RoleAdmin)

	jwt := token.NewJWTManager("secret", 1, 1)
	bl := memBlacklist{}
	users := service.NewUserService(repository.NewUserRepository(db), bl, jwt)

	r := gin.New()
	r.Use(RequestLogger())
	authed := r.Group("/", AuthMiddleware(jwt, users, bl))
	authed.GET("/me", func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.String(http.StatusOK, u.Username)
	})
	authed.GET("/admin", AdminAuthMiddleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r, jwt, bl
}

func get(r *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r, jwt, bl := setup(t)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "garbage").Code)

	access, err := jwt.GenerateToken(1, "alice", model.RoleUser)
	require.NoError(t, err)
	w := get(r, "/me", access)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	refresh, err := jwt.GenerateRefreshToken(1, "alice", model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", refresh).Code, "refresh tokens cannot call the API")

	ghost, err := jwt.GenerateToken(99, "ghost", model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", ghost).Code)

	bl[access] = true
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", access).Code)
}

func TestAdminAuthMiddleware(t *testing.T) {
	r, jwt, _ := setup(t)

	user, err := jwt.GenerateToken(1, "alice", model.RoleUser)
	require.NoError(t, err)
	w := get(r, "/admin", user)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"admin access required"}`, w.Body.String())

	admin, err := jwt.GenerateToken(2, "root", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", admin).Code)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate([]byte("short")))
	long := truncate([]byte(strings.Repeat("x", maxLoggedBody+10)))
	assert.True(t, strings.HasSuffix(long, "...(truncated)"))
}
