package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkovalenko/student-journal-api/internal/models"
)

func tokenContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/users/me", nil)
	c.Request = req
	return c, w
}

func TestExtractTokenCookieWinsOverHeader(t *testing.T) {
	c, _ := tokenContext(t)
	c.Request.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "Bearer cookie-token"})
	c.Request.Header.Set("Authorization", "Bearer header-token")

	assert.Equal(t, "cookie-token", ExtractToken(c))
}

func TestExtractTokenAuthorizationHeader(t *testing.T) {
	c, _ := tokenContext(t)
	c.Request.Header.Set("Authorization", "Bearer header-token")

	assert.Equal(t, "header-token", ExtractToken(c))
}

func TestExtractTokenXAuthTokenFallback(t *testing.T) {
	c, _ := tokenContext(t)
	c.Request.Header.Set("X-Auth-Token", "plain-token")

	assert.Equal(t, "plain-token", ExtractToken(c))
}

func TestExtractTokenXAuthTokenBearerPrefix(t *testing.T) {
	c, _ := tokenContext(t)
	c.Request.Header.Set("X-Auth-Token", "Bearer prefixed-token")

	assert.Equal(t, "prefixed-token", ExtractToken(c))
}

func TestExtractTokenMissing(t *testing.T) {
	c, _ := tokenContext(t)

	assert.Empty(t, ExtractToken(c))
}

func TestRequireRolesAnonymous(t *testing.T) {
	c, w := tokenContext(t)

	RequireRoles(models.RoleAdmin)(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}

func TestRequireRolesWrongRole(t *testing.T) {
	c, w := tokenContext(t)
	c.Set(ContextUserKey, &models.User{ID: "s1", Role: models.RoleStudent})

	RequireRoles(models.RoleAdmin, models.RoleTeacher)(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, c.IsAborted())
}

func TestRequireRolesAllowed(t *testing.T) {
	c, w := tokenContext(t)
	c.Set(ContextUserKey, &models.User{ID: "t1", Role: models.RoleTeacher})

	RequireRoles(models.RoleAdmin, models.RoleTeacher)(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, c.IsAborted())
}

func TestRequireVerifiedChecksActiveFirst(t *testing.T) {
	c, w := tokenContext(t)
	c.Set(ContextUserKey, &models.User{ID: "u1", Role: models.RoleStudent, IsActive: false, IsVerified: false})

	RequireVerified()(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ACCOUNT_INACTIVE")
}

func TestRequireVerifiedRejectsUnverified(t *testing.T) {
	c, w := tokenContext(t)
	c.Set(ContextUserKey, &models.User{ID: "u1", Role: models.RoleStudent, IsActive: true, IsVerified: false})

	RequireVerified()(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ACCOUNT_UNVERIFIED")
}
