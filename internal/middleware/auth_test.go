package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubetrade/dealdesk/internal/models"
	"github.com/tubetrade/dealdesk/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("middleware-test-secret")
}

func newAdminRouter(reached *bool) *gin.Engine {
	r := gin.New()
	r.Use(I18nMiddleware())
	r.POST("/admin", AuthRequired(), AdminRequired(), func(c *gin.Context) {
		*reached = true
		c.Status(http.StatusNoContent)
	})
	r.GET("/optional", OptionalAuth(), func(c *gin.Context) {
		caller, ok := utils.GetCallerFromContext(c)
		if ok {
			c.String(http.StatusOK, caller.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return r
}

func token(t *testing.T, role models.Role) string {
	t.Helper()

	tok, err := utils.GenerateJWT(models.Caller{UserID: 7, Email: "x@example.com", Username: "x", Role: role}, 1)
	require.NoError(t, err)
	return tok
}

func request(r *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	var reached bool
	r := newAdminRouter(&reached)

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/admin", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/admin", "Bearer not-a-token").Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/admin", "Basic abc").Code)
	assert.False(t, reached)
}

func TestAdminRequiredRejectsUsersBeforeHandler(t *testing.T) {
	var reached bool
	r := newAdminRouter(&reached)

	w := request(r, http.MethodPost, "/admin", "Bearer "+token(t, models.RoleUser))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, reached)

	w = request(r, http.MethodPost, "/admin", "bearer "+token(t, models.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, reached)
}

func TestOptionalAuth(t *testing.T) {
	var reached bool
	r := newAdminRouter(&reached)

	assert.Equal(t, "anonymous", request(r, http.MethodGet, "/optional", "").Body.String())
	assert.Equal(t, "anonymous", request(r, http.MethodGet, "/optional", "Bearer junk").Body.String())
	assert.Equal(t, "x", request(r, http.MethodGet, "/optional", "Bearer "+token(t, models.RoleUser)).Body.String())
}

func TestResolveLanguage(t *testing.T) {
	assert.Equal(t, "zh_TW", resolveLanguage("zh-TW,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, "en", resolveLanguage("en-US,en;q=0.9"))
	assert.Equal(t, "en", resolveLanguage("fr-FR,de;q=0.5"))
	assert.Equal(t, "zh_TW", resolveLanguage("fr, zh-Hant"))
	assert.Equal(t, "en", resolveLanguage(""))
}
