package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"turbineops/models"
	"turbineops/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	expired, err := utils.SignJWT(env.users[models.RoleAdmin].JwtUser(), testSecret, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		msg    string
	}{
		{"missing", "", http.StatusUnauthorized, "Missing Authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Invalid Authorization header format. Expected: Bearer <token>"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Invalid Authorization header format. Expected: Bearer <token>"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "JWT token has expired"},
		{"valid", "Bearer " + env.tokens[models.RoleViewer], http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/turbines", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.msg != "" {
				body := decode[models.ErrorResponse](t, w)
				assert.Equal(t, http.StatusText(tt.status), body.Error)
				assert.Equal(t, tt.msg, body.Message)
			}
		})
	}
}

func TestRequireAuthWithoutSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireAuth(utils.NewAuthService("", time.Hour, utils.MinBcryptRounds)), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer something")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server configuration error", decode[models.ErrorResponse](t, w).Message)
}

func TestRequireRole(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/turbines", models.RoleViewer, map[string]interface{}{"name": "T"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied. Required roles: ADMIN, ENGINEER", decode[models.ErrorResponse](t, w).Message)

	w = env.do(t, http.MethodGet, "/api/audit-logs", models.RoleEngineer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied. Required roles: ADMIN", decode[models.ErrorResponse](t, w).Message)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRole(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User not authenticated", decode[models.ErrorResponse](t, rec).Message)
}

func TestNotFoundRoute(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route GET /api/nope not found", decode[models.ErrorResponse](t, w).Message)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, dev := range []bool{true, false} {
		r := gin.New()
		r.Use(Recovery(dev))
		r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		msg := decode[models.ErrorResponse](t, w).Message
		if dev {
			assert.Equal(t, "kaboom", msg)
		} else {
			assert.Equal(t, "Internal server error", msg)
		}
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, true, body["ok"])
}
