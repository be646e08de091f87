package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"turbineops/graph"
	"turbineops/models"
	"turbineops/services"
	"turbineops/storage"
	"turbineops/storage/testdb"
	"turbineops/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

type testEnv struct {
	db      *gorm.DB
	router  *gin.Engine
	auth    *utils.AuthService
	hub     *services.Hub
	audit   *storage.GormAuditStore
	planner *services.Planner
	tokens  map[models.Role]string
	users   map[models.Role]*models.User
}

type envOption func(*Deps)

func withLimiter(l storage.LoginLimiter) envOption {
	return func(d *Deps) { d.Limiter = l }
}

func withObjects(o storage.ObjectStore) envOption {
	return func(d *Deps) { d.Objects = o }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testdb.Open(t)
	auth := utils.NewAuthService(testSecret, time.Hour, utils.MinBcryptRounds)
	audit := storage.NewGormAuditStore(db)
	auditor := services.NewAuditor(audit, zerolog.Nop())
	hub := services.NewHub()
	t.Cleanup(hub.Close)
	planner := services.NewPlanner(db, services.NewHubNotifier(hub), auditor, zerolog.Nop())
	schema, err := graph.NewSchema(db, planner)
	require.NoError(t, err)

	deps := Deps{
		DB:      db,
		Auth:    auth,
		Auditor: auditor,
		Planner: planner,
		Hub:     hub,
		Schema:  schema,
		Log:     zerolog.Nop(),
		DevMode: true,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	env := &testEnv{
		db:      db,
		router:  SetupRouter(deps),
		auth:    auth,
		hub:     hub,
		audit:   audit,
		planner: planner,
		tokens:  map[models.Role]string{},
		users:   map[models.Role]*models.User{},
	}

	passwords := map[models.Role]string{
		models.RoleAdmin:    "admin123",
		models.RoleEngineer: "engineer123",
		models.RoleViewer:   "viewer123",
	}
	for role, password := range passwords {
		hash, err := auth.HashPassword(password)
		require.NoError(t, err)
		user := &models.User{Email: string(role) + "@example.com", Name: string(role), Role: role, PasswordHash: hash}
		require.NoError(t, storage.CreateUser(context.Background(), db, user))
		token, err := auth.CreateToken(user.JwtUser())
		require.NoError(t, err)
		env.tokens[role] = token
		env.users[role] = user
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, role models.Role, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[role])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) createTurbine(t *testing.T, name string) models.Turbine {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/turbines", models.RoleAdmin, map[string]interface{}{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Turbine](t, w)
}

func (e *testEnv) createInspection(t *testing.T, turbineID, date string) models.Inspection {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/inspections", models.RoleEngineer, map[string]interface{}{
		"turbineId": turbineID, "date": date, "dataSource": "DRONE",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Inspection](t, w)
}

func (e *testEnv) createFinding(t *testing.T, inspectionID string, body map[string]interface{}) models.Finding {
	t.Helper()
	body["inspectionId"] = inspectionID
	w := e.do(t, http.MethodPost, "/api/findings", models.RoleEngineer, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Finding](t, w)
}
