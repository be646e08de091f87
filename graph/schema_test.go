package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"turbineops/models"
	"turbineops/services"
	"turbineops/storage"
	"turbineops/storage/testdb"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	schema     graphql.Schema
	inspection *models.Inspection
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testdb.Open(t)
	ctx := context.Background()

	planner := services.NewPlanner(db, nil, nil, zerolog.Nop())
	schema, err := NewSchema(db, planner)
	require.NoError(t, err)

	turbine := &models.Turbine{Name: "T-1000"}
	require.NoError(t, storage.CreateTurbine(ctx, db, turbine))
	inspection := &models.Inspection{
		TurbineID:  turbine.ID,
		Date:       time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		DataSource: models.DataSourceDrone,
	}
	require.NoError(t, storage.CreateInspection(ctx, db, inspection))
	notes := "Crack on main blade"
	require.NoError(t, storage.CreateFinding(ctx, db, &models.Finding{
		InspectionID:  inspection.ID,
		Category:      models.CategoryBladeDamage,
		Severity:      6,
		EstimatedCost: decimal.NewFromInt(18000),
		Notes:         &notes,
	}))

	return fixture{db: db, schema: schema, inspection: inspection}
}

func (f fixture) run(t *testing.T, role models.Role, query string, vars map[string]interface{}) *graphql.Result {
	t.Helper()
	ctx := context.Background()
	if role != "" {
		ctx = services.WithActor(ctx, models.JwtUser{ID: "u-1", Email: "u@example.com", Role: role})
	}
	return graphql.Do(graphql.Params{
		Schema:         f.schema,
		RequestString:  query,
		VariableValues: vars,
		Context:        ctx,
	})
}

func TestQueryInspection(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, models.RoleViewer, `query($id: ID!) {
		inspection(id: $id) { id dataSource turbine { name } findings { category severity estimatedCost } repairPlan { id } }
	}`, map[string]interface{}{"id": f.inspection.ID})
	require.Empty(t, res.Errors)

	inspection := res.Data.(map[string]interface{})["inspection"].(map[string]interface{})
	assert.Equal(t, f.inspection.ID, inspection["id"])
	assert.Equal(t, "DRONE", inspection["dataSource"])
	assert.Equal(t, "T-1000", inspection["turbine"].(map[string]interface{})["name"])
	assert.Nil(t, inspection["repairPlan"])

	findings := inspection["findings"].([]interface{})
	require.Len(t, findings, 1)
	finding := findings[0].(map[string]interface{})
	assert.Equal(t, "BLADE_DAMAGE", finding["category"])
	assert.EqualValues(t, 18000, finding["estimatedCost"])

	res = f.run(t, models.RoleViewer, `{ inspection(id: "missing") { id } repairPlan(inspectionId: "missing") { id } }`, nil)
	require.Empty(t, res.Errors)
	data := res.Data.(map[string]interface{})
	assert.Nil(t, data["inspection"])
	assert.Nil(t, data["repairPlan"])

	res = f.run(t, models.RoleViewer, `{ turbines { name } }`, nil)
	require.Empty(t, res.Errors)
	assert.Len(t, res.Data.(map[string]interface{})["turbines"], 1)
}

const generateMutation = `mutation($id: ID!) {
	generateRepairPlan(inspectionId: $id) { inspectionId priority totalEstimatedCost snapshotJson findings { severity } }
}`

func TestGenerateRepairPlanMutation(t *testing.T) {
	f := newFixture(t)

	res := f.run(t, models.RoleEngineer, generateMutation, map[string]interface{}{"id": f.inspection.ID})
	require.Empty(t, res.Errors)
	plan := res.Data.(map[string]interface{})["generateRepairPlan"].(map[string]interface{})
	assert.Equal(t, f.inspection.ID, plan["inspectionId"])
	assert.Equal(t, "HIGH", plan["priority"])
	assert.EqualValues(t, 18000, plan["totalEstimatedCost"])
	assert.True(t, strings.HasPrefix(plan["snapshotJson"].(string), "["))
	assert.Len(t, plan["findings"], 1)

	res = f.run(t, models.RoleViewer, `query($id: ID!) { repairPlan(inspectionId: $id) { priority } }`, map[string]interface{}{"id": f.inspection.ID})
	require.Empty(t, res.Errors)
	assert.Equal(t, "HIGH", res.Data.(map[string]interface{})["repairPlan"].(map[string]interface{})["priority"])
}

func TestGenerateRepairPlanMutationErrors(t *testing.T) {
	f := newFixture(t)
	vars := map[string]interface{}{"id": f.inspection.ID}

	res := f.run(t, models.RoleViewer, generateMutation, vars)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "Access denied", res.Errors[0].Message)

	res = f.run(t, "", generateMutation, vars)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "User not authenticated", res.Errors[0].Message)

	res = f.run(t, models.RoleAdmin, generateMutation, map[string]interface{}{"id": "missing"})
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "Inspection not found", res.Errors[0].Message)
}

func TestHandlerRejectsEmptyQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	r := gin.New()
	r.POST("/graphql", Handler(f.schema))

	for _, body := range []string{`{}`, `{"query": "  "}`, `nope`} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ turbines { name } }"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "T-1000")
}
