package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"turbineops/models"
	"turbineops/storage"
	"turbineops/storage/testdb"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func notes(s string) *string { return &s }

func finding(category models.FindingCategory, severity int, cost string, n *string) models.Finding {
	return models.Finding{Category: category, Severity: severity, EstimatedCost: decimal.RequireFromString(cost), Notes: n}
}

func TestAdjustedSeverity(t *testing.T) {
	tests := []struct {
		name     string
		category models.FindingCategory
		severity int
		notes    *string
		want     int
	}{
		{"cracked blade raised", models.CategoryBladeDamage, 3, notes("Minor crack on blade tip"), 4},
		{"case insensitive", models.CategoryBladeDamage, 1, notes("CRACKED root"), 4},
		{"already above floor", models.CategoryBladeDamage, 6, notes("Crack on main blade"), 6},
		{"no crack", models.CategoryBladeDamage, 2, notes("chipped paint"), 2},
		{"nil notes", models.CategoryBladeDamage, 2, nil, 2},
		{"other category", models.CategoryErosion, 2, notes("crack"), 2},
		{"lightning untouched", models.CategoryLightning, 1, notes("crack near receptor"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdjustedSeverity(tt.category, tt.severity, tt.notes))
		})
	}
}

func TestDerivePriority(t *testing.T) {
	assert.Equal(t, models.PriorityLow, DerivePriority(0))
	assert.Equal(t, models.PriorityLow, DerivePriority(2))
	assert.Equal(t, models.PriorityMedium, DerivePriority(3))
	assert.Equal(t, models.PriorityMedium, DerivePriority(4))
	assert.Equal(t, models.PriorityHigh, DerivePriority(5))
	assert.Equal(t, models.PriorityHigh, DerivePriority(10))
}

func TestDerive(t *testing.T) {
	t.Run("no findings", func(t *testing.T) {
		d := Derive(nil)
		assert.Equal(t, models.PriorityLow, d.Priority)
		assert.True(t, d.Total.IsZero())
		assert.Empty(t, d.Snapshot)
		assert.NotNil(t, d.Snapshot)
	})

	t.Run("crack lifts medium", func(t *testing.T) {
		d := Derive([]models.Finding{
			finding(models.CategoryBladeDamage, 3, "5000", notes("Minor crack on blade tip")),
			finding(models.CategoryErosion, 2, "2500.25", nil),
		})
		assert.Equal(t, models.PriorityMedium, d.Priority)
		assert.Equal(t, 4, d.MaxSeverity)
		assert.Equal(t, "7500.25", d.Total.StringFixed(2))
		assert.Equal(t, 4, d.Snapshot[0].Severity)
		assert.Equal(t, 2, d.Snapshot[1].Severity)
	})

	t.Run("high", func(t *testing.T) {
		d := Derive([]models.Finding{
			finding(models.CategoryBladeDamage, 3, "5000", notes("Minor crack on blade tip")),
			finding(models.CategoryLightning, 7, "15000", notes("Lightning strike damage to surface")),
		})
		assert.Equal(t, models.PriorityHigh, d.Priority)
		assert.Equal(t, "20000.00", d.Total.StringFixed(2))
	})

	t.Run("input untouched", func(t *testing.T) {
		in := []models.Finding{finding(models.CategoryBladeDamage, 1, "1", notes("crack"))}
		Derive(in)
		assert.Equal(t, 1, in[0].Severity)
	})
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyPlan(ctx context.Context, event models.PlanEvent) error {
	return m.Called(ctx, event).Error(0)
}

func seedInspection(t *testing.T, db *gorm.DB, findings ...models.Finding) *models.Inspection {
	t.Helper()
	ctx := context.Background()
	turbine := &models.Turbine{Name: "T-1000"}
	require.NoError(t, storage.CreateTurbine(ctx, db, turbine))
	inspection := &models.Inspection{TurbineID: turbine.ID, Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), DataSource: models.DataSourceDrone}
	require.NoError(t, storage.CreateInspection(ctx, db, inspection))
	for i := range findings {
		findings[i].InspectionID = inspection.ID
		require.NoError(t, storage.CreateFinding(ctx, db, &findings[i]))
	}
	return inspection
}

func TestPlannerGenerate(t *testing.T) {
	db := testdb.Open(t)
	auditStore := storage.NewGormAuditStore(db)
	notifier := new(mockNotifier)
	planner := NewPlanner(db, notifier, NewAuditor(auditStore, zerolog.Nop()), zerolog.Nop())

	inspection := seedInspection(t, db,
		finding(models.CategoryBladeDamage, 3, "5000", notes("Minor crack on blade tip")),
		finding(models.CategoryLightning, 7, "15000", notes("Lightning strike damage to surface")),
	)

	notifier.On("NotifyPlan", mock.Anything, mock.MatchedBy(func(ev models.PlanEvent) bool {
		return ev.InspectionID == inspection.ID && ev.Priority == models.PriorityHigh && ev.At != ""
	})).Return(nil).Twice()

	ctx := WithActor(context.Background(), models.JwtUser{ID: "u-1", Email: "eng@example.com", Role: models.RoleEngineer})
	plan, err := planner.Generate(ctx, inspection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, plan.Priority)
	assert.Equal(t, "20000.00", plan.TotalEstimatedCost.StringFixed(2))
	require.Len(t, plan.SnapshotJSON, 2)

	again, err := planner.Generate(ctx, inspection.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, again.ID)
	notifier.AssertExpectations(t)

	logs, total, err := auditStore.List(context.Background(), storage.AuditQuery{Kind: models.AuditPlanGenerated, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, inspection.ID, logs[0].EntityID)
	assert.Equal(t, "u-1", logs[0].ActorID)
	assert.Equal(t, "20000.00", logs[0].Details["total"])
	assert.Equal(t, "HIGH", logs[0].Details["priority"])
}

func TestPlannerGenerateZeroFindings(t *testing.T) {
	db := testdb.Open(t)
	planner := NewPlanner(db, nil, nil, zerolog.Nop())
	inspection := seedInspection(t, db)

	plan, err := planner.Generate(context.Background(), inspection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, plan.Priority)
	assert.True(t, plan.TotalEstimatedCost.IsZero())
}

func TestPlannerGenerateMissingInspection(t *testing.T) {
	db := testdb.Open(t)
	planner := NewPlanner(db, nil, nil, zerolog.Nop())

	_, err := planner.Generate(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPlannerNotifyFailureDoesNotFail(t *testing.T) {
	db := testdb.Open(t)
	notifier := new(mockNotifier)
	notifier.On("NotifyPlan", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	planner := NewPlanner(db, notifier, nil, zerolog.Nop())
	inspection := seedInspection(t, db, finding(models.CategoryErosion, 2, "10", nil))

	plan, err := planner.Generate(context.Background(), inspection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, plan.Priority)
	notifier.AssertNumberOfCalls(t, "NotifyPlan", 1)
}

func TestRefreshStalePlans(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	planner := NewPlanner(db, nil, nil, zerolog.Nop())
	inspection := seedInspection(t, db, finding(models.CategoryErosion, 2, "10", nil))

	plan, err := planner.Generate(ctx, inspection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, plan.Priority)

	n, err := RefreshStalePlans(ctx, db, planner, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, n)

	// a new severe finding written after the plan makes it stale
	require.NoError(t, db.Model(&models.RepairPlan{}).Where("id = ?", plan.ID).
		UpdateColumn("updated_at", time.Now().UTC().Add(-time.Hour)).Error)
	severe := finding(models.CategoryLightning, 9, "100", nil)
	severe.InspectionID = inspection.ID
	require.NoError(t, storage.CreateFinding(ctx, db, &severe))

	n, err = RefreshStalePlans(ctx, db, planner, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	refreshed, err := storage.GetRepairPlan(ctx, db, inspection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, refreshed.Priority)
	assert.Equal(t, "110.00", refreshed.TotalEstimatedCost.StringFixed(2))
}

func TestGenerateLeavesConcurrentFindingStale(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	planner := NewPlanner(db, nil, nil, zerolog.Nop())
	inspection := seedInspection(t, db, finding(models.CategoryErosion, 2, "10", nil))

	// a finding committed after the findings were read but before the plan is written
	var once sync.Once
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:concurrent_finding", func(tx *gorm.DB) {
		if tx.Statement.Table != "repair_plans" {
			return
		}
		once.Do(func() {
			late := finding(models.CategoryLightning, 9, "100", nil)
			late.InspectionID = inspection.ID
			assert.NoError(t, storage.CreateFinding(ctx, tx.Session(&gorm.Session{NewDB: true}), &late))
		})
	}))

	plan, err := planner.Generate(ctx, inspection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, plan.Priority, "the late finding was not read")

	stale, err := storage.ListStalePlanInspections(ctx, db, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{inspection.ID}, stale)

	n, err := RefreshStalePlans(ctx, db, planner, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	refreshed, err := storage.GetRepairPlan(ctx, db, inspection.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, refreshed.Priority)
}

func TestPurgeAuditLogs(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	store := storage.NewGormAuditStore(db)
	auditor := NewAuditor(store, zerolog.Nop())

	auditor.Record(ctx, models.AuditLog{Kind: models.AuditLoginFailed, At: time.Now().UTC().AddDate(0, 0, -100)})
	auditor.Record(ctx, models.AuditLog{Kind: models.AuditLoginSucceeded})

	n, err := PurgeAuditLogs(ctx, auditor, 0)
	require.NoError(t, err)
	assert.Zero(t, n, "zero retention keeps everything")

	n, err = PurgeAuditLogs(ctx, auditor, 90)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	page, err := auditor.Page(ctx, storage.AuditQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, models.AuditLoginSucceeded, page.Data[0].Kind)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrev)
}

func TestNilAuditorIsSafe(t *testing.T) {
	var a *Auditor
	assert.NotPanics(t, func() {
		a.Record(context.Background(), models.AuditLog{Kind: models.AuditLoginFailed})
	})
}
