package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"turbineops/models"
	"turbineops/storage"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// crackSeverityFloor is the lowest severity a cracked blade can carry.
const crackSeverityFloor = 4

// AdjustedSeverity raises blade damage whose notes mention a crack to at least 4.
func AdjustedSeverity(category models.FindingCategory, severity int, notes *string) int {
	if category == models.CategoryBladeDamage && notes != nil &&
		strings.Contains(strings.ToLower(*notes), "crack") && severity < crackSeverityFloor {
		return crackSeverityFloor
	}
	return severity
}

// DerivePriority maps the highest adjusted severity to a priority tier.
func DerivePriority(maxSeverity int) models.Priority {
	switch {
	case maxSeverity >= 5:
		return models.PriorityHigh
	case maxSeverity >= 3:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// Derivation is what a repair plan is computed to be from a set of findings.
type Derivation struct {
	Snapshot    models.FindingSnapshot
	Priority    models.Priority
	Total       decimal.Decimal
	MaxSeverity int
}

// Derive computes the plan of an inspection from its findings. It does not touch storage.
func Derive(findings []models.Finding) Derivation {
	d := Derivation{
		Snapshot: make(models.FindingSnapshot, 0, len(findings)),
		Total:    decimal.Zero,
	}
	for _, f := range findings {
		adjusted := f
		adjusted.Inspection = nil
		adjusted.Severity = AdjustedSeverity(f.Category, f.Severity, f.Notes)
		if adjusted.Severity > d.MaxSeverity {
			d.MaxSeverity = adjusted.Severity
		}
		d.Total = d.Total.Add(f.EstimatedCost)
		d.Snapshot = append(d.Snapshot, adjusted)
	}
	d.Priority = DerivePriority(d.MaxSeverity)
	return d
}

// Planner generates and stores repair plans.
type Planner struct {
	db       *gorm.DB
	notifier PlanNotifier
	auditor  *Auditor
	log      zerolog.Logger
}

func NewPlanner(db *gorm.DB, notifier PlanNotifier, auditor *Auditor, log zerolog.Logger) *Planner {
	return &Planner{
		db:       db,
		notifier: notifier,
		auditor:  auditor,
		log:      log.With().Str("component", "planner").Logger(),
	}
}

// Generate derives the plan of inspectionID from its current findings and stores it,
// replacing any earlier plan. Subscribers and the audit log are told afterwards;
// failures there are logged only.
func (p *Planner) Generate(ctx context.Context, inspectionID string) (*models.RepairPlan, error) {
	// The plan is as fresh as the findings it was derived from. A finding
	// written after this point stays newer than the plan and marks it stale.
	readAt := p.db.NowFunc()
	inspection, err := storage.GetInspection(ctx, p.db, inspectionID)
	if err != nil {
		return nil, err
	}

	d := Derive(inspection.Findings)
	plan, err := storage.UpsertRepairPlan(ctx, p.db, &models.RepairPlan{
		InspectionID:       inspection.ID,
		Priority:           d.Priority,
		TotalEstimatedCost: d.Total,
		SnapshotJSON:       d.Snapshot,
		CreatedAt:          readAt,
		UpdatedAt:          readAt,
	})
	if err != nil {
		return nil, err
	}

	p.log.Info().
		Str("inspection_id", inspection.ID).
		Str("priority", string(plan.Priority)).
		Str("total", plan.TotalEstimatedCost.StringFixed(2)).
		Msg("repair plan generated")

	if p.notifier != nil {
		event := models.PlanEvent{
			InspectionID: inspection.ID,
			Priority:     plan.Priority,
			At:           plan.UpdatedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := p.notifier.NotifyPlan(ctx, event); err != nil {
			p.log.Warn().Err(err).Str("inspection_id", inspection.ID).Msg("plan notification failed")
		}
	}

	p.auditor.Record(ctx, models.AuditLog{
		Kind:     models.AuditPlanGenerated,
		Entity:   "inspection",
		EntityID: inspection.ID,
		Details: models.AuditDetails{
			"total":    plan.TotalEstimatedCost.StringFixed(2),
			"priority": plan.Priority,
		},
	})

	return plan, nil
}

// encodePlanEvent is the wire form of a plan event for pg_notify, NATS and SSE.
func encodePlanEvent(event models.PlanEvent) (string, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
