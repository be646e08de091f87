package graph

import (
	"encoding/json"
	"errors"

	"turbineops/models"
	"turbineops/services"
	"turbineops/storage"

	"github.com/graphql-go/graphql"
	"gorm.io/gorm"
)

var priorityEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "Priority",
	Values: graphql.EnumValueConfigMap{
		"LOW":    &graphql.EnumValueConfig{Value: models.PriorityLow},
		"MEDIUM": &graphql.EnumValueConfig{Value: models.PriorityMedium},
		"HIGH":   &graphql.EnumValueConfig{Value: models.PriorityHigh},
	},
})

var categoryEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "FindingCategory",
	Values: graphql.EnumValueConfigMap{
		"BLADE_DAMAGE": &graphql.EnumValueConfig{Value: models.CategoryBladeDamage},
		"LIGHTNING":    &graphql.EnumValueConfig{Value: models.CategoryLightning},
		"EROSION":      &graphql.EnumValueConfig{Value: models.CategoryErosion},
		"UNKNOWN":      &graphql.EnumValueConfig{Value: models.CategoryUnknown},
	},
})

var dataSourceEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "DataSource",
	Values: graphql.EnumValueConfigMap{
		"DRONE":  &graphql.EnumValueConfig{Value: models.DataSourceDrone},
		"MANUAL": &graphql.EnumValueConfig{Value: models.DataSourceManual},
	},
})

func asFinding(src interface{}) (models.Finding, bool) {
	switch f := src.(type) {
	case models.Finding:
		return f, true
	case *models.Finding:
		return *f, f != nil
	}
	return models.Finding{}, false
}

func asPlan(src interface{}) (*models.RepairPlan, bool) {
	switch p := src.(type) {
	case models.RepairPlan:
		return &p, true
	case *models.RepairPlan:
		return p, p != nil
	}
	return nil, false
}

var turbineType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Turbine",
	Fields: graphql.Fields{
		"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"manufacturer": &graphql.Field{Type: graphql.String},
		"mwRating":     &graphql.Field{Type: graphql.Float},
		"lat":          &graphql.Field{Type: graphql.Float},
		"lng":          &graphql.Field{Type: graphql.Float},
		"createdAt":    &graphql.Field{Type: graphql.DateTime},
		"updatedAt":    &graphql.Field{Type: graphql.DateTime},
	},
})

var findingType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Finding",
	Fields: graphql.Fields{
		"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"inspectionId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"category":     &graphql.Field{Type: graphql.NewNonNull(categoryEnum)},
		"severity":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"estimatedCost": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Float),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				f, ok := asFinding(p.Source)
				if !ok {
					return nil, nil
				}
				return f.EstimatedCost.InexactFloat64(), nil
			},
		},
		"notes":     &graphql.Field{Type: graphql.String},
		"createdAt": &graphql.Field{Type: graphql.DateTime},
		"updatedAt": &graphql.Field{Type: graphql.DateTime},
	},
})

var repairPlanType = graphql.NewObject(graphql.ObjectConfig{
	Name: "RepairPlan",
	Fields: graphql.Fields{
		"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"inspectionId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"priority":     &graphql.Field{Type: graphql.NewNonNull(priorityEnum)},
		"totalEstimatedCost": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Float),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				plan, ok := asPlan(p.Source)
				if !ok {
					return nil, nil
				}
				return plan.TotalEstimatedCost.InexactFloat64(), nil
			},
		},
		"snapshotJson": &graphql.Field{
			Type:        graphql.String,
			Description: "Adjusted findings the plan was derived from, as JSON",
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				plan, ok := asPlan(p.Source)
				if !ok {
					return nil, nil
				}
				b, err := json.Marshal(plan.SnapshotJSON)
				return string(b), err
			},
		},
		"findings": &graphql.Field{
			Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(findingType))),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				plan, ok := asPlan(p.Source)
				if !ok || plan.SnapshotJSON == nil {
					return []models.Finding{}, nil
				}
				return []models.Finding(plan.SnapshotJSON), nil
			},
		},
		"createdAt": &graphql.Field{Type: graphql.DateTime},
		"updatedAt": &graphql.Field{Type: graphql.DateTime},
	},
})

var inspectionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Inspection",
	Fields: graphql.Fields{
		"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"turbineId":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"date":          &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		"inspectorName": &graphql.Field{Type: graphql.String},
		"dataSource":    &graphql.Field{Type: graphql.NewNonNull(dataSourceEnum)},
		"rawPackageUrl": &graphql.Field{Type: graphql.String},
		"createdAt":     &graphql.Field{Type: graphql.DateTime},
		"updatedAt":     &graphql.Field{Type: graphql.DateTime},
		"turbine":       &graphql.Field{Type: turbineType},
		"findings":      &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(findingType)))},
		"repairPlan":    &graphql.Field{Type: repairPlanType},
	},
})

// errInspectionNotFound is what clients see when a mutation names an unknown inspection.
var errInspectionNotFound = errors.New("Inspection not found")

func requireRole(p graphql.ResolveParams, roles ...models.Role) error {
	user, ok := services.ActorFrom(p.Context)
	if !ok {
		return errors.New("User not authenticated")
	}
	for _, r := range roles {
		if user.Role == r {
			return nil
		}
	}
	return errors.New("Access denied")
}

// NewSchema builds the GraphQL schema over db. planner serves the generate mutation.
func NewSchema(db *gorm.DB, planner *services.Planner) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"inspection": &graphql.Field{
				Type: inspectionType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					inspection, err := storage.GetInspection(p.Context, db, id)
					if errors.Is(err, storage.ErrNotFound) {
						return nil, nil
					}
					return inspection, err
				},
			},
			"repairPlan": &graphql.Field{
				Type: repairPlanType,
				Args: graphql.FieldConfigArgument{
					"inspectionId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["inspectionId"].(string)
					plan, err := storage.GetRepairPlan(p.Context, db, id)
					if errors.Is(err, storage.ErrNotFound) {
						return nil, nil
					}
					return plan, err
				},
			},
			"turbines": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(turbineType))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return storage.ListTurbines(p.Context, db)
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"generateRepairPlan": &graphql.Field{
				Type: graphql.NewNonNull(repairPlanType),
				Args: graphql.FieldConfigArgument{
					"inspectionId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := requireRole(p, models.RoleAdmin, models.RoleEngineer); err != nil {
						return nil, err
					}
					id, _ := p.Args["inspectionId"].(string)
					plan, err := planner.Generate(p.Context, id)
					if errors.Is(err, storage.ErrNotFound) {
						return nil, errInspectionNotFound
					}
					return plan, err
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}
