package handlers

import (
	"time"

	"turbineops/graph"
	"turbineops/services"
	"turbineops/storage"
	"turbineops/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Deps is everything the routes need. Limiter and Objects may be nil; the
// features behind them are then disabled.
type Deps struct {
	DB          *gorm.DB
	Auth        *utils.AuthService
	Auditor     *services.Auditor
	Planner     *services.Planner
	Hub         *services.Hub
	Schema      graphql.Schema
	Limiter     storage.LoginLimiter
	Objects     storage.ObjectStore
	Log         zerolog.Logger
	DevMode     bool
	CORSOrigins []string
}

func CORSConfig(origins []string) cors.Config {
	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding", "Accept",
		"Origin", "X-Requested-With", "Authorization", "Cache-Control",
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"}
	corsConfig.ExposeHeaders = []string{"Content-Length", "Content-Type", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

// SetupRouter wires every route.
func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(RequestLogger(d.Log), Recovery(d.DevMode), cors.New(CORSConfig(d.CORSOrigins)))
	r.NoRoute(NotFound)

	api := r.Group("/api")

	// ==================== HEALTH & DOCS ====================
	api.GET("/healthz", Healthz)
	api.GET("/readyz", Readyz(d.DB, d.Auditor))
	api.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/api/docs/doc.json")))

	// ==================== EVENTS ====================
	api.GET("/events", StreamEvents(d.Hub))

	// ==================== AUTH ====================
	api.POST("/auth/login", LoginHandler(d.DB, d.Auth, d.Limiter, d.Auditor))

	authed := api.Group("", RequireAuth(d.Auth))
	authed.GET("/auth/me", RequireRole(anyRole...), MeHandler(d.DB))

	// ==================== USERS ====================
	authed.GET("/users", RequireRole(adminOnly...), GetUsers(d.DB))
	authed.POST("/users", RequireRole(adminOnly...), CreateUser(d.DB, d.Auth, d.Auditor))

	// ==================== TURBINES ====================
	authed.GET("/turbines", RequireRole(anyRole...), GetTurbines(d.DB))
	authed.GET("/turbines/:id", RequireRole(anyRole...), GetTurbine(d.DB))
	authed.GET("/turbines/:id/qrcode", RequireRole(anyRole...), GetTurbineQRCode(d.DB))
	authed.POST("/turbines", RequireRole(editors...), CreateTurbine(d.DB, d.Auditor))
	authed.PUT("/turbines/:id", RequireRole(editors...), UpdateTurbine(d.DB, d.Auditor))
	authed.DELETE("/turbines/:id", RequireRole(adminOnly...), DeleteTurbine(d.DB, d.Auditor))

	// ==================== INSPECTIONS ====================
	authed.GET("/inspections", RequireRole(anyRole...), GetInspections(d.DB))
	authed.GET("/inspections/export.xlsx", RequireRole(anyRole...), ExportInspections(d.DB))
	authed.GET("/inspections/:id", RequireRole(anyRole...), GetInspection(d.DB))
	authed.POST("/inspections", RequireRole(editors...), CreateInspection(d.DB, d.Auditor))
	authed.PUT("/inspections/:id", RequireRole(editors...), UpdateInspection(d.DB, d.Auditor))
	authed.DELETE("/inspections/:id", RequireRole(adminOnly...), DeleteInspection(d.DB, d.Auditor))
	authed.POST("/inspections/:id/package", RequireRole(editors...), UploadInspectionPackage(d.DB, d.Objects, d.Auditor))
	authed.GET("/inspections/:id/package", RequireRole(anyRole...), DownloadInspectionPackage(d.DB, d.Objects))

	// ==================== REPAIR PLANS ====================
	authed.POST("/inspections/:id/repair-plan", RequireRole(editors...), GenerateRepairPlan(d.Planner))
	authed.GET("/inspections/:id/repair-plan", RequireRole(anyRole...), GetRepairPlan(d.DB))
	authed.GET("/inspections/:id/repair-plan.pdf", RequireRole(anyRole...), GetRepairPlanPDF(d.DB))

	// ==================== FINDINGS ====================
	authed.GET("/findings", RequireRole(anyRole...), GetFindings(d.DB))
	authed.POST("/findings", RequireRole(editors...), CreateFinding(d.DB, d.Auditor))
	authed.PUT("/findings/:id", RequireRole(editors...), UpdateFinding(d.DB, d.Auditor))
	authed.DELETE("/findings/:id", RequireRole(adminOnly...), DeleteFinding(d.DB, d.Auditor))

	// ==================== AUDIT ====================
	authed.GET("/audit-logs", RequireRole(adminOnly...), GetAuditLogsHandler(d.Auditor))

	// ==================== GRAPHQL ====================
	r.POST("/graphql", RequireAuth(d.Auth), RequireRole(anyRole...), graph.Handler(d.Schema))

	return r
}
