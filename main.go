// @title           TurbineOps API
// @version         1.0
// @description     Wind-turbine fleet inspections, findings and repair plans.

// @contact.name   API Support

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https

//go:generate swag init --parseDependency --output docs

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"turbineops/config"
	_ "turbineops/docs"
	"turbineops/graph"
	"turbineops/handlers"
	"turbineops/seed"
	"turbineops/services"
	"turbineops/storage"
	"turbineops/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "turbineops",
		Short:         "Wind-turbine fleet inspection and repair-plan service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newSeedCmd())
	return root
}

// bootstrap loads configuration and opens the database.
func bootstrap() (*config.Config, zerolog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	log := utils.NewLogger(cfg.LogLevel, os.Stdout)
	utils.SetQueryTimeouts(cfg.QueryTimeout, cfg.JobTimeout)

	gormLog := logger.Default.LogMode(logger.Warn)
	if cfg.IsDevelopment() {
		gormLog = logger.Default.LogMode(logger.Info)
	}
	db, err := storage.InitGormDB(cfg.DatabaseURL, gormLog)
	if err != nil {
		return nil, log, nil, err
	}
	log.Info().Msg("connected to database")
	return cfg, log, db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := storage.AutoMigrate(db); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo users, turbines, inspections and findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := storage.AutoMigrate(db); err != nil {
				return err
			}
			return seed.Run(cmd.Context(), db, cfg.BcryptRounds, log)
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := cfg.RequireSecret(); err != nil {
				return err
			}
			if err := storage.AutoMigrate(db); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log, db)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger, db *gorm.DB) error {
	// ------------------ AUDIT ------------------
	var auditStore storage.AuditStore = storage.NewGormAuditStore(db)
	if cfg.MongoURL != "" {
		mongoStore, err := storage.NewMongoAuditStore(ctx, cfg.MongoURL, cfg.MongoDB)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoStore.Close(closeCtx)
		}()
		auditStore = mongoStore
		log.Info().Str("database", cfg.MongoDB).Msg("audit log stored in MongoDB")
	}
	auditor := services.NewAuditor(auditStore, log)

	// ------------------ OPTIONAL BACKENDS ------------------
	var limiter storage.LoginLimiter
	if cfg.RedisURL != "" {
		redisLimiter, err := storage.NewRedisLoginLimiter(ctx, cfg.RedisURL, storage.DefaultMaxLoginFailures, storage.DefaultLoginWindow)
		if err != nil {
			return err
		}
		defer redisLimiter.Close()
		limiter = redisLimiter
	}

	var objects storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		minioStore, err := storage.NewMinioObjectStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return err
		}
		objects = minioStore
	}

	// ------------------ PLAN EVENTS ------------------
	hub := services.NewHub()
	defer hub.Close()

	usePGNotify := cfg.PGNotify && storage.IsPostgres(db)
	notifiers := services.MultiNotifier{}
	if usePGNotify {
		notifiers = append(notifiers, services.NewPGNotifier(db))
	} else {
		notifiers = append(notifiers, services.NewHubNotifier(hub))
	}
	if cfg.NATSURL != "" {
		publisher, err := services.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, log)
		if err != nil {
			return err
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
	}

	planner := services.NewPlanner(db, notifiers, auditor, log)
	schema, err := graph.NewSchema(db, planner)
	if err != nil {
		return fmt.Errorf("build graphql schema: %w", err)
	}

	// ------------------ CRON ------------------
	scheduler := services.NewScheduler(log)
	if err := scheduler.Add(cfg.PlanRefreshCron, "RefreshStalePlans", func(ctx context.Context) error {
		n, err := services.RefreshStalePlans(ctx, db, planner, log)
		if n > 0 {
			log.Info().Int("plans", n).Msg("stale plans regenerated")
		}
		return err
	}); err != nil {
		return fmt.Errorf("schedule plan refresh: %w", err)
	}
	if err := scheduler.Add("@daily", "PurgeAuditLogs", func(ctx context.Context) error {
		n, err := services.PurgeAuditLogs(ctx, auditor, cfg.AuditRetentionDays)
		if n > 0 {
			log.Info().Int64("records", n).Msg("old audit records purged")
		}
		return err
	}); err != nil {
		return fmt.Errorf("schedule audit purge: %w", err)
	}

	// ------------------ HTTP ------------------
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.SetupRouter(handlers.Deps{
		DB:          db,
		Auth:        utils.NewAuthService(cfg.JWTSecret, cfg.JWTExpiresIn, cfg.BcryptRounds),
		Auditor:     auditor,
		Planner:     planner,
		Hub:         hub,
		Schema:      schema,
		Limiter:     limiter,
		Objects:     objects,
		Log:         log,
		DevMode:     cfg.IsDevelopment(),
		CORSOrigins: cfg.CORSOrigins,
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if usePGNotify {
		g.Go(func() error {
			return services.RelayPlans(gctx, cfg.DatabaseURL, hub, log)
		})
	}

	scheduler.Start()

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// SSE streams only end once their subscriptions are closed
		hub.Close()
		jobsDone := scheduler.Stop()
		err := srv.Shutdown(shutdownCtx)
		select {
		case <-jobsDone.Done():
		case <-shutdownCtx.Done():
			log.Warn().Msg("background jobs still running at shutdown")
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server exited")
	return nil
}
