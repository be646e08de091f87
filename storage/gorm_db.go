package storage

import (
	"errors"
	"fmt"
	"time"

	"turbineops/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break a uniqueness or dependency rule.
	ErrConflict = errors.New("conflict")
)

// GormConfig is shared by the server and the tests so both see UTC timestamps
// and translated duplicate-key errors.
func GormConfig(log logger.Interface) *gorm.Config {
	if log == nil {
		log = logger.Default.LogMode(logger.Warn)
	}
	return &gorm.Config{
		Logger:                                   log,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// InitGormDB opens the PostgreSQL pool.
func InitGormDB(dsn string, log logger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), GormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// IsPostgres reports whether db talks to PostgreSQL.
func IsPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

func notFound(err error, what string, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s with id %s not found: %w", what, id, ErrNotFound)
	}
	return err
}
