package storage

import (
	"context"
	"time"

	"turbineops/models"

	"gorm.io/gorm"
)

// AuditQuery selects a page of audit records. Page is 1-based.
type AuditQuery struct {
	Kind  models.AuditKind
	Page  int
	Limit int
}

func (q AuditQuery) offset() int {
	return (q.Page - 1) * q.Limit
}

// AuditStore is an append-only log of audit records.
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, q AuditQuery) ([]models.AuditLog, int64, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// GormAuditStore keeps the audit log in the relational audit_logs table.
type GormAuditStore struct {
	db *gorm.DB
}

func NewGormAuditStore(db *gorm.DB) *GormAuditStore {
	return &GormAuditStore{db: db}
}

func (s *GormAuditStore) Append(ctx context.Context, entry *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormAuditStore) List(ctx context.Context, q AuditQuery) ([]models.AuditLog, int64, error) {
	scoped := func() *gorm.DB {
		tx := s.db.WithContext(ctx).Model(&models.AuditLog{})
		if q.Kind != "" {
			tx = tx.Where("kind = ?", q.Kind)
		}
		return tx
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	logs := []models.AuditLog{}
	err := scoped().Order("at DESC").Limit(q.Limit).Offset(q.offset()).Find(&logs).Error
	return logs, total, err
}

func (s *GormAuditStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("at < ?", before).Delete(&models.AuditLog{})
	return res.RowsAffected, res.Error
}

func (s *GormAuditStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
