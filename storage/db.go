package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"turbineops/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetUserByEmail looks a user up by e-mail, case-insensitively.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func GetUserByID(ctx context.Context, db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "User", id)
	}
	return &user, nil
}

func ListUsers(ctx context.Context, db *gorm.DB) ([]models.User, error) {
	var users []models.User
	err := db.WithContext(ctx).Order("email ASC").Find(&users).Error
	return users, err
}

// CreateUser inserts user. A duplicate e-mail yields ErrConflict.
func CreateUser(ctx context.Context, db *gorm.DB, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("user %s already exists: %w", user.Email, ErrConflict)
	}
	return err
}

// UpsertUserByEmail creates the user or refreshes name, role and hash of an existing one.
func UpsertUserByEmail(ctx context.Context, db *gorm.DB, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "role", "password_hash", "updated_at"}),
	}).Create(user).Error
}
