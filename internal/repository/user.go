package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/hospital/services/scheduling/internal/domain"
)

// GormUserDirectory implements UserDirectory on gorm.
type GormUserDirectory struct {
	db *gorm.DB
}

// NewGormUserDirectory creates a user directory.
func NewGormUserDirectory(db *gorm.DB) *GormUserDirectory {
	return &GormUserDirectory{db: db}
}

// Save inserts or updates the user and returns the stored value.
func (r *GormUserDirectory) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	model := newUserModel(user)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return nil, errors.Wrap(err, "failed to save user")
	}
	return model.toDomain(), nil
}

// FindByID returns the user or a domain NotFoundError.
func (r *GormUserDirectory) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User not found")
		}
		return nil, errors.Wrap(err, "failed to load user")
	}
	return model.toDomain(), nil
}

// FindByEmail returns the user with the given email.
func (r *GormUserDirectory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User not found")
		}
		return nil, errors.Wrap(err, "failed to load user by email")
	}
	return model.toDomain(), nil
}

// FindActive returns all active users.
func (r *GormUserDirectory) FindActive(ctx context.Context) ([]domain.User, error) {
	var models []UserModel
	if err := r.db.WithContext(ctx).Where("active = ?", true).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list active users")
	}
	users := make([]domain.User, 0, len(models))
	for i := range models {
		users = append(users, *models[i].toDomain())
	}
	return users, nil
}

// ExistsByEmail reports whether a user with the email already exists.
func (r *GormUserDirectory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check email")
	}
	return count > 0, nil
}
