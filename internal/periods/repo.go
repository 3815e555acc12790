package periods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
)

// Repository defines persistence operations for period locks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByChannel(ctx context.Context, channelID uuid.UUID) (*models.PeriodLock, error)
	Create(ctx context.Context, lock *models.PeriodLock) (*models.PeriodLock, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a period lock repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByChannel(ctx context.Context, channelID uuid.UUID) (*models.PeriodLock, error) {
	var lock models.PeriodLock
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		First(&lock).Error
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *repository) Create(ctx context.Context, lock *models.PeriodLock) (*models.PeriodLock, error) {
	if err := r.db.WithContext(ctx).Create(lock).Error; err != nil {
		return nil, err
	}
	return lock, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PeriodLock{}).
		Where("id = ?", id).
		Updates(updates).Error
}
