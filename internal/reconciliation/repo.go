package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/pagination"
)

// Repository defines persistence operations for reconciliation records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rec *models.Reconciliation) (*models.Reconciliation, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Reconciliation, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Reconciliation, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*List, error)
	SumMoneyEvents(ctx context.Context, channelID uuid.UUID, from, to time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reconciliation repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, rec *models.Reconciliation) (*models.Reconciliation, error) {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Reconciliation, error) {
	var rec models.Reconciliation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindForUpdate locks the record so concurrent transitions serialize. sqlite
// serializes writers on its own, so the locking clause applies on postgres only.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Reconciliation, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rec models.Reconciliation
	if err := query.Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Reconciliation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) (*List, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Reconciliation{}).
		Where("channel_id = ?", filters.ChannelID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Scope != nil {
		query = query.Where("scope = ?", *filters.Scope)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			cursor.Timestamp, cursor.Timestamp, cursor.ID,
		)
	}

	var rows []models.Reconciliation
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &List{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			Timestamp: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Reconciliations = rows
	return list, nil
}

// SumMoneyEvents totals signed money events with event_date in [from, to).
func (r *repository) SumMoneyEvents(ctx context.Context, channelID uuid.UUID, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.MoneyEvent{}).
		Where("channel_id = ? AND event_date >= ? AND event_date < ?", channelID, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
