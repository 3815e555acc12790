package cashier

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	"github.com/waithaka-labs/dukapos-backend/pkg/pagination"
)

// Repository defines persistence operations for sessions and money events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSession(ctx context.Context, session *models.CashierSession) (*models.CashierSession, error)
	FindSession(ctx context.Context, id uuid.UUID) (*models.CashierSession, error)
	FindSessionForUpdate(ctx context.Context, id uuid.UUID) (*models.CashierSession, error)
	FindOpenSession(ctx context.Context, channelID, cashierID uuid.UUID) (*models.CashierSession, error)
	UpdateSession(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	ListSessions(ctx context.Context, channelID uuid.UUID, status *enums.CashierSessionStatus, params pagination.Params) (*SessionList, error)
	CreateEvent(ctx context.Context, event *models.MoneyEvent) (*models.MoneyEvent, error)
	FindEventBySource(ctx context.Context, channelID uuid.UUID, sourceType, sourceID string) (*models.MoneyEvent, error)
	ListSessionEvents(ctx context.Context, sessionID uuid.UUID) ([]models.MoneyEvent, error)
	SumSessionEvents(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cashier repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSession(ctx context.Context, session *models.CashierSession) (*models.CashierSession, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *repository) FindSession(ctx context.Context, id uuid.UUID) (*models.CashierSession, error) {
	var session models.CashierSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindSessionForUpdate locks the session row so close and event writes against
// the same session serialize. sqlite serializes writers on its own, so the
// locking clause applies on postgres only.
func (r *repository) FindSessionForUpdate(ctx context.Context, id uuid.UUID) (*models.CashierSession, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var session models.CashierSession
	if err := query.Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindOpenSession(ctx context.Context, channelID, cashierID uuid.UUID) (*models.CashierSession, error) {
	var session models.CashierSession
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND cashier_id = ? AND status = ?", channelID, cashierID, enums.CashierSessionStatusOpen).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) UpdateSession(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.CashierSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListSessions(ctx context.Context, channelID uuid.UUID, status *enums.CashierSessionStatus, params pagination.Params) (*SessionList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.CashierSession{}).
		Where("channel_id = ?", channelID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if cursor != nil {
		query = query.Where(
			"(opened_at < ? OR (opened_at = ? AND id < ?))",
			cursor.Timestamp, cursor.Timestamp, cursor.ID,
		)
	}

	var rows []models.CashierSession
	err = query.
		Order("opened_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &SessionList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			Timestamp: last.OpenedAt,
			ID:        last.ID,
		})
	}
	list.Sessions = rows
	return list, nil
}

func (r *repository) CreateEvent(ctx context.Context, event *models.MoneyEvent) (*models.MoneyEvent, error) {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (r *repository) FindEventBySource(ctx context.Context, channelID uuid.UUID, sourceType, sourceID string) (*models.MoneyEvent, error) {
	var event models.MoneyEvent
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND source_type = ? AND source_id = ?", channelID, sourceType, sourceID).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) ListSessionEvents(ctx context.Context, sessionID uuid.UUID) ([]models.MoneyEvent, error) {
	var rows []models.MoneyEvent
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("event_date ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SumSessionEvents(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.MoneyEvent{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
