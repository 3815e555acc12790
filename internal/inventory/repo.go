package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/pagination"
)

// Repository defines persistence operations for batches and movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, batch *models.InventoryBatch) (*models.InventoryBatch, error)
	FindBatch(ctx context.Context, id uuid.UUID) (*models.InventoryBatch, error)
	FindBatchBySource(ctx context.Context, channelID uuid.UUID, sourceType, sourceID string) (*models.InventoryBatch, error)
	FindBatchForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryBatch, error)
	UpdateBatchQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error
	ListOpenBatches(ctx context.Context, filters BatchFilters, params pagination.Params) (*BatchList, error)
	OpenBatchesForUpdate(ctx context.Context, filters BatchFilters) ([]models.InventoryBatch, error)
	ValuationSnapshot(ctx context.Context, filters BatchFilters) (*ValuationSnapshot, error)
	CreateMovement(ctx context.Context, movement *models.InventoryMovement) (*models.InventoryMovement, error)
	FindMovementBySource(ctx context.Context, channelID uuid.UUID, sourceType, sourceID string) (*models.InventoryMovement, error)
	ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) (*MovementList, error)
	SumMovements(ctx context.Context, channelID, locationID, variantID uuid.UUID) (decimal.Decimal, error)
	SumBatchQuantities(ctx context.Context, channelID, locationID, variantID uuid.UUID) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBatch(ctx context.Context, batch *models.InventoryBatch) (*models.InventoryBatch, error) {
	if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *repository) FindBatch(ctx context.Context, id uuid.UUID) (*models.InventoryBatch, error) {
	var batch models.InventoryBatch
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *repository) FindBatchBySource(ctx context.Context, channelID uuid.UUID, sourceType, sourceID string) (*models.InventoryBatch, error) {
	var batch models.InventoryBatch
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND source_type = ? AND source_id = ?", channelID, sourceType, sourceID).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// FindBatchForUpdate takes a row-level write lock so concurrent decrements of
// the same batch serialize. sqlite serializes writers on its own, so the
// locking clause applies on postgres only.
func (r *repository) FindBatchForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryBatch, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var batch models.InventoryBatch
	if err := query.Where("id = ?", id).First(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *repository) UpdateBatchQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.InventoryBatch{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

func applyBatchFilters(query *gorm.DB, filters BatchFilters) *gorm.DB {
	query = query.Where("channel_id = ?", filters.ChannelID)
	if filters.LocationID != nil {
		query = query.Where("location_id = ?", *filters.LocationID)
	}
	if filters.VariantID != nil {
		query = query.Where("variant_id = ?", *filters.VariantID)
	}
	return query
}

func (r *repository) ListOpenBatches(ctx context.Context, filters BatchFilters, params pagination.Params) (*BatchList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := applyBatchFilters(r.db.WithContext(ctx).Model(&models.InventoryBatch{}), filters).
		Where("quantity > 0")
	if cursor != nil {
		query = query.Where(
			"(created_at > ? OR (created_at = ? AND id > ?))",
			cursor.Timestamp, cursor.Timestamp, cursor.ID,
		)
	}

	var rows []models.InventoryBatch
	err = query.
		Order("created_at ASC").
		Order("id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &BatchList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			Timestamp: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Batches = rows
	return list, nil
}

// OpenBatchesForUpdate returns all open batches for the filters, oldest first,
// each locked for update on postgres. Used by the consume path.
func (r *repository) OpenBatchesForUpdate(ctx context.Context, filters BatchFilters) ([]models.InventoryBatch, error) {
	query := applyBatchFilters(r.db.WithContext(ctx).Model(&models.InventoryBatch{}), filters).
		Where("quantity > 0")
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []models.InventoryBatch
	err := query.
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type valuationRow struct {
	TotalQuantity decimal.Decimal
	TotalValue    decimal.Decimal
	BatchCount    int64
}

func (r *repository) ValuationSnapshot(ctx context.Context, filters BatchFilters) (*ValuationSnapshot, error) {
	var row valuationRow
	err := applyBatchFilters(r.db.WithContext(ctx).Model(&models.InventoryBatch{}), filters).
		Where("quantity > 0").
		Select(
			"COALESCE(SUM(quantity), 0) AS total_quantity, " +
				"COALESCE(SUM(quantity * unit_cost), 0) AS total_value, " +
				"COUNT(*) AS batch_count",
		).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &ValuationSnapshot{
		TotalQuantity: row.TotalQuantity,
		TotalValue:    row.TotalValue.Round(0).IntPart(),
		BatchCount:    row.BatchCount,
	}, nil
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.InventoryMovement) (*models.InventoryMovement, error) {
	if err := r.db.WithContext(ctx).Create(movement).Error; err != nil {
		return nil, err
	}
	return movement, nil
}

func (r *repository) FindMovementBySource(ctx context.Context, channelID uuid.UUID, sourceType, sourceID string) (*models.InventoryMovement, error) {
	var movement models.InventoryMovement
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND source_type = ? AND source_id = ?", channelID, sourceType, sourceID).
		First(&movement).Error
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *repository) ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) (*MovementList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.InventoryMovement{}).
		Where("channel_id = ?", filters.ChannelID)
	if filters.LocationID != nil {
		query = query.Where("location_id = ?", *filters.LocationID)
	}
	if filters.VariantID != nil {
		query = query.Where("variant_id = ?", *filters.VariantID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if cursor != nil {
		query = query.Where(
			"(occurred_at < ? OR (occurred_at = ? AND id < ?))",
			cursor.Timestamp, cursor.Timestamp, cursor.ID,
		)
	}

	var rows []models.InventoryMovement
	err = query.
		Order("occurred_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &MovementList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			Timestamp: last.OccurredAt,
			ID:        last.ID,
		})
	}
	list.Movements = rows
	return list, nil
}

func (r *repository) SumMovements(ctx context.Context, channelID, locationID, variantID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.InventoryMovement{}).
		Where("channel_id = ? AND location_id = ? AND variant_id = ?", channelID, locationID, variantID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *repository) SumBatchQuantities(ctx context.Context, channelID, locationID, variantID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.InventoryBatch{}).
		Where("channel_id = ? AND location_id = ? AND variant_id = ?", channelID, locationID, variantID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
