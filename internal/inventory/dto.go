package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	"github.com/waithaka-labs/dukapos-backend/pkg/types"
)

// CreateBatchInput captures a new cost lot entering stock.
type CreateBatchInput struct {
	ChannelID  uuid.UUID
	LocationID uuid.UUID
	VariantID  uuid.UUID
	Quantity   decimal.Decimal
	UnitCost   int64
	ExpiryDate *time.Time
	SourceType string
	SourceID   string
	Metadata   types.Metadata
}

// RecordMovementInput captures one signed quantity change for the ledger.
type RecordMovementInput struct {
	ChannelID  uuid.UUID
	LocationID uuid.UUID
	VariantID  uuid.UUID
	Type       enums.MovementType
	Quantity   decimal.Decimal
	BatchID    *uuid.UUID
	SourceType string
	SourceID   string
	OccurredAt time.Time
	Metadata   types.Metadata
}

// AdjustBatchInput moves a single batch's quantity by a signed delta.
type AdjustBatchInput struct {
	BatchID uuid.UUID
	Delta   decimal.Decimal
}

// BatchFilters narrow open-batch and valuation queries.
type BatchFilters struct {
	ChannelID  uuid.UUID
	LocationID *uuid.UUID
	VariantID  *uuid.UUID
}

// BatchList wraps the paginated open batches plus the next page cursor.
type BatchList struct {
	Batches    []models.InventoryBatch `json:"batches"`
	NextCursor string                  `json:"next_cursor,omitempty"`
}

// MovementFilters narrow movement-history queries.
type MovementFilters struct {
	ChannelID  uuid.UUID
	LocationID *uuid.UUID
	VariantID  *uuid.UUID
	Type       *enums.MovementType
}

// MovementList wraps the paginated movements plus the next page cursor.
type MovementList struct {
	Movements  []models.InventoryMovement `json:"movements"`
	NextCursor string                     `json:"next_cursor,omitempty"`
}

// ValuationSnapshot is the lock-free aggregate over open batches.
type ValuationSnapshot struct {
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	// TotalValue is in minor currency units.
	TotalValue int64     `json:"total_value"`
	BatchCount int64     `json:"batch_count"`
	ComputedAt time.Time `json:"computed_at"`
}

// StockLevel reports on-hand quantity for a (channel, location, variant) tuple.
type StockLevel struct {
	ChannelID  uuid.UUID       `json:"channel_id"`
	LocationID uuid.UUID       `json:"location_id"`
	VariantID  uuid.UUID       `json:"variant_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Sufficient bool            `json:"sufficient"`
}

// ReceiveStockInput creates a batch plus its positive movement in one unit of work.
type ReceiveStockInput struct {
	ChannelID  uuid.UUID
	LocationID uuid.UUID
	VariantID  uuid.UUID
	Quantity   decimal.Decimal
	UnitCost   int64
	ExpiryDate *time.Time
	Type       enums.MovementType
	SourceType string
	SourceID   string
	OccurredAt time.Time
	Metadata   types.Metadata
	Actor      ActorInput
}

// ConsumeStockInput draws stock down across open batches oldest-first.
type ConsumeStockInput struct {
	ChannelID  uuid.UUID
	LocationID uuid.UUID
	VariantID  uuid.UUID
	Quantity   decimal.Decimal
	Type       enums.MovementType
	SourceType string
	SourceID   string
	OccurredAt time.Time
	Metadata   types.Metadata
	Actor      ActorInput
}

// ActorInput identifies the user behind a composite operation for event audit.
type ActorInput struct {
	UserID uuid.UUID
	Role   string
}

// BatchDrawdown records how much a consumption took from one batch.
type BatchDrawdown struct {
	BatchID  uuid.UUID       `json:"batch_id"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost int64           `json:"unit_cost"`
}

// ReceiveStockResult returns the batch and movement written by ReceiveStock.
type ReceiveStockResult struct {
	Batch    *models.InventoryBatch    `json:"batch"`
	Movement *models.InventoryMovement `json:"movement"`
	Replayed bool                      `json:"replayed"`
}

// ConsumeStockResult returns the movement plus the per-batch drawdowns.
type ConsumeStockResult struct {
	Movement  *models.InventoryMovement `json:"movement"`
	Drawdowns []BatchDrawdown           `json:"drawdowns"`
	Replayed  bool                      `json:"replayed"`
}

// StockReceivedEvent is emitted after a batch is created by ReceiveStock.
type StockReceivedEvent struct {
	BatchID    uuid.UUID       `json:"batch_id"`
	MovementID uuid.UUID       `json:"movement_id"`
	ChannelID  uuid.UUID       `json:"channel_id"`
	LocationID uuid.UUID       `json:"location_id"`
	VariantID  uuid.UUID       `json:"variant_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   int64           `json:"unit_cost"`
	SourceType string          `json:"source_type"`
	SourceID   string          `json:"source_id"`
}

// StockConsumedEvent is emitted after ConsumeStock draws down batches.
type StockConsumedEvent struct {
	MovementID uuid.UUID       `json:"movement_id"`
	ChannelID  uuid.UUID       `json:"channel_id"`
	LocationID uuid.UUID       `json:"location_id"`
	VariantID  uuid.UUID       `json:"variant_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Drawdowns  []BatchDrawdown `json:"drawdowns"`
	SourceType string          `json:"source_type"`
	SourceID   string          `json:"source_id"`
}
