package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/waithaka-labs/dukapos-backend/pkg/types"
)

// InventoryBatch is an immutable cost lot of stock. The unit cost is fixed at
// creation; only the remaining quantity changes as stock is drawn down. Rows
// are never deleted: a fully consumed batch stays behind with quantity zero.
type InventoryBatch struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ChannelID  uuid.UUID       `gorm:"column:channel_id;type:uuid;not null;uniqueIndex:ux_batches_source,priority:1"`
	LocationID uuid.UUID       `gorm:"column:location_id;type:uuid;not null"`
	VariantID  uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:decimal(20,6);not null"`
	// UnitCost is in minor currency units.
	UnitCost   int64          `gorm:"column:unit_cost;not null"`
	ExpiryDate *time.Time     `gorm:"column:expiry_date"`
	SourceType string         `gorm:"column:source_type;not null;uniqueIndex:ux_batches_source,priority:2"`
	SourceID   string         `gorm:"column:source_id;not null;uniqueIndex:ux_batches_source,priority:3"`
	Metadata   types.Metadata `gorm:"column:metadata"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *InventoryBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
