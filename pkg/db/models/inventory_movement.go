package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	"github.com/waithaka-labs/dukapos-backend/pkg/types"
)

// InventoryMovement is one append-only audit row per quantity change. The
// (channel_id, source_type, source_id) triple is the idempotency key: retrying
// the same source event is a no-op that returns the prior row.
type InventoryMovement struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ChannelID  uuid.UUID          `gorm:"column:channel_id;type:uuid;not null;uniqueIndex:ux_movements_source,priority:1"`
	LocationID uuid.UUID          `gorm:"column:location_id;type:uuid;not null"`
	VariantID  uuid.UUID          `gorm:"column:variant_id;type:uuid;not null"`
	Type       enums.MovementType `gorm:"column:type;type:movement_type_enum;not null"`
	// Quantity is signed: positive for stock in, negative for stock out.
	Quantity   decimal.Decimal `gorm:"column:quantity;type:decimal(20,6);not null"`
	BatchID    *uuid.UUID      `gorm:"column:batch_id;type:uuid"`
	SourceType string          `gorm:"column:source_type;not null;uniqueIndex:ux_movements_source,priority:2"`
	SourceID   string          `gorm:"column:source_id;not null;uniqueIndex:ux_movements_source,priority:3"`
	OccurredAt time.Time       `gorm:"column:occurred_at;not null"`
	Metadata   types.Metadata  `gorm:"column:metadata"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (m *InventoryMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// The movement ledger is append-only.

func (m *InventoryMovement) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("immutable ledger: inventory_movements cannot be updated")
}

func (m *InventoryMovement) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: inventory_movements cannot be deleted")
}
