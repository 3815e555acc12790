package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
)

// MoneyEvent records a cash-affecting event (a cash sale, an M-Pesa
// settlement, a payout). Idempotent by (channel, source_type, source_id),
// like journal entries, and append-only.
type MoneyEvent struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ChannelID uuid.UUID            `gorm:"column:channel_id;type:uuid;not null;uniqueIndex:ux_money_events_source,priority:1"`
	EventDate time.Time            `gorm:"column:event_date;not null"`
	Type      enums.MoneyEventType `gorm:"column:type;type:money_event_type_enum;not null"`
	// Amount is signed, minor currency units: positive into the drawer, negative out.
	Amount           int64      `gorm:"column:amount;not null"`
	PaymentMethod    string     `gorm:"column:payment_method;not null"`
	SessionID        *uuid.UUID `gorm:"column:session_id;type:uuid;index"`
	SourceType       string     `gorm:"column:source_type;not null;uniqueIndex:ux_money_events_source,priority:2"`
	SourceID         string     `gorm:"column:source_id;not null;uniqueIndex:ux_money_events_source,priority:3"`
	Memo             string     `gorm:"column:memo"`
	PostedBy         uuid.UUID  `gorm:"column:posted_by;type:uuid;not null"`
	ReversalOf       *uuid.UUID `gorm:"column:reversal_of;type:uuid"`
	ReconciliationID *uuid.UUID `gorm:"column:reconciliation_id;type:uuid"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (e *MoneyEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *MoneyEvent) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: money_events cannot be deleted")
}
