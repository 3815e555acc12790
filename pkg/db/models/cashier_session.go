package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
)

// CashierSession is one cash-drawer shift. At most one open session per
// cashier per channel at a time; the rule lives in the service, not the schema.
type CashierSession struct {
	ID        uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	ChannelID uuid.UUID                  `gorm:"column:channel_id;type:uuid;not null;index"`
	CashierID uuid.UUID                  `gorm:"column:cashier_id;type:uuid;not null;index"`
	Status    enums.CashierSessionStatus `gorm:"column:status;type:cashier_session_status_enum;not null;default:'open'"`
	OpenedAt  time.Time                  `gorm:"column:opened_at;not null"`
	ClosedAt  *time.Time                 `gorm:"column:closed_at"`
	// Amounts are minor currency units.
	OpeningFloat    int64  `gorm:"column:opening_float;not null"`
	ClosingDeclared *int64 `gorm:"column:closing_declared"`
	ExpectedAmount  *int64 `gorm:"column:expected_amount"`
	// Variance = declared - (opening float + sum of session money events).
	// Nonzero is not an error; it is surfaced for reconciliation review.
	Variance  *int64    `gorm:"column:variance"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *CashierSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
