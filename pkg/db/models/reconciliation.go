package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
)

// Reconciliation is a review record comparing declared money against ledger
// balances for a scope and date range. It moves draft -> reviewed -> approved
// by explicit user action only.
type Reconciliation struct {
	ID        uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	ChannelID uuid.UUID                  `gorm:"column:channel_id;type:uuid;not null;index"`
	Scope     enums.ReconciliationScope  `gorm:"column:scope;type:reconciliation_scope_enum;not null"`
	Status    enums.ReconciliationStatus `gorm:"column:status;type:reconciliation_status_enum;not null;default:'draft'"`

	RangeStart time.Time  `gorm:"column:range_start;not null"`
	RangeEnd   time.Time  `gorm:"column:range_end;not null"`
	SessionID  *uuid.UUID `gorm:"column:session_id;type:uuid"`
	// AccountCodes limits account-scoped reconciliations to specific
	// chart-of-accounts codes.
	AccountCodes pq.StringArray `gorm:"column:account_codes;type:text[]"`

	// Amounts are minor currency units.
	DeclaredAmount int64 `gorm:"column:declared_amount;not null"`
	LedgerAmount   int64 `gorm:"column:ledger_amount;not null"`
	Variance       int64 `gorm:"column:variance;not null"`

	ExternalRef string     `gorm:"column:external_ref"`
	ReviewedBy  *uuid.UUID `gorm:"column:reviewed_by;type:uuid"`
	ApprovedBy  *uuid.UUID `gorm:"column:approved_by;type:uuid"`
	CreatedBy   uuid.UUID  `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Reconciliation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
