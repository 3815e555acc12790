package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
)

// LedgerAccount is one chart-of-accounts node, unique by (channel, code).
// Accounts are deactivated rather than deleted once journal lines reference them.
type LedgerAccount struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ChannelID uuid.UUID         `gorm:"column:channel_id;type:uuid;not null;uniqueIndex:ux_accounts_channel_code,priority:1"`
	Code      string            `gorm:"column:code;not null;uniqueIndex:ux_accounts_channel_code,priority:2"`
	Name      string            `gorm:"column:name;not null"`
	Type      enums.AccountType `gorm:"column:type;type:account_type_enum;not null"`
	IsActive  bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *LedgerAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
