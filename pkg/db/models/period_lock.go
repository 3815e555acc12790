package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PeriodLock holds one row per channel. Once LockEndDate is set, no journal
// entry or movement with an effective date on or before it may be created.
type PeriodLock struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ChannelID   uuid.UUID  `gorm:"column:channel_id;type:uuid;not null;uniqueIndex:ux_period_locks_channel"`
	LockEndDate *time.Time `gorm:"column:lock_end_date"`
	LockedBy    *uuid.UUID `gorm:"column:locked_by;type:uuid"`
	LockedAt    *time.Time `gorm:"column:locked_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PeriodLock) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
