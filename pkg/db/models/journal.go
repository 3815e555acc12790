package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	"github.com/waithaka-labs/dukapos-backend/pkg/types"
)

// JournalEntry is a balanced double-entry transaction. Entries and their lines
// are written together in one transaction and never mutated afterward;
// corrections post a new reversing entry that references the original.
type JournalEntry struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ChannelID uuid.UUID `gorm:"column:channel_id;type:uuid;not null;uniqueIndex:ux_journal_entries_source,priority:1"`
	EntryDate time.Time `gorm:"column:entry_date;not null"`
	PostedAt  time.Time `gorm:"column:posted_at;not null"`

	SourceType string `gorm:"column:source_type;not null;uniqueIndex:ux_journal_entries_source,priority:2"`
	SourceID   string `gorm:"column:source_id;not null;uniqueIndex:ux_journal_entries_source,priority:3"`

	Status     enums.JournalEntryStatus `gorm:"column:status;type:journal_entry_status_enum;not null;default:'posted'"`
	ReversalOf *uuid.UUID               `gorm:"column:reversal_of;type:uuid"`
	Memo       string                   `gorm:"column:memo"`

	Lines []JournalLine `gorm:"foreignKey:EntryID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// JournalLine is one account's debit or credit within an entry. Amounts are
// minor currency units; exactly one of debit/credit is nonzero in normal use.
type JournalLine struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	EntryID   uuid.UUID      `gorm:"column:entry_id;type:uuid;not null;index"`
	ChannelID uuid.UUID      `gorm:"column:channel_id;type:uuid;not null"`
	AccountID uuid.UUID      `gorm:"column:account_id;type:uuid;not null;index"`
	Debit     int64          `gorm:"column:debit;not null;default:0"`
	Credit    int64          `gorm:"column:credit;not null;default:0"`
	Meta      types.Metadata `gorm:"column:meta"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (e *JournalEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (l *JournalLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Ledger immutability guardrails:
// - journal_lines are append-only (no updates/deletes).
// - journal_entries are never deleted; the only permitted update is flipping
//   status and reversal linkage when a reversing entry is posted.

func (l *JournalLine) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("immutable ledger: journal_lines cannot be updated")
}

func (l *JournalLine) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: journal_lines cannot be deleted")
}

func (e *JournalEntry) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: journal_entries cannot be deleted")
}

func (e *JournalEntry) BeforeUpdate(tx *gorm.DB) error {
	allowed := map[string]bool{
		"Status":    true,
		"UpdatedAt": true,
	}
	if tx == nil || tx.Statement == nil || tx.Statement.Schema == nil {
		return nil
	}
	for _, f := range tx.Statement.Schema.Fields {
		if tx.Statement.Changed(f.Name) && !allowed[f.Name] {
			return errors.New("immutable ledger: only status may be updated on journal_entries")
		}
	}
	return nil
}
