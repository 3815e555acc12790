package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	"github.com/waithaka-labs/dukapos-backend/pkg/types"
)

// CreateAccountInput registers a chart-of-accounts node.
type CreateAccountInput struct {
	ChannelID uuid.UUID
	Code      string
	Name      string
	Type      enums.AccountType
}

// UpdateAccountInput carries the mutable account fields.
type UpdateAccountInput struct {
	AccountID uuid.UUID
	Name      *string
	IsActive  *bool
}

// LineInput is one debit or credit within a posting request. Amounts are in
// minor currency units.
type LineInput struct {
	AccountID uuid.UUID
	Debit     int64
	Credit    int64
	Meta      types.Metadata
}

// PostEntryInput captures a balanced posting request.
type PostEntryInput struct {
	ChannelID  uuid.UUID
	EntryDate  time.Time
	SourceType string
	SourceID   string
	Lines      []LineInput
	Memo       string
	Actor      ActorInput
}

// ActorInput identifies the user behind a posting for event audit.
type ActorInput struct {
	UserID uuid.UUID
	Role   string
}

// PostEntryResult returns the entry plus whether it was an idempotent replay.
type PostEntryResult struct {
	Entry    *models.JournalEntry `json:"entry"`
	Replayed bool                 `json:"replayed"`
}

// EntryList wraps paginated journal entries plus the next page cursor.
type EntryList struct {
	Entries    []models.JournalEntry `json:"entries"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// BalanceFilters narrow account balance queries.
type BalanceFilters struct {
	ChannelID    uuid.UUID
	AccountCodes []string
	From         *time.Time
	To           *time.Time
}

// AccountBalance aggregates one account's debits and credits over a range.
type AccountBalance struct {
	AccountID uuid.UUID         `json:"account_id"`
	Code      string            `json:"code"`
	Name      string            `json:"name"`
	Type      enums.AccountType `json:"type"`
	Debits    int64             `json:"debits"`
	Credits   int64             `json:"credits"`
	// Balance is debits minus credits in minor units.
	Balance int64 `json:"balance"`
}

// TrialBalance lists per-account balances plus the grand totals.
type TrialBalance struct {
	Accounts     []AccountBalance `json:"accounts"`
	TotalDebits  int64            `json:"total_debits"`
	TotalCredits int64            `json:"total_credits"`
	ComputedAt   time.Time        `json:"computed_at"`
}

// JournalPostedEvent is emitted after an entry commits.
type JournalPostedEvent struct {
	EntryID    uuid.UUID `json:"entry_id"`
	ChannelID  uuid.UUID `json:"channel_id"`
	EntryDate  time.Time `json:"entry_date"`
	SourceType string    `json:"source_type"`
	SourceID   string    `json:"source_id"`
	LineCount  int       `json:"line_count"`
	// TotalDebits equals total credits on a balanced entry.
	TotalDebits int64 `json:"total_debits"`
}

// JournalReversedEvent is emitted after a reversing entry commits.
type JournalReversedEvent struct {
	EntryID    uuid.UUID `json:"entry_id"`
	ReversalOf uuid.UUID `json:"reversal_of"`
	ChannelID  uuid.UUID `json:"channel_id"`
	EntryDate  time.Time `json:"entry_date"`
}
