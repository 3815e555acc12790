package cashier

import (
	"time"

	"github.com/google/uuid"

	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
)

// OpenSessionInput starts a cash-drawer shift for one cashier.
type OpenSessionInput struct {
	ChannelID    uuid.UUID
	CashierID    uuid.UUID
	OpeningFloat int64
	OpenedAt     time.Time
}

// CloseSessionInput carries the cashier's declared drawer count. Variance is
// computed, never supplied.
type CloseSessionInput struct {
	SessionID       uuid.UUID
	ClosingDeclared int64
	ActorUserID     uuid.UUID
}

// CloseSessionResult returns the closed session with its computed expected
// amount and variance filled in.
type CloseSessionResult struct {
	Session  *models.CashierSession `json:"session"`
	Expected int64                  `json:"expected"`
	Variance int64                  `json:"variance"`
}

// RecordMoneyEventInput captures one cash-affecting event. Amount is signed,
// minor currency units: positive into the drawer, negative out.
type RecordMoneyEventInput struct {
	ChannelID     uuid.UUID
	SessionID     *uuid.UUID
	Type          enums.MoneyEventType
	Amount        int64
	PaymentMethod string
	SourceType    string
	SourceID      string
	EventDate     time.Time
	Memo          string
	PostedBy      uuid.UUID
}

// RecordMoneyEventResult returns the event plus whether it was an idempotent
// replay of an earlier write.
type RecordMoneyEventResult struct {
	Event    *models.MoneyEvent `json:"event"`
	Replayed bool               `json:"replayed"`
}

// SessionList wraps paginated sessions plus the next page cursor.
type SessionList struct {
	Sessions   []models.CashierSession `json:"sessions"`
	NextCursor string                  `json:"next_cursor,omitempty"`
}

// MoneyRecordedEvent is the outbox payload for a recorded money event.
type MoneyRecordedEvent struct {
	EventID       uuid.UUID            `json:"eventId"`
	ChannelID     uuid.UUID            `json:"channelId"`
	SessionID     *uuid.UUID           `json:"sessionId,omitempty"`
	Type          enums.MoneyEventType `json:"type"`
	Amount        int64                `json:"amount"`
	PaymentMethod string               `json:"paymentMethod"`
	SourceType    string               `json:"sourceType"`
	SourceID      string               `json:"sourceId"`
	EventDate     time.Time            `json:"eventDate"`
}

// SessionClosedEvent is the outbox payload for a closed drawer shift.
type SessionClosedEvent struct {
	SessionID uuid.UUID `json:"sessionId"`
	ChannelID uuid.UUID `json:"channelId"`
	CashierID uuid.UUID `json:"cashierId"`
	Expected  int64     `json:"expected"`
	Declared  int64     `json:"declared"`
	Variance  int64     `json:"variance"`
	ClosedAt  time.Time `json:"closedAt"`
}
