package reconciliation

import (
	"time"

	"github.com/google/uuid"

	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
)

// CreateInput opens a draft reconciliation over a scope and date range.
// DeclaredAmount is what the books are being checked against: for session
// scope it is taken from the closed session's declared count and must not be
// supplied here.
type CreateInput struct {
	ChannelID      uuid.UUID
	Scope          enums.ReconciliationScope
	RangeStart     time.Time
	RangeEnd       time.Time
	SessionID      *uuid.UUID
	AccountCodes   []string
	DeclaredAmount int64
	ExternalRef    string
	CreatedBy      uuid.UUID
}

// TransitionInput moves a reconciliation one step forward. Only
// draft -> reviewed and reviewed -> approved are legal, and only by explicit
// user action.
type TransitionInput struct {
	ReconciliationID uuid.UUID
	Target           enums.ReconciliationStatus
	ActorUserID      uuid.UUID
}

// ListFilters narrow reconciliation listings.
type ListFilters struct {
	ChannelID uuid.UUID
	Status    *enums.ReconciliationStatus
	Scope     *enums.ReconciliationScope
}

// List wraps paginated reconciliations plus the next page cursor.
type List struct {
	Reconciliations []models.Reconciliation `json:"reconciliations"`
	NextCursor      string                  `json:"next_cursor,omitempty"`
}
