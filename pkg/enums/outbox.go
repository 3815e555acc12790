package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type_enum enum in Postgres.
type OutboxAggregateType string

const (
	AggregateBatch          OutboxAggregateType = "inventory_batch"
	AggregateMovement       OutboxAggregateType = "inventory_movement"
	AggregateJournalEntry   OutboxAggregateType = "journal_entry"
	AggregateMoneyEvent     OutboxAggregateType = "money_event"
	AggregateCashierSession OutboxAggregateType = "cashier_session"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateBatch,
	AggregateMovement,
	AggregateJournalEntry,
	AggregateMoneyEvent,
	AggregateCashierSession,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type_enum enum in Postgres.
type OutboxEventType string

const (
	EventStockReceived    OutboxEventType = "stock_received"
	EventStockConsumed    OutboxEventType = "stock_consumed"
	EventMovementRecorded OutboxEventType = "movement_recorded"
	EventJournalPosted    OutboxEventType = "journal_posted"
	EventJournalReversed  OutboxEventType = "journal_reversed"
	EventMoneyRecorded    OutboxEventType = "money_event_recorded"
	EventSessionClosed    OutboxEventType = "cashier_session_closed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventStockReceived,
	EventStockConsumed,
	EventMovementRecorded,
	EventJournalPosted,
	EventJournalReversed,
	EventMoneyRecorded,
	EventSessionClosed,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
