package enums

import "fmt"

// ReconciliationStatus maps to the reconciliation_status_enum enum in Postgres.
// Transitions are manual only: draft -> reviewed -> approved.
type ReconciliationStatus string

const (
	ReconciliationStatusDraft    ReconciliationStatus = "draft"
	ReconciliationStatusReviewed ReconciliationStatus = "reviewed"
	ReconciliationStatusApproved ReconciliationStatus = "approved"
)

var validReconciliationStatuses = []ReconciliationStatus{
	ReconciliationStatusDraft,
	ReconciliationStatusReviewed,
	ReconciliationStatusApproved,
}

// IsValid reports whether the value matches the canonical status enum.
func (s ReconciliationStatus) IsValid() bool {
	for _, candidate := range validReconciliationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the single forward step to next is allowed.
func (s ReconciliationStatus) CanTransitionTo(next ReconciliationStatus) bool {
	switch s {
	case ReconciliationStatusDraft:
		return next == ReconciliationStatusReviewed
	case ReconciliationStatusReviewed:
		return next == ReconciliationStatusApproved
	default:
		return false
	}
}

// ReconciliationScope identifies what a reconciliation record covers.
type ReconciliationScope string

const (
	ReconciliationScopeSession ReconciliationScope = "session"
	ReconciliationScopeDay     ReconciliationScope = "day"
	ReconciliationScopeAccount ReconciliationScope = "account"
)

var validReconciliationScopes = []ReconciliationScope{
	ReconciliationScopeSession,
	ReconciliationScopeDay,
	ReconciliationScopeAccount,
}

// IsValid reports whether the value matches the canonical scope enum.
func (s ReconciliationScope) IsValid() bool {
	for _, candidate := range validReconciliationScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReconciliationScope converts raw input into ReconciliationScope.
func ParseReconciliationScope(value string) (ReconciliationScope, error) {
	for _, candidate := range validReconciliationScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reconciliation scope %q", value)
}
