package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsUniqueViolation reports whether the provided error is a unique constraint
// violation. Both the Postgres and the sqlite (test) driver phrasings are
// recognized; idempotent creates rely on this to turn a lost insert race into
// "return the winner's row". constraintName is an optional hint: when the
// driver reports constraint names (Postgres), a non-empty hint that appears in
// the message short-circuits to true.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsLockTimeout reports whether the error is a Postgres lock_not_available
// failure from a bounded lock wait.
func IsLockTimeout(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "lock timeout") ||
		strings.Contains(msg, "canceling statement due to lock timeout") ||
		strings.Contains(msg, "lock_not_available")
}
