package enums

// CashierSessionStatus maps to the cashier_session_status_enum enum in Postgres.
type CashierSessionStatus string

const (
	CashierSessionStatusOpen   CashierSessionStatus = "open"
	CashierSessionStatusClosed CashierSessionStatus = "closed"
)

// IsValid reports whether the value matches the canonical session status enum.
func (s CashierSessionStatus) IsValid() bool {
	return s == CashierSessionStatusOpen || s == CashierSessionStatusClosed
}
