package enums

import "fmt"

// MoneyEventType maps to the money_event_type_enum enum in Postgres.
type MoneyEventType string

const (
	MoneyEventTypeCashSale   MoneyEventType = "cash_sale"
	MoneyEventTypeCashRefund MoneyEventType = "cash_refund"
	MoneyEventTypeSettlement MoneyEventType = "settlement"
	MoneyEventTypePayout     MoneyEventType = "payout"
	MoneyEventTypeFloatTopUp MoneyEventType = "float_top_up"
	MoneyEventTypeAdjustment MoneyEventType = "adjustment"
)

var validMoneyEventTypes = []MoneyEventType{
	MoneyEventTypeCashSale,
	MoneyEventTypeCashRefund,
	MoneyEventTypeSettlement,
	MoneyEventTypePayout,
	MoneyEventTypeFloatTopUp,
	MoneyEventTypeAdjustment,
}

// IsValid reports whether the value matches the canonical money event enum.
func (t MoneyEventType) IsValid() bool {
	for _, candidate := range validMoneyEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseMoneyEventType converts raw input into MoneyEventType.
func ParseMoneyEventType(value string) (MoneyEventType, error) {
	for _, candidate := range validMoneyEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid money event type %q", value)
}
