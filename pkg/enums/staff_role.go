package enums

import "fmt"

// StaffRole maps to the staff_role_enum enum in Postgres.
type StaffRole string

const (
	StaffRoleOwner      StaffRole = "owner"
	StaffRoleManager    StaffRole = "manager"
	StaffRoleAccountant StaffRole = "accountant"
	StaffRoleCashier    StaffRole = "cashier"
)

var validStaffRoles = []StaffRole{
	StaffRoleOwner,
	StaffRoleManager,
	StaffRoleAccountant,
	StaffRoleCashier,
}

// IsValid reports whether the value matches the canonical staff role enum.
func (r StaffRole) IsValid() bool {
	for _, candidate := range validStaffRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseStaffRole converts raw input into StaffRole.
func ParseStaffRole(value string) (StaffRole, error) {
	for _, candidate := range validStaffRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid staff role %q", value)
}
