package enums

import "fmt"

// StaffRole gates access to the conflict review surface. Counters capture
// counts; supervisors additionally resolve sync conflicts and close sessions.
type StaffRole string

const (
	RoleCounter    StaffRole = "counter"
	RoleSupervisor StaffRole = "supervisor"
)

var validStaffRoles = []StaffRole{
	RoleCounter,
	RoleSupervisor,
}

// String implements fmt.Stringer.
func (r StaffRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known StaffRole.
func (r StaffRole) IsValid() bool {
	for _, candidate := range validStaffRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseStaffRole converts raw input into a StaffRole.
func ParseStaffRole(value string) (StaffRole, error) {
	for _, candidate := range validStaffRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid staff role %q", value)
}
