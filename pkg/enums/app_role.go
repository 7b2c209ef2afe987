package enums

import "fmt"

// AppRole maps to the app_role enum in Postgres. Every account is exactly one
// of the two marketplace sides.
type AppRole string

const (
	AppRoleCustomer AppRole = "customer"
	AppRoleWorkshop AppRole = "workshop"
)

var validAppRoles = []AppRole{
	AppRoleCustomer,
	AppRoleWorkshop,
}

// String implements fmt.Stringer.
func (a AppRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AppRole.
func (a AppRole) IsValid() bool {
	for _, candidate := range validAppRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAppRole converts raw input into an AppRole.
func ParseAppRole(value string) (AppRole, error) {
	for _, candidate := range validAppRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid app role %q", value)
}
