package account

import (
	"fmt"
	"strconv"
)

// Account is the identity a bearer token resolves to. It lives for one request.
type Account struct {
	ID         int64
	Permission Permission
}

type Permission string

const (
	PermissionGuest   Permission = "GUEST"
	PermissionStudent Permission = "STUDENT"
	PermissionTeacher Permission = "TEACHER"
	PermissionAdmin   Permission = "ADMIN"

	errInvalidPermissionFmt = "invalid permission: %q"
)

var knownPermissions = []Permission{
	PermissionGuest,
	PermissionStudent,
	PermissionTeacher,
	PermissionAdmin,
}

// Permissions returns every known permission level in declaration order.
func Permissions() []Permission {
	out := make([]Permission, len(knownPermissions))
	copy(out, knownPermissions)
	return out
}

// Validate validates the permission
func (p Permission) Validate() error {
	switch p {
	case PermissionGuest, PermissionStudent, PermissionTeacher, PermissionAdmin:
		return nil
	default:
		return fmt.Errorf(errInvalidPermissionFmt, string(p))
	}
}

func (p Permission) String() string {
	return string(p)
}

// ParsePermission maps a permission name onto the closed set of levels.
// Names are matched exactly.
func ParsePermission(name string) (Permission, error) {
	p := Permission(name)
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// IDString renders the account id the way it is propagated downstream.
func (a Account) IDString() string {
	return strconv.FormatInt(a.ID, 10)
}
