package rbac

import "errors"

var (
	ErrUnknownPermission = errors.New("unknown permission name")
	ErrEmptyPermission   = errors.New("permission name must not be empty")
)

const (
	errUnknownPermissionFmt = "%w: %q"
	errMustCompilePanicFmt  = "rbac.MustCompile: %v"
)
