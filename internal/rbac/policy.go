package rbac

import (
	"fmt"

	"gateway-server/internal/domain/account"
)

// Wildcard declares every known permission level, GUEST included.
const Wildcard = "*"

// Policy is a route's permission declaration compiled against the known
// permission levels. It is immutable once built.
type Policy struct {
	declared []string
	ordered  []account.Permission
	allowed  map[account.Permission]bool
}

// Expand resolves declared names to permission levels. Any wildcard entry
// expands to the full set. Duplicates are collapsed, order is preserved.
func Expand(declared []string) ([]account.Permission, error) {
	for _, name := range declared {
		if name == Wildcard {
			return account.Permissions(), nil
		}
	}

	seen := make(map[account.Permission]bool, len(declared))
	out := make([]account.Permission, 0, len(declared))
	for _, name := range declared {
		if name == "" {
			return nil, ErrEmptyPermission
		}
		p, err := account.ParsePermission(name)
		if err != nil {
			return nil, fmt.Errorf(errUnknownPermissionFmt, ErrUnknownPermission, name)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

// Compile validates and expands a declaration. Call it when a route is
// registered so configuration mistakes surface before traffic does.
func Compile(declared []string) (*Policy, error) {
	perms, err := Expand(declared)
	if err != nil {
		return nil, err
	}

	p := &Policy{
		declared: append([]string(nil), declared...),
		ordered:  perms,
		allowed:  make(map[account.Permission]bool, len(perms)),
	}
	for _, perm := range perms {
		p.allowed[perm] = true
	}
	return p, nil
}

// MustCompile is Compile for static declarations; it panics on error.
func MustCompile(declared ...string) *Policy {
	p, err := Compile(declared)
	if err != nil {
		panic(fmt.Sprintf(errMustCompilePanicFmt, err))
	}
	return p
}

// IsAuthorized reports whether the account's permission is in the expanded set.
func (p *Policy) IsAuthorized(acct account.Account) bool {
	if p == nil {
		return false
	}
	return p.allowed[acct.Permission]
}

// IsGuestAllowed reports whether GUEST is in the expanded set.
func (p *Policy) IsGuestAllowed() bool {
	if p == nil {
		return false
	}
	return p.allowed[account.PermissionGuest]
}

// Permissions returns the expanded permission levels.
func (p *Policy) Permissions() []account.Permission {
	if p == nil {
		return nil
	}
	return append([]account.Permission(nil), p.ordered...)
}

// Declared returns the names as they were written in configuration.
func (p *Policy) Declared() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.declared...)
}

// IsAuthorized evaluates a raw declaration against an account without
// keeping the compiled policy around.
func IsAuthorized(declared []string, acct account.Account) (bool, error) {
	p, err := Compile(declared)
	if err != nil {
		return false, err
	}
	return p.IsAuthorized(acct), nil
}

// IsGuestAllowed evaluates a raw declaration for GUEST membership.
func IsGuestAllowed(declared []string) (bool, error) {
	p, err := Compile(declared)
	if err != nil {
		return false, err
	}
	return p.IsGuestAllowed(), nil
}
