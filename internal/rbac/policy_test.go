package rbac

import (
	"testing"

	"gateway-server/internal/domain/account"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandWildcard(t *testing.T) {
	perms, err := Expand([]string{"*"})
	require.NoError(t, err)
	assert.Equal(t, account.Permissions(), perms)
	assert.Contains(t, perms, account.PermissionGuest)
}

func TestExpandWildcardMixedWithNames(t *testing.T) {
	perms, err := Expand([]string{"ADMIN", "*"})
	require.NoError(t, err)
	assert.ElementsMatch(t, account.Permissions(), perms)
}

func TestExpandPreservesOrderAndDeduplicates(t *testing.T) {
	perms, err := Expand([]string{"TEACHER", "STUDENT", "TEACHER"})
	require.NoError(t, err)
	assert.Equal(t, []account.Permission{account.PermissionTeacher, account.PermissionStudent}, perms)
}

func TestExpandUnknownName(t *testing.T) {
	_, err := Expand([]string{"STUDENT", "SUPERUSER"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPermission)
	assert.Contains(t, err.Error(), "SUPERUSER")
}

func TestExpandEmptyName(t *testing.T) {
	_, err := Expand([]string{""})
	assert.ErrorIs(t, err, ErrEmptyPermission)
}

func TestPolicyIsAuthorized(t *testing.T) {
	p := MustCompile("STUDENT", "TEACHER")

	assert.True(t, p.IsAuthorized(account.Account{ID: 1, Permission: account.PermissionStudent}))
	assert.True(t, p.IsAuthorized(account.Account{ID: 2, Permission: account.PermissionTeacher}))
	assert.False(t, p.IsAuthorized(account.Account{ID: 3, Permission: account.PermissionAdmin}))
	assert.False(t, p.IsAuthorized(account.Account{ID: 4, Permission: account.PermissionGuest}))
	assert.False(t, p.IsGuestAllowed())
}

func TestPolicyWildcardAcceptsEveryLevel(t *testing.T) {
	p := MustCompile(Wildcard)
	for _, perm := range account.Permissions() {
		assert.True(t, p.IsAuthorized(account.Account{ID: 1, Permission: perm}), perm)
	}
	assert.True(t, p.IsGuestAllowed())
}

func TestPolicyGuest(t *testing.T) {
	assert.True(t, MustCompile("GUEST").IsGuestAllowed())
	assert.True(t, MustCompile("ADMIN", "GUEST").IsGuestAllowed())
	assert.False(t, MustCompile("ADMIN").IsGuestAllowed())
}

func TestEmptyPolicyDeniesEveryone(t *testing.T) {
	p, err := Compile(nil)
	require.NoError(t, err)
	assert.Empty(t, p.Permissions())
	assert.False(t, p.IsAuthorized(account.Account{Permission: account.PermissionAdmin}))
	assert.False(t, p.IsGuestAllowed())
}

func TestNilPolicy(t *testing.T) {
	var p *Policy
	assert.False(t, p.IsAuthorized(account.Account{Permission: account.PermissionAdmin}))
	assert.False(t, p.IsGuestAllowed())
	assert.Nil(t, p.Permissions())
}

func TestDeclaredIsCopied(t *testing.T) {
	declared := []string{"ADMIN"}
	p := MustCompile(declared...)
	declared[0] = "GUEST"
	assert.Equal(t, []string{"ADMIN"}, p.Declared())
}

func TestMustCompilePanicsOnUnknownName(t *testing.T) {
	assert.Panics(t, func() { MustCompile("NOBODY") })
}

func TestFunctionalForms(t *testing.T) {
	ok, err := IsAuthorized([]string{"ADMIN"}, account.Account{Permission: account.PermissionAdmin})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = IsAuthorized([]string{"ROOT"}, account.Account{Permission: account.PermissionAdmin})
	assert.ErrorIs(t, err, ErrUnknownPermission)

	guest, err := IsGuestAllowed([]string{"*"})
	require.NoError(t, err)
	assert.True(t, guest)
}
