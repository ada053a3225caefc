package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"gateway-server/internal/domain/account"
	"gateway-server/internal/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentity struct {
	mu        sync.Mutex
	profiles  map[string]account.Account
	existsErr error
	fetchErr  error
	// vanish makes FetchProfile miss even when ProfileExists hit.
	vanish bool

	existsCalls int
	fetchCalls  int
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{profiles: make(map[string]account.Account)}
}

func (f *fakeIdentity) ProfileExists(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.profiles[token]
	return ok, nil
}

func (f *fakeIdentity) FetchProfile(_ context.Context, token string) (account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return account.Account{}, f.fetchErr
	}
	acct, ok := f.profiles[token]
	if !ok || f.vanish {
		return account.Account{}, identity.ErrProfileNotFound
	}
	return acct, nil
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set(HeaderAuthorization, "Bearer "+token)
	return h
}

func TestResolve(t *testing.T) {
	fake := newFakeIdentity()
	fake.profiles["abc123"] = account.Account{ID: 42, Permission: account.PermissionStudent}

	acct, err := NewResolver(fake).Resolve(context.Background(), bearer("abc123"))
	require.NoError(t, err)
	assert.Equal(t, account.Account{ID: 42, Permission: account.PermissionStudent}, acct)
}

func TestResolveEmptyTokenSkipsIdentityService(t *testing.T) {
	fake := newFakeIdentity()

	_, err := NewResolver(fake).Resolve(context.Background(), http.Header{})
	assert.ErrorIs(t, err, ErrEmptyToken)
	assert.Zero(t, fake.existsCalls)
	assert.Zero(t, fake.fetchCalls)
}

func TestResolveUnknownTokenIsInvalid(t *testing.T) {
	fake := newFakeIdentity()

	_, err := NewResolver(fake).Resolve(context.Background(), bearer("nope"))
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, 1, fake.existsCalls)
	assert.Zero(t, fake.fetchCalls)
}

func TestResolveProfileVanishedIsInvalid(t *testing.T) {
	fake := newFakeIdentity()
	fake.profiles["abc123"] = account.Account{ID: 1, Permission: account.PermissionAdmin}
	fake.vanish = true

	_, err := NewResolver(fake).Resolve(context.Background(), bearer("abc123"))
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, OutcomeInvalidToken, Classify(err))
}

func TestResolveUpstreamFailuresAreUnclassified(t *testing.T) {
	tests := []struct {
		name      string
		existsErr error
		fetchErr  error
		want      error
	}{
		{name: "exists unavailable", existsErr: identity.ErrUpstreamUnavailable, want: identity.ErrUpstreamUnavailable},
		{name: "exists status", existsErr: &identity.StatusError{Operation: identity.OperationExists, StatusCode: 502}, want: identity.ErrUpstreamError},
		{name: "profile malformed", fetchErr: identity.ErrMalformedResponse, want: identity.ErrMalformedResponse},
		{name: "profile cancelled", fetchErr: context.Canceled, want: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeIdentity()
			fake.profiles["abc123"] = account.Account{ID: 1, Permission: account.PermissionAdmin}
			fake.existsErr = tt.existsErr
			fake.fetchErr = tt.fetchErr

			_, err := NewResolver(fake).Resolve(context.Background(), bearer("abc123"))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, OutcomeUnknownError, Classify(err))
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	fake := newFakeIdentity()
	fake.profiles["abc123"] = account.Account{ID: 7, Permission: account.PermissionTeacher}
	r := NewResolver(fake)

	first, err := r.Resolve(context.Background(), bearer("abc123"))
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), bearer("abc123"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveNeverReturnsPartialAccount(t *testing.T) {
	fake := newFakeIdentity()
	fake.profiles["abc123"] = account.Account{ID: 9, Permission: account.PermissionAdmin}
	fake.fetchErr = errors.New("decode failed")

	acct, err := NewResolver(fake).Resolve(context.Background(), bearer("abc123"))
	require.Error(t, err)
	assert.Equal(t, account.Account{}, acct)
}
