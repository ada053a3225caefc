package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gateway-server/internal/domain/account"
	"gateway-server/internal/identity"
)

// IdentityService is the remote system of record for tokens.
type IdentityService interface {
	ProfileExists(ctx context.Context, token string) (bool, error)
	FetchProfile(ctx context.Context, token string) (account.Account, error)
}

// Resolver turns request headers into an Account: extract, check, fetch.
// Each step runs only when the previous one succeeded.
type Resolver struct {
	identity IdentityService
}

func NewResolver(identity IdentityService) *Resolver {
	return &Resolver{identity: identity}
}

func (r *Resolver) Resolve(ctx context.Context, header http.Header) (account.Account, error) {
	token, err := ExtractBearerToken(header)
	if err != nil {
		return account.Account{}, err
	}

	exists, err := r.identity.ProfileExists(ctx, token)
	if err != nil {
		return account.Account{}, fmt.Errorf(errCheckExistsFmt, err)
	}
	if !exists {
		return account.Account{}, ErrInvalidToken
	}

	acct, err := r.identity.FetchProfile(ctx, token)
	if errors.Is(err, identity.ErrProfileNotFound) {
		// the profile vanished between the two calls
		return account.Account{}, fmt.Errorf(errProfileGoneFmt, ErrInvalidToken, err)
	}
	if err != nil {
		return account.Account{}, fmt.Errorf(errFetchProfileFmt, err)
	}

	return acct, nil
}
