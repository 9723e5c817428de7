// Package accountstorage adapts the database drivers to the account-store
// collaborator interface consumed by the permission gate.
package accountstorage

import (
	"context"

	"github.com/cccteam/ccc"
	"github.com/cccteam/httpio"
	"github.com/go-playground/errors/v5"

	"github.com/projector22/lbf-auth/accounts"
	"github.com/projector22/lbf-auth/accountstorage/internal/dbtype"
	"github.com/projector22/lbf-auth/credentials"
)

var _ accounts.Store = &AccountStorage{}

// AccountStorage is the driver-backed account store. Lookup misses surface as
// (nil, nil), never as an error.
type AccountStorage struct {
	db db
}

// FindByUsername returns the account for username, or nil when absent.
func (s *AccountStorage) FindByUsername(ctx context.Context, username string) (*accounts.Account, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	a, err := s.db.AccountByUsername(ctx, username)
	if err != nil {
		if httpio.HasNotFound(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "db.AccountByUsername()")
	}

	return toAccount(a), nil
}

// FindByAPIKey returns the account holding apiKey, or nil when absent.
func (s *AccountStorage) FindByAPIKey(ctx context.Context, apiKey string) (*accounts.Account, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	a, err := s.db.AccountByAPIKey(ctx, apiKey)
	if err != nil {
		if httpio.HasNotFound(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "db.AccountByAPIKey()")
	}

	return toAccount(a), nil
}

// RotateAPIKey generates a fresh API key for the account, stores it, and
// returns it. The previous key stops matching immediately.
func (s *AccountStorage) RotateAPIKey(ctx context.Context, hasher *credentials.Hasher, username string) (string, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	apiKey := hasher.GenerateAPIKey(username, "", "")
	if err := s.db.StoreAPIKey(ctx, username, apiKey); err != nil {
		return "", errors.Wrap(err, "db.StoreAPIKey()")
	}

	return apiKey, nil
}

func toAccount(a *dbtype.Account) *accounts.Account {
	return &accounts.Account{
		Username:             a.Username,
		Password:             a.Password,
		LDAPUser:             a.LdapUser,
		LDAPPasswordFragment: a.LdapPasswordFragment,
		APIKey:               a.ApiKey,
		Disabled:             a.Disabled,
		DisplayName:          a.DisplayName,
		Email:                a.Email,
		LinkedEntity:         a.LinkedEntity,
	}
}
