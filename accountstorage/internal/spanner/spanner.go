// Package spanner provides the account storage driver for Spanner.
package spanner

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"
	"github.com/cccteam/ccc"
	"github.com/cccteam/httpio"
	"github.com/cccteam/spxscan"
	"github.com/go-playground/errors/v5"
	"google.golang.org/grpc/codes"

	"github.com/projector22/lbf-auth/accountstorage/internal/dbtype"
)

// AccountStorageDriver represents the account storage implementation for Spanner.
type AccountStorageDriver struct {
	spanner          *spanner.Client
	accountTableName string
}

// NewAccountStorageDriver creates a new AccountStorageDriver
func NewAccountStorageDriver(client *spanner.Client) *AccountStorageDriver {
	return &AccountStorageDriver{
		spanner:          client,
		accountTableName: "Accounts",
	}
}

// SetAccountTableName sets the name of the account table.
func (s *AccountStorageDriver) SetAccountTableName(name string) {
	s.accountTableName = name
}

// AccountByUsername returns the account record for the given username
func (s *AccountStorageDriver) AccountByUsername(ctx context.Context, username string) (*dbtype.Account, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	stmt := spanner.NewStatement(fmt.Sprintf(`
		SELECT
			Username, Password, LdapUser, LdapPasswordFragment,
			ApiKey, Disabled, DisplayName, Email, LinkedEntity
		FROM %s
		WHERE Username = @username
	`, s.accountTableName))
	stmt.Params["username"] = username

	account := &dbtype.Account{}
	if err := spxscan.Get(ctx, s.spanner.Single(), account, stmt); err != nil {
		if errors.Is(err, spxscan.ErrNotFound) {
			return nil, httpio.NewNotFoundMessagef("account %q not found", username)
		}

		return nil, errors.Wrapf(err, "failed to scan row for account %q", username)
	}

	return account, nil
}

// AccountByAPIKey returns the account record holding the given API key
func (s *AccountStorageDriver) AccountByAPIKey(ctx context.Context, apiKey string) (*dbtype.Account, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	stmt := spanner.NewStatement(fmt.Sprintf(`
		SELECT
			Username, Password, LdapUser, LdapPasswordFragment,
			ApiKey, Disabled, DisplayName, Email, LinkedEntity
		FROM %s
		WHERE ApiKey = @apiKey
	`, s.accountTableName))
	stmt.Params["apiKey"] = apiKey

	account := &dbtype.Account{}
	if err := spxscan.Get(ctx, s.spanner.Single(), account, stmt); err != nil {
		if errors.Is(err, spxscan.ErrNotFound) {
			return nil, httpio.NewNotFoundMessage("account not found")
		}

		return nil, errors.Wrap(err, "failed to scan row for api key lookup")
	}

	return account, nil
}

// StoreAPIKey writes a new API key onto the account record
func (s *AccountStorageDriver) StoreAPIKey(ctx context.Context, username, apiKey string) error {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	accountUpdate := struct {
		Username string `spanner:"Username"`
		ApiKey   string `spanner:"ApiKey"`
	}{
		Username: username,
		ApiKey:   apiKey,
	}

	mutation, err := spanner.UpdateStruct(s.accountTableName, accountUpdate)
	if err != nil {
		return errors.Wrap(err, "spanner.UpdateStruct()")
	}

	if _, err := s.spanner.Apply(ctx, []*spanner.Mutation{mutation}); err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return httpio.NewNotFoundMessagef("account %q not found", username)
		}

		return errors.Wrap(err, "spanner.Client.Apply()")
	}

	return nil
}
