// Package postgres implements the account storage driver for PostgreSQL.
package postgres

import (
	"context"

	"github.com/cccteam/ccc"
	"github.com/cccteam/httpio"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/go-playground/errors/v5"
	"github.com/jackc/pgx/v5"

	"github.com/projector22/lbf-auth/accountstorage/internal/dbtype"
)

// AccountStorageDriver represents the account storage implementation for PostgreSQL.
type AccountStorageDriver struct {
	conn Queryer
}

// NewAccountStorageDriver creates a new AccountStorageDriver
func NewAccountStorageDriver(conn Queryer) *AccountStorageDriver {
	return &AccountStorageDriver{
		conn: conn,
	}
}

// AccountByUsername returns the account record for the given username
func (d *AccountStorageDriver) AccountByUsername(ctx context.Context, username string) (*dbtype.Account, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	query := `
		SELECT
			"Username", "Password", "LdapUser", "LdapPasswordFragment",
			"ApiKey", "Disabled", "DisplayName", "Email", "LinkedEntity"
		FROM "Accounts"
		WHERE "Username" = $1
	`

	a := &dbtype.Account{}
	if err := pgxscan.Get(ctx, d.conn, a, query, username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpio.NewNotFoundMessagef("account %q not found in database", username)
		}

		return nil, errors.Wrapf(err, "failed to scan row for account %q", username)
	}

	return a, nil
}

// AccountByAPIKey returns the account record holding the given API key
func (d *AccountStorageDriver) AccountByAPIKey(ctx context.Context, apiKey string) (*dbtype.Account, error) {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	query := `
		SELECT
			"Username", "Password", "LdapUser", "LdapPasswordFragment",
			"ApiKey", "Disabled", "DisplayName", "Email", "LinkedEntity"
		FROM "Accounts"
		WHERE "ApiKey" = $1
	`

	a := &dbtype.Account{}
	if err := pgxscan.Get(ctx, d.conn, a, query, apiKey); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpio.NewNotFoundMessage("account not found in database")
		}

		return nil, errors.Wrap(err, "failed to scan row for api key lookup")
	}

	return a, nil
}

// StoreAPIKey writes a new API key onto the account record
func (d *AccountStorageDriver) StoreAPIKey(ctx context.Context, username, apiKey string) error {
	ctx, span := ccc.StartTrace(ctx)
	defer span.End()

	query := `
		UPDATE "Accounts" SET "ApiKey" = $1
		WHERE "Username" = $2`

	tag, err := d.conn.Exec(ctx, query, apiKey, username)
	if err != nil {
		return errors.Wrapf(err, "failed to update Accounts table for %q", username)
	}
	if tag.RowsAffected() != 1 {
		return httpio.NewNotFoundMessagef("account %q not found in database", username)
	}

	return nil
}
