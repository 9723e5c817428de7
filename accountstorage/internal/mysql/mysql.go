// Package mysql implements the account storage driver for MySQL, the backing
// store of the original deployment.
package mysql

import (
	"context"
	"database/sql"

	"github.com/cccteam/ccc"
	"github.com/cccteam/httpio"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/go-playground/errors/v5"

	"github.com/projector22/lbf-auth/accountstorage/internal/dbtype"
)

// Queryer is the database/sql surface the driver needs. Satisfied by *sql.DB.
type Queryer interface {
	sqlscan.Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AccountStorageDriver represents the account storage implementation for MySQL.
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

	query := "SELECT `Username`, `Password`, `LdapUser`, `LdapPasswordFragment`, " +
		"`ApiKey`, `Disabled`, `DisplayName`, `Email`, `LinkedEntity` " +
		"FROM `Accounts` WHERE `Username` = ?"

	a := &dbtype.Account{}
	if err := sqlscan.Get(ctx, d.conn, a, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

	query := "SELECT `Username`, `Password`, `LdapUser`, `LdapPasswordFragment`, " +
		"`ApiKey`, `Disabled`, `DisplayName`, `Email`, `LinkedEntity` " +
		"FROM `Accounts` WHERE `ApiKey` = ?"

	a := &dbtype.Account{}
	if err := sqlscan.Get(ctx, d.conn, a, query, apiKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

	query := "UPDATE `Accounts` SET `ApiKey` = ? WHERE `Username` = ?"

	res, err := d.conn.ExecContext(ctx, query, apiKey, username)
	if err != nil {
		return errors.Wrapf(err, "failed to update Accounts table for %q", username)
	}

	cnt, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sql.Result.RowsAffected()")
	}
	if cnt != 1 {
		return httpio.NewNotFoundMessagef("account %q not found in database", username)
	}

	return nil
}
