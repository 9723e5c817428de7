package accountstorage

import (
	"github.com/projector22/lbf-auth/accountstorage/internal/postgres"
)

// PostgresQueryer is the pgx connection surface required by NewPostgres.
type PostgresQueryer = postgres.Queryer

// NewPostgres creates an AccountStorage backed by PostgreSQL.
func NewPostgres(conn PostgresQueryer) *AccountStorage {
	return &AccountStorage{
		db: postgres.NewAccountStorageDriver(conn),
	}
}
