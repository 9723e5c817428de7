package accountstorage

import (
	cloudspanner "cloud.google.com/go/spanner"

	"github.com/projector22/lbf-auth/accountstorage/internal/spanner"
)

// NewSpanner creates an AccountStorage backed by Spanner.
func NewSpanner(client *cloudspanner.Client) *AccountStorage {
	return &AccountStorage{
		db: spanner.NewAccountStorageDriver(client),
	}
}

// NewSpannerWithTableName creates an AccountStorage backed by Spanner using a
// non-default account table name.
func NewSpannerWithTableName(client *cloudspanner.Client, tableName string) *AccountStorage {
	driver := spanner.NewAccountStorageDriver(client)
	driver.SetAccountTableName(tableName)

	return &AccountStorage{db: driver}
}
