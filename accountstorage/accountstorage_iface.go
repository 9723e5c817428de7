package accountstorage

import (
	"context"

	"github.com/projector22/lbf-auth/accountstorage/internal/dbtype"
)

// db is the driver interface implemented by the postgres, mysql, and spanner
// storage drivers.
type db interface {
	// AccountByUsername returns the account record for the given username.
	AccountByUsername(ctx context.Context, username string) (*dbtype.Account, error)
	// AccountByAPIKey returns the account record holding the given API key.
	AccountByAPIKey(ctx context.Context, apiKey string) (*dbtype.Account, error)
	// StoreAPIKey writes a new API key onto the account record.
	StoreAPIKey(ctx context.Context, username, apiKey string) error
}
