// Package accounts defines the external collaborator interfaces the
// authentication core consumes. The core never persists accounts; it only
// reads and verifies them through these interfaces.
package accounts

import (
	"context"
	"encoding/json"

	"github.com/cccteam/ccc/accesstypes"
)

// Account is the minimal account shape the core consumes.
type Account struct {
	Username string
	// Password holds the bcrypt hash for local accounts, or an opaque marker
	// for LDAP-managed accounts.
	Password string
	LDAPUser bool
	// LDAPPasswordFragment is an optional cached fragment mixed into the
	// session id for LDAP accounts whose real credential lives elsewhere.
	LDAPPasswordFragment string
	APIKey               string
	Disabled             bool

	// Snapshot fields cached into the session on refresh.
	DisplayName  string
	Email        string
	LinkedEntity bool
}

// Store looks up accounts. Implementations must return (nil, nil) on a miss,
// never an error; an error return means the store itself failed.
type Store interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByAPIKey(ctx context.Context, apiKey string) (*Account, error)
}

// TenantConfigStore loads the tenant (school) configuration snapshot that is
// cached into the session during refresh.
type TenantConfigStore interface {
	LoadConfig(ctx context.Context) (json.RawMessage, error)
}

// LDAPVerifier binds a user DN against the directory. Implementations must
// treat unavailability as a failed bind, never a panic or propagated fault.
type LDAPVerifier interface {
	Bind(ctx context.Context, dn, password string) bool
}

// PermissionSnapshot is the cached per-user permission state the gate keeps in
// the session between refreshes.
type PermissionSnapshot struct {
	CanAccess   bool                                            `json:"can_access"`
	Permissions map[accesstypes.Domain][]accesstypes.Permission `json:"permissions,omitempty"`
}

// UserPermissionManager resolves the permission snapshot for a user.
type UserPermissionManager interface {
	UserPermissions(ctx context.Context, user accesstypes.User) (PermissionSnapshot, error)
}
