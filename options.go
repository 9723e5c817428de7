package auth

import (
	"github.com/projector22/lbf-auth/accounts"
)

// Option configures a Gate.
type Option func(*Gate)

// WithTenantConfigStore wires the tenant configuration store cached into the
// session snapshot on refresh.
func WithTenantConfigStore(tenants accounts.TenantConfigStore) Option {
	return func(g *Gate) {
		g.tenants = tenants
	}
}

// WithPermissionManager wires the user permission resolver. Without one every
// refreshed snapshot grants access.
func WithPermissionManager(perms accounts.UserPermissionManager) Option {
	return func(g *Gate) {
		g.perms = perms
	}
}

// WithLDAP wires the directory verifier and the username-to-DN mapping, and
// enables LDAP verification for accounts that request it.
func WithLDAP(verifier accounts.LDAPVerifier, dn func(username string) string) Option {
	return func(g *Gate) {
		g.ldapVerifier = verifier
		g.ldapDN = dn
		g.ldapEnabled = true
	}
}

// WithRefreshCodec sets the refresh-timer wire format.
// (default: LegacyRefreshCodec)
func WithRefreshCodec(codec RefreshCodec) Option {
	return func(g *Gate) {
		g.refreshCodec = codec
	}
}

// WithMaintenanceMode wires the maintenance-mode probe. While it reports true
// every evaluation re-validates against the account store.
func WithMaintenanceMode(probe func() bool) Option {
	return func(g *Gate) {
		g.maintenance = probe
	}
}

// WithLogHandler sets the LogHandler used by the HTTP handlers.
// (default: Gate.Handle)
func WithLogHandler(l LogHandler) Option {
	return func(g *Gate) {
		g.handle = l
	}
}
