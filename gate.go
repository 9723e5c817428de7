package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/cccteam/ccc/accesstypes"
	"github.com/cccteam/logger"
	"go.opentelemetry.io/otel"

	"github.com/projector22/lbf-auth/accounts"
	"github.com/projector22/lbf-auth/cookie"
	"github.com/projector22/lbf-auth/credentials"
	"github.com/projector22/lbf-auth/login"
	"github.com/projector22/lbf-auth/sessionstore"
)

// Gate makes the single per-request authorization decision. Collaborator
// failures degrade to "not authenticated"; nothing propagates past the gate.
type Gate struct {
	store        accounts.Store
	tenants      accounts.TenantConfigStore
	perms        accounts.UserPermissionManager
	ldapVerifier accounts.LDAPVerifier
	ldapDN       func(username string) string
	ldapEnabled  bool
	refreshCodec RefreshCodec
	cookieHash   string
	xsrf         *xsrfClient
	maintenance  func() bool
	handle       LogHandler
	now          func() time.Time
}

// NewGate builds a Gate over the account store. cookieHash is the install-time
// cookie secret; collaborators and policy knobs are wired through options.
func NewGate(store accounts.Store, cookieHash string, options ...Option) *Gate {
	g := &Gate{
		store:        store,
		cookieHash:   cookieHash,
		refreshCodec: LegacyRefreshCodec{},
		maintenance:  func() bool { return false },
		now:          time.Now,
	}
	g.handle = g.Handle
	for _, opt := range options {
		opt(g)
	}

	return g
}

// Evaluate runs the per-request state machine:
// check API key, check session cookie, refresh if needed, decide.
func (g *Gate) Evaluate(ctx context.Context, rc *RequestContext) Decision {
	ctx, span := otel.Tracer(name).Start(ctx, "Gate.Evaluate()")
	defer span.End()

	d := Decision{}

	// API-key validity is independent of the session and evaluated first.
	var apiAccount *accounts.Account
	if apiKey := requestField(rc.Request, apiKeyField); apiKey != "" {
		acct, err := g.store.FindByAPIKey(ctx, apiKey)
		if err != nil {
			logger.FromCtx(ctx).Error(err)
			acct = nil
		}
		if acct != nil {
			d.ValidAPIKey = true
			apiAccount = acct
		}
	}

	// Fail-closed AND: the session login marker and the identity cookie must
	// both be present for a standing session.
	identity, err := rc.Jar.GetString(IdentityCookieName)
	d.LoggedIn = rc.Session.Exists(sessionstore.KeyLogin) && err == nil && identity != ""

	if !d.LoggedIn && !d.ValidAPIKey {
		d.ResponseCode = http.StatusUnauthorized

		return d
	}

	if g.needsRefresh(rc) || d.ValidAPIKey {
		acct := apiAccount
		if acct == nil {
			acct = g.resolveIdentity(ctx, identity)
		}
		if acct == nil {
			return g.forceLogin(rc)
		}

		if d.LoggedIn && login.NewEvaluator(acct, "", g.cookieHash).SessionID() != identity {
			// The stored password hash changed since this cookie was issued.
			return g.forceLogin(rc)
		}

		if !g.refreshSnapshot(ctx, rc, acct) {
			return g.forceLogin(rc)
		}
		g.resetRefreshTimer(rc)
	}

	if snap, ok := rc.Session.Get(sessionstore.KeyPermissions).(accounts.PermissionSnapshot); ok && !snap.CanAccess {
		d.ResponseCode = http.StatusForbidden

		return d
	}

	d.ResponseCode = http.StatusOK

	return d
}

// resolveIdentity re-resolves the account behind a session-identity cookie.
// Store failures are treated as "not found".
func (g *Gate) resolveIdentity(ctx context.Context, identity string) *accounts.Account {
	username, _, ok := credentials.SplitSessionID(identity)
	if !ok {
		return nil
	}

	acct, err := g.store.FindByUsername(ctx, username)
	if err != nil {
		logger.FromCtx(ctx).Error(err)

		return nil
	}

	return acct
}

// forceLogin destroys all auth state and reports a login challenge.
func (g *Gate) forceLogin(rc *RequestContext) Decision {
	rc.Session.DestroyAll()
	rc.Jar.DestroyAll()

	return Decision{ResponseCode: http.StatusUnauthorized}
}

// refreshSnapshot re-caches the account and tenant state into the session.
// Any collaborator failure fails the refresh; the caller logs out.
func (g *Gate) refreshSnapshot(ctx context.Context, rc *RequestContext, acct *accounts.Account) bool {
	rc.Session.Set(sessionstore.KeyUserData, map[string]any{
		"name":          acct.DisplayName,
		"email":         acct.Email,
		"ldap":          acct.LDAPUser,
		"linked_entity": acct.LinkedEntity,
	})

	snap := accounts.PermissionSnapshot{CanAccess: true}
	if g.perms != nil {
		var err error
		snap, err = g.perms.UserPermissions(ctx, accesstypes.User(acct.Username))
		if err != nil {
			logger.FromCtx(ctx).Error(err)

			return false
		}
	}
	rc.Session.Set(sessionstore.KeyPermissions, snap)

	if g.tenants != nil {
		config, err := g.tenants.LoadConfig(ctx)
		if err != nil {
			logger.FromCtx(ctx).Error(err)

			return false
		}
		rc.Session.Set(sessionstore.KeyTenant, config)
	} else {
		rc.Session.Set(sessionstore.KeyTenant, nil)
	}

	return true
}

// resetRefreshTimer rolls the refresh-timer cookie forward.
func (g *Gate) resetRefreshTimer(rc *RequestContext) {
	encoded, err := g.refreshCodec.Encode(g.now())
	if err != nil {
		return
	}

	_ = rc.Jar.Set(RefreshCookieName, encoded, cookie.Attributes{
		Expires:  g.now().Add(refreshCookieLife),
		HTTPOnly: true,
	})
}

// needsRefresh reports whether the cached session snapshot must be
// re-validated against the account store.
func (g *Gate) needsRefresh(rc *RequestContext) bool {
	if g.maintenance() {
		return true
	}
	if requestField(rc.Request, forceRefreshField) != "" {
		return true
	}

	for _, key := range []string{sessionstore.KeyUserData, sessionstore.KeyPermissions, sessionstore.KeyTenant} {
		if !rc.Session.Exists(key) {
			return true
		}
	}

	if snap, ok := rc.Session.Get(sessionstore.KeyPermissions).(accounts.PermissionSnapshot); ok && !snap.CanAccess {
		return true
	}

	encoded, err := rc.Jar.GetString(RefreshCookieName)
	if err != nil {
		return true
	}
	deadline, err := g.refreshCodec.Decode(encoded)
	if err != nil {
		return true
	}

	return deadline.Sub(g.now()) <= refreshRenewWindow
}

// CheckLogout destroys all session values and cookies when an explicit logout
// signal is present. Idempotent.
func (g *Gate) CheckLogout(ctx context.Context, rc *RequestContext) bool {
	_, span := otel.Tracer(name).Start(ctx, "Gate.CheckLogout()")
	defer span.End()

	if requestField(rc.Request, logoutField) == "" {
		return false
	}

	rc.Session.DestroyAll()
	rc.Jar.DestroyAll()

	return true
}
