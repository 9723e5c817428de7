// Package auth implements the per-request authorization decision for the
// school-registration framework: it combines the session cookie, the API key,
// and the account store into a single fail-closed evaluation.
package auth

import (
	"net/http"

	"github.com/projector22/lbf-auth/cookie"
	"github.com/projector22/lbf-auth/sessionstore"
)

// name is the tracer name used for spans emitted by this package.
const name = "github.com/projector22/lbf-auth"

// Cookie names owned by the gate.
const (
	// IdentityCookieName holds the derived session id (username|digest).
	IdentityCookieName = "account"

	// RefreshCookieName holds the encoded refresh-timer deadline.
	RefreshCookieName = "refresh_timer"
)

// Request fields consulted by the gate.
const (
	apiKeyField       = "api_key"
	forceRefreshField = "force_refresh"
	logoutField       = "logout"
)

// Decision is the transient per-request authorization result. LoggedIn and
// ValidAPIKey are independent: API-key validity is evaluated even when no
// session exists.
type Decision struct {
	LoggedIn     bool
	ValidAPIKey  bool
	ResponseCode int
}

// RequestContext carries the per-request mutable state through the gate and
// the router. It is constructed once per request and passed explicitly; the
// gate keeps no ambient state.
type RequestContext struct {
	Request *http.Request
	Jar     *cookie.Jar
	Session *sessionstore.Store
}

// NewRequestContext builds the request context for one evaluation.
func NewRequestContext(r *http.Request, jar *cookie.Jar, session *sessionstore.Store) *RequestContext {
	return &RequestContext{
		Request: r,
		Jar:     jar,
		Session: session,
	}
}

// requestField reads a request field, body first. A body value takes
// precedence over the query string when both are present.
func requestField(r *http.Request, field string) string {
	if r == nil {
		return ""
	}

	if v := r.PostFormValue(field); v != "" {
		return v
	}

	return r.URL.Query().Get(field)
}

// HasAPIKey reports whether the request carries an API key at all.
func HasAPIKey(r *http.Request) bool {
	return requestField(r, apiKeyField) != ""
}
