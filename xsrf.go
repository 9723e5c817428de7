package auth

import (
	"net/http"
	"time"

	"github.com/cccteam/httpio"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
	"github.com/gorilla/securecookie"
)

type stKey string

func (c stKey) String() string {
	return string(c)
}

const (
	stCookieName = "XSRF-TOKEN"
	stHeaderName = "X-XSRF-TOKEN"
	// Keys used in Secure Token Cookie
	stSessionToken    stKey = "sessiontoken"
	stTokenExpiration stKey = "expiration"

	xsrfCookieLife = time.Hour

	// rewrite xsrf cookie token if it expires within duration
	xsrfReWriteWindow = 30 * time.Minute
)

// safeMethods are Idempotent methods as defined by RFC7231 section 4.2.2.
var safeMethods = methods([]string{"GET", "HEAD", "OPTIONS", "TRACE"})

type methods []string

func (vals methods) contain(s string) bool {
	for _, v := range vals {
		if v == s {
			return true
		}
	}

	return false
}

// xsrfClient binds the XSRF token to the transport session token so a stolen
// token is useless outside the session it was issued for.
type xsrfClient struct {
	secureCookie *securecookie.SecureCookie
}

// WithXSRFProtection wires the signing keys for the XSRF token middleware.
func WithXSRFProtection(secureCookie *securecookie.SecureCookie) Option {
	return func(g *Gate) {
		g.xsrf = &xsrfClient{secureCookie: secureCookie}
	}
}

// SetXSRFToken sets the XSRF Token
func (g *Gate) SetXSRFToken(next http.Handler) http.Handler {
	return g.handle(func(w http.ResponseWriter, r *http.Request) error {
		if g.xsrf.setXSRFTokenCookie(w, r, sessionTokenFromRequest(r), xsrfCookieLife) && !safeMethods.contain(r.Method) {
			// Cookie was not present and request requires XSRF Token, so
			// redirect request to try again now that the XSRF Token Cookie is set
			http.Redirect(w, r, r.RequestURI, http.StatusTemporaryRedirect)

			return nil
		}

		next.ServeHTTP(w, r)

		return nil
	})
}

// ValidateXSRFToken validates the XSRF Token
func (g *Gate) ValidateXSRFToken(next http.Handler) http.Handler {
	return g.handle(func(w http.ResponseWriter, r *http.Request) error {
		// Validate XSRFToken for non-safe
		if !safeMethods.contain(r.Method) && !g.xsrf.hasValidXSRFToken(r) {
			// Token validation failed
			return httpio.NewEncoder(w).ClientMessage(r.Context(), httpio.NewForbiddenMessage("invalid XSRF token"))
		}

		next.ServeHTTP(w, r)

		return nil
	})
}

// sessionTokenFromRequest returns the opaque session token the request
// carries, or "" for an anonymous request.
func sessionTokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(SessionTokenCookieName)
	if err != nil {
		return ""
	}

	return c.Value
}

// setXSRFTokenCookie sets the cookie if it does not exist and updates the cookie when it is close to expiration.
func (c *xsrfClient) setXSRFTokenCookie(w http.ResponseWriter, r *http.Request, sessionToken string, cookieExpiration time.Duration) (set bool) {
	cookieValue, found := c.readXSRFCookie(r)
	sessionMatch := sessionToken == cookieValue[stSessionToken]
	if found {
		exp, err := time.Parse(time.UnixDate, cookieValue[stTokenExpiration])
		if err != nil {
			logger.Req(r).Error("parsing expiration")
		} else if time.Now().Before(exp.Add(-xsrfReWriteWindow)) && sessionMatch {
			return false
		}
	}

	cookieValue = map[stKey]string{
		stSessionToken:    sessionToken,
		stTokenExpiration: time.Now().Add(cookieExpiration).Format(time.UnixDate),
	}

	if err := c.writeXSRFCookie(w, cookieExpiration, cookieValue); err != nil {
		logger.Req(r).Error("writeXSRFCookie()")

		return false
	}

	return true
}

func (c *xsrfClient) hasValidXSRFToken(r *http.Request) bool {
	cookieValue, found := c.readXSRFCookie(r)
	if !found {
		return false
	}
	exp, err := time.Parse(time.UnixDate, cookieValue[stTokenExpiration])
	if err != nil {
		logger.Req(r).Error("parsing expiration")

		return false
	}
	if time.Now().After(exp) {
		return false
	}
	if sessionTokenFromRequest(r) != cookieValue[stSessionToken] {
		return false
	}
	hval, found := c.readXSRFHeader(r)
	if !found {
		return false
	}

	return hval[stSessionToken] == cookieValue[stSessionToken]
}

func (c *xsrfClient) writeXSRFCookie(w http.ResponseWriter, cookieExpiration time.Duration, cookieValue map[stKey]string) error {
	encoded, err := c.secureCookie.Encode(stCookieName, cookieValue)
	if err != nil {
		return errors.Wrap(err, "securecookie.Encode()")
	}

	http.SetCookie(w, &http.Cookie{
		Name:    stCookieName,
		Expires: time.Now().Add(cookieExpiration),
		Value:   encoded,
		Path:    "/",
		Secure:  true,
	})

	return nil
}

func (c *xsrfClient) readXSRFCookie(r *http.Request) (map[stKey]string, bool) {
	cookie, err := r.Cookie(stCookieName)
	if err != nil {
		return nil, false
	}

	cookieValue := make(map[stKey]string)
	err = c.secureCookie.Decode(stCookieName, cookie.Value, &cookieValue)
	if err != nil {
		logger.Req(r).Error("securecookie.Decode()")

		return nil, false
	}

	return cookieValue, true
}

func (c *xsrfClient) readXSRFHeader(r *http.Request) (map[stKey]string, bool) {
	h := r.Header.Get(stHeaderName)
	cookieValue := make(map[stKey]string)
	err := c.secureCookie.Decode(stCookieName, h, &cookieValue)
	if err != nil {
		logger.Req(r).Error("securecookie.Decode()")

		return nil, false
	}

	return cookieValue, true
}
