// Package ldapauth verifies credentials against a directory server by
// attempting an LDAP bind.
package ldapauth

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/cccteam/logger"
	"github.com/go-ldap/ldap/v3"
	"github.com/go-playground/errors/v5"

	"github.com/projector22/lbf-auth/accounts"
)

var _ accounts.LDAPVerifier = &Verifier{}

// Verifier binds against an LDAP server. Every failure mode, including an
// unreachable server, reports as a failed bind; nothing propagates.
type Verifier struct {
	url       string
	tlsConfig *tls.Config
	dial      func(url string) (ldap.Client, error)
}

// New returns a Verifier for the given LDAP URL (ldap:// or ldaps://).
func New(url string, tlsConfig *tls.Config) *Verifier {
	v := &Verifier{
		url:       url,
		tlsConfig: tlsConfig,
	}
	v.dial = v.dialLDAP

	return v
}

func (v *Verifier) dialLDAP(url string) (ldap.Client, error) {
	conn, err := ldap.DialURL(url, ldap.DialWithTLSConfig(v.tlsConfig))
	if err != nil {
		return nil, errors.Wrap(err, "ldap.DialURL()")
	}

	return conn, nil
}

// Bind reports whether dn authenticates with password. An empty password is
// rejected up front; many directory servers treat it as an anonymous bind.
func (v *Verifier) Bind(ctx context.Context, dn, password string) bool {
	if password == "" {
		return false
	}

	conn, err := v.dial(v.url)
	if err != nil {
		logger.FromCtx(ctx).Error(err)

		return false
	}
	defer conn.Close()

	if err := conn.Bind(dn, password); err != nil {
		if !ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			logger.FromCtx(ctx).Error(err)
		}

		return false
	}

	return true
}

// DNTemplate returns a username-to-DN mapping for a fixed base DN, e.g.
// DNTemplate("uid", "ou=people,dc=school,dc=example").
func DNTemplate(attribute, baseDN string) func(username string) string {
	return func(username string) string {
		return fmt.Sprintf("%s=%s,%s", attribute, ldap.EscapeDN(username), baseDN)
	}
}
