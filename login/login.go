// Package login evaluates one authentication attempt against an account
// record, producing a status code and the derived session id.
package login

import (
	"context"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/projector22/lbf-auth/accounts"
	"github.com/projector22/lbf-auth/credentials"
)

// fragment slice of the stored password hash mixed into the session id. It
// changes whenever the stored hash changes, invalidating old session ids
// without carrying the real hash in the cookie.
const (
	fragmentOffset = 8
	fragmentLength = 4
)

// dummyHash keeps the bcrypt comparison cost constant for unknown users so
// response timing does not reveal account existence.
var dummyHash = func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		return []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8iU91vK8G6D/Ejko116IhVQbK5EOi")
	}

	return hash
}()

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLDAP wires the directory verifier and the username-to-DN mapping used
// for LDAP-managed accounts.
func WithLDAP(verifier accounts.LDAPVerifier, dn func(username string) string) Option {
	return func(e *Evaluator) {
		e.ldapVerifier = verifier
		e.ldapDN = dn
	}
}

// LDAPEnabled toggles whether LDAP-managed accounts are verified against the
// directory. When disabled they fall back to standard verification.
func LDAPEnabled(enabled bool) Option {
	return func(e *Evaluator) {
		e.ldapEnabled = enabled
	}
}

// CheckDisabled toggles the disabled-account check (default true).
func CheckDisabled(check bool) Option {
	return func(e *Evaluator) {
		e.checkDisabled = check
	}
}

// Evaluator verifies one presented password against one account. An Evaluator
// is single use: the first Verify call is terminal and later calls return the
// same result.
type Evaluator struct {
	account       *accounts.Account
	password      string
	cookieHash    string
	checkDisabled bool

	ldapVerifier accounts.LDAPVerifier
	ldapDN       func(username string) string
	ldapEnabled  bool

	evaluated  bool
	verified   bool
	statusCode int
}

// NewEvaluator returns an Evaluator for one login attempt. cookieHash is the
// install-time cookie secret mixed into the derived session id.
func NewEvaluator(account *accounts.Account, password, cookieHash string, opts ...Option) *Evaluator {
	e := &Evaluator{
		account:       account,
		password:      password,
		cookieHash:    cookieHash,
		checkDisabled: true,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// IsLDAPAccount reports whether the account marks itself LDAP-managed.
func (e *Evaluator) IsLDAPAccount() bool {
	return e.account.LDAPUser
}

// PasswordFragment returns the fixed-length substring of the stored password
// hash that binds session ids to the current credential. A fragment cached on
// the account takes precedence over deriving one.
func (e *Evaluator) PasswordFragment() string {
	if e.account.LDAPPasswordFragment != "" {
		return e.account.LDAPPasswordFragment
	}

	hash := e.account.Password
	if len(hash) < fragmentOffset+fragmentLength {
		return hash
	}

	return hash[fragmentOffset : fragmentOffset+fragmentLength]
}

// Verify checks the presented password, dispatching to LDAP or standard
// verification. Failures are reported through the status code, never as an
// error; LDAP unavailability counts as a failed verification.
func (e *Evaluator) Verify(ctx context.Context) bool {
	if e.evaluated {
		return e.verified
	}
	e.evaluated = true

	// Disabled-account enforcement is an extension point; the historical
	// implementation never wired it up.
	_ = e.checkDisabled

	if e.IsLDAPAccount() && e.ldapEnabled {
		e.verified = e.verifyLDAP(ctx)
	} else {
		e.verified = e.verifyStandard()
	}

	if e.verified {
		e.statusCode = http.StatusOK
	} else {
		e.statusCode = http.StatusUnauthorized
	}

	return e.verified
}

func (e *Evaluator) verifyLDAP(ctx context.Context) bool {
	if e.password == "" {
		// Anonymous binds succeed on many directory servers; an empty
		// password must never authenticate.
		return false
	}
	if e.ldapVerifier == nil || e.ldapDN == nil {
		return false
	}

	return e.ldapVerifier.Bind(ctx, e.ldapDN(e.account.Username), e.password)
}

func (e *Evaluator) verifyStandard() bool {
	if e.account.Password == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(e.password))

		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(e.account.Password), []byte(e.password)) == nil
}

// StatusCode returns 200 after successful verification, 401 after a failed
// one, and 0 before Verify has run.
func (e *Evaluator) StatusCode() int {
	return e.statusCode
}

// SessionID derives the value placed in the long-lived authentication cookie.
// Reconstructing it from stored account data and comparing against the cookie
// is the standing-session verification method.
func (e *Evaluator) SessionID() string {
	return credentials.SessionID(e.account.Username, e.PasswordFragment(), e.cookieHash)
}
