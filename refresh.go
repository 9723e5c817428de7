package auth

import (
	"strconv"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/go-playground/errors/v5"
)

const (
	// refreshDeadlineOffset is the rolling window between snapshot refreshes.
	refreshDeadlineOffset = 300 * time.Second

	// refreshRenewWindow renews the timer when the deadline is this close.
	refreshRenewWindow = 10 * time.Second

	// refreshCookieLife is how long the refresh-timer cookie stays on the client.
	refreshCookieLife = 24 * time.Hour
)

// RefreshCodec encodes the refresh-timer deadline into its cookie value.
type RefreshCodec interface {
	Encode(setAt time.Time) (string, error)
	Decode(encoded string) (deadline time.Time, err error)
}

// LegacyRefreshCodec implements the historical scrambled-integer format:
// ((setAt + 300) * 7) + 4. The multiply/add is a non-cryptographic anti-tamper
// scramble carried for compatibility with existing client cookies, not a
// security boundary.
type LegacyRefreshCodec struct{}

// Encode returns the scrambled deadline for a timer set at setAt.
func (LegacyRefreshCodec) Encode(setAt time.Time) (string, error) {
	deadline := setAt.Add(refreshDeadlineOffset).Unix()

	return strconv.FormatInt(deadline*7+4, 10), nil
}

// Decode unscrambles the deadline. Values not produced by Encode fail.
func (LegacyRefreshCodec) Decode(encoded string) (time.Time, error) {
	v, err := strconv.ParseInt(encoded, 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "strconv.ParseInt()")
	}
	if (v-4)%7 != 0 {
		return time.Time{}, errors.New("malformed refresh timer value")
	}

	return time.Unix((v-4)/7, 0), nil
}

// PasetoRefreshCodec encodes the deadline as an opaque encrypted token. It is
// the recommended format for installs without legacy cookie compatibility
// constraints.
type PasetoRefreshCodec struct {
	key paseto.V4SymmetricKey
}

// NewPasetoRefreshCodec returns a codec using a fresh symmetric key. Timers
// issued before a restart simply decode as invalid, which forces a refresh.
func NewPasetoRefreshCodec() *PasetoRefreshCodec {
	return &PasetoRefreshCodec{key: paseto.NewV4SymmetricKey()}
}

// Encode returns the encrypted deadline token for a timer set at setAt.
func (c *PasetoRefreshCodec) Encode(setAt time.Time) (string, error) {
	token := paseto.NewToken()
	token.SetIssuedAt(setAt)
	token.SetExpiration(setAt.Add(refreshDeadlineOffset))

	return token.V4Encrypt(c.key, nil), nil
}

// Decode returns the deadline carried by the token. Expired tokens still
// decode; the gate compares the deadline itself.
func (c *PasetoRefreshCodec) Decode(encoded string) (time.Time, error) {
	parser := paseto.NewParserWithoutExpiryCheck()

	token, err := parser.ParseV4Local(c.key, encoded, nil)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "paseto.Parser.ParseV4Local()")
	}

	deadline, err := token.GetExpiration()
	if err != nil {
		return time.Time{}, errors.Wrap(err, "paseto.Token.GetExpiration()")
	}

	return deadline, nil
}
