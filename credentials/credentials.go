// Package credentials derives the hash material used for cookies, session ids, and API keys.
package credentials

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
)

// Algorithm selects the digest used for install-time hash material and API keys.
type Algorithm int

const (
	// LegacyMD5 is wire-compatible with keys and hashes generated by earlier releases.
	LegacyMD5 Algorithm = iota

	// HMACSHA256 is the recommended algorithm for new installs.
	HMACSHA256
)

// uniqCounter feeds RandomID so two calls in the same nanosecond still differ.
var uniqCounter atomic.Uint64

// Hasher generates install-time secrets and per-account API keys.
//
// CookieHash and SessionHash are intended to be called once at install time and
// the results persisted in the application configuration. They are long-lived
// shared secrets mixed into every session id, not per-request nonces.
type Hasher struct {
	algorithm Algorithm
	hmacKey   []byte
	now       func() time.Time
}

// New returns a Hasher using the given algorithm. The key is only used by
// HMACSHA256 and may be empty for LegacyMD5.
func New(algorithm Algorithm, key []byte) *Hasher {
	return &Hasher{
		algorithm: algorithm,
		hmacKey:   key,
		now:       time.Now,
	}
}

// RandomID returns length characters sliced from the hex digest of a
// time-and-counter seed concatenated with extraSeed. It is not uniform and not
// cryptographically unpredictable; callers must only use it as mixing material.
func RandomID(length int, extraSeed string) string {
	if length <= 0 {
		length = 7
	}

	seed := strconv.FormatInt(time.Now().UnixNano(), 16) + strconv.FormatUint(uniqCounter.Add(1), 16) + extraSeed
	digest := md5.Sum([]byte(seed))
	id := hex.EncodeToString(digest[:])
	if length > len(id) {
		length = len(id)
	}

	return id[:length]
}

// GenerateGUID returns a v4-shaped GUID string. When the platform randomness
// source fails it falls back to a weak time-seeded generator rather than
// returning an error; strength degrades silently. trim controls the presence
// of surrounding braces.
func GenerateGUID(trim bool) string {
	var guid string
	if id, err := uuid.NewV4(); err == nil {
		guid = id.String()
	} else {
		guid = weakGUID()
	}

	if !trim {
		return "{" + guid + "}"
	}

	return guid
}

// weakGUID builds a v4-shaped GUID from math/rand when crypto/rand is unavailable.
func weakGUID() string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := make([]byte, 16)
	r.Read(b)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80

	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// CookieHash derives the install-time cookie secret from three install-specific parts.
func (h *Hasher) CookieHash(part1, part2, part3 string) string {
	return h.digest(h.timePrefix() + part1 + part2 + part3)
}

// SessionHash derives the install-time session secret from two install-specific parts.
func (h *Hasher) SessionHash(part1, part2 string) string {
	return h.digest(h.timePrefix() + part1 + part2)
}

// GenerateAPIKey returns the API key digest for an account. When random1 or
// random2 are empty the generator derives them from fresh cookie/session hash
// material. The key is stored verbatim in the account record and compared
// verbatim on each request.
func (h *Hasher) GenerateAPIKey(accountID, random1, random2 string) string {
	if random1 == "" {
		random1 = h.CookieHash(RandomID(7, ""), RandomID(7, ""), RandomID(7, ""))
	}
	if random2 == "" {
		random2 = h.SessionHash(RandomID(7, ""), RandomID(7, ""))
	}

	return h.digest(random1 + random2 + strconv.FormatInt(h.now().Unix(), 10) + accountID)
}

func (h *Hasher) timePrefix() string {
	now := h.now()

	return now.Format(time.RFC3339) + strconv.FormatInt(now.Unix(), 10)
}

func (h *Hasher) digest(input string) string {
	switch h.algorithm {
	case HMACSHA256:
		mac := hmac.New(sha256.New, h.hmacKey)
		mac.Write([]byte(input))

		return hex.EncodeToString(mac.Sum(nil))
	default:
		digest := md5.Sum([]byte(input))

		return hex.EncodeToString(digest[:])
	}
}

// SessionID derives the long-lived authentication cookie value for a user:
// username|sha256(username + passwordFragment + cookieHash). It is a pure
// function of its inputs so the server can reconstruct and compare it from
// stored account data.
func SessionID(username, passwordFragment, cookieHash string) string {
	digest := sha256.Sum256([]byte(username + passwordFragment + cookieHash))

	return username + "|" + hex.EncodeToString(digest[:])
}

// SplitSessionID splits a session id into its username and digest halves.
// ok is false when the value is not in username|digest form.
func SplitSessionID(sessionID string) (username, digest string, ok bool) {
	username, digest, ok = strings.Cut(sessionID, "|")
	if !ok || username == "" || digest == "" {
		return "", "", false
	}

	return username, digest, true
}
