package cookie

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/go-playground/errors/v5"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

// NewSecureCookie derives the hash and block keys for the signed cookie codec
// from a base64-encoded master key. An empty key generates a random one and
// prints it, for dev use only; cookies will not survive a restart.
func NewSecureCookie(masterKeyBase64 string) (*securecookie.SecureCookie, error) {
	if masterKeyBase64 == "" {
		rKey := make([]byte, 32)
		if _, err := rand.Read(rKey); err != nil {
			return nil, errors.New("failed to generate random key")
		}
		masterKeyBase64 = base64.StdEncoding.EncodeToString(rKey)
		fmt.Printf("Using random cookie key (Base64): %s\n", masterKeyBase64)
	}

	keyMaterial, err := base64.StdEncoding.DecodeString(masterKeyBase64)
	if err != nil {
		return nil, errors.Wrap(err, "base64.StdEncoding.DecodeString()")
	}

	hkdfReader := hkdf.New(sha256.New, keyMaterial, []byte("lbf-auth-cookie-key-salt"), nil)

	hashKey := make([]byte, 64)
	if _, err := io.ReadFull(hkdfReader, hashKey); err != nil {
		return nil, errors.Wrap(err, "hkdf hash key")
	}
	blockKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, blockKey); err != nil {
		return nil, errors.Wrap(err, "hkdf block key")
	}

	return securecookie.New(hashKey, blockKey), nil
}
