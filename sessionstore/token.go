package sessionstore

import (
	"github.com/projector22/lbf-auth/credentials"
)

// newSessionToken returns a fresh opaque session identifier.
func newSessionToken() string {
	return credentials.GenerateGUID(true)
}
