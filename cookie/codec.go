package cookie

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"

	"github.com/go-playground/errors/v5"
	"github.com/gorilla/securecookie"
)

// MaxEncodedSize is the hard protocol limit for an encoded cookie value.
const MaxEncodedSize = 4000

// signedPrefix versions the signed wire format so legacy cookies written as
// base64(zlib(json)) still decode. Changing it invalidates every signed cookie.
const signedPrefix = "v2:"

// Codec encodes cookie values to and from their wire form.
type Codec interface {
	Encode(name string, value any) (string, error)
	Decode(name, encoded string, output any) error
}

// LegacyCodec implements the historical wire format: base64(zlib(json(value))).
// The value carries no integrity protection; installs not constrained by old
// cookies should use NewVersionedCodec instead.
type LegacyCodec struct{}

// Encode serializes, compresses, and base64-encodes value.
func (LegacyCodec) Encode(_ string, value any) (string, error) {
	serialized, err := json.Marshal(value)
	if err != nil {
		return "", errors.Wrap(err, "json.Marshal()")
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(serialized); err != nil {
		return "", errors.Wrap(err, "zlib.Writer.Write()")
	}
	if err := zw.Close(); err != nil {
		return "", errors.Wrap(err, "zlib.Writer.Close()")
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode: base64 decode, decompress, deserialize into output.
func (LegacyCodec) Decode(_ string, encoded string, output any) error {
	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return errors.Wrap(err, "base64.StdEncoding.DecodeString()")
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return errors.Wrap(err, "zlib.NewReader()")
	}
	serialized, err := io.ReadAll(zr)
	if err != nil {
		return errors.Wrap(err, "io.ReadAll()")
	}
	if err := zr.Close(); err != nil {
		return errors.Wrap(err, "zlib.Reader.Close()")
	}

	if err := json.Unmarshal(serialized, output); err != nil {
		return errors.Wrap(err, "json.Unmarshal()")
	}

	return nil
}

// VersionedCodec writes the signed format and reads both the signed and the
// legacy formats, so existing client cookies survive the upgrade.
type VersionedCodec struct {
	secureCookie *securecookie.SecureCookie
	legacy       LegacyCodec
}

// NewVersionedCodec returns a codec that signs values with secureCookie.
func NewVersionedCodec(secureCookie *securecookie.SecureCookie) *VersionedCodec {
	return &VersionedCodec{secureCookie: secureCookie}
}

// Encode signs value and prefixes the wire form with the format version.
func (c *VersionedCodec) Encode(name string, value any) (string, error) {
	serialized, err := json.Marshal(value)
	if err != nil {
		return "", errors.Wrap(err, "json.Marshal()")
	}

	encoded, err := c.secureCookie.Encode(name, serialized)
	if err != nil {
		return "", errors.Wrap(err, "securecookie.Encode()")
	}

	return signedPrefix + encoded, nil
}

// Decode dispatches on the version prefix, falling back to the legacy format.
func (c *VersionedCodec) Decode(name, encoded string, output any) error {
	signed, ok := strings.CutPrefix(encoded, signedPrefix)
	if !ok {
		if err := c.legacy.Decode(name, encoded, output); err != nil {
			return errors.Wrap(err, "LegacyCodec.Decode()")
		}

		return nil
	}

	var serialized []byte
	if err := c.secureCookie.Decode(name, signed, &serialized); err != nil {
		return errors.Wrap(err, "securecookie.Decode()")
	}

	if err := json.Unmarshal(serialized, output); err != nil {
		return errors.Wrap(err, "json.Unmarshal()")
	}

	return nil
}
