package cookie

import (
	"fmt"

	"github.com/go-playground/errors/v5"
)

// HeadersSentError is returned when a cookie mutation is attempted after the
// response body has started. The underlying protocol delivers cookies in the
// response headers, so this ordering is not negotiable.
type HeadersSentError struct {
	Name string
}

func (e *HeadersSentError) Error() string {
	return fmt.Sprintf("cannot write cookie %q: response headers already sent", e.Name)
}

// TooLargeError is returned when an encoded cookie value exceeds MaxEncodedSize.
// The caller must shrink the payload (store a reference instead of inline
// data); there is no automatic splitting.
type TooLargeError struct {
	Name string
	Size int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("encoded cookie %q is %d bytes, limit is %d", e.Name, e.Size, MaxEncodedSize)
}

// NotFoundError is returned by Get when the named cookie is absent or expired.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cookie %q not found", e.Name)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	nf := &NotFoundError{}

	return errors.As(err, &nf)
}

// IsTooLarge reports whether err is a TooLargeError.
func IsTooLarge(err error) bool {
	tl := &TooLargeError{}

	return errors.As(err, &tl)
}

// IsHeadersSent reports whether err is a HeadersSentError.
func IsHeadersSent(err error) bool {
	hs := &HeadersSentError{}

	return errors.As(err, &hs)
}
