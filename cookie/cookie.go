// Package cookie implements the client-side key/value store delivered through
// the HTTP cookie channel.
package cookie

import (
	"net/http"
	"time"

	"github.com/go-playground/errors/v5"
)

// Attributes carries the optional cookie attributes for Set. A zero Expires
// means "use the jar's default duration".
type Attributes struct {
	Expires  time.Time
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
}

// Jar is the per-request cookie store. Reads resolve against the incoming
// request plus any values set during this request; writes are queued and
// flushed to the response in one pass before the body starts.
type Jar struct {
	codec           Codec
	state           *ResponseState
	request         *http.Request
	pending         map[string]*http.Cookie
	removed         map[string]struct{}
	defaultDuration time.Duration
	includeNow      bool
	now             func() time.Time
}

// NewJar returns a Jar reading incoming cookies from r.
func NewJar(r *http.Request, codec Codec, state *ResponseState) *Jar {
	return &Jar{
		codec:           codec,
		state:           state,
		request:         r,
		pending:         make(map[string]*http.Cookie),
		removed:         make(map[string]struct{}),
		defaultDuration: DefaultDuration,
		includeNow:      true,
		now:             time.Now,
	}
}

// SetDefaultDuration sets the expiry used when Set receives a zero Expires.
// expr accepts an offset in seconds or a natural-language relative expression
// ("30 days"). When includeNow is false the parsed value is treated as an
// absolute Unix timestamp rather than an offset from now.
func (j *Jar) SetDefaultDuration(expr string, includeNow bool) error {
	d, err := ParseRelative(expr)
	if err != nil {
		return errors.Wrap(err, "ParseRelative()")
	}

	j.defaultDuration = d
	j.includeNow = includeNow

	return nil
}

// Set encodes value and queues it for delivery under name. It fails with
// HeadersSentError once the response body has started and with TooLargeError
// when the encoded value exceeds MaxEncodedSize.
func (j *Jar) Set(name string, value any, attrs Attributes) error {
	if name == "" {
		return errors.New("cookie name must not be empty")
	}
	if j.state.Started() {
		return errors.Wrap(&HeadersSentError{Name: name}, "cookie.Jar.Set()")
	}

	encoded, err := j.codec.Encode(name, value)
	if err != nil {
		return errors.Wrap(err, "Codec.Encode()")
	}
	if len(encoded) > MaxEncodedSize {
		return errors.Wrap(&TooLargeError{Name: name, Size: len(encoded)}, "cookie.Jar.Set()")
	}

	expires := attrs.Expires
	if expires.IsZero() {
		if j.includeNow {
			expires = j.now().Add(j.defaultDuration)
		} else {
			expires = time.Unix(int64(j.defaultDuration/time.Second), 0)
		}
	}

	path := attrs.Path
	if path == "" {
		path = "/"
	}

	delete(j.removed, name)
	j.pending[name] = &http.Cookie{
		Name:     name,
		Value:    encoded,
		Expires:  expires,
		Path:     path,
		Domain:   attrs.Domain,
		Secure:   attrs.Secure,
		HttpOnly: attrs.HTTPOnly,
	}

	return nil
}

// Get decodes the named cookie into output, which must be a pointer. It
// returns NotFoundError when the cookie is absent, destroyed, or expired.
func (j *Jar) Get(name string, output any) error {
	encoded, err := j.encodedValue(name)
	if err != nil {
		return err
	}

	if err := j.codec.Decode(name, encoded, output); err != nil {
		return errors.Wrap(err, "Codec.Decode()")
	}

	return nil
}

// GetString returns the named cookie decoded as a plain string.
func (j *Jar) GetString(name string) (string, error) {
	var value string
	if err := j.Get(name, &value); err != nil {
		return "", err
	}

	return value, nil
}

// GetMap returns the named cookie decoded as a string-keyed map.
func (j *Jar) GetMap(name string) (map[string]any, error) {
	value := make(map[string]any)
	if err := j.Get(name, &value); err != nil {
		return nil, err
	}

	return value, nil
}

func (j *Jar) encodedValue(name string) (string, error) {
	if _, gone := j.removed[name]; gone {
		return "", errors.Wrap(&NotFoundError{Name: name}, "cookie.Jar")
	}

	if c, ok := j.pending[name]; ok {
		if !c.Expires.IsZero() && c.Expires.Before(j.now()) {
			return "", errors.Wrap(&NotFoundError{Name: name}, "cookie.Jar")
		}

		return c.Value, nil
	}

	if j.request != nil {
		if c, err := j.request.Cookie(name); err == nil {
			return c.Value, nil
		}
	}

	return "", errors.Wrap(&NotFoundError{Name: name}, "cookie.Jar")
}

// Exists reports whether the named cookie is readable.
func (j *Jar) Exists(name string) bool {
	_, err := j.encodedValue(name)

	return err == nil
}

// Destroy removes the named cookie. Removing an absent cookie is not an error.
func (j *Jar) Destroy(name string) {
	delete(j.pending, name)
	j.removed[name] = struct{}{}
}

// DestroyAll removes every cookie visible to this request.
func (j *Jar) DestroyAll() {
	for name := range j.pending {
		j.removed[name] = struct{}{}
	}
	j.pending = make(map[string]*http.Cookie)

	if j.request != nil {
		for _, c := range j.request.Cookies() {
			j.removed[c.Name] = struct{}{}
		}
	}
}

// Flush writes all queued mutations to w and marks the response started.
// Destroyed cookies are expired on the client with an epoch expiry.
func (j *Jar) Flush(w http.ResponseWriter) {
	for name := range j.removed {
		http.SetCookie(w, &http.Cookie{
			Name:    name,
			Value:   "",
			Expires: time.Unix(0, 0),
			Path:    "/",
		})
	}
	for _, c := range j.pending {
		http.SetCookie(w, c)
	}

	j.state.Start()
}
