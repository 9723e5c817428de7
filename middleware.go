package auth

import (
	"context"
	"net/http"

	"github.com/cccteam/logger"

	"github.com/projector22/lbf-auth/cookie"
	"github.com/projector22/lbf-auth/sessionstore"
)

// ctxKey is a type for storing values in the request context
type ctxKey string

const ctxRequestContext ctxKey = "requestContext"

// SessionBackend persists session values between requests. The session id
// token is owned by the transport, not by the gate.
type SessionBackend interface {
	Load(r *http.Request) (id string, values map[string]any, ok bool)
	Save(w http.ResponseWriter, id string, values map[string]any)
}

// WithRequestContext returns middleware that builds the per-request
// RequestContext and defers all cookie writes until the first response body
// byte, keeping the cookies-before-body ordering in one place.
func (g *Gate) WithRequestContext(codec cookie.Codec, backend SessionBackend) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := cookie.NewResponseState()
			jar := cookie.NewJar(r, codec, state)
			session := sessionstore.New(state)

			if backend != nil {
				if id, values, ok := backend.Load(r); ok {
					session.Restore(id, values)
				}
			}

			rc := NewRequestContext(r, jar, session)
			r = r.WithContext(context.WithValue(r.Context(), ctxRequestContext, rc))

			// The backend save must run before the jar flush so the session id
			// cookie goes out with the same response headers.
			fw := &flushWriter{ResponseWriter: w, flushFn: func(w http.ResponseWriter) {
				if backend != nil && session.HasStarted() {
					backend.Save(w, session.ID(), session.Values())
				}
				jar.Flush(w)
			}}
			next.ServeHTTP(fw, r)
			fw.flush()
		})
	}
}

// RequestContextFrom returns the RequestContext stored by WithRequestContext.
func RequestContextFrom(r *http.Request) *RequestContext {
	rc, ok := r.Context().Value(ctxRequestContext).(*RequestContext)
	if !ok {
		logger.Req(r).Errorf("failed to find %s in request context", ctxRequestContext)
	}

	return rc
}

// flushWriter flushes pending cookie state ahead of the first body write.
type flushWriter struct {
	http.ResponseWriter
	flushFn func(http.ResponseWriter)
	flushed bool
}

func (w *flushWriter) flush() {
	if w.flushed {
		return
	}
	w.flushed = true
	w.flushFn(w.ResponseWriter)
}

func (w *flushWriter) WriteHeader(statusCode int) {
	w.flush()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *flushWriter) Write(b []byte) (int, error) {
	w.flush()

	n, err := w.ResponseWriter.Write(b)
	if err != nil {
		return n, err //nolint:wrapcheck // pass through the transport error unchanged
	}

	return n, nil
}
