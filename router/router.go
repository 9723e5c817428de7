// Package router maps a resource path and request type to a page handler,
// consulting the permission gate before dispatch.
package router

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"

	auth "github.com/projector22/lbf-auth"
)

// name is the tracer name used for spans emitted by this package.
const name = "github.com/projector22/lbf-auth/router"

// RequestType selects the resource surface a request targets.
type RequestType string

const (
	TypeHTTP        RequestType = "http"
	TypePDF         RequestType = "pdf"
	TypeDownload    RequestType = "download"
	TypeDocs        RequestType = "docs"
	TypeMaintenance RequestType = "maintenance"
	TypeDevTools    RequestType = "dev-tools"
	TypeCLI         RequestType = "cli"
)

// handlerSuffix is appended to the resolved handler name per request type.
var handlerSuffix = map[RequestType]string{
	TypeHTTP:        "",
	TypePDF:         "PDF",
	TypeDownload:    "Download",
	TypeDocs:        "Docs",
	TypeMaintenance: "Maintenance",
	TypeDevTools:    "DevTools",
	TypeCLI:         "CLI",
}

// bypassesAuth marks request types dispatched without consulting the gate.
var bypassesAuth = map[RequestType]bool{
	TypeMaintenance: true,
	TypeDevTools:    true,
	TypeCLI:         true,
}

// Handler handles one resolved resource.
type Handler func(ctx context.Context, rc *auth.RequestContext, w http.ResponseWriter) error

// Router resolves and dispatches page handlers.
type Router struct {
	gate          *auth.Gate
	handlers      map[string]Handler
	errorHandlers map[int]Handler
}

// New returns a Router over the gate with no resources registered.
func New(gate *auth.Gate) *Router {
	return &Router{
		gate:          gate,
		handlers:      make(map[string]Handler),
		errorHandlers: make(map[int]Handler),
	}
}

// Register binds a resource path and request type to a handler.
func (rt *Router) Register(path string, requestType RequestType, h Handler) {
	rt.handlers[HandlerName(path, requestType)] = h
}

// RegisterError binds a static error handler for a response code (401, 403, 404).
func (rt *Router) RegisterError(code int, h Handler) {
	rt.errorHandlers[code] = h
}

// HandlerName resolves a kebab-case path and request type to the handler
// identifier: "student-records" + pdf -> "StudentRecordsPDF".
func HandlerName(path string, requestType RequestType) string {
	var b strings.Builder
	for _, part := range strings.Split(strings.Trim(path, "/"), "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	b.WriteString(handlerSuffix[requestType])

	return b.String()
}

// HandlerExists reports whether path resolves to a registered handler. The
// existence check runs before authorization so a missing resource reports 404
// even to an authenticated caller.
func (rt *Router) HandlerExists(path string, requestType RequestType) bool {
	if _, ok := handlerSuffix[requestType]; !ok {
		return false
	}
	_, ok := rt.handlers[HandlerName(path, requestType)]

	return ok
}

// Route resolves path and requestType, consults the gate, and dispatches the
// resource handler or the matching error handler.
func (rt *Router) Route(ctx context.Context, rc *auth.RequestContext, w http.ResponseWriter, path string, requestType RequestType) error {
	ctx, span := otel.Tracer(name).Start(ctx, "Router.Route()")
	defer span.End()

	// Existence can only tighten the decision to 404, never grant access.
	if !rt.HandlerExists(path, requestType) {
		return rt.dispatchError(ctx, rc, w, http.StatusNotFound)
	}

	if bypassesAuth[requestType] {
		return rt.dispatch(ctx, rc, w, path, requestType)
	}

	d := rt.gate.Evaluate(ctx, rc)

	// A valid API key never grants access to interactive HTML pages; API
	// callers must use the pdf/download/docs surfaces.
	if requestType == TypeHTTP && auth.HasAPIKey(rc.Request) {
		return rt.dispatchError(ctx, rc, w, http.StatusUnauthorized)
	}

	switch d.ResponseCode {
	case http.StatusOK:
		return rt.dispatch(ctx, rc, w, path, requestType)
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return rt.dispatchError(ctx, rc, w, d.ResponseCode)
	default:
		// Undecided states degrade to 404 rather than a 500, matching the
		// behavior page authors already rely on.
		return rt.dispatchError(ctx, rc, w, http.StatusNotFound)
	}
}

func (rt *Router) dispatch(ctx context.Context, rc *auth.RequestContext, w http.ResponseWriter, path string, requestType RequestType) error {
	return rt.handlers[HandlerName(path, requestType)](ctx, rc, w)
}

func (rt *Router) dispatchError(ctx context.Context, rc *auth.RequestContext, w http.ResponseWriter, code int) error {
	h, ok := rt.errorHandlers[code]
	if !ok {
		http.Error(w, http.StatusText(code), code)

		return nil
	}

	return h(ctx, rc, w)
}
