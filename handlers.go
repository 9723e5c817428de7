package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cccteam/httpio"
	"go.opentelemetry.io/otel"

	"github.com/projector22/lbf-auth/accounts"
	"github.com/projector22/lbf-auth/cookie"
	"github.com/projector22/lbf-auth/login"
	"github.com/projector22/lbf-auth/sessionstore"
)

// Login authenticates a user with a username and password and establishes the
// standing session: login marker in the session store, identity cookie on the
// client, refresh timer primed.
func (g *Gate) Login() http.HandlerFunc {
	type request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	type response struct {
		Authenticated bool   `json:"authenticated"`
		Username      string `json:"username"`
	}

	return g.handle(func(w http.ResponseWriter, r *http.Request) error {
		ctx, span := otel.Tracer(name).Start(r.Context(), "Gate.Login()")
		defer span.End()

		payload := &request{}
		if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
			return httpio.NewEncoder(w).BadRequestMessage(ctx, "invalid request body")
		}

		payload.Username = strings.TrimSpace(payload.Username)
		if payload.Username == "" || payload.Password == "" {
			return httpio.NewEncoder(w).BadRequestMessage(ctx, "username and password are required")
		}

		rc := RequestContextFrom(r)

		acct, err := g.store.FindByUsername(ctx, payload.Username)
		if err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, err)
		}
		if acct == nil {
			// Same cost as a real verification so timing does not reveal
			// whether the username exists. The message never distinguishes
			// unknown-user from wrong-password.
			login.NewEvaluator(&accounts.Account{Username: payload.Username}, payload.Password, g.cookieHash).Verify(ctx)

			return httpio.NewEncoder(w).ClientMessage(ctx, httpio.NewUnauthorizedMessage("invalid username or password"))
		}

		ev := login.NewEvaluator(acct, payload.Password, g.cookieHash,
			login.WithLDAP(g.ldapVerifier, g.ldapDN), login.LDAPEnabled(g.ldapEnabled))
		if !ev.Verify(ctx) {
			return httpio.NewEncoder(w).ClientMessage(ctx, httpio.NewUnauthorizedMessage("invalid username or password"))
		}

		rc.Session.Set(sessionstore.KeyLogin, payload.Username)
		if err := rc.Jar.Set(IdentityCookieName, ev.SessionID(), cookie.Attributes{HTTPOnly: true}); err != nil {
			return httpio.NewEncoder(w).ClientMessage(ctx, err)
		}

		if !g.refreshSnapshot(ctx, rc, acct) {
			return httpio.NewEncoder(w).ClientMessage(ctx, httpio.NewUnauthorizedMessage("invalid username or password"))
		}
		g.resetRefreshTimer(rc)

		return httpio.NewEncoder(w).Ok(response{Authenticated: true, Username: payload.Username})
	})
}

// Logout destroys the current session and all cookies.
func (g *Gate) Logout() http.HandlerFunc {
	return g.handle(func(w http.ResponseWriter, r *http.Request) error {
		_, span := otel.Tracer(name).Start(r.Context(), "Gate.Logout()")
		defer span.End()

		rc := RequestContextFrom(r)
		rc.Session.DestroyAll()
		rc.Jar.DestroyAll()

		return httpio.NewEncoder(w).Ok(nil)
	})
}

// Authenticated reports whether the request holds an authenticated session.
func (g *Gate) Authenticated() http.HandlerFunc {
	type response struct {
		Authenticated bool   `json:"authenticated"`
		Username      string `json:"username"`
	}

	return g.handle(func(w http.ResponseWriter, r *http.Request) error {
		ctx, span := otel.Tracer(name).Start(r.Context(), "Gate.Authenticated()")
		defer span.End()

		rc := RequestContextFrom(r)

		d := g.Evaluate(ctx, rc)
		if d.ResponseCode != http.StatusOK || !d.LoggedIn {
			return httpio.NewEncoder(w).Ok(response{})
		}

		username, _ := rc.Session.Get(sessionstore.KeyLogin).(string)

		return httpio.NewEncoder(w).Ok(response{Authenticated: true, Username: username})
	})
}
