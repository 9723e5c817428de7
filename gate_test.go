package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/errors/v5"
	gomock "go.uber.org/mock/gomock"

	"github.com/projector22/lbf-auth/accounts"
	"github.com/projector22/lbf-auth/cookie"
	"github.com/projector22/lbf-auth/login"
	"github.com/projector22/lbf-auth/mock/mock_accounts"
	"github.com/projector22/lbf-auth/sessionstore"
)

const testCookieHash = "install-cookie-hash"

func testAccount() *accounts.Account {
	return &accounts.Account{
		Username:    "jsmith",
		Password:    "$2y$10$abcdefghijklmnopqrstuv",
		DisplayName: "J Smith",
		Email:       "jsmith@example.edu",
	}
}

func testIdentity(acct *accounts.Account) string {
	return login.NewEvaluator(acct, "", testCookieHash).SessionID()
}

// encodeRequestCookie encodes value the way the jar's codec would, so the
// test request looks like one carrying cookies a previous response set.
func encodeRequestCookie(t *testing.T, name string, value any) *http.Cookie {
	t.Helper()

	encoded, err := cookie.LegacyCodec{}.Encode(name, value)
	if err != nil {
		t.Fatalf("LegacyCodec.Encode() error = %v", err)
	}

	return &http.Cookie{Name: name, Value: encoded}
}

func freshRefreshCookie(t *testing.T, at time.Time) *http.Cookie {
	t.Helper()

	encoded, err := LegacyRefreshCodec{}.Encode(at)
	if err != nil {
		t.Fatalf("LegacyRefreshCodec.Encode() error = %v", err)
	}

	return encodeRequestCookie(t, RefreshCookieName, encoded)
}

// populateSnapshot fills the session with the cached state a refreshed
// session would hold.
func populateSnapshot(s *sessionstore.Store, acct *accounts.Account, canAccess bool) {
	s.Set(sessionstore.KeyUserData, map[string]any{"name": acct.DisplayName, "email": acct.Email})
	s.Set(sessionstore.KeyPermissions, accounts.PermissionSnapshot{CanAccess: canAccess})
	s.Set(sessionstore.KeyTenant, json.RawMessage(`{"school":"test"}`))
}

func TestGate_Evaluate(t *testing.T) {
	t.Parallel()

	acct := testAccount()
	identity := testIdentity(acct)
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name    string
		form    url.Values
		query   url.Values
		cookies func(t *testing.T) []*http.Cookie
		session func(s *sessionstore.Store)
		prepare func(store *mock_accounts.MockStore, perms *mock_accounts.MockUserPermissionManager, tenants *mock_accounts.MockTenantConfigStore)
		options []Option
		want    Decision
	}{
		{
			name: "no session and no cookie is unauthorized",
			want: Decision{ResponseCode: http.StatusUnauthorized},
		},
		{
			name: "session marker without identity cookie is unauthorized",
			session: func(s *sessionstore.Store) {
				s.Set(sessionstore.KeyLogin, acct.Username)
				populateSnapshot(s, acct, true)
			},
			want: Decision{ResponseCode: http.StatusUnauthorized},
		},
		{
			name: "identity cookie without session marker is unauthorized",
			cookies: func(t *testing.T) []*http.Cookie {
				return []*http.Cookie{
					encodeRequestCookie(t, IdentityCookieName, identity),
					freshRefreshCookie(t, now),
				}
			},
			want: Decision{ResponseCode: http.StatusUnauthorized},
		},
		{
			name: "standing session with fresh snapshot skips the store",
			cookies: func(t *testing.T) []*http.Cookie {
				return []*http.Cookie{
					encodeRequestCookie(t, IdentityCookieName, identity),
					freshRefreshCookie(t, now),
				}
			},
			session: func(s *sessionstore.Store) {
				s.Set(sessionstore.KeyLogin, acct.Username)
				populateSnapshot(s, acct, true)
			},
			want: Decision{LoggedIn: true, ResponseCode: http.StatusOK},
		},
		{
			name:  "valid api key without session",
			query: url.Values{"api_key": {"key-123"}},
			prepare: func(store *mock_accounts.MockStore, perms *mock_accounts.MockUserPermissionManager, tenants *mock_accounts.MockTenantConfigStore) {
				store.EXPECT().FindByAPIKey(gomock.Any(), "key-123").Return(acct, nil).Times(1)
				perms.EXPECT().UserPermissions(gomock.Any(), gomock.Any()).Return(accounts.PermissionSnapshot{CanAccess: true}, nil).Times(1)
				tenants.EXPECT().LoadConfig(gomock.Any()).Return(json.RawMessage(`{}`), nil).Times(1)
			},
			want: Decision{ValidAPIKey: true, ResponseCode: http.StatusOK},
		},
		{
			name:  "api key in body wins over query",
			form:  url.Values{"api_key": {"body-key"}},
			query: url.Values{"api_key": {"query-key"}},
			prepare: func(store *mock_accounts.MockStore, perms *mock_accounts.MockUserPermissionManager, tenants *mock_accounts.MockTenantConfigStore) {
				store.EXPECT().FindByAPIKey(gomock.Any(), "body-key").Return(acct, nil).Times(1)
				perms.EXPECT().UserPermissions(gomock.Any(), gomock.Any()).Return(accounts.PermissionSnapshot{CanAccess: true}, nil).Times(1)
				tenants.EXPECT().LoadConfig(gomock.Any()).Return(json.RawMessage(`{}`), nil).Times(1)
			},
			want: Decision{ValidAPIKey: true, ResponseCode: http.StatusOK},
		},
		{
			name:  "unknown api key without session is unauthorized",
			query: url.Values{"api_key": {"bogus"}},
			prepare: func(store *mock_accounts.MockStore, _ *mock_accounts.MockUserPermissionManager, _ *mock_accounts.MockTenantConfigStore) {
				store.EXPECT().FindByAPIKey(gomock.Any(), "bogus").Return(nil, nil).Times(1)
			},
			want: Decision{ResponseCode: http.StatusUnauthorized},
		},
		{
			name:  "api key store failure fails closed",
			query: url.Values{"api_key": {"key-123"}},
			prepare: func(store *mock_accounts.MockStore, _ *mock_accounts.MockUserPermissionManager, _ *mock_accounts.MockTenantConfigStore) {
				store.EXPECT().FindByAPIKey(gomock.Any(), "key-123").Return(nil, errors.New("connection refused")).Times(1)
			},
			want: Decision{ResponseCode: http.StatusUnauthorized},
		},
		{
			name: "missing snapshot triggers refresh against the store",
			cookies: func(t *testing.T) []*http.Cookie {
				return []*http.Cookie{
					encodeRequestCookie(t, IdentityCookieName, identity),
					freshRefreshCookie(t, now),
				}
			},
			session: func(s *sessionstore.Store) {
				s.Set(sessionstore.KeyLogin, acct.Username)
			},
			prepare: func(store *mock_accounts.MockStore, perms *mock_accounts.MockUserPermissionManager, tenants *mock_accounts.MockTenantConfigStore) {
				store.EXPECT().FindByUsername(gomock.Any(), acct.Username).Return(acct, nil).Times(1)
				perms.EXPECT().UserPermissions(gomock.Any(), gomock.Any()).Return(accounts.PermissionSnapshot{CanAccess: true}, nil).Times(1)
				tenants.EXPECT().LoadConfig(gomock.Any()).Return(json.RawMessage(`{}`), nil).Times(1)
			},
			want: Decision{LoggedIn: true, ResponseCode: http.StatusOK},
		},
		{
			name: "expired refresh timer triggers refresh",
			cookies: func(t *testing.T) []*http.Cookie {
				return []*http.Cookie{
					encodeRequestCookie(t, IdentityCookieName, identity),
					freshRefreshCookie(t, now.Add(-10*time.Minute)),
				}
			},
			session: func(s *sessionstore.Store) {
				s.Set(sessionstore.KeyLogin, acct.Username)
				populateSnapshot(s, acct, true)
			},
			prepare: func(store *mock_accounts.MockStore, perms *mock_accounts.MockUserPermissionManager, tenants *mock_accounts.MockTenantConfigStore) {
				store.EXPECT().FindByUsername(gomock.Any(), acct.Username).Return(acct, nil).Times(1)
				perms.EXPECT().UserPermissions(gomock.Any(), gomock.Any()).Return(accounts.PermissionSnapshot{CanAccess: true}, nil).Times(1)
				tenants.EXPECT().LoadConfig(gomock.Any()).Return(json.RawMessage(`{}`), nil).Times(1)
			},
			want: Decision{LoggedIn: true, ResponseCode: http.StatusOK},
		},
		{
			name:  "force refresh field triggers refresh",
			query: url.Values{"force_refresh": {"1"}},
			cookies: func(t *testing.T) []*http.Cookie {
				return []*http.Cookie{
					encodeRequestCookie(t, IdentityCookieName, identity),
					freshRefreshCookie(t, now),
				}
			},
			session: func(s *sessionstore.Store) {
				s.Set(sessionstore.KeyLogin, acct.Username)
				populateSnapshot(s, acct, true)
			},
			prepare: func(store *mock_accounts.MockStore, perms *mock_accounts.MockUserPermissionManager, tenants *mock_accounts.MockTenantConfigStore) {
				store.EXPECT().FindByUsername(gomock.Any(), acct.Username).Return(acct, nil).Times(1)
				perms.EXPECT().UserPermissions(gomock.Any(), gomock.Any()).Return(accounts.PermissionSnapshot{CanAccess: true}, nil).Times(1)
				tenants.EXPECT().LoadConfig(gomock.Any()).Return(json.RawMessage(`{}`), nil).Times(1)
			},
			want: Decision{LoggedIn: true, ResponseCode: http.StatusOK},
		},
		{
			name: "maintenance mode re-validates every request",
			options: []Option{
				WithMaintenanceMode(func() bool { return true }),
			},
			cookies: func(t *testing.T) []*http.Cookie {
				return []*http.Cookie{
					encodeRequestCookie(t, IdentityCookieName, identity),
					freshRefreshCookie(t, now),
				}
			},
			session: func(s *sessionstore.Store) {
				s.Set(sessionstore.KeyLogin, acct.Username)
				populateSnapshot(s, acct, true)
			},
			prepare: func(store *mock_accounts.MockStore, perms *mock_accounts.MockUserPermissionManager, tenants *mock_accounts.MockTenantConfigStore) {
				store.EXPECT().FindByUsername(gomock.Any(), acct.Username).Return(acct, nil).Times(1)
				perms.EXPECT().UserPermissions(gomock.Any(), gomock.Any()).Return(accounts.PermissionSnapshot{CanAccess: true}, nil).Times(1)
				tenants.EXPECT().LoadConfig(gomock.Any()).Return(json.RawMessage(`{}`), nil).Times(1)
			},
			want: Decision{LoggedIn: true, ResponseCode: http.StatusOK},
		},
		{
			name: "account removed during refresh forces login",
			cookies: func(t *testing.T) []*http.Cookie {
				return []*http.Cookie{
					encodeRequestCookie(t, IdentityCookieName, identity),
					freshRefreshCookie(t, now),
				}
			},
			session: func(s *sessionstore.Store) {
				s.Set(sessionstore.KeyLogin, acct.Username)
			},
			prepare: func(store *mock_accounts.MockStore, _ *mock_accounts.MockUserPermissionManager, _ *mock_accounts.MockTenantConfigStore) {
				store.EXPECT().FindByUsername(gomock.Any(), acct.Username).Return(nil, nil).Times(1)
			},
			want: Decision{ResponseCode: http.StatusUnauthorized},
		},
		{
			name: "store failure during refresh forces login",
			cookies: func(t *testing.T) []*http.Cookie {
				return []*http.Cookie{
					encodeRequestCookie(t, IdentityCookieName, identity),
					freshRefreshCookie(t, now),
				}
			},
			session: func(s *sessionstore.Store) {
				s.Set(sessionstore.KeyLogin, acct.Username)
			},
			prepare: func(store *mock_accounts.MockStore, _ *mock_accounts.MockUserPermissionManager, _ *mock_accounts.MockTenantConfigStore) {
				store.EXPECT().FindByUsername(gomock.Any(), acct.Username).Return(nil, errors.New("connection refused")).Times(1)
			},
			want: Decision{ResponseCode: http.StatusUnauthorized},
		},
		{
			name: "password change invalidates the identity cookie",
			cookies: func(t *testing.T) []*http.Cookie {
				return []*http.Cookie{
					encodeRequestCookie(t, IdentityCookieName, identity),
					freshRefreshCookie(t, now),
				}
			},
			session: func(s *sessionstore.Store) {
				s.Set(sessionstore.KeyLogin, acct.Username)
			},
			prepare: func(store *mock_accounts.MockStore, _ *mock_accounts.MockUserPermissionManager, _ *mock_accounts.MockTenantConfigStore) {
				rotated := testAccount()
				rotated.Password = "$2y$10$zyxwvutsrqponmlkjihgfe"
				store.EXPECT().FindByUsername(gomock.Any(), acct.Username).Return(rotated, nil).Times(1)
			},
			want: Decision{ResponseCode: http.StatusUnauthorized},
		},
		{
			name: "permission resolver failure forces login",
			cookies: func(t *testing.T) []*http.Cookie {
				return []*http.Cookie{
					encodeRequestCookie(t, IdentityCookieName, identity),
					freshRefreshCookie(t, now),
				}
			},
			session: func(s *sessionstore.Store) {
				s.Set(sessionstore.KeyLogin, acct.Username)
			},
			prepare: func(store *mock_accounts.MockStore, perms *mock_accounts.MockUserPermissionManager, _ *mock_accounts.MockTenantConfigStore) {
				store.EXPECT().FindByUsername(gomock.Any(), acct.Username).Return(acct, nil).Times(1)
				perms.EXPECT().UserPermissions(gomock.Any(), gomock.Any()).Return(accounts.PermissionSnapshot{}, errors.New("resolver down")).Times(1)
			},
			want: Decision{ResponseCode: http.StatusUnauthorized},
		},
		{
			name: "tenant config failure forces login",
			cookies: func(t *testing.T) []*http.Cookie {
				return []*http.Cookie{
					encodeRequestCookie(t, IdentityCookieName, identity),
					freshRefreshCookie(t, now),
				}
			},
			session: func(s *sessionstore.Store) {
				s.Set(sessionstore.KeyLogin, acct.Username)
			},
			prepare: func(store *mock_accounts.MockStore, perms *mock_accounts.MockUserPermissionManager, tenants *mock_accounts.MockTenantConfigStore) {
				store.EXPECT().FindByUsername(gomock.Any(), acct.Username).Return(acct, nil).Times(1)
				perms.EXPECT().UserPermissions(gomock.Any(), gomock.Any()).Return(accounts.PermissionSnapshot{CanAccess: true}, nil).Times(1)
				tenants.EXPECT().LoadConfig(gomock.Any()).Return(nil, errors.New("config store down")).Times(1)
			},
			want: Decision{ResponseCode: http.StatusUnauthorized},
		},
		{
			name: "revoked access is forbidden not unauthorized",
			cookies: func(t *testing.T) []*http.Cookie {
				return []*http.Cookie{
					encodeRequestCookie(t, IdentityCookieName, identity),
					freshRefreshCookie(t, now),
				}
			},
			session: func(s *sessionstore.Store) {
				s.Set(sessionstore.KeyLogin, acct.Username)
			},
			prepare: func(store *mock_accounts.MockStore, perms *mock_accounts.MockUserPermissionManager, tenants *mock_accounts.MockTenantConfigStore) {
				store.EXPECT().FindByUsername(gomock.Any(), acct.Username).Return(acct, nil).Times(1)
				perms.EXPECT().UserPermissions(gomock.Any(), gomock.Any()).Return(accounts.PermissionSnapshot{CanAccess: false}, nil).Times(1)
				tenants.EXPECT().LoadConfig(gomock.Any()).Return(json.RawMessage(`{}`), nil).Times(1)
			},
			want: Decision{LoggedIn: true, ResponseCode: http.StatusForbidden},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			store := mock_accounts.NewMockStore(ctrl)
			perms := mock_accounts.NewMockUserPermissionManager(ctrl)
			tenants := mock_accounts.NewMockTenantConfigStore(ctrl)
			if tt.prepare != nil {
				tt.prepare(store, perms, tenants)
			}

			opts := append([]Option{WithPermissionManager(perms), WithTenantConfigStore(tenants)}, tt.options...)
			g := NewGate(store, testCookieHash, opts...)
			g.now = func() time.Time { return now }

			target := "/registration"
			if len(tt.query) > 0 {
				target += "?" + tt.query.Encode()
			}
			var req *http.Request
			if len(tt.form) > 0 {
				req = httptest.NewRequest(http.MethodPost, target, strings.NewReader(tt.form.Encode()))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			} else {
				req = httptest.NewRequest(http.MethodGet, target, http.NoBody)
			}
			if tt.cookies != nil {
				for _, c := range tt.cookies(t) {
					req.AddCookie(c)
				}
			}

			state := cookie.NewResponseState()
			rc := NewRequestContext(req, cookie.NewJar(req, cookie.LegacyCodec{}, state), sessionstore.New(state))
			if tt.session != nil {
				tt.session(rc.Session)
			}

			got := g.Evaluate(context.Background(), rc)
			if got != tt.want {
				t.Errorf("Gate.Evaluate() = %+v, want %+v", got, tt.want)
			}

			if tt.want.ResponseCode == http.StatusUnauthorized && (tt.session != nil || tt.cookies != nil) {
				if rc.Session.Exists(sessionstore.KeyLogin) && tt.cookies != nil && tt.session != nil {
					t.Error("Gate.Evaluate() left the login marker after forcing login")
				}
			}
		})
	}
}

func TestGate_Evaluate_refreshRollsTimerForward(t *testing.T) {
	t.Parallel()

	acct := testAccount()
	now := time.Unix(1_700_000_000, 0)

	ctrl := gomock.NewController(t)
	store := mock_accounts.NewMockStore(ctrl)
	store.EXPECT().FindByUsername(gomock.Any(), acct.Username).Return(acct, nil).Times(1)

	g := NewGate(store, testCookieHash)
	g.now = func() time.Time { return now }

	req := httptest.NewRequest(http.MethodGet, "/registration", http.NoBody)
	req.AddCookie(encodeRequestCookie(t, IdentityCookieName, testIdentity(acct)))
	req.AddCookie(freshRefreshCookie(t, now.Add(-10*time.Minute)))

	state := cookie.NewResponseState()
	rc := NewRequestContext(req, cookie.NewJar(req, cookie.LegacyCodec{}, state), sessionstore.New(state))
	rc.Session.Set(sessionstore.KeyLogin, acct.Username)

	if got := g.Evaluate(context.Background(), rc); got.ResponseCode != http.StatusOK {
		t.Fatalf("Gate.Evaluate() = %+v, want 200", got)
	}

	encoded, err := rc.Jar.GetString(RefreshCookieName)
	if err != nil {
		t.Fatalf("Jar.GetString(%q) error = %v", RefreshCookieName, err)
	}
	deadline, err := LegacyRefreshCodec{}.Decode(encoded)
	if err != nil {
		t.Fatalf("LegacyRefreshCodec.Decode() error = %v", err)
	}
	if want := now.Add(refreshDeadlineOffset); !deadline.Equal(want) {
		t.Errorf("refresh deadline = %v, want %v", deadline, want)
	}

	// A second evaluation sees the freshly rolled timer and the rebuilt
	// snapshot, so it never touches the store.
	if got := g.Evaluate(context.Background(), rc); got.ResponseCode != http.StatusOK {
		t.Errorf("Gate.Evaluate() after refresh = %+v, want 200", got)
	}
}

func TestGate_CheckLogout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{name: "logout field destroys everything", target: "/registration?logout=1", want: true},
		{name: "no logout field is a no-op", target: "/registration", want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := NewGate(nil, testCookieHash)

			req := httptest.NewRequest(http.MethodGet, tt.target, http.NoBody)
			req.AddCookie(encodeRequestCookie(t, IdentityCookieName, "jsmith|digest"))

			state := cookie.NewResponseState()
			rc := NewRequestContext(req, cookie.NewJar(req, cookie.LegacyCodec{}, state), sessionstore.New(state))
			rc.Session.Set(sessionstore.KeyLogin, "jsmith")

			if got := g.CheckLogout(context.Background(), rc); got != tt.want {
				t.Fatalf("Gate.CheckLogout() = %v, want %v", got, tt.want)
			}

			if tt.want {
				if rc.Session.Exists(sessionstore.KeyLogin) {
					t.Error("Gate.CheckLogout() left the login marker in the session")
				}
				if rc.Jar.Exists(IdentityCookieName) {
					t.Error("Gate.CheckLogout() left the identity cookie readable")
				}
				// Logout is idempotent.
				if got := g.CheckLogout(context.Background(), rc); !got {
					t.Error("Gate.CheckLogout() second call = false, want true")
				}
			} else if !rc.Session.Exists(sessionstore.KeyLogin) {
				t.Error("Gate.CheckLogout() destroyed the session without a logout signal")
			}
		})
	}
}

func TestHasAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		form   url.Values
		want   bool
	}{
		{name: "query key", target: "/?api_key=abc", want: true},
		{name: "body key", target: "/", form: url.Values{"api_key": {"abc"}}, want: true},
		{name: "no key", target: "/", want: false},
		{name: "empty key", target: "/?api_key=", want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var req *http.Request
			if len(tt.form) > 0 {
				req = httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.form.Encode()))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			} else {
				req = httptest.NewRequest(http.MethodGet, tt.target, http.NoBody)
			}

			if got := HasAPIKey(req); got != tt.want {
				t.Errorf("HasAPIKey() = %v, want %v", got, tt.want)
			}
		})
	}
}
