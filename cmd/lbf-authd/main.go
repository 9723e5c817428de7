// The lbf-authd daemon hosts the authentication and page-routing core of the
// school registration framework: login, logout, session refresh, and the
// permission-gated resource dispatch.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cloudspanner "cloud.google.com/go/spanner"
	"github.com/cccteam/httpio"
	"github.com/cccteam/logger"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/errors/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"

	auth "github.com/projector22/lbf-auth"
	"github.com/projector22/lbf-auth/accountstorage"
	"github.com/projector22/lbf-auth/cookie"
	"github.com/projector22/lbf-auth/ldapauth"
	"github.com/projector22/lbf-auth/router"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lbf-authd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "lbf-authd.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return errors.Wrap(err, "loadConfig()")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, cleanup, err := openStorage(ctx, cfg.Database)
	if err != nil {
		return errors.Wrap(err, "openStorage()")
	}
	defer cleanup()

	secureCookie, err := cookie.NewSecureCookie(cfg.CookieKey)
	if err != nil {
		return errors.Wrap(err, "cookie.NewSecureCookie()")
	}
	codec := cookie.NewVersionedCodec(secureCookie)

	options := []auth.Option{
		auth.WithXSRFProtection(secureCookie),
		auth.WithMaintenanceMode(fileProbe(cfg.MaintenanceFile)),
	}
	if cfg.RefreshTokens == "paseto" {
		options = append(options, auth.WithRefreshCodec(auth.NewPasetoRefreshCodec()))
	}
	if cfg.LDAP.Enable {
		verifier := ldapauth.New(cfg.LDAP.URL, nil)
		options = append(options, auth.WithLDAP(verifier, ldapauth.DNTemplate(cfg.LDAP.UserAttribute, cfg.LDAP.BaseDN)))
	}

	gate := auth.NewGate(storage, cfg.CookieHash, options...)

	idle, err := cfg.SessionIdleDuration()
	if err != nil {
		return errors.Wrap(err, "Config.SessionIdleDuration()")
	}
	backend := auth.NewMemoryBackend(idle)

	pages := router.New(gate)
	registerErrorPages(pages)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(gate.WithRequestContext(codec, backend))
	r.Use(gate.SetXSRFToken)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = httpio.NewEncoder(w).Ok(nil)
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(gate.ValidateXSRFToken).Post("/login", gate.Login())
		r.With(gate.ValidateXSRFToken).Post("/logout", gate.Logout())
		r.Get("/authenticated", gate.Authenticated())
	})

	r.HandleFunc("/app/{type}/{page}", resourceHandler(gate, pages))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http.Server.ListenAndServe()")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http.Server.Shutdown()")
	}

	return nil
}

// openStorage builds the account store for the configured driver. The cleanup
// function closes the underlying connection.
func openStorage(ctx context.Context, cfg DatabaseConfig) (*accountstorage.AccountStorage, func(), error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, errors.Wrap(err, "pgxpool.New()")
		}

		return accountstorage.NewPostgres(pool), pool.Close, nil
	case "mysql":
		db, err := sql.Open("mysql", cfg.DSN)
		if err != nil {
			return nil, nil, errors.Wrap(err, "sql.Open()")
		}

		return accountstorage.NewMySQL(db), func() { _ = db.Close() }, nil
	case "spanner":
		client, err := cloudspanner.NewClient(ctx, cfg.SpannerDatabase)
		if err != nil {
			return nil, nil, errors.Wrap(err, "spanner.NewClient()")
		}
		if cfg.AccountTable != "" {
			return accountstorage.NewSpannerWithTableName(client, cfg.AccountTable), client.Close, nil
		}

		return accountstorage.NewSpanner(client), client.Close, nil
	default:
		return nil, nil, errors.Newf("unknown database driver %q", cfg.Driver)
	}
}

// fileProbe reports maintenance mode while the marker file exists.
func fileProbe(path string) func() bool {
	return func() bool {
		if path == "" {
			return false
		}
		_, err := os.Stat(path)

		return err == nil
	}
}

// resourceHandler dispatches page requests through the permission gate. An
// explicit logout signal short-circuits straight to the login redirect.
func resourceHandler(gate *auth.Gate, pages *router.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := auth.RequestContextFrom(r)

		if gate.CheckLogout(r.Context(), rc) {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)

			return
		}

		requestType := router.RequestType(chi.URLParam(r, "type"))
		page := chi.URLParam(r, "page")
		if err := pages.Route(r.Context(), rc, w, page, requestType); err != nil {
			logger.Req(r).Error(err)
		}
	}
}

// registerErrorPages installs the JSON error surfaces the frontend renders.
func registerErrorPages(pages *router.Router) {
	message := map[int]string{
		http.StatusUnauthorized: "you must log in to view this page",
		http.StatusForbidden:    "your account does not have access to this page",
		http.StatusNotFound:     "page not found",
	}
	for code, msg := range message {
		code, msg := code, msg
		pages.RegisterError(code, func(_ context.Context, _ *auth.RequestContext, w http.ResponseWriter) error {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			_, err := fmt.Fprintf(w, `{"message":%q}`, msg)
			if err != nil {
				return errors.Wrap(err, "fmt.Fprintf()")
			}

			return nil
		})
	}
}
