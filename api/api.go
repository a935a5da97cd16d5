package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"time"

	"github.com/awnumar/memguard"
	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/jmcleod/authgate/authn"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	backend        authn.Backend
	strategies     *authn.Strategies
	sessions       SessionStore
	rateLimiter    *loginRateLimiter
	ipLimiter      *ipRateLimiter
	audit          *auditLogger
	decoyKey       *memguard.Enclave
	decoyFn        func(account, email string) authn.HashParameters
	sessionTTL     time.Duration
	trustedProxies []netip.Prefix
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// WithSessionStore replaces the default in-memory session store, e.g.
// with the redis store for multi-instance deployments.
func WithSessionStore(store SessionStore) Option {
	return func(a *API) {
		a.sessions = store
	}
}

// WithSessionTTL sets the lifetime of login-sequence sessions.
func WithSessionTTL(ttl time.Duration) Option {
	return func(a *API) {
		a.sessionTTL = ttl
	}
}

// WithTrustedProxies sets the CIDR ranges whose proxy headers
// (X-Forwarded-For and friends) are honored for client IP extraction.
// Empty means proxy headers are never trusted.
func WithTrustedProxies(prefixes []netip.Prefix) Option {
	return func(a *API) {
		a.trustedProxies = prefixes
	}
}

// New creates a new API instance over the given token backend.
func New(backend authn.Backend, opts ...Option) *API {
	a := &API{
		backend:     backend,
		strategies:  authn.NewStrategies(backend),
		rateLimiter: newLoginRateLimiter(),
		ipLimiter:   newIPRateLimiter(),
		// The decoy key never leaves its enclave except per request; it
		// only needs to be stable for the process lifetime.
		decoyKey:   memguard.NewEnclaveRandom(32),
		sessionTTL: defaultSessionTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.sessions == nil {
		a.sessions = NewMemorySessionStore(a.sessionTTL, 0)
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	a.decoyFn = a.decoyParameters
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/openapi.yaml",
		Path:    "docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/openapi.yaml",
		Path:    "redoc",
	}, nil))

	r.Route("/authn", func(r chi.Router) {
		r.Post("/tokens/{type}", a.CreateToken)
		r.Get("/tokens/{type}/hash-parameters", a.HashParameters)
		r.Delete("/tokens/{type}", a.DeleteToken)

		r.Post("/token/authenticate", a.Authenticate)
		r.Post("/token/login", a.Login)
		r.Post("/token/logout", a.Logout)
		r.Get("/token/requirements", a.GetRequirements)
		r.Post("/token/requirements", a.SetRequirements)
		r.Get("/token/client/registration", a.RegistrationStatus)
		r.Post("/token/recovery", a.SetRecovery)
	})

	return r
}
