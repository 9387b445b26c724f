package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/optiwealth/optiwealth/internal/audit"
	"github.com/optiwealth/optiwealth/internal/auth"
	"github.com/optiwealth/optiwealth/internal/cache"
	"github.com/optiwealth/optiwealth/internal/metrics"
	"github.com/optiwealth/optiwealth/internal/middleware"
	"github.com/optiwealth/optiwealth/internal/service"
	"github.com/optiwealth/optiwealth/internal/symbols"
)

const defaultMaxRequestBodySize = 1 << 20

// Options holds the HTTP-facing settings of the router.
type Options struct {
	IsDevelopment           bool
	MaxRequestBodySize      int64
	CORSAllowedOrigins      []string
	HideForeignResources    bool
	RateLimitLoginEnabled   bool
	RateLimitLoginPerMinute int
}

// Deps are the collaborators the router wires into services and handlers.
type Deps struct {
	Logger  *slog.Logger
	Store   service.Store
	Tokens  *auth.TokenService
	Symbols *symbols.Set
	// Cache is optional. Without it there is no login rate limit and no
	// token denylist.
	Cache *cache.Cache
	// Hasher defaults to auth.DefaultArgon2Params.
	Hasher  *auth.PasswordHasher
	Audit   audit.Publisher
	Metrics *metrics.InMemoryRecorder
	Options Options
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(d Deps) *chi.Mux {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := d.Metrics
	if recorder == nil {
		recorder = metrics.NewInMemory()
	}
	maxBody := d.Options.MaxRequestBodySize
	if maxBody <= 0 {
		maxBody = defaultMaxRequestBodySize
	}

	// Keep optional collaborators as untyped nil interfaces when absent.
	var (
		revoker     service.TokenRevoker
		revocations middleware.RevocationChecker
		limiter     middleware.LoginLimiter
		cacheHealth HealthChecker
	)
	if d.Cache != nil {
		revoker = d.Cache
		revocations = d.Cache
		limiter = d.Cache
		cacheHealth = d.Cache
	}

	authz := auth.NewAuthorizer(d.Store)
	authService := service.NewAuthService(service.AuthConfig{
		Users:   d.Store,
		Tokens:  d.Tokens,
		Hasher:  d.Hasher,
		Revoker: revoker,
		Audit:   d.Audit,
		Metrics: recorder,
		Logger:  logger,
	})
	portfolioService := service.NewPortfolioService(d.Store, authz, d.Audit, recorder)
	holdingService := service.NewHoldingService(portfolioService, d.Symbols)

	h := New()
	healthHandler := NewHealthHandler(d.Store, cacheHealth, d.Symbols)
	metricsHandler := NewMetricsHandler(recorder)
	authHandler := NewAuthHandler(authService, logger)
	portfolioHandler := NewPortfolioHandler(portfolioService, logger, d.Options.HideForeignResources)
	holdingHandler := NewHoldingHandler(holdingService, logger, d.Options.HideForeignResources)
	symbolHandler := NewSymbolHandler(d.Symbols)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.Options.CORSAllowedOrigins

	r := chi.NewRouter()

	// Global middleware. Authenticate runs before any route group so
	// RequireAuth always sees the resolved identity.
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.Options.IsDevelopment}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(maxBody))
	r.Use(middleware.Authenticate(middleware.AuthConfig{
		Logger:      logger,
		Tokens:      d.Tokens,
		Resolver:    auth.NewIdentityResolver(d.Store),
		Revocations: revocations,
		Metrics:     recorder,
	}))

	// Public endpoints
	r.Get("/", h.Hello)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.With(middleware.RateLimitLogin(middleware.RateLimitConfig{
			Logger:         logger,
			Limiter:        limiter,
			Enabled:        d.Options.RateLimitLoginEnabled,
			LimitPerMinute: d.Options.RateLimitLoginPerMinute,
			Metrics:        recorder,
		})).Post("/login", authHandler.Login)
		r.With(middleware.RequireAuth()).Post("/logout", authHandler.Logout)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/symbols", symbolHandler.Search)
		r.Get("/symbols/{symbol}", symbolHandler.Check)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth())

			r.Get("/me", authHandler.Me)

			r.Route("/portfolios", func(r chi.Router) {
				r.Get("/", portfolioHandler.List)
				r.Post("/", portfolioHandler.Create)
				r.Get("/{id}", portfolioHandler.Get)
				r.Patch("/{id}", portfolioHandler.Rename)
				r.Delete("/{id}", portfolioHandler.Delete)
				r.Get("/{id}/holdings", holdingHandler.List)
				r.Post("/{id}/holdings", holdingHandler.Create)
			})

			r.Route("/holdings", func(r chi.Router) {
				r.Get("/{id}", holdingHandler.Get)
				r.Put("/{id}", holdingHandler.Update)
				r.Delete("/{id}", holdingHandler.Delete)
			})
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
