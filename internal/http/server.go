package http

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"easyfinance/internal/api"
	"easyfinance/internal/cache"
	"easyfinance/internal/core"
	applog "easyfinance/internal/log"
	"easyfinance/internal/middleware/ratelimit"
	"easyfinance/internal/middleware/security"
	"easyfinance/internal/middleware/trace"
	"easyfinance/internal/resource"
	"easyfinance/internal/session"
	appweb "easyfinance/web"
)

// Backend is the finance REST API as seen by the page handlers.
type Backend interface {
	resource.API

	Login(ctx context.Context, creds core.Credentials) (string, error)
	Register(ctx context.Context, reg core.Registration) error
	DashboardSummary(ctx context.Context, token string, month, year int) (core.DashboardSummary, error)
	DashboardChart(ctx context.Context, token string, year int) ([]core.ChartPoint, error)
	Report(ctx context.Context, token string, p core.ReportPeriod) (core.Report, error)
	Export(ctx context.Context, token string, kind api.ExportKind, p core.ReportPeriod) (*http.Response, error)
	Ping(ctx context.Context) error
}

// Options configures NewServer.
type Options struct {
	Addr               string
	BackendURL         string
	MaxUploadBytes     int64
	RateLimitPerMinute int
	TrustedProxies     []string
	Logger             *applog.Logger
	// CacheManager is stopped on shutdown when set.
	CacheManager *cache.Manager
}

type Server struct {
	http.Server

	backend      Backend
	sessions     *session.Manager
	categories   *resource.Controller[core.Category, core.CategoryForm]
	transactions *resource.Controller[core.Transaction, core.TransactionForm]
	pages        map[string]*pageTemplate

	logger     *applog.Logger
	structured *applog.StructuredLogger

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware
	cacheManager     *cache.Manager

	backendOrigin  *url.URL
	maxUploadBytes int64
	appMetrics     *appMetrics
	now            func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(opts Options, backend Backend, sessions *session.Manager) (*Server, error) {
	if backend == nil || sessions == nil {
		return nil, errors.New("http: backend and session manager are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	var origin *url.URL
	if opts.BackendURL != "" {
		u, err := url.Parse(opts.BackendURL)
		if err != nil {
			return nil, fmt.Errorf("backend url: %w", err)
		}
		origin = &url.URL{Scheme: u.Scheme, Host: u.Host}
	}

	pages, err := loadPages(appweb.TemplatesFS)
	if err != nil {
		return nil, err
	}

	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = core.MaxImageSize + 1<<20
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      120 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		backend:          backend,
		sessions:         sessions,
		categories:       resource.NewCategoryController(backend, logger.WithComponent(applog.ComponentResource).Logger),
		transactions:     resource.NewTransactionController(backend, logger.WithComponent(applog.ComponentResource).Logger),
		pages:            pages,
		logger:           logger,
		structured:       applog.NewStructuredLogger(logger),
		securityDetector: detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
		traceMiddleware: trace.NewMiddleware(detector.ExtractClientIP, logger),
		cacheManager:    opts.CacheManager,
		backendOrigin:   origin,
		maxUploadBytes:  maxUpload,
		appMetrics:      newAppMetrics(),
		now:             time.Now,
	}
	s.Handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	var imageOrigins []string
	if s.backendOrigin != nil {
		imageOrigins = append(imageOrigins, s.backendOrigin.String())
	}
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig(imageOrigins...))

	r.Use(s.traceMiddleware.Middleware)
	r.Use(applog.Middleware(s.logger))
	r.Use(applog.RequestIDMiddleware(trace.RequestID))
	r.Use(headers.Middleware)
	r.Use(s.securityDetector.Middleware(s.logger.WithComponent(applog.ComponentSecurity).Logger))
	r.Use(s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited))
	r.Use(s.limitBody)

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError("GET, POST").Write(w)
	})

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Get("/", s.handleIndex)

	r.Group(func(r chi.Router) {
		r.Use(applog.ComponentMiddleware(applog.ComponentAuth))

		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Get("/register", s.handleRegisterPage)
		r.Post("/register", s.handleRegister)
		r.Post("/logout", s.handleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Require(s.redirectToLogin))

		r.With(applog.ComponentMiddleware(applog.ComponentDashboard)).Get("/dashboard", s.handleDashboard)

		r.Group(func(r chi.Router) {
			r.Use(applog.ComponentMiddleware(applog.ComponentResource))

			r.Get("/categories", s.handleCategories)
			r.Post("/categories", s.handleSaveCategory)
			r.Post("/categories/{id}/delete", s.handleDeleteCategory)

			r.Get("/transactions", s.handleTransactions)
			r.Get("/transactions/category-options", s.handleCategoryOptions)
			r.Post("/transactions", s.handleSaveTransaction)
			r.Post("/transactions/{id}/delete", s.handleDeleteTransaction)
		})

		r.Group(func(r chi.Router) {
			r.Use(applog.ComponentMiddleware(applog.ComponentReports))

			r.Get("/reports", s.handleReports)
			r.Get("/reports/export/{kind}", s.handleExport)
		})
	})

	return r
}

// limitBody caps request bodies. Multipart parsing reports the overflow as
// *http.MaxBytesError.
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again in a minute.").Write(w)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
