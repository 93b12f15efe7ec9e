package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"finanzas/internal/auth"
	"finanzas/internal/cache"
	applog "finanzas/internal/log"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/middleware/security"
	"finanzas/internal/middleware/trace"
	"finanzas/internal/services"
	appweb "finanzas/web"
)

const (
	readyTimeout         = 2 * time.Second
	cacheCleanupInterval = 10 * time.Minute
	staticMaxAge         = 3600
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures NewServer. Templates and Static default to the
// embedded web assets.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	TrustedProxies     []string
	CookieSecure       bool

	Templates fs.FS
	Static    fs.FS
}

// Deps are the collaborators the handlers run on.
type Deps struct {
	Auth         *auth.Service
	Transactions *services.TransactionService
	Dashboards   *services.DashboardService
	Store        Pinger
	Logger       *applog.Logger
}

type Server struct {
	http.Server

	templates    *template.Template
	auth         *auth.Service
	transactions *services.TransactionService
	dashboards   *services.DashboardService
	store        Pinger
	logger       *applog.Logger
	cookieSecure bool

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	cacheManager     *cache.Manager

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime              time.Time
	transactionsCreated int64
	transactionsUpdated int64
	transactionsDeleted int64
	registrations       int64
	logins              int64
	failedLogins        int64
}

func (m *appMetrics) inc(counter *int64) {
	atomic.AddInt64(counter, 1)
}

// NewServer parses the templates, mounts every route and wraps the mux in
// the middleware chain. Template parse failures are logged and surface as
// 500s and a failing /readyz rather than a startup error.
func NewServer(opts Options, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector, err := security.NewDetector(opts.TrustedProxies)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		auth:             deps.Auth,
		transactions:     deps.Transactions,
		dashboards:       deps.Dashboards,
		store:            deps.Store,
		logger:           logger,
		cookieSecure:     opts.CookieSecure,
		securityDetector: detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
		cacheManager: cache.NewManager(),
		appMetrics:   &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(logger, detector.ExtractClientIP)

	templatesFS := opts.Templates
	if templatesFS == nil {
		templatesFS = appweb.TemplatesFS
	}
	t, err := parseTemplates(templatesFS)
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	if c := deps.Dashboards.Cache(); c != nil {
		s.cacheManager.Register(c)
	}
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	staticFS := opts.Static
	if staticFS == nil {
		if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
			staticFS = sub
		} else {
			logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
		}
	}

	mux := http.NewServeMux()
	s.routes(mux, staticFS)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := ratelimit.MutatingOnly(s.rateLimiter.Middleware(detector.ExtractClientIP, s.handleRateLimited))

	var handler http.Handler = mux
	handler = limited(handler)
	handler = headers.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	s.Handler = handler

	return s, nil
}

func (s *Server) routes(mux *http.ServeMux, staticFS fs.FS) {
	if staticFS != nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	page := func(h http.HandlerFunc) http.Handler { return security.NoStore(h) }

	mux.Handle("GET /{$}", page(s.handleIndex))
	mux.Handle("GET /login", page(s.handleLoginPage))
	mux.Handle("POST /login", page(s.handleLogin))
	mux.Handle("GET /register", page(s.handleRegisterPage))
	mux.Handle("POST /register", page(s.handleRegister))
	mux.Handle("GET /logout", page(s.handleLogout))
	mux.Handle("GET /dashboard", page(s.handleDashboard))
	mux.Handle("GET /error", page(s.handleErrorPage))

	mux.Handle("POST /transaction", page(s.handleCreateTransaction))
	mux.Handle("POST /transaction/{id}/edit", page(s.handleEditTransaction))
	mux.Handle("POST /transaction/{id}/delete", page(s.handleDeleteTransaction))

	mux.Handle("/", page(s.handleNotFound))
}

// Shutdown stops the background sweepers and then the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
