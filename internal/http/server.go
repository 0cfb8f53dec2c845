// Package http exposes the report aggregations as a JSON API.
package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"gigtrack/internal/amqp"
	"gigtrack/internal/auth"
	"gigtrack/internal/core"
	"gigtrack/internal/log"
	"gigtrack/internal/middleware/ratelimit"
	"gigtrack/internal/middleware/security"
	"gigtrack/internal/middleware/trace"
	"gigtrack/internal/report"
)

// Reports is the aggregation surface the handlers call.
type Reports interface {
	FinancialSummary(ctx context.Context, userID string, f report.FinancialFilters) (core.FinancialSummary, error)
	MonthlyData(ctx context.Context, userID string, start, end core.Date) ([]core.MonthlyPoint, error)
	IncomeByPlatform(ctx context.Context, userID string, start, end core.Date) ([]core.PlatformBreakdown, error)
	ExpensesByCategory(ctx context.Context, userID string, start, end core.Date) ([]core.CategoryBreakdown, error)
	FinancialDashboard(ctx context.Context, userID string, f report.FinancialFilters) (core.FinancialDashboard, error)

	VehicleSummary(ctx context.Context, userID string, f report.VehicleFilters) (core.VehicleSummary, error)
	DailyDistance(ctx context.Context, userID string, f report.VehicleFilters) ([]core.DailyDistancePoint, error)
	DailyFuel(ctx context.Context, userID string, f report.VehicleFilters) ([]core.DailyFuelPoint, error)
	CostPerKm(ctx context.Context, userID string, f report.VehicleFilters) (core.CostPerKm, error)
	MaintenanceByType(ctx context.Context, userID string, f report.VehicleFilters) ([]core.MaintenanceBreakdown, error)
	VehicleDashboard(ctx context.Context, userID string, f report.VehicleFilters) (core.VehicleDashboard, error)
}

// UserReader loads the target of admin requests.
type UserReader interface {
	GetUser(ctx context.Context, userID string) (core.User, error)
}

// Pinger reports storage readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IdentityResolver authenticates a request.
type IdentityResolver interface {
	Resolve(r *http.Request) (auth.Identity, error)
}

// ExportPublisher queues export jobs.
type ExportPublisher interface {
	PublishExport(ctx context.Context, msg *amqp.ReportExportMessage) error
}

// RequestObserver records per-route request metrics.
type RequestObserver interface {
	ObserveRequest(route, method string, status int, d time.Duration)
}

// Options tunes the server.
type Options struct {
	AllowedOrigins  []string
	ReportTimeout   time.Duration
	RateLimitPerMin int
	ExportFormat    string
	// TrustProxy makes client addresses come from forwarding headers.
	TrustProxy bool
}

// Deps are the collaborators the handlers need. Exports, Observer and
// MetricsHandler are optional.
type Deps struct {
	Reports        Reports
	Users          UserReader
	Health         Pinger
	Resolver       IdentityResolver
	Exports        ExportPublisher
	Observer       RequestObserver
	MetricsHandler http.Handler
	Logger         *log.Logger
}

type Server struct {
	http.Server

	reports  Reports
	users    UserReader
	health   Pinger
	resolver IdentityResolver
	exports  ExportPublisher
	observer RequestObserver
	policy   auth.Policy
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	opts     Options
}

func NewServer(addr string, opts Options, deps Deps) *Server {
	if opts.ReportTimeout <= 0 {
		opts.ReportTimeout = 7 * time.Second
	}
	if opts.ExportFormat == "" {
		opts.ExportFormat = "xlsx"
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}

	s := &Server{
		reports:  deps.Reports,
		users:    deps.Users,
		health:   deps.Health,
		resolver: deps.Resolver,
		exports:  deps.Exports,
		observer: deps.Observer,
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMin}),
		opts:     opts,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(trace.NewMiddleware(logger, s.clientIP, s.observeRequest).Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders:   []string{trace.HeaderRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Use(s.limiter.Middleware(s.rateLimitKey, writeRateLimited))

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", s.handleSummary)
			r.Get("/monthly", s.handleMonthly)
			r.Get("/platforms", s.handlePlatforms)
			r.Get("/categories", s.handleCategories)
			r.Get("/dashboard", s.handleFinancialDashboard)
			r.Post("/exports", s.handleCreateExport)

			r.Route("/vehicle-metrics", func(r chi.Router) {
				r.Get("/", s.handleVehicleDashboard)
				r.Get("/summary", s.handleVehicleSummary)
				r.Get("/distance", s.handleDailyDistance)
				r.Get("/fuel", s.handleDailyFuel)
				r.Get("/cost-per-km", s.handleCostPerKm)
				r.Get("/maintenance", s.handleMaintenance)
			})
		})

		r.Route("/admin/users/{userID}", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/dashboard", s.handleAdminDashboard)
			r.Get("/vehicle-metrics", s.handleAdminVehicleMetrics)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, core.ErrNotFound)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      opts.ReportTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the listener and the limiter's sweep goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) observeRequest(r *http.Request, status int, d time.Duration) {
	if s.observer == nil {
		return
	}
	route := "unmatched"
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			route = p
		}
	}
	s.observer.ObserveRequest(route, r.Method, status, d)
}

// reportContext bounds a single aggregation request.
func (s *Server) reportContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.opts.ReportTimeout)
}

// rateLimitKey buckets requests by caller. It runs after authenticate, so
// rotating forwarding headers does not buy a fresh quota.
func (s *Server) rateLimitKey(r *http.Request) string {
	if id, ok := auth.FromContext(r.Context()); ok && id.UserID != "" {
		return "user:" + id.UserID
	}
	return "ip:" + s.clientIP(r)
}

func (s *Server) clientIP(r *http.Request) string {
	if s.opts.TrustProxy {
		return forwardedIP(r)
	}
	return remoteIP(r)
}

// forwardedIP prefers the first X-Forwarded-For hop, then X-Real-IP.
func forwardedIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return remoteIP(r)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
