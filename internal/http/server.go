package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"videojobs/internal/core"
	applog "videojobs/internal/log"
	"videojobs/internal/middleware/security"
	"videojobs/internal/middleware/trace"
	"videojobs/internal/services"
	appweb "videojobs/web"
)

const (
	appName          = "videojobs"
	maxRequestBody   = 64 * 1024
	staticMaxAge     = 3600
	readinessTimeout = 5 * time.Second
)

// Options tunes the server. Zero values pick sensible defaults.
type Options struct {
	Addr               string
	Version            string
	RateLimitPerSecond float64
	CurrencyLocale     string
	ShowStorageNotice  bool
	Logger             *applog.Logger
	// Now supplies "today"; defaults to time.Now
	Now func() time.Time
}

// Server is the HTMX presentation shell over the job recorder.
type Server struct {
	http.Server

	service    *services.JobService
	templates  *template.Template
	formatter  core.Formatter
	showNotice bool
	version    string
	now        func() time.Time

	logger           *applog.Logger
	structured       *applog.StructuredLogger
	traceMiddleware  *trace.Middleware
	securityDetector *security.Detector
	jobLimiter       *limiter.Limiter

	appMetrics appMetrics
}

type appMetrics struct {
	jobsRecorded int64
	uptime       time.Time
}

// restLogger adapts applog to the Logf backend go-pkgz/rest expects. Lines
// tagged [ERROR] log at error level, the rest at warn.
type restLogger struct {
	l *applog.Logger
}

func (r restLogger) Logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if strings.HasPrefix(msg, "[ERROR]") {
		r.l.Error(strings.TrimSpace(strings.TrimPrefix(msg, "[ERROR]")))
		return
	}
	r.l.Warn(strings.TrimSpace(strings.TrimPrefix(msg, "[WARN]")))
}

// NewServer configures routes and templates, returning a ready-to-run server.
// A template parse failure is logged and surfaces as 500 on page routes.
func NewServer(svc *services.JobService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rate := opts.RateLimitPerSecond
	if rate <= 0 {
		rate = 2
	}

	s := &Server{
		service:          svc,
		formatter:        core.NewFormatter(opts.CurrencyLocale),
		showNotice:       opts.ShowStorageNotice,
		version:          opts.Version,
		now:              now,
		logger:           logger,
		structured:       applog.NewStructuredLogger(logger),
		securityDetector: security.NewDetector(),
		jobLimiter:       newJobLimiter(rate),
		appMetrics:       appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(logger.WithComponent(applog.ComponentTrace), s.securityDetector.ExtractClientIP)

	t, err := appweb.ParseTemplates(template.FuncMap{})
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func newJobLimiter(perSecond float64) *limiter.Limiter {
	lmt := tollbooth.NewLimiter(perSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
	lmt.SetMessageContentType("text/html; charset=utf-8")
	lmt.SetMessage(`<div class="error">Demasiadas solicitudes, probá de nuevo en unos segundos.</div>`)
	return lmt
}

func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.Recoverer(restLogger{s.logger}),
		rest.Throttle(1000),
		rest.AppInfo(appName, appName, s.version),
		rest.Ping,
		rest.SizeLimit(maxRequestBody),
		s.traceMiddleware.Middleware,
		applog.Middleware(s.logger),
		applog.RequestIDMiddleware(trace.RequestID),
		s.securityDetector.Middleware(s.logger.WithComponent(applog.ComponentSecurity)),
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
	)

	router.HandleFunc("GET /{$}", s.handleIndex)
	router.HandleFunc("GET /healthz", s.handleHealth)
	router.HandleFunc("GET /readyz", s.handleReady)
	router.HandleFunc("GET /metrics", s.handleMetrics)
	router.With(tollbooth.HTTPMiddleware(s.jobLimiter)).HandleFunc("POST /jobs", s.handleCreateJob)

	// HTMX partials
	router.Mount("/ui").Route(func(ui *routegroup.Bundle) {
		ui.Use(rest.NoCache)
		ui.HandleFunc("GET /summary", s.handleSummaryPartial)
		ui.HandleFunc("GET /months", s.handleMonthsPartial)
	})

	// JSON API for jobsctl and scripts
	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.HandleFunc("GET /summary", s.handleAPISummary)
		api.HandleFunc("GET /pricing", s.handleAPIPricing)
		api.HandleFunc("GET /quote", s.handleAPIQuote)
	})

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		router.With(security.StaticAssetMiddleware(staticMaxAge)).HandleFiles("/static/", http.FS(sub))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	return router
}

// render executes a template into a buffer first so a failure never leaves a
// half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := s.templates.ExecuteTemplate(buf, name, data); err != nil {
		s.structured.LogError(r.Context(), "Template execution failed", err, applog.OpRender,
			applog.NewFields().WithComponent(applog.ComponentTemplate))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// renderJSONStatus is rest.RenderJSON with a non-200 status.
func renderJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	rest.RenderJSON(w, data)
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}
