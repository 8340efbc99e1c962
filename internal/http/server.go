package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"salescharts/internal/cache"
	"salescharts/internal/log"
	"salescharts/internal/middleware/ratelimit"
	"salescharts/internal/middleware/security"
	"salescharts/internal/middleware/trace"
	"salescharts/internal/services"
	appweb "salescharts/web"
)

// renderTimeout bounds a single chart request, source read included.
const renderTimeout = 15 * time.Second

// ImportPublisher queues a spreadsheet import and returns its job id.
type ImportPublisher interface {
	PublishImport(ctx context.Context, source, sheet string) (string, error)
}

// Pinger is implemented by sources with a health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options holds the collaborators of a Server. Charts and Figures are
// required.
type Options struct {
	Charts  *services.ChartService
	Figures *cache.FigureCache

	// Publisher enables POST /admin/import. Optional.
	Publisher ImportPublisher
	// ImportSource and ImportSheet are used when the request names no source.
	ImportSource string
	ImportSheet  string

	// Pinger is checked by /readyz. Optional.
	Pinger Pinger

	Logger          *log.Logger
	RequestsPerMin  int
	BlockSuspicious bool
	CleanupInterval time.Duration
}

type Server struct {
	http.Server
	templates *template.Template

	charts       *services.ChartService
	figures      *cache.FigureCache
	cacheManager *cache.Manager
	publisher    ImportPublisher
	importSource string
	importSheet  string
	pinger       Pinger

	logger           *log.Logger
	structuredLogger *log.StructuredLogger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	blockSuspicious  bool
	headers          *security.HeadersMiddleware
	traceMiddleware  *trace.Middleware

	started  time.Time
	renders  atomic.Int64
	imports  atomic.Int64
	shutdown sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		charts:           opts.Charts,
		figures:          opts.Figures,
		cacheManager:     cache.NewManager(),
		publisher:        opts.Publisher,
		importSource:     opts.ImportSource,
		importSheet:      opts.ImportSheet,
		pinger:           opts.Pinger,
		logger:           logger,
		structuredLogger: log.NewStructuredLogger(logger),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RequestsPerMin,
			Methods:           []string{http.MethodPost},
		}),
		securityDetector: detector,
		blockSuspicious:  opts.BlockSuspicious,
		headers:          security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
		started:          time.Now(),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	if s.figures != nil {
		s.cacheManager.Register(s.figures)
		interval := opts.CleanupInterval
		if interval <= 0 {
			interval = 10 * time.Minute
		}
		s.cacheManager.StartCleanup(interval)
	}

	mux := http.NewServeMux()
	s.routes(mux)
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      renderTimeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.CacheControl(3600, true)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/charts", s.handleChartsPanel)
	mux.HandleFunc("GET /charts/{file}", s.handleChart)
	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("GET /api/regions", s.handleRegions)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("POST /admin/cache/purge", s.handlePurge)
	mux.HandleFunc("POST /admin/import", s.handleImport)
}

// middleware wraps the mux, outermost first: tracing, security headers,
// request logger, suspicious request detection, rate limiting.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorJSON(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})(next)
	h = s.securityDetector.Middleware(s.blockSuspicious)(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = log.Middleware(s.logger)(h)
	h = s.headers.Middleware(h)
	return s.traceMiddleware.Middleware(h)
}

// Shutdown stops background routines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdown.Do(func() {
		s.rateLimiter.Stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
