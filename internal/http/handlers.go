package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"salescharts/internal/cache"
	"salescharts/internal/chart"
	"salescharts/internal/core"
	"salescharts/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)
	fail := func(name, msg string) {
		checks[name] = msg
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		fail("templates", "failed: templates not loaded")
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.charts == nil:
		fail("source", "not_configured")
	case s.pinger != nil:
		if err := s.pinger.Ping(ctx); err != nil {
			fail("source", fmt.Sprintf("failed: %v", err))
		} else {
			checks["source"] = "ok"
		}
	default:
		if _, err := s.charts.Years(ctx); err != nil {
			fail("source", fmt.Sprintf("failed: %v", err))
		} else {
			checks["source"] = "ok"
		}
	}

	if s.figures != nil {
		checks["cache"] = s.figures.Stats()
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}
	if s.publisher != nil {
		checks["import_queue"] = "configured"
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	cacheStats := s.figureStats()

	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "HTTP responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_avg_microseconds", "gauge", "Average response time", traceMetrics.AverageResponseTime)
	metric("charts_rendered_total", "counter", "Figures rendered (cache misses that succeeded)", s.renders.Load())
	metric("imports_queued_total", "counter", "Import jobs published", s.imports.Load())
	metric("chart_cache_hits_total", "counter", "Chart cache hits", cacheStats.Hits)
	metric("chart_cache_misses_total", "counter", "Chart cache misses", cacheStats.Misses)
	metric("chart_cache_evictions_total", "counter", "Chart cache capacity evictions", cacheStats.Evictions)
	metric("chart_cache_entries", "gauge", "Current chart cache entries", cacheStats.Size)
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", s.rateLimiter.ActiveClients())
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.started).Seconds()))
}

type metricOption struct {
	Value    core.Metric
	Label    string
	Selected bool
}

type indexData struct {
	Years   []int
	Year    int
	Metrics []metricOption
	Kinds   []chart.Kind
	Compare bool
	Uptime  string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	params, err := ParseChartParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data := indexData{Kinds: chart.Kinds, Compare: params.Compare, Uptime: humanize.Time(s.started)}
	for _, m := range []core.Metric{core.MetricAmount, core.MetricQuantity} {
		data.Metrics = append(data.Metrics, metricOption{Value: m, Label: m.Label(), Selected: m == params.Metric})
	}

	if s.charts != nil {
		years, err := s.charts.Years(r.Context())
		if err != nil {
			// The page still renders; the chart panel reports the failure.
			s.logger.ErrorContext(r.Context(), "Year list error", log.FieldError, err)
		}
		data.Years = years
		if data.Year, err = s.charts.ResolveYear(r.Context(), params.Year); err != nil {
			data.Year = time.Now().Year()
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Index template execution failed", log.FieldError, err, "template", "index.html")
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// handlePurge drops every cached figure.
func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	removed := 0
	if s.figures != nil {
		removed = s.figures.Purge()
	}
	s.logger.InfoContext(r.Context(), "Chart cache purged",
		log.FieldOperation, log.OpPurge,
		"removed", removed)

	resp := NewResponse().TriggerCachePurged(removed).TriggerChartsRefresh()
	if wantsHTML(r) {
		resp.Notify("success", fmt.Sprintf("Cleared %d cached %s", removed, plural(removed, "chart", "charts"))).
			HTML(`<div class="success">Cache cleared</div>`)
	} else {
		resp.JSON(map[string]int{"removed": removed})
	}
	resp.Write(w)
}

// handleImport queues an import of the configured or requested source.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		ErrorJSON(http.StatusServiceUnavailable, "import queue not configured").Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: request body: %w", ErrBadParam, err))
		return
	}
	source, sheet := parser.Get("source"), parser.Get("sheet")
	if source == "" {
		source, sheet = s.importSource, s.importSheet
	}
	if source == "" {
		s.writeError(w, r, fmt.Errorf("%w: source is required", ErrBadParam))
		return
	}

	jobID, err := s.publisher.PublishImport(r.Context(), source, sheet)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to queue import",
			log.FieldError, err,
			log.FieldSource, source,
			log.FieldOperation, log.OpImport)
		ErrorJSON(http.StatusBadGateway, "import queue unavailable").Write(w)
		return
	}
	s.imports.Add(1)
	s.logger.InfoContext(r.Context(), "Import queued",
		log.FieldJobID, jobID,
		log.FieldSource, source,
		log.FieldOperation, log.OpImport)

	NewResponse().
		Status(http.StatusAccepted).
		TriggerImportQueued(jobID).
		JSON(map[string]string{"job_id": jobID, "source": source, "sheet": sheet}).
		Write(w)
}

// writeError logs err and answers with the matching status, as an HTML
// fragment for HTMX swaps and JSON otherwise.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	s.structuredLogger.LogRequestFailed(r.Context(), r, status, err)
	msg := publicMessage(status, err)
	if wantsHTML(r) {
		ErrorHTML(status, msg).Write(w)
		return
	}
	ErrorJSON(status, msg).Write(w)
}

func (s *Server) figureStats() cache.Stats {
	if s.figures == nil {
		return cache.Stats{}
	}
	return s.figures.Stats()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
