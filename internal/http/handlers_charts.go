package http

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"salescharts/internal/cache"
	"salescharts/internal/chart"
	"salescharts/internal/core"
	"salescharts/internal/log"
	"salescharts/internal/services"
)

type monthJSON struct {
	Month       int      `json:"month"`
	Label       string   `json:"label"`
	Value       float64  `json:"value"`
	Prior       float64  `json:"prior"`
	Growth      *float64 `json:"growth"`
	GrowthLabel string   `json:"growth_label"`
}

type seriesJSON struct {
	Year       int         `json:"year"`
	Metric     core.Metric `json:"metric"`
	Months     []monthJSON `json:"months"`
	Total      float64     `json:"total"`
	PriorTotal float64     `json:"prior_total"`
}

type regionJSON struct {
	Region string  `json:"region"`
	Value  float64 `json:"value"`
}

type regionsJSON struct {
	Year    int          `json:"year"`
	Metric  core.Metric  `json:"metric"`
	Regions []regionJSON `json:"regions"`
	Total   float64      `json:"total"`
}

func newSeriesJSON(cmp services.Comparison) seriesJSON {
	out := seriesJSON{
		Year:       cmp.Current.Year,
		Metric:     cmp.Current.Metric,
		Months:     make([]monthJSON, 0, 12),
		Total:      cmp.Current.Total(),
		PriorTotal: cmp.Prior.Total(),
	}
	for i, label := range core.MonthLabels {
		out.Months = append(out.Months, monthJSON{
			Month:       i + 1,
			Label:       label,
			Value:       cmp.Current.Values[i],
			Prior:       cmp.Prior.Values[i],
			Growth:      growthPercent(cmp.Growth[i]),
			GrowthLabel: cmp.Growth[i].Label(),
		})
	}
	return out
}

// handleChart serves /charts/{kind}.{format}, rendering through the figure
// cache.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	kind, format, err := ParseChartFile(r.PathValue("file"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	params, err := ParseChartParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if kind == chart.KindRegion {
		params.Compare = false
	}
	// Resolve "latest" before keying the cache so reloads never serve a
	// stale year under the same key.
	if params.Year, err = s.charts.ResolveYear(ctx, params.Year); err != nil {
		s.writeError(w, r, err)
		return
	}

	q := params.ChartQuery(kind, format)
	key := cache.FigureKey(string(kind), params.Year, string(params.Metric), string(format), params.Compare)
	start := time.Now()
	fig, hit, err := s.figures.GetOrRender(key, func() (cache.Figure, error) {
		var buf bytes.Buffer
		if err := s.charts.Render(ctx, q, &buf); err != nil {
			return cache.Figure{}, err
		}
		return cache.Figure{Body: buf.Bytes(), ContentType: format.ContentType()}, nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cacheStatus := "HIT"
	if !hit {
		cacheStatus = "MISS"
		s.renders.Add(1)
		s.structuredLogger.LogChartRendered(ctx, string(kind), params.Year, string(params.Metric), string(format),
			len(fig.Body), time.Since(start).Milliseconds())
	}

	NewResponse().
		Header("Content-Type", fig.ContentType).
		Header("Cache-Control", "private, max-age=60").
		Header("Last-Modified", fig.RenderedAt.UTC().Format(http.TimeFormat)).
		Header("X-Cache", cacheStatus).
		Body(fig.Body).
		Write(w)
}

// handleSeries returns the monthly series of a year next to the prior year.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	params, err := ParseChartParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cmp, err := s.charts.Compare(r.Context(), params.Year, params.Metric)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(newSeriesJSON(cmp)).Write(w)
}

// handleRegions returns the regional breakdown of a year.
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	params, err := ParseChartParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.charts.Regions(r.Context(), params.Year, params.Metric)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := regionsJSON{Year: report.Year, Metric: report.Metric, Regions: make([]regionJSON, 0, len(report.Regions))}
	for _, ra := range report.Regions {
		out.Regions = append(out.Regions, regionJSON{Region: ra.Region, Value: ra.Value})
		out.Total += ra.Value
	}
	NewResponse().JSON(out).Write(w)
}

type chartImage struct {
	Kind  chart.Kind
	Title string
	Src   string
}

type seriesRow struct {
	Month  string
	Value  string
	Prior  string
	Growth string
	Down   bool
}

type panelData struct {
	Year        int
	PriorYear   int
	MetricLabel string
	Compare     bool
	Charts      []chartImage
	Rows        []seriesRow
	Total       string
	PriorTotal  string
}

// handleChartsPanel renders the HTMX partial holding the four figures and
// the monthly table.
func (s *Server) handleChartsPanel(w http.ResponseWriter, r *http.Request) {
	params, err := ParseChartParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cmp, err := s.charts.Compare(r.Context(), params.Year, params.Metric)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.templates == nil {
		ErrorHTML(http.StatusInternalServerError, "templates not loaded").Write(w)
		return
	}

	year, metric := cmp.Current.Year, cmp.Current.Metric
	query := url.Values{}
	query.Set("year", strconv.Itoa(year))
	query.Set("metric", string(metric))
	if params.Compare {
		query.Set("compare", "1")
	}

	data := panelData{
		Year:        year,
		PriorYear:   year - 1,
		MetricLabel: metric.Label(),
		Compare:     params.Compare,
		Total:       formatMetric(cmp.Current.Total(), metric),
		PriorTotal:  formatMetric(cmp.Prior.Total(), metric),
	}
	for _, kind := range chart.Kinds {
		data.Charts = append(data.Charts, chartImage{
			Kind:  kind,
			Title: services.Title(kind, year, metric, params.Compare && kind != chart.KindRegion),
			Src:   "/charts/" + string(kind) + ".svg?" + query.Encode(),
		})
	}
	for i, label := range core.MonthLabels {
		g := cmp.Growth[i]
		data.Rows = append(data.Rows, seriesRow{
			Month:  label,
			Value:  formatMetric(cmp.Current.Values[i], metric),
			Prior:  formatMetric(cmp.Prior.Values[i], metric),
			Growth: g.Label(),
			Down:   g.Defined && g.Percent < 0,
		})
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "charts.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error", log.FieldError, err, "template", "charts.html")
		ErrorHTML(http.StatusInternalServerError, "template error").Write(w)
		return
	}
	NewResponse().HTML(buf.String()).Write(w)
}
