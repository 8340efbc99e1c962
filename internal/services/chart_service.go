package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"salescharts/internal/chart"
	"salescharts/internal/core"
	"salescharts/internal/sheets"
)

// ErrSourceUnavailable wraps every failure to read the sales source, so
// callers can tell bad input apart from a broken backend.
var ErrSourceUnavailable = errors.New("sales source unavailable")

// monthlyTotaler is implemented by backends that can aggregate natively.
type monthlyTotaler interface {
	MonthlyTotals(ctx context.Context, year int, metric core.Metric) (core.MonthlySeries, error)
}

// ChartQuery selects one rendered figure.
type ChartQuery struct {
	Kind    chart.Kind
	Year    int // 0 means the latest year with data
	Metric  core.Metric
	Format  chart.Format
	Compare bool
}

// Comparison is a year next to the one before it.
type Comparison struct {
	Current core.MonthlySeries
	Prior   core.MonthlySeries
	Growth  [12]core.Growth
}

// RegionReport is the regional breakdown of one year.
type RegionReport struct {
	Year    int
	Metric  core.Metric
	Regions []core.RegionAmount
}

// ChartService turns sales from any backend into series and figures.
type ChartService struct {
	lister   sheets.SalesLister
	years    sheets.YearLister
	renderer *chart.Renderer
	regions  *core.RegionTable
	now      func() time.Time
}

// NewChartService builds the service. The lister is also used for year
// discovery when it implements sheets.YearLister. A nil region table uses
// the built-in province mapping.
func NewChartService(lister sheets.SalesLister, renderer *chart.Renderer, regions *core.RegionTable) *ChartService {
	if regions == nil {
		regions = core.DefaultRegions()
	}
	s := &ChartService{
		lister:   lister,
		renderer: renderer,
		regions:  regions,
		now:      time.Now,
	}
	if yl, ok := lister.(sheets.YearLister); ok {
		s.years = yl
	}
	return s
}

// Years lists the years that have data, ascending.
func (s *ChartService) Years(ctx context.Context) ([]int, error) {
	if s.years == nil {
		return []int{s.now().Year()}, nil
	}
	years, err := s.years.ListYears(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return years, nil
}

// ResolveYear validates year, mapping 0 to the latest year with data (or
// the current year when the source is empty).
func (s *ChartService) ResolveYear(ctx context.Context, year int) (int, error) {
	if year != 0 {
		if err := core.ValidateYear(year); err != nil {
			return 0, fmt.Errorf("year %d: %w", year, err)
		}
		return year, nil
	}
	years, err := s.Years(ctx)
	if err != nil {
		return 0, err
	}
	if len(years) == 0 {
		return s.now().Year(), nil
	}
	return years[len(years)-1], nil
}

// Series returns the twelve monthly totals of metric in year.
func (s *ChartService) Series(ctx context.Context, year int, metric core.Metric) (core.MonthlySeries, error) {
	metric, err := normalizeMetric(metric)
	if err != nil {
		return core.MonthlySeries{}, err
	}
	year, err = s.ResolveYear(ctx, year)
	if err != nil {
		return core.MonthlySeries{}, err
	}
	return s.series(ctx, year, metric)
}

func (s *ChartService) series(ctx context.Context, year int, metric core.Metric) (core.MonthlySeries, error) {
	if mt, ok := s.lister.(monthlyTotaler); ok {
		series, err := mt.MonthlyTotals(ctx, year, metric)
		if err != nil {
			return core.MonthlySeries{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		return series, nil
	}
	sales, err := s.lister.ListSales(ctx, year)
	if err != nil {
		return core.MonthlySeries{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return core.Aggregate(sales, year, metric), nil
}

// Compare loads year and year-1 concurrently and computes month-by-month
// growth.
func (s *ChartService) Compare(ctx context.Context, year int, metric core.Metric) (Comparison, error) {
	metric, err := normalizeMetric(metric)
	if err != nil {
		return Comparison{}, err
	}
	year, err = s.ResolveYear(ctx, year)
	if err != nil {
		return Comparison{}, err
	}

	var cmp Comparison
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cmp.Current, err = s.series(gctx, year, metric)
		return err
	})
	g.Go(func() error {
		var err error
		cmp.Prior, err = s.series(gctx, year-1, metric)
		return err
	})
	if err := g.Wait(); err != nil {
		return Comparison{}, err
	}
	cmp.Growth = core.YearOverYear(cmp.Current, cmp.Prior)
	return cmp, nil
}

// Regions breaks year down by sales region, largest first.
func (s *ChartService) Regions(ctx context.Context, year int, metric core.Metric) (RegionReport, error) {
	metric, err := normalizeMetric(metric)
	if err != nil {
		return RegionReport{}, err
	}
	year, err = s.ResolveYear(ctx, year)
	if err != nil {
		return RegionReport{}, err
	}
	sales, err := s.lister.ListSales(ctx, year)
	if err != nil {
		return RegionReport{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return RegionReport{
		Year:    year,
		Metric:  metric,
		Regions: core.AggregateByRegion(sales, year, metric, s.regions),
	}, nil
}

// BuildRequest loads the data a figure needs without rendering it.
func (s *ChartService) BuildRequest(ctx context.Context, q ChartQuery) (chart.Request, error) {
	if q.Metric == "" {
		q.Metric = core.MetricAmount
	}
	if _, err := chart.ParseKind(string(q.Kind)); err != nil {
		return chart.Request{}, err
	}
	req := chart.Request{Kind: q.Kind}

	if q.Kind == chart.KindRegion {
		report, err := s.Regions(ctx, q.Year, q.Metric)
		if err != nil {
			return chart.Request{}, err
		}
		req.Current = core.MonthlySeries{Year: report.Year, Metric: report.Metric}
		req.Regions = report.Regions
		req.Title = Title(q.Kind, report.Year, report.Metric, false)
		return req, nil
	}

	if q.Compare {
		cmp, err := s.Compare(ctx, q.Year, q.Metric)
		if err != nil {
			return chart.Request{}, err
		}
		req.Current = cmp.Current
		prior := cmp.Prior
		req.Prior = &prior
	} else {
		series, err := s.Series(ctx, q.Year, q.Metric)
		if err != nil {
			return chart.Request{}, err
		}
		req.Current = series
	}
	req.Title = Title(q.Kind, req.Current.Year, req.Current.Metric, q.Compare)
	return req, nil
}

// Render writes the figure selected by q to w.
func (s *ChartService) Render(ctx context.Context, q ChartQuery, w io.Writer) error {
	if q.Format == "" {
		q.Format = chart.FormatPNG
	}
	if _, err := chart.ParseFormat(string(q.Format)); err != nil {
		return err
	}
	req, err := s.BuildRequest(ctx, q)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := s.renderer.Write(w, req, q.Format); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Chart rendered",
		"kind", q.Kind,
		"year", req.Current.Year,
		"metric", q.Metric,
		"format", q.Format,
		"compare", q.Compare,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func normalizeMetric(m core.Metric) (core.Metric, error) {
	parsed, err := core.ParseMetric(string(m))
	if err != nil {
		return "", fmt.Errorf("metric %q: %w", m, err)
	}
	return parsed, nil
}

// Title is the figure heading, e.g. "2024 monthly paid amount".
func Title(kind chart.Kind, year int, metric core.Metric, compare bool) string {
	label := strings.ToLower(metric.Label())
	switch {
	case kind == chart.KindRegion:
		return fmt.Sprintf("%d %s by region", year, label)
	case compare:
		return fmt.Sprintf("%d vs %d monthly %s", year, year-1, label)
	default:
		return fmt.Sprintf("%d monthly %s", year, label)
	}
}
