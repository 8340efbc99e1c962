// Package chart renders monthly sales series as figures with gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"salescharts/internal/core"
)

const (
	KindSmooth  Kind = "smooth"
	KindDiamond Kind = "diamond"
	KindBar     Kind = "bar"
	KindRegion  Kind = "region"

	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
)

type (
	Kind   string
	Format string
)

var (
	ErrUnknownKind   = errors.New("unknown chart kind")
	ErrUnknownFormat = errors.New("unknown output format")
	ErrNoData        = errors.New("no data to plot")
)

// Kinds lists every chart kind in display order.
var Kinds = []Kind{KindSmooth, KindDiamond, KindBar, KindRegion}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ParseFormat accepts a format name or a file name with an extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(s); ext != "" {
		s = strings.TrimPrefix(ext, ".")
	}
	switch Format(s) {
	case FormatPNG, FormatSVG, FormatPDF:
		return Format(s), nil
	case "":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the MIME type of the rendered output.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// Request describes one figure.
type Request struct {
	Kind    Kind
	Title   string
	Current core.MonthlySeries
	// Prior is drawn alongside Current when set; the bar chart then also
	// annotates year-over-year growth.
	Prior   *core.MonthlySeries
	Regions []core.RegionAmount
}

// Renderer turns requests into plots using a fixed theme.
type Renderer struct {
	theme   Theme
	palette []color.Color
	box     color.Color
}

func NewRenderer(theme Theme) (*Renderer, error) {
	if err := theme.Validate(); err != nil {
		return nil, fmt.Errorf("invalid theme: %w", err)
	}
	palette, box, err := theme.colors()
	if err != nil {
		return nil, err
	}
	return &Renderer{theme: theme, palette: palette, box: box}, nil
}

func (r *Renderer) Theme() Theme {
	return r.theme
}

// Render builds the plot for a request without encoding it.
func (r *Renderer) Render(req Request) (*plot.Plot, error) {
	var (
		p   *plot.Plot
		err error
	)
	switch req.Kind {
	case KindSmooth:
		p, err = r.smoothLine(req)
	case KindDiamond:
		p, err = r.diamondLine(req)
	case KindBar:
		p, err = r.monthlyBars(req)
	case KindRegion:
		p, err = r.regionBars(req)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", req.Kind, err)
	}
	return p, nil
}

// Write renders the request and encodes it to w.
func (r *Renderer) Write(w io.Writer, req Request, format Format) error {
	switch format {
	case FormatPNG, FormatSVG, FormatPDF:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	p, err := r.Render(req)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(vg.Length(r.theme.Width)*vg.Inch, vg.Length(r.theme.Height)*vg.Inch, string(format))
	if err != nil {
		return fmt.Errorf("create %s writer: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

func (r *Renderer) newPlot(title string, metric core.Metric) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(r.theme.TitleSize)
	p.Y.Label.Text = metric.Label()
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())
	return p
}

func (r *Renderer) color(i int) color.Color {
	return r.palette[i%len(r.palette)]
}

// series returns the prior (if any) and current series, oldest first, with
// their palette index.
func (req Request) series() ([]core.MonthlySeries, []int) {
	if req.Prior == nil {
		return []core.MonthlySeries{req.Current}, []int{0}
	}
	return []core.MonthlySeries{*req.Prior, req.Current}, []int{1, 0}
}

func monthTicks() plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, 12)
	for i, name := range core.MonthLabels {
		ticks[i] = plot.Tick{Value: float64(i + 1), Label: name}
	}
	return ticks
}

func monthXYs(s core.MonthlySeries) plotter.XYs {
	xys := make(plotter.XYs, 12)
	for i, v := range s.Values {
		xys[i] = plotter.XY{X: float64(i + 1), Y: v}
	}
	return xys
}

// setYRange starts the axis at zero unless negative values exist and leaves
// headroom above the highest value.
func setYRange(p *plot.Plot, series ...core.MonthlySeries) {
	lo, hi := 0.0, 0.0
	for _, s := range series {
		lo = math.Min(lo, s.Min())
		hi = math.Max(hi, s.Max())
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	p.Y.Min = lo
	if lo < 0 {
		p.Y.Min = lo - span*0.1
	}
	p.Y.Max = hi + span*0.15
}

func formatValue(v float64, metric core.Metric) string {
	if metric == core.MetricQuantity || v == math.Trunc(v) {
		return humanize.Comma(int64(math.Round(v)))
	}
	return humanize.CommafWithDigits(v, 2)
}

func valueLabels(xys plotter.XYs, metric core.Metric, offsetY vg.Length) (*plotter.Labels, error) {
	texts := make([]string, len(xys))
	for i, xy := range xys {
		texts[i] = formatValue(xy.Y, metric)
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, fmt.Errorf("value labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YBottom
		labels.TextStyle[i].Font.Size = vg.Points(8)
	}
	labels.Offset = vg.Point{Y: offsetY}
	return labels, nil
}

func yearLabel(s core.MonthlySeries) string {
	if s.Year == 0 {
		return s.Metric.Label()
	}
	return strconv.Itoa(s.Year)
}
