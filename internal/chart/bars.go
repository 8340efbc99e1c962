package chart

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"salescharts/internal/core"
)

// monthlyBars draws the current year's monthly bars. With a prior series
// the two years sit side by side and each month carries a growth box.
func (r *Renderer) monthlyBars(req Request) (*plot.Plot, error) {
	p := r.newPlot(req.Title, req.Current.Metric)
	p.NominalX(core.MonthLabels[:]...)
	p.X.Label.Text = "Month"

	width := vg.Points(r.theme.BarWidth)
	layout := NewBarLayout(req.Current, req.Prior, width)

	current, err := plotter.NewBarChart(plotter.Values(req.Current.Values[:]), width)
	if err != nil {
		return nil, fmt.Errorf("current bars: %w", err)
	}
	current.Color = r.color(0)
	current.LineStyle.Width = 0
	current.Offset = layout.CurrentOffset
	p.Add(current)
	p.Legend.Add(yearLabel(req.Current), current)

	if req.Prior != nil {
		prior, err := plotter.NewBarChart(plotter.Values(req.Prior.Values[:]), width)
		if err != nil {
			return nil, fmt.Errorf("prior bars: %w", err)
		}
		prior.Color = r.color(1)
		prior.LineStyle.Width = 0
		prior.Offset = layout.PriorOffset
		p.Add(prior)
		p.Legend.Add(yearLabel(*req.Prior), prior)
	}

	if r.theme.ShowValues {
		xys := make(plotter.XYs, 12)
		for i, v := range req.Current.Values {
			xys[i] = plotter.XY{X: float64(i), Y: math.Max(v, 0)}
		}
		labels, err := valueLabels(xys, req.Current.Metric, vg.Points(2))
		if err != nil {
			return nil, err
		}
		// Labels show the real value even when the bar is negative.
		for i, v := range req.Current.Values {
			labels.Labels[i] = formatValue(v, req.Current.Metric)
		}
		labels.Offset.X = layout.CurrentOffset
		p.Add(labels)
	}

	if req.Prior != nil {
		growth := core.YearOverYear(req.Current, *req.Prior)
		xys := make(plotter.XYs, 12)
		texts := make([]string, 12)
		for i := range growth {
			xys[i] = plotter.XY{X: float64(i), Y: layout.LabelY[i]}
			texts[i] = growth[i].Label()
		}
		sty := p.X.Tick.Label
		sty.Font.Size = vg.Points(7)
		p.Add(newBoxAnnotations(xys, texts, sty, r.box))
	}

	p.Y.Min = layout.YMin
	p.Y.Max = layout.YMax
	return p, nil
}

// regionBars draws one bar per region, largest first.
func (r *Renderer) regionBars(req Request) (*plot.Plot, error) {
	if len(req.Regions) == 0 {
		return nil, ErrNoData
	}
	p := r.newPlot(req.Title, req.Current.Metric)
	p.Legend.Top = false

	names := make([]string, len(req.Regions))
	values := make(plotter.Values, len(req.Regions))
	hi := 0.0
	for i, ra := range req.Regions {
		names[i] = ra.Region
		values[i] = ra.Value
		hi = math.Max(hi, ra.Value)
	}
	p.NominalX(names...)
	p.X.Label.Text = "Region"
	p.X.Tick.Label.Rotation = math.Pi / 8
	p.X.Tick.Label.XAlign = draw.XRight

	bars, err := plotter.NewBarChart(values, vg.Points(r.theme.BarWidth*1.5))
	if err != nil {
		return nil, fmt.Errorf("region bars: %w", err)
	}
	bars.Color = r.color(0)
	bars.LineStyle.Width = 0
	p.Add(bars)

	if r.theme.ShowValues {
		xys := make(plotter.XYs, len(values))
		for i, v := range values {
			xys[i] = plotter.XY{X: float64(i), Y: v}
		}
		labels, err := valueLabels(xys, req.Current.Metric, vg.Points(2))
		if err != nil {
			return nil, err
		}
		p.Add(labels)
	}
	p.Y.Min = 0
	if hi > 0 {
		p.Y.Max = hi * 1.15
	}
	return p, nil
}
