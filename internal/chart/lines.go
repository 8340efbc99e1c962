package chart

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"salescharts/internal/smooth"
)

// smoothLine draws each series as a spline through its monthly totals, with
// the original points marked.
func (r *Renderer) smoothLine(req Request) (*plot.Plot, error) {
	p := r.newPlot(req.Title, req.Current.Metric)
	r.monthAxis(p)
	series, colors := req.series()

	for i, s := range series {
		curve, _, err := smooth.Curve(s, r.theme.Samples)
		if err != nil {
			return nil, fmt.Errorf("smooth %d: %w", s.Year, err)
		}
		xys := make(plotter.XYs, len(curve))
		for j, pt := range curve {
			xys[j] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("curve %d: %w", s.Year, err)
		}
		line.LineStyle.Width = vg.Points(r.theme.LineWidth)
		line.LineStyle.Color = r.color(colors[i])

		points, err := plotter.NewScatter(monthXYs(s))
		if err != nil {
			return nil, fmt.Errorf("points %d: %w", s.Year, err)
		}
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		points.GlyphStyle.Radius = vg.Points(r.theme.MarkerRadius * 0.75)
		points.GlyphStyle.Color = r.color(colors[i])

		p.Add(line, points)
		p.Legend.Add(yearLabel(s), line, points)
	}

	if r.theme.ShowValues {
		labels, err := valueLabels(monthXYs(req.Current), req.Current.Metric, vg.Points(r.theme.MarkerRadius+2))
		if err != nil {
			return nil, err
		}
		p.Add(labels)
	}
	setYRange(p, series...)
	return p, nil
}

// diamondLine draws straight segments with a diamond at every month, the
// value above each marker and a dashed line at the current year's mean.
func (r *Renderer) diamondLine(req Request) (*plot.Plot, error) {
	p := r.newPlot(req.Title, req.Current.Metric)
	r.monthAxis(p)
	series, colors := req.series()

	for i, s := range series {
		line, points, err := plotter.NewLinePoints(monthXYs(s))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", s.Year, err)
		}
		line.LineStyle.Width = vg.Points(r.theme.LineWidth)
		line.LineStyle.Color = r.color(colors[i])
		points.GlyphStyle.Shape = DiamondGlyph{}
		points.GlyphStyle.Radius = vg.Points(r.theme.MarkerRadius)
		points.GlyphStyle.Color = r.color(colors[i])

		p.Add(line, points)
		p.Legend.Add(yearLabel(s), line, points)
	}

	mean := req.Current.Mean()
	meanLine, err := plotter.NewLine(plotter.XYs{{X: 0.5, Y: mean}, {X: 12.5, Y: mean}})
	if err != nil {
		return nil, fmt.Errorf("mean line: %w", err)
	}
	meanLine.LineStyle.Width = vg.Points(1)
	meanLine.LineStyle.Color = r.color(colors[len(colors)-1])
	meanLine.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(meanLine)
	p.Legend.Add(fmt.Sprintf("Mean %s", formatValue(mean, req.Current.Metric)), meanLine)

	if r.theme.ShowValues {
		labels, err := valueLabels(monthXYs(req.Current), req.Current.Metric, vg.Points(r.theme.MarkerRadius+2))
		if err != nil {
			return nil, err
		}
		p.Add(labels)
	}
	setYRange(p, series...)
	return p, nil
}

func (r *Renderer) monthAxis(p *plot.Plot) {
	p.X.Min = 0.5
	p.X.Max = 12.5
	p.X.Tick.Marker = monthTicks()
	p.X.Label.Text = "Month"
}
