package chart

import (
	"math"

	"gonum.org/v1/plot/vg"

	"salescharts/internal/core"
)

// labelPadFraction is the gap between a bar top and its annotation, as a
// fraction of the data span.
const labelPadFraction = 0.06

// BarLayout is the placement arithmetic of the monthly bar chart.
type BarLayout struct {
	BarWidth      vg.Length
	CurrentOffset vg.Length
	PriorOffset   vg.Length
	// LabelY is the data-space centre of each month's growth annotation.
	LabelY [12]float64
	YMin   float64
	YMax   float64
}

// NewBarLayout places current bars to the right of prior bars when a prior
// series exists and centred on the month otherwise. Growth annotations sit
// a fixed fraction of the span above the taller bar of each pair, and the
// axis is extended so none of them clips.
func NewBarLayout(current core.MonthlySeries, prior *core.MonthlySeries, barWidth vg.Length) BarLayout {
	l := BarLayout{BarWidth: barWidth}
	if prior != nil {
		l.CurrentOffset = barWidth / 2
		l.PriorOffset = -barWidth / 2
	}

	var tops [12]float64
	lo, hi := 0.0, 0.0
	for i := range tops {
		top := math.Max(current.Values[i], 0)
		lo = math.Min(lo, current.Values[i])
		if prior != nil {
			top = math.Max(top, prior.Values[i])
			lo = math.Min(lo, prior.Values[i])
		}
		tops[i] = top
		hi = math.Max(hi, top)
	}

	span := hi - lo
	if span == 0 {
		span = 1
	}
	pad := span * labelPadFraction

	maxLabel := 0.0
	for i, top := range tops {
		l.LabelY[i] = top + pad
		maxLabel = math.Max(maxLabel, l.LabelY[i])
	}
	l.YMax = maxLabel + pad
	if lo < 0 {
		l.YMin = lo - pad
	}
	return l
}
