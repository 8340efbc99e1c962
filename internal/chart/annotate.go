package chart

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// boxAnnotations draws short texts inside filled boxes centred on data
// points, offset horizontally in canvas units.
type boxAnnotations struct {
	plotter.XYs
	Texts     []string
	TextStyle text.Style
	Fill      color.Color
	Border    draw.LineStyle
	Padding   vg.Length
	OffsetX   vg.Length
}

func newBoxAnnotations(xys plotter.XYs, texts []string, sty text.Style, fill color.Color) *boxAnnotations {
	sty.XAlign = draw.XCenter
	sty.YAlign = draw.YCenter
	return &boxAnnotations{
		XYs:       xys,
		Texts:     texts,
		TextStyle: sty,
		Fill:      fill,
		Border:    draw.LineStyle{Color: color.Gray{Y: 120}, Width: vg.Points(0.5)},
		Padding:   vg.Points(2),
	}
}

// Plot implements the plot.Plotter interface.
func (b *boxAnnotations) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for i, xy := range b.XYs {
		if i >= len(b.Texts) || b.Texts[i] == "" {
			continue
		}
		pt := vg.Point{X: trX(xy.X) + b.OffsetX, Y: trY(xy.Y)}
		if !c.Contains(pt) {
			continue
		}
		w := b.TextStyle.Width(b.Texts[i])/2 + b.Padding
		h := b.TextStyle.Height(b.Texts[i])/2 + b.Padding

		var box vg.Path
		box.Move(vg.Point{X: pt.X - w, Y: pt.Y - h})
		box.Line(vg.Point{X: pt.X + w, Y: pt.Y - h})
		box.Line(vg.Point{X: pt.X + w, Y: pt.Y + h})
		box.Line(vg.Point{X: pt.X - w, Y: pt.Y + h})
		box.Close()

		c.SetColor(b.Fill)
		c.Fill(box)
		c.SetLineStyle(b.Border)
		c.Stroke(box)
		c.FillText(b.TextStyle, pt, b.Texts[i])
	}
}
