package report

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pieChart draws wedges on a unit circle centred at the data origin. Zero
// values get no wedge. Wedges start at 12 o'clock and run counter-clockwise.
type pieChart struct {
	Values []float64
	Colors []color.Color
}

func (pc pieChart) total() float64 {
	t := 0.0
	for _, v := range pc.Values {
		t += v
	}
	return t
}

// Plot implements plot.Plotter.
func (pc pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	total := pc.total()
	if total <= 0 {
		return
	}
	trX, trY := plt.Transforms(&c)
	center := vg.Point{X: trX(0), Y: trY(0)}
	radius := trX(1) - trX(0)
	if r := trY(1) - trY(0); r < radius {
		radius = r
	}

	start := math.Pi / 2
	for i, v := range pc.Values {
		if v <= 0 {
			continue
		}
		sweep := 2 * math.Pi * v / total
		var p vg.Path
		p.Move(center)
		p.Arc(center, radius, start, sweep)
		p.Close()
		c.SetColor(pc.Colors[i%len(pc.Colors)])
		c.Fill(p)
		start += sweep
	}
}

// DataRange implements plot.DataRanger with room for the labels.
func (pc pieChart) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1.15, 1.15, -1.15, 1.15
}

// pieLabel anchors a percentage label at a wedge's mid angle.
type pieLabel struct {
	X, Y  float64
	Share float64
}

// labelAnchors returns one label per non-zero value, in value order.
func (pc pieChart) labelAnchors(radius float64) []pieLabel {
	total := pc.total()
	if total <= 0 {
		return nil
	}
	var out []pieLabel
	start := math.Pi / 2
	for _, v := range pc.Values {
		if v <= 0 {
			continue
		}
		sweep := 2 * math.Pi * v / total
		mid := start + sweep/2
		out = append(out, pieLabel{X: radius * math.Cos(mid), Y: radius * math.Sin(mid), Share: v / total})
		start += sweep
	}
	return out
}

// swatch is a legend thumbnail filled with one colour.
type swatch struct{ color color.Color }

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, pts)
}
