// Package report turns collision metrics into files and pages: PNG plots,
// the console summary and the interactive chart page.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/collision.report/internal/collision"
	"github.com/banshee-data/collision.report/internal/fsutil"
	"github.com/banshee-data/collision.report/internal/monitoring"
)

// Plot file names.
const (
	AlertFrequencyFile     = "frequence_alertes.png"
	DangerDistributionFile = "distribution_danger.png"
	TTCEvolutionFile       = "evolution_ttc.png"
	AlertMapFile           = "map_alertes.png"
)

// PlotFiles lists the files written by RenderPNGs, in render order.
var PlotFiles = []string{AlertFrequencyFile, DangerDistributionFile, TTCEvolutionFile, AlertMapFile}

// ErrNoData is returned when asked to plot an empty warning log.
var ErrNoData = errors.New("no warning data to plot")

// PlotOptions sizes the time-series plots. The pie is square at Height and the
// map is Width wide with a 3:2 aspect.
type PlotOptions struct {
	Width, Height vg.Length
}

// DefaultPlotOptions returns a 12x6 inch canvas.
func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 12 * vg.Inch, Height: 6 * vg.Inch}
}

var (
	barColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	lineColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	alertRed   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	dangerFill = []color.Color{
		color.RGBA{R: 44, G: 160, B: 44, A: 255},
		color.RGBA{R: 255, G: 127, B: 14, A: 255},
		color.RGBA{R: 214, G: 39, B: 40, A: 255},
	}
)

// RenderPNGs writes the four plots into dir on fsys and returns their paths.
func RenderPNGs(fsys fsutil.FileSystem, m *collision.Metrics, dir string, opts PlotOptions) ([]string, error) {
	if m == nil || !m.HasData {
		return nil, ErrNoData
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	type job struct {
		file          string
		build         func() (*plot.Plot, error)
		width, height vg.Length
	}
	jobs := []job{
		{AlertFrequencyFile, func() (*plot.Plot, error) { return AlertFrequencyPlot(m.AlertFrequency) }, opts.Width, opts.Height},
		{DangerDistributionFile, func() (*plot.Plot, error) { return DangerPlot(m.Danger) }, opts.Height, opts.Height},
		{TTCEvolutionFile, func() (*plot.Plot, error) { return TTCPlot(m.TTC) }, opts.Width, opts.Height},
		{AlertMapFile, func() (*plot.Plot, error) { return AlertMapPlot(m.AlertMap) }, opts.Width, opts.Width * 2 / 3},
	}

	paths := make([]string, 0, len(jobs))
	for _, j := range jobs {
		p, err := j.build()
		if err != nil {
			return paths, fmt.Errorf("%s: %w", j.file, err)
		}
		wt, err := p.WriterTo(j.width, j.height, "png")
		if err != nil {
			return paths, fmt.Errorf("render %s: %w", j.file, err)
		}
		var buf bytes.Buffer
		if _, err := wt.WriteTo(&buf); err != nil {
			return paths, fmt.Errorf("render %s: %w", j.file, err)
		}
		path := filepath.Join(dir, j.file)
		if err := fsys.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return paths, fmt.Errorf("save %s: %w", j.file, err)
		}
		monitoring.Logf("wrote %s", path)
		paths = append(paths, path)
	}
	return paths, nil
}

// AlertFrequencyPlot draws the alert-time histogram. An empty histogram
// yields bare axes.
func AlertFrequencyPlot(h collision.Histogram) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Fréquence des alertes émises au fil du temps"
	p.X.Label.Text = "Temps (secondes)"
	p.Y.Label.Text = "Nombre d'alertes"

	if len(h.Bins) == 0 {
		return p, nil
	}
	bins := make([]plotter.HistogramBin, len(h.Bins))
	for i, b := range h.Bins {
		bins[i] = plotter.HistogramBin{Min: b.Low, Max: b.High, Weight: float64(b.Count)}
	}
	hist := &plotter.Histogram{
		Bins:      bins,
		Width:     h.Bins[0].High - h.Bins[0].Low,
		FillColor: barColor,
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(hist)
	p.Y.Min = 0
	return p, nil
}

// DangerPlot draws the three-level distribution as a pie with percentage
// labels. Levels with no rows get no wedge but keep their legend entry.
func DangerPlot(levels [3]collision.DangerLevel) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Distribution des niveaux de danger"
	p.HideAxes()

	pie := pieChart{Colors: dangerFill}
	for i, lvl := range levels {
		pie.Values = append(pie.Values, float64(lvl.Count))
		p.Legend.Add(lvl.Label, swatch{color: dangerFill[i]})
	}
	p.Add(pie)
	p.Legend.Top = true

	anchors := pie.labelAnchors(0.6)
	if len(anchors) == 0 {
		return p, nil
	}
	xys := make(plotter.XYs, len(anchors))
	text := make([]string, len(anchors))
	for i, a := range anchors {
		xys[i] = plotter.XY{X: a.X, Y: a.Y}
		text[i] = fmt.Sprintf("%.1f%%", a.Share*100)
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)
	return p, nil
}

// TTCPlot draws the smoothed TTC series. Points without a smoothed value
// break the line rather than dropping it to zero.
func TTCPlot(points []collision.TTCPoint) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Évolution du TTC moyen au fil du temps"
	p.X.Label.Text = "Temps (secondes)"
	p.Y.Label.Text = "TTC moyen (secondes)"

	for _, seg := range validSegments(points) {
		line, err := plotter.NewLine(seg)
		if err != nil {
			return nil, err
		}
		line.Color = lineColor
		line.Width = vg.Points(1.5)
		p.Add(line)
	}
	return p, nil
}

// validSegments splits the series into runs of consecutive valid points.
func validSegments(points []collision.TTCPoint) []plotter.XYs {
	var segs []plotter.XYs
	var cur plotter.XYs
	for _, pt := range points {
		if !pt.Valid {
			if len(cur) > 0 {
				segs = append(segs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: pt.Time, Y: pt.Smoothed})
	}
	if len(cur) > 0 {
		segs = append(segs, cur)
	}
	return segs
}

// AlertMapPlot draws the density heat map, or the raw points in red when no
// density was estimated.
func AlertMapPlot(am collision.AlertMap) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Carte des positions d'alertes"
	p.X.Label.Text = "Position X"
	p.Y.Label.Text = "Position Y"

	if am.Density != nil {
		pal, err := brewer.GetPalette(brewer.TypeSequential, "YlOrRd", 9)
		if err != nil {
			return nil, fmt.Errorf("palette: %w", err)
		}
		hm := plotter.NewHeatMap(densityXYZ{am.Density}, pal)
		hm.Min = 0
		p.Add(hm)
		return p, nil
	}

	if len(am.Points) == 0 {
		return p, nil
	}
	xys := make(plotter.XYs, len(am.Points))
	for i, pt := range am.Points {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = alertRed
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(6)
	p.Add(sc)
	return p, nil
}

// densityXYZ adapts a DensityGrid to plotter.GridXYZ.
type densityXYZ struct{ g *collision.DensityGrid }

func (d densityXYZ) Dims() (c, r int)   { return len(d.g.XS), len(d.g.YS) }
func (d densityXYZ) Z(c, r int) float64 { return d.g.Z[r][c] }
func (d densityXYZ) X(c int) float64    { return d.g.XS[c] }
func (d densityXYZ) Y(r int) float64    { return d.g.YS[r] }
