package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/collision.report/internal/collision"
)

// EChartsAssetsHost serves the echarts JavaScript for the interactive page.
const EChartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// densityFloor drops near-empty grid cells from the interactive map.
const densityFloor = 0.01

var ylOrRd = []string{"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#bd0026", "#800026"}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle:  title,
		Width:      "1100px",
		Height:     "550px",
		AssetsHost: EChartsAssetsHost,
	})
}

// WriteInteractive renders the summary and, when there is data, the four
// analysis charts as one HTML page.
func WriteInteractive(w io.Writer, m *collision.Metrics) error {
	page := components.NewPage()
	page.SetAssetsHost(EChartsAssetsHost)
	page.PageTitle = "collision.report"

	page.AddCharts(summaryChart(m.Summary))
	if m.HasData {
		page.AddCharts(
			frequencyChart(m.AlertFrequency),
			dangerChart(m.Danger),
			ttcChart(m.TTC),
			mapChart(m.AlertMap),
		)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

func summaryChart(s collision.Summary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Scenario overview"),
		charts.WithTitleOpts(opts.Title{
			Title:    "Scenario overview",
			Subtitle: fmt.Sprintf("simulation duration %.2f s", s.SimulationDuration),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{"Vehicles", "Alerts emitted", "Alerts received"}).
		AddSeries("overview", []opts.BarData{
			{Value: s.TotalVehicles},
			{Value: s.TotalWarnings},
			{Value: s.TotalAlertsReceived},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

func frequencyChart(h collision.Histogram) *charts.Bar {
	x := make([]string, len(h.Bins))
	y := make([]opts.BarData, len(h.Bins))
	for i, b := range h.Bins {
		x[i] = strconv.FormatFloat(b.Low, 'f', 2, 64)
		y[i] = opts.BarData{Value: b.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Alert frequency"),
		charts.WithTitleOpts(opts.Title{Title: "Fréquence des alertes émises au fil du temps"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Temps (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Nombre d'alertes"}),
	)
	bar.SetXAxis(x).AddSeries("alerts", y, charts.WithBarChartOpts(opts.BarChart{BarCategoryGap: "0%"}))
	return bar
}

func dangerChart(levels [3]collision.DangerLevel) *charts.Pie {
	data := make([]opts.PieData, 0, len(levels))
	for _, lvl := range levels {
		data = append(data, opts.PieData{Name: lvl.Label, Value: lvl.Count})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		initOpts("Danger levels"),
		charts.WithTitleOpts(opts.Title{Title: "Distribution des niveaux de danger"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	pie.AddSeries("danger", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
	)
	return pie
}

func ttcChart(points []collision.TTCPoint) *charts.Line {
	x := make([]string, len(points))
	y := make([]opts.LineData, len(points))
	for i, p := range points {
		x[i] = strconv.FormatFloat(p.Time, 'f', -1, 64)
		if p.Valid {
			y[i] = opts.LineData{Value: p.Smoothed}
		} else {
			// echarts treats "-" as a gap.
			y[i] = opts.LineData{Value: "-"}
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts("TTC evolution"),
		charts.WithTitleOpts(opts.Title{Title: "Évolution du TTC moyen au fil du temps"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Temps (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "TTC moyen (s)"}),
	)
	line.SetXAxis(x).AddSeries("ttc", y, charts.WithLineChartOpts(opts.LineChart{ConnectNulls: opts.Bool(false)}))
	return line
}

// mapChart draws the density grid as coloured points in the manner of a heat
// map, or the raw alert points when no density exists.
func mapChart(am collision.AlertMap) *charts.Scatter {
	scatter := charts.NewScatter()
	global := []charts.GlobalOpts{
		initOpts("Alert map"),
		charts.WithTitleOpts(opts.Title{Title: "Carte des positions d'alertes"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Position X", Type: "value", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Position Y", Type: "value", Scale: opts.Bool(true)}),
	}

	if am.Density == nil {
		data := make([]opts.ScatterData, len(am.Points))
		for i, p := range am.Points {
			data[i] = opts.ScatterData{Value: []interface{}{p.X, p.Y}}
		}
		scatter.SetGlobalOptions(global...)
		scatter.AddSeries("alerts", data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#d62728"}),
		)
		return scatter
	}

	g := am.Density
	peak := g.Max()
	var data []opts.ScatterData
	for j, row := range g.Z {
		for i, z := range row {
			if z < peak*densityFloor {
				continue
			}
			data = append(data, opts.ScatterData{Value: []interface{}{g.XS[i], g.YS[j], z}})
		}
	}
	global = append(global, charts.WithVisualMapOpts(opts.VisualMap{
		Show:       opts.Bool(true),
		Calculable: opts.Bool(true),
		Min:        0,
		Max:        float32(peak),
		Dimension:  "2",
		InRange:    &opts.VisualMapInRange{Color: ylOrRd},
	}))
	scatter.SetGlobalOptions(global...)
	scatter.AddSeries("density", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}
