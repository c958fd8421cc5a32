package report

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/collision.report/internal/collision"
	"github.com/banshee-data/collision.report/internal/fsutil"
	"github.com/banshee-data/collision.report/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func sampleRecords() []collision.Record {
	var recs []collision.Record
	for i := 0; i < 30; i++ {
		code := i % 3
		recs = append(recs, collision.Record{
			VehicleID:    "veh" + string(rune('A'+i%2)),
			Time:         float64(i) * 0.5,
			SubCauseCode: code,
			HasSubCause:  true,
			TTC:          3 + float64(i%5),
			PositionX:    100 + float64(i)*2,
			PositionY:    float64(i%4) * 3.2,
		})
	}
	return recs
}

func sampleMetrics(t *testing.T, recs []collision.Record) *collision.Metrics {
	t.Helper()
	opts := collision.DefaultOptions()
	opts.Density = collision.GaussianKDE{GridSize: 30}
	m, err := collision.Analyze(recs, nil, opts)
	require.NoError(t, err)
	return m
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", path)
}

func smallPlots() PlotOptions {
	return PlotOptions{Width: 4 * vg.Inch, Height: 3 * vg.Inch}
}

func TestRenderPNGs_WritesAllPlots(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	m := sampleMetrics(t, sampleRecords())
	require.NotNil(t, m.AlertMap.Density)

	paths, err := RenderPNGs(fsutil.OSFileSystem{}, m, dir, smallPlots())
	require.NoError(t, err)
	require.Len(t, paths, len(PlotFiles))
	for i, name := range PlotFiles {
		assert.Equal(t, filepath.Join(dir, name), paths[i])
		assertPNG(t, paths[i])
	}
}

func TestRenderPNGs_SingleAlertScatter(t *testing.T) {
	recs := []collision.Record{
		{VehicleID: "a", Time: 1, SubCauseCode: 0, HasSubCause: true, TTC: math.NaN()},
		{VehicleID: "a", Time: 2, SubCauseCode: 2, HasSubCause: true, TTC: 0.8, PositionX: 50, PositionY: 1.6},
	}
	m := sampleMetrics(t, recs)
	require.Nil(t, m.AlertMap.Density)

	paths, err := RenderPNGs(fsutil.OSFileSystem{}, m, t.TempDir(), smallPlots())
	require.NoError(t, err)
	for _, p := range paths {
		assertPNG(t, p)
	}
}

func TestRenderPNGs_NoAlerts(t *testing.T) {
	recs := []collision.Record{
		{VehicleID: "a", Time: 1, SubCauseCode: 0, HasSubCause: true, TTC: 4},
	}
	paths, err := RenderPNGs(fsutil.OSFileSystem{}, sampleMetrics(t, recs), t.TempDir(), smallPlots())
	require.NoError(t, err)
	assert.Len(t, paths, 4)
}

func TestRenderPNGs_EmptyLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never")
	_, err := RenderPNGs(fsutil.OSFileSystem{}, sampleMetrics(t, nil), dir, smallPlots())
	assert.True(t, errors.Is(err, ErrNoData))
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "no directory should be created for an empty log")
}

func TestRenderPNGs_WritesThroughFileSystem(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	paths, err := RenderPNGs(mfs, sampleMetrics(t, sampleRecords()), "plots", smallPlots())
	require.NoError(t, err)
	require.Len(t, paths, len(PlotFiles))

	assert.True(t, mfs.Exists("plots"))
	for _, p := range paths {
		data, err := mfs.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", p)
	}
	_, statErr := os.Stat("plots")
	assert.True(t, os.IsNotExist(statErr), "nothing should reach the disk")
}

func TestValidSegments(t *testing.T) {
	pts := []collision.TTCPoint{
		{Time: 0}, {Time: 1, Smoothed: 2, Valid: true}, {Time: 2, Smoothed: 3, Valid: true},
		{Time: 3, Smoothed: math.NaN()}, {Time: 4, Smoothed: 5, Valid: true},
	}
	segs := validSegments(pts)
	require.Len(t, segs, 2)
	assert.Len(t, segs[0], 2)
	assert.Equal(t, 4.0, segs[1][0].X)
	assert.Empty(t, validSegments(pts[:1]))
}

func TestPieLabelAnchors(t *testing.T) {
	pie := pieChart{Values: []float64{3, 0, 1}}
	anchors := pie.labelAnchors(1)
	require.Len(t, anchors, 2)
	assert.InDelta(t, 0.75, anchors[0].Share, 1e-12)
	assert.InDelta(t, 0.25, anchors[1].Share, 1e-12)

	// The first wedge spans 90..360 degrees, its middle sits at 225 degrees.
	assert.InDelta(t, -math.Sqrt2/2, anchors[0].X, 1e-12)
	assert.InDelta(t, -math.Sqrt2/2, anchors[0].Y, 1e-12)

	assert.Nil(t, pieChart{Values: []float64{0, 0, 0}}.labelAnchors(1))
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSummary(&buf, collision.Summary{
		TotalVehicles:       3,
		SimulationDuration:  7.25,
		TotalWarnings:       4,
		TotalAlertsReceived: 2,
	})
	require.NoError(t, err)

	want := "Scenario overview:\n" +
		"Total vehicles: 3\n" +
		"Simulation duration: 7.25 seconds\n" +
		"Total alerts emitted: 4\n" +
		"Total alerts received: 2\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteOutcome(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutcome(&buf, &collision.Metrics{}, "."))
	assert.Equal(t, "No alert data available for analysis.\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteOutcome(&buf, &collision.Metrics{HasData: true}, "out"))
	assert.Equal(t, "Plots saved to out.\n", buf.String())
}

func TestWriteInteractive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInteractive(&buf, sampleMetrics(t, sampleRecords())))
	html := buf.String()

	for _, want := range []string{
		"Scenario overview",
		"Distribution des niveaux de danger",
		"Carte des positions d",
		EChartsAssetsHost,
	} {
		assert.True(t, strings.Contains(html, want), "page should contain %q", want)
	}
}

func TestWriteInteractive_EmptyLogOnlySummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInteractive(&buf, sampleMetrics(t, nil)))
	html := buf.String()
	assert.Contains(t, html, "Scenario overview")
	assert.NotContains(t, html, "Distribution des niveaux de danger")
}
