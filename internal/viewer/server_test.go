package viewer

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/collision.report/internal/collision"
	"github.com/banshee-data/collision.report/internal/db"
	"github.com/banshee-data/collision.report/internal/fsutil"
	"github.com/banshee-data/collision.report/internal/monitoring"
	"github.com/banshee-data/collision.report/internal/report"
	"github.com/banshee-data/collision.report/internal/testutil"
	"github.com/banshee-data/collision.report/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func testMetrics(t *testing.T) *collision.Metrics {
	t.Helper()
	recs := []collision.Record{
		{VehicleID: "a", Time: 0.5, SubCauseCode: 1, HasSubCause: true, TTC: 2, PositionX: 10, PositionY: 1},
		{VehicleID: "b", Time: 1.0, SubCauseCode: 2, HasSubCause: true, TTC: 1, PositionX: 14, PositionY: 4.2},
		{VehicleID: "b", Time: 1.5, SubCauseCode: 0, HasSubCause: true, TTC: 6, PositionX: 20, PositionY: 4.2},
	}
	opts := collision.DefaultOptions()
	opts.Density = collision.GaussianKDE{GridSize: 20}
	m, err := collision.Analyze(recs, &collision.Table{Rows: [][]string{{"x"}}}, opts)
	require.NoError(t, err)
	return m
}

func newTestServer(t *testing.T, cfg WebServerConfig) *WebServer {
	t.Helper()
	if cfg.Metrics == nil {
		cfg.Metrics = testMetrics(t)
	}
	ws, err := NewWebServer(cfg)
	require.NoError(t, err)
	return ws
}

func serve(ws *WebServer, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewWebServer_RequiresMetrics(t *testing.T) {
	_, err := NewWebServer(WebServerConfig{})
	assert.Error(t, err)
}

func TestHandleHealth(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	ws := newTestServer(t, WebServerConfig{Clock: clock})
	clock.Advance(90 * time.Second)

	rec := serve(ws, http.MethodGet, "/health")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1m30s", body["uptime"])
}

func TestHandleSummary(t *testing.T) {
	ws := newTestServer(t, WebServerConfig{})
	rec := serve(ws, http.MethodGet, "/api/summary")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var got struct {
		TotalVehicles       int     `json:"total_vehicles"`
		SimulationDuration  float64 `json:"simulation_duration_secs"`
		TotalWarnings       int     `json:"total_warnings"`
		TotalAlertsReceived int     `json:"total_alerts_received"`
		HasData             bool    `json:"has_data"`
		DangerLevels        []struct {
			Code  int `json:"code"`
			Count int `json:"count"`
		} `json:"danger_levels"`
		AlertPositions  int  `json:"alert_positions"`
		DensityComputed bool `json:"density_computed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.TotalVehicles)
	assert.Equal(t, 1.5, got.SimulationDuration)
	assert.Equal(t, 2, got.TotalWarnings)
	assert.Equal(t, 1, got.TotalAlertsReceived)
	assert.True(t, got.HasData)
	require.Len(t, got.DangerLevels, 3)
	assert.Equal(t, 1, got.DangerLevels[2].Count)
	assert.Equal(t, 2, got.AlertPositions)
	assert.True(t, got.DensityComputed)

	rec = serve(ws, http.MethodPost, "/api/summary")
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestHandleCharts(t *testing.T) {
	ws := newTestServer(t, WebServerConfig{})

	rec := serve(ws, http.MethodGet, "/")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Scenario overview")

	rec = serve(ws, http.MethodGet, "/nope")
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestHandlePlot(t *testing.T) {
	dir := t.TempDir()
	m := testMetrics(t)
	_, err := report.RenderPNGs(fsutil.OSFileSystem{}, m, dir, report.DefaultPlotOptions())
	require.NoError(t, err)

	ws := newTestServer(t, WebServerConfig{Metrics: m, PlotDir: dir})

	rec := serve(ws, http.MethodGet, "/plots/"+report.AlertMapFile)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	// Anything but the known plot names is refused.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0644))
	for _, p := range []string{"/plots/secret.txt", "/plots/" + report.AlertMapFile + ".bak", "/plots/"} {
		rec = serve(ws, http.MethodGet, p)
		assert.Equal(t, http.StatusNotFound, rec.Code, p)
	}
}

func TestHandlePlot_NoPlotDir(t *testing.T) {
	ws := newTestServer(t, WebServerConfig{})
	rec := serve(ws, http.MethodGet, "/plots/"+report.AlertMapFile)
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestDebugRoutesWithDB(t *testing.T) {
	d, err := db.Create(fsutil.OSFileSystem{}, filepath.Join(t.TempDir(), "analysis.db"))
	require.NoError(t, err)
	defer d.Close()

	ws := newTestServer(t, WebServerConfig{DB: d})
	rec := serve(ws, http.MethodGet, "/debug/tailsql/")
	assert.NotEqual(t, http.StatusNotFound, rec.Code)
}

func TestStart_ServesUntilCancelled(t *testing.T) {
	ws := newTestServer(t, WebServerConfig{Address: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())

	urls := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- ws.Start(ctx, func(u string) { urls <- u }) }()

	var url string
	select {
	case url = <-urls:
	case <-time.After(5 * time.Second):
		t.Fatal("server never became ready")
	}
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:"), url)

	resp, err := http.Get(url + "health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `"ok"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestStart_ListenError(t *testing.T) {
	ws := newTestServer(t, WebServerConfig{Address: "127.0.0.1:-1"})
	err := ws.Start(context.Background(), nil)
	assert.Error(t, err)
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		addr net.Addr
		want string
	}{
		{&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}, "http://127.0.0.1:8080/"},
		{&net.TCPAddr{IP: net.IPv4zero, Port: 9000}, "http://localhost:9000/"},
		{&net.TCPAddr{Port: 9001}, "http://localhost:9001/"},
		{&net.TCPAddr{IP: net.IPv6loopback, Port: 80}, "http://[::1]:80/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pageURL(tt.addr))
	}
}

func TestBrowserCommand(t *testing.T) {
	tests := []struct {
		goos     string
		wantName string
		wantArgs []string
		wantErr  bool
	}{
		{"darwin", "open", []string{"http://x/"}, false},
		{"linux", "xdg-open", []string{"http://x/"}, false},
		{"windows", "cmd", []string{"/c", "start", "http://x/"}, false},
		{"plan9", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := browserCommand(tt.goos, "http://x/")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
