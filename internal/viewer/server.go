// Package viewer serves an analysis run on a local HTTP page: interactive
// charts, the rendered PNGs, a JSON summary and, when an export database is
// attached, a SQL console under /debug/.
package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/banshee-data/collision.report/internal/collision"
	"github.com/banshee-data/collision.report/internal/db"
	"github.com/banshee-data/collision.report/internal/httputil"
	"github.com/banshee-data/collision.report/internal/report"
	"github.com/banshee-data/collision.report/internal/security"
	"github.com/banshee-data/collision.report/internal/timeutil"
)

// WebServer serves one analysis run.
type WebServer struct {
	address string
	metrics *collision.Metrics
	plotDir string
	db      *db.DB
	server  *http.Server
	clock   timeutil.Clock
	started time.Time
}

// WebServerConfig configures the viewer.
type WebServerConfig struct {
	// Address to listen on; port 0 picks a free port.
	Address string
	Metrics *collision.Metrics
	// PlotDir holds the PNGs written by report.RenderPNGs. Empty disables /plots/.
	PlotDir string
	// DB is the optional export database for the SQL console.
	DB *db.DB
	// Clock defaults to the wall clock.
	Clock timeutil.Clock
}

// NewWebServer creates a viewer. Routes are built eagerly so that a broken
// debug mount fails here rather than on first request.
func NewWebServer(config WebServerConfig) (*WebServer, error) {
	clock := config.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	ws := &WebServer{
		address: config.Address,
		metrics: config.Metrics,
		plotDir: config.PlotDir,
		db:      config.DB,
		clock:   clock,
		started: clock.Now(),
	}
	if ws.metrics == nil {
		return nil, errors.New("viewer needs metrics")
	}

	mux, err := ws.setupRoutes()
	if err != nil {
		return nil, err
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws, nil
}

func (ws *WebServer) setupRoutes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/", ws.handleCharts)
	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/summary", ws.handleSummary)
	mux.HandleFunc("/plots/", ws.handlePlot)

	if ws.db != nil {
		if err := ws.db.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

// Handler exposes the routes for tests and embedding.
func (ws *WebServer) Handler() http.Handler { return ws.server.Handler }

// Start listens on the configured address, reports the page URL through
// ready, and serves until ctx is cancelled.
func (ws *WebServer) Start(ctx context.Context, ready func(url string)) error {
	ln, err := net.Listen("tcp", ws.address)
	if err != nil {
		return fmt.Errorf("failed to create listener for HTTP server: %w", err)
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", ln.Addr().String())
		if err := ws.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	if ready != nil {
		ready(pageURL(ln.Addr()))
	}

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("HTTP server routine stopped")
	return nil
}

// pageURL turns a listener address into a browsable URL. Wildcard hosts are
// replaced by localhost.
func pageURL(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "http://" + addr.String() + "/"
	}
	host := "localhost"
	if tcp.IP != nil && !tcp.IP.IsUnspecified() {
		host = tcp.IP.String()
	}
	return fmt.Sprintf("http://%s/", net.JoinHostPort(host, fmt.Sprint(tcp.Port)))
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "ok",
		"service": "collision-analyse",
		"uptime":  ws.clock.Since(ws.started).Round(time.Second).String(),
	})
}

// summaryResponse is the /api/summary payload.
type summaryResponse struct {
	collision.Summary
	HasData         bool                    `json:"has_data"`
	DangerLevels    []collision.DangerLevel `json:"danger_levels,omitempty"`
	AlertPositions  int                     `json:"alert_positions"`
	DensityComputed bool                    `json:"density_computed"`
}

func (ws *WebServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	m := ws.metrics
	resp := summaryResponse{
		Summary:         m.Summary,
		HasData:         m.HasData,
		AlertPositions:  len(m.AlertMap.Points),
		DensityComputed: m.AlertMap.Density != nil,
	}
	if m.HasData {
		resp.DangerLevels = m.Danger[:]
	}
	httputil.WriteJSONOK(w, resp)
}

func (ws *WebServer) handleCharts(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteInteractive(&buf, ws.metrics); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handlePlot serves one of the known PNG files from the plot directory.
func (ws *WebServer) handlePlot(w http.ResponseWriter, r *http.Request) {
	if ws.plotDir == "" || !ws.metrics.HasData {
		http.NotFound(w, r)
		return
	}
	name := security.SanitizeFilename(strings.TrimPrefix(r.URL.Path, "/plots/"))
	if !slices.Contains(report.PlotFiles, name) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, filepath.Join(ws.plotDir, name))
}
