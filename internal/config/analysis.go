package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is where collision-analyse looks for an optional config
// when -config is not given.
const DefaultConfigPath = "collision.report.json"

const maxConfigSize = 1 * 1024 * 1024 // 1MB

// AnalysisConfig holds the settings for one analysis run. Every field is
// optional; the Get* methods return the built-in default for unset fields,
// so partial configs are safe.
type AnalysisConfig struct {
	// Input discovery
	DataPattern  *string `json:"data_pattern,omitempty"`
	AlertPattern *string `json:"alert_pattern,omitempty"`

	// Series parameters
	HistogramBins *int `json:"histogram_bins,omitempty"`
	TTCWindow     *int `json:"ttc_window,omitempty"`
	DensityGrid   *int `json:"density_grid,omitempty"`

	// Output
	OutputDir    *string  `json:"output_dir,omitempty"`
	PlotWidthIn  *float64 `json:"plot_width_in,omitempty"`  // inches
	PlotHeightIn *float64 `json:"plot_height_in,omitempty"` // inches
	DBPath       *string  `json:"db_path,omitempty"`

	// Viewer
	Listen *string `json:"listen,omitempty"`
}

func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrFloat64(v float64) *float64 { return &v }

// EmptyAnalysisConfig returns a config with every field unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field set to its default.
func DefaultAnalysisConfig() *AnalysisConfig {
	c := EmptyAnalysisConfig()
	return &AnalysisConfig{
		DataPattern:   ptrString(c.GetDataPattern()),
		AlertPattern:  ptrString(c.GetAlertPattern()),
		HistogramBins: ptrInt(c.GetHistogramBins()),
		TTCWindow:     ptrInt(c.GetTTCWindow()),
		DensityGrid:   ptrInt(c.GetDensityGrid()),
		OutputDir:     ptrString(c.GetOutputDir()),
		PlotWidthIn:   ptrFloat64(c.GetPlotWidthIn()),
		PlotHeightIn:  ptrFloat64(c.GetPlotHeightIn()),
		DBPath:        ptrString(c.GetDBPath()),
		Listen:        ptrString(c.GetListen()),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the set values are usable.
func (c *AnalysisConfig) Validate() error {
	patterns := []struct {
		name  string
		value *string
	}{
		{"data_pattern", c.DataPattern},
		{"alert_pattern", c.AlertPattern},
	}
	for _, p := range patterns {
		if p.value == nil {
			continue
		}
		if *p.value == "" {
			return fmt.Errorf("%s must not be empty", p.name)
		}
		if _, err := filepath.Match(*p.value, ""); err != nil {
			return fmt.Errorf("invalid %s %q: %w", p.name, *p.value, err)
		}
	}

	if c.HistogramBins != nil && *c.HistogramBins < 1 {
		return fmt.Errorf("histogram_bins must be positive, got %d", *c.HistogramBins)
	}
	if c.TTCWindow != nil && *c.TTCWindow < 1 {
		return fmt.Errorf("ttc_window must be positive, got %d", *c.TTCWindow)
	}
	if c.DensityGrid != nil && (*c.DensityGrid < 2 || *c.DensityGrid > 1000) {
		return fmt.Errorf("density_grid must be between 2 and 1000, got %d", *c.DensityGrid)
	}

	if c.PlotWidthIn != nil && *c.PlotWidthIn <= 0 {
		return fmt.Errorf("plot_width_in must be positive, got %f", *c.PlotWidthIn)
	}
	if c.PlotHeightIn != nil && *c.PlotHeightIn <= 0 {
		return fmt.Errorf("plot_height_in must be positive, got %f", *c.PlotHeightIn)
	}
	if c.OutputDir != nil && *c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	return nil
}

// GetDataPattern returns the warning log glob or the default.
func (c *AnalysisConfig) GetDataPattern() string {
	if c.DataPattern == nil {
		return "collision_data_*.csv"
	}
	return *c.DataPattern
}

// GetAlertPattern returns the received-alert log glob or the default.
func (c *AnalysisConfig) GetAlertPattern() string {
	if c.AlertPattern == nil {
		return "collision_alert_*.csv"
	}
	return *c.AlertPattern
}

// GetHistogramBins returns the histogram_bins value or the default.
func (c *AnalysisConfig) GetHistogramBins() int {
	if c.HistogramBins == nil {
		return 50
	}
	return *c.HistogramBins
}

// GetTTCWindow returns the ttc_window value or the default.
func (c *AnalysisConfig) GetTTCWindow() int {
	if c.TTCWindow == nil {
		return 10
	}
	return *c.TTCWindow
}

// GetDensityGrid returns the density_grid value or the default.
func (c *AnalysisConfig) GetDensityGrid() int {
	if c.DensityGrid == nil {
		return 100
	}
	return *c.DensityGrid
}

// GetOutputDir returns the output_dir value or the default.
func (c *AnalysisConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return "."
	}
	return *c.OutputDir
}

// GetPlotWidthIn returns the plot width in inches.
func (c *AnalysisConfig) GetPlotWidthIn() float64 {
	if c.PlotWidthIn == nil {
		return 12
	}
	return *c.PlotWidthIn
}

// GetPlotHeightIn returns the plot height in inches.
func (c *AnalysisConfig) GetPlotHeightIn() float64 {
	if c.PlotHeightIn == nil {
		return 6
	}
	return *c.PlotHeightIn
}

// GetDBPath returns the export database path; empty disables the export.
func (c *AnalysisConfig) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// GetListen returns the viewer listen address or the default.
func (c *AnalysisConfig) GetListen() string {
	if c.Listen == nil {
		return "127.0.0.1:0"
	}
	return *c.Listen
}
