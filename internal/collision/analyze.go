package collision

import "fmt"

// Options tunes the derived series.
type Options struct {
	HistogramBins int
	TTCWindow     int
	// Density is consulted only when more than one alert position exists.
	Density DensityEstimator
}

// DefaultOptions returns the standard report settings.
func DefaultOptions() Options {
	return Options{
		HistogramBins: DefaultHistogramBins,
		TTCWindow:     DefaultTTCWindow,
		Density:       GaussianKDE{GridSize: DefaultDensityGrid, Cut: DefaultDensityCut},
	}
}

// Metrics is everything the renderers and exporters need. The series are
// only populated when HasData is true.
type Metrics struct {
	Summary        Summary
	HasData        bool
	AlertFrequency Histogram
	Danger         [3]DangerLevel
	TTC            []TTCPoint
	AlertMap       AlertMap
}

// Analyze computes the summary and, for a non-empty warning log, the derived
// series. It has no side effects.
func Analyze(records []Record, alerts *Table, opts Options) (*Metrics, error) {
	m := &Metrics{Summary: Summarize(records, alerts)}
	if len(records) == 0 {
		return m, nil
	}

	m.HasData = true
	m.AlertFrequency = AlertFrequency(records, opts.HistogramBins)
	m.Danger = DangerDistribution(records)
	m.TTC = TTCEvolution(records, opts.TTCWindow)

	alertMap, err := BuildAlertMap(records, opts.Density)
	if err != nil {
		return nil, fmt.Errorf("alert map: %w", err)
	}
	m.AlertMap = alertMap
	return m, nil
}
