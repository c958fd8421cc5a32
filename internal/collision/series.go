package collision

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Defaults for the derived series.
const (
	DefaultHistogramBins = 50
	DefaultTTCWindow     = 10
)

// Bin is one equal-width bucket of the alert frequency histogram.
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Histogram is the alert frequency over simulation time.
type Histogram struct {
	Bins []Bin `json:"bins"`
}

// Total returns the number of alerts counted across all bins.
func (h Histogram) Total() int {
	n := 0
	for _, b := range h.Bins {
		n += b.Count
	}
	return n
}

// AlertFrequency buckets the Time of every alerting row into bins equal-width
// bins spanning the observed alert times. The last bin includes its upper
// edge. When all alerts share one time the range is widened by half a second
// either side. No alerts yields a histogram without bins.
func AlertFrequency(records []Record, bins int) Histogram {
	if bins < 1 {
		bins = 1
	}

	var times []float64
	for _, r := range records {
		if r.IsAlert() && !math.IsNaN(r.Time) && !math.IsInf(r.Time, 0) {
			times = append(times, r.Time)
		}
	}
	if len(times) == 0 {
		return Histogram{}
	}
	sort.Float64s(times)

	lo, hi := times[0], times[len(times)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)
	// stat.Histogram treats the last divider as exclusive.
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, times, nil)

	h := Histogram{Bins: make([]Bin, bins)}
	for i := range h.Bins {
		h.Bins[i] = Bin{Low: edges[i], High: edges[i+1], Count: int(counts[i])}
	}
	return h
}

// DangerLabels names the three severities in SubCauseCode order.
var DangerLabels = [3]string{"no danger", "warning", "critical"}

// DangerLevel is the row count for one SubCauseCode.
type DangerLevel struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DangerDistribution always reports the three severities, in code order, with
// zero for codes absent from the data. Rows without a code are not counted.
func DangerDistribution(records []Record) [3]DangerLevel {
	var out [3]DangerLevel
	for code := range out {
		out[code] = DangerLevel{Code: code, Label: DangerLabels[code]}
	}
	for _, r := range records {
		if r.HasSubCause && r.SubCauseCode >= 0 && r.SubCauseCode < len(out) {
			out[r.SubCauseCode].Count++
		}
	}
	return out
}

// TTCPoint is the mean TTC at one distinct simulation time, and the trailing
// moving average of those means.
type TTCPoint struct {
	Time float64
	// Mean is NaN when no row at this time had a finite TTC.
	Mean float64
	// Smoothed is only meaningful when Valid is true.
	Smoothed float64
	Valid    bool
}

// TTCEvolution groups TTC by distinct Time (ascending), averages each group,
// then smooths the per-time means with a trailing window. Infinite TTC is
// logged when no object is tracked and is left out of the means like a
// missing value. A smoothed point is
// Valid only when a full window of finite means precedes it, so the first
// window-1 points are never valid.
func TTCEvolution(records []Record, window int) []TTCPoint {
	if window < 1 {
		window = 1
	}

	groups := make(map[float64][]float64)
	for _, r := range records {
		if math.IsNaN(r.Time) {
			continue
		}
		vals := groups[r.Time]
		if !math.IsNaN(r.TTC) && !math.IsInf(r.TTC, 0) {
			vals = append(vals, r.TTC)
		}
		groups[r.Time] = vals
	}

	times := make([]float64, 0, len(groups))
	for t := range groups {
		times = append(times, t)
	}
	sort.Float64s(times)

	points := make([]TTCPoint, len(times))
	means := make([]float64, len(times))
	for i, t := range times {
		means[i] = math.NaN()
		if vals := groups[t]; len(vals) > 0 {
			means[i] = stat.Mean(vals, nil)
		}
		points[i] = TTCPoint{Time: t, Mean: means[i], Smoothed: math.NaN()}
	}

	for i := window - 1; i < len(points); i++ {
		w := means[i-window+1 : i+1]
		if !allFinite(w) {
			continue
		}
		points[i].Smoothed = stat.Mean(w, nil)
		points[i].Valid = true
	}
	return points
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
