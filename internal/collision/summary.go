package collision

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Summary holds the scenario-wide scalar metrics.
type Summary struct {
	TotalVehicles       int     `json:"total_vehicles"`
	SimulationDuration  float64 `json:"simulation_duration_secs"`
	TotalWarnings       int     `json:"total_warnings"`
	TotalAlertsReceived int     `json:"total_alerts_received"`
}

// Summarize reduces the warning log and the received-alert table to a
// Summary. Every field is an order-independent count or max, and all of them
// are zero for empty input.
func Summarize(records []Record, alerts *Table) Summary {
	s := Summary{TotalAlertsReceived: alerts.Len()}

	vehicles := make(map[string]struct{})
	times := make([]float64, 0, len(records))
	for _, r := range records {
		if r.VehicleID != "" {
			vehicles[r.VehicleID] = struct{}{}
		}
		if !math.IsNaN(r.Time) {
			times = append(times, r.Time)
		}
		if r.IsAlert() {
			s.TotalWarnings++
		}
	}

	s.TotalVehicles = len(vehicles)
	if len(times) > 0 {
		s.SimulationDuration = floats.Max(times)
	}
	return s
}
