package report

import (
	"fmt"
	"io"

	"github.com/banshee-data/collision.report/internal/collision"
)

// WriteSummary prints the scenario overview.
func WriteSummary(w io.Writer, s collision.Summary) error {
	_, err := fmt.Fprintf(w, `Scenario overview:
Total vehicles: %d
Simulation duration: %.2f seconds
Total alerts emitted: %d
Total alerts received: %d
`, s.TotalVehicles, s.SimulationDuration, s.TotalWarnings, s.TotalAlertsReceived)
	return err
}

// WriteOutcome reports what was rendered: the saved plot paths, or that the
// warning log was empty.
func WriteOutcome(w io.Writer, m *collision.Metrics, dir string) error {
	if m == nil || !m.HasData {
		_, err := fmt.Fprintln(w, "No alert data available for analysis.")
		return err
	}
	_, err := fmt.Fprintf(w, "Plots saved to %s.\n", dir)
	return err
}
