package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/banshee-data/collision.report/internal/collision"
)

// Run is one analysis to export.
type Run struct {
	ToolVersion  string
	DataPattern  string
	AlertPattern string
	// Data and Alerts supply the per-file row counts. Either may be nil.
	Data    *collision.Table
	Alerts  *collision.Table
	Records []collision.Record
	Metrics *collision.Metrics
}

// nullFloat maps NaN and infinities to NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// SaveRun writes run in a single transaction and returns its generated ID.
func (d *DB) SaveRun(ctx context.Context, run Run) (string, error) {
	if run.Metrics == nil {
		return "", fmt.Errorf("run has no metrics")
	}
	runID := uuid.New().String()

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	s := run.Metrics.Summary
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, tool_version, data_pattern, alert_pattern,
			total_vehicles, simulation_duration, total_warnings, total_alerts_received
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, run.ToolVersion, run.DataPattern, run.AlertPattern,
		s.TotalVehicles, s.SimulationDuration, s.TotalWarnings, s.TotalAlertsReceived,
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	steps := []struct {
		name string
		fn   func(context.Context, *sql.Tx, string, Run) error
	}{
		{"sources", insertSources},
		{"warnings", insertWarnings},
		{"danger levels", insertDanger},
		{"alert histogram", insertHistogram},
		{"ttc series", insertTTC},
	}
	for _, step := range steps {
		if err := step.fn(ctx, tx, runID, run); err != nil {
			return "", fmt.Errorf("failed to insert %s: %w", step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

func insertSources(ctx context.Context, tx *sql.Tx, runID string, run Run) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sources (run_id, kind, path, row_count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	tables := []struct {
		kind  string
		table *collision.Table
	}{
		{"data", run.Data},
		{"alert", run.Alerts},
	}
	for _, t := range tables {
		if t.table == nil {
			continue
		}
		for _, src := range t.table.Sources {
			if _, err := stmt.ExecContext(ctx, runID, t.kind, src.Path, src.Rows); err != nil {
				return err
			}
		}
	}
	return nil
}

// sourcePaths expands per-file row counts into one path per row.
func sourcePaths(t *collision.Table, n int) []string {
	paths := make([]string, 0, n)
	if t != nil {
		for _, src := range t.Sources {
			for i := 0; i < src.Rows; i++ {
				paths = append(paths, src.Path)
			}
		}
	}
	if len(paths) != n {
		return nil
	}
	return paths
}

func insertWarnings(ctx context.Context, tx *sql.Tx, runID string, run Run) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO warnings (
			run_id, row_index, source_path, vehicle_id, time,
			sub_cause_code, ttc, position_x, position_y
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	paths := sourcePaths(run.Data, len(run.Records))
	for i, r := range run.Records {
		var path sql.NullString
		if paths != nil {
			path = sql.NullString{String: paths[i], Valid: true}
		}
		code := sql.NullInt64{Int64: int64(r.SubCauseCode), Valid: r.HasSubCause}
		if _, err := stmt.ExecContext(ctx, runID, i, path, r.VehicleID, nullFloat(r.Time),
			code, nullFloat(r.TTC), nullFloat(r.PositionX), nullFloat(r.PositionY)); err != nil {
			return err
		}
	}
	return nil
}

func insertDanger(ctx context.Context, tx *sql.Tx, runID string, run Run) error {
	if !run.Metrics.HasData {
		return nil
	}
	for _, lvl := range run.Metrics.Danger {
		if _, err := tx.ExecContext(ctx, `INSERT INTO danger_levels (run_id, code, label, count) VALUES (?, ?, ?, ?)`,
			runID, lvl.Code, lvl.Label, lvl.Count); err != nil {
			return err
		}
	}
	return nil
}

func insertHistogram(ctx context.Context, tx *sql.Tx, runID string, run Run) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO alert_histogram (run_id, bin, low, high, count) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, b := range run.Metrics.AlertFrequency.Bins {
		if _, err := stmt.ExecContext(ctx, runID, i, b.Low, b.High, b.Count); err != nil {
			return err
		}
	}
	return nil
}

func insertTTC(ctx context.Context, tx *sql.Tx, runID string, run Run) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ttc_series (run_id, time, mean_ttc, smoothed_ttc) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range run.Metrics.TTC {
		smoothed := sql.NullFloat64{}
		if p.Valid {
			smoothed = nullFloat(p.Smoothed)
		}
		if _, err := stmt.ExecContext(ctx, runID, p.Time, nullFloat(p.Mean), smoothed); err != nil {
			return err
		}
	}
	return nil
}

// RunSummary reads back the summary stored for runID.
func (d *DB) RunSummary(ctx context.Context, runID string) (collision.Summary, error) {
	var s collision.Summary
	err := d.QueryRowContext(ctx, `
		SELECT total_vehicles, simulation_duration, total_warnings, total_alerts_received
		FROM runs WHERE run_id = ?`, runID,
	).Scan(&s.TotalVehicles, &s.SimulationDuration, &s.TotalWarnings, &s.TotalAlertsReceived)
	if err != nil {
		return s, fmt.Errorf("failed to read run %s: %w", runID, err)
	}
	return s, nil
}

// SmoothedTTC returns the stored smoothed series for runID in time order.
// Entries without a smoothed value come back with Valid false.
func (d *DB) SmoothedTTC(ctx context.Context, runID string) ([]sql.NullFloat64, error) {
	rows, err := d.QueryContext(ctx, `SELECT smoothed_ttc FROM ttc_series WHERE run_id = ? ORDER BY time`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sql.NullFloat64
	for rows.Next() {
		var v sql.NullFloat64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
