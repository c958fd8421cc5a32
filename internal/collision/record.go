package collision

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column names written by the collision warning service.
const (
	ColVehicleID    = "VehicleID"
	ColTime         = "Time"
	ColSubCauseCode = "SubCauseCode"
	ColTTC          = "TTC"
	ColPositionX    = "PositionX"
	ColPositionY    = "PositionY"
)

// ErrMissingColumn is returned when a non-empty warning log lacks one of the
// recognised columns.
var ErrMissingColumn = errors.New("missing column")

// Record is one typed row of the warning log. Missing numeric cells are NaN;
// a missing SubCauseCode leaves HasSubCause false.
type Record struct {
	VehicleID    string
	Time         float64
	SubCauseCode int
	HasSubCause  bool
	TTC          float64
	PositionX    float64
	PositionY    float64
}

// IsAlert reports whether the row carries a warning or critical severity.
func (r Record) IsAlert() bool {
	return r.HasSubCause && r.SubCauseCode > 0
}

// Records types the rows of a warning log table. An empty table yields no
// records and no error. TTC is coerced: anything that does not parse as a
// number is treated as missing. The other numeric columns only accept empty
// cells as missing; any other unparseable value is an error.
func Records(t *Table) ([]Record, error) {
	if t.Empty() {
		return nil, nil
	}

	var idx [6]int
	for i, name := range []string{ColVehicleID, ColTime, ColSubCauseCode, ColTTC, ColPositionX, ColPositionY} {
		idx[i] = t.Column(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
	}

	records := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		var rec Record
		var err error

		rec.VehicleID = strings.TrimSpace(row[idx[0]])
		if rec.Time, err = parseOptionalFloat(row[idx[1]]); err != nil {
			return nil, fmt.Errorf("row %d: failed to parse %s: %w", i+1, ColTime, err)
		}
		if rec.SubCauseCode, rec.HasSubCause, err = parseOptionalCode(row[idx[2]]); err != nil {
			return nil, fmt.Errorf("row %d: failed to parse %s: %w", i+1, ColSubCauseCode, err)
		}
		rec.TTC = coerceFloat(row[idx[3]])
		if rec.PositionX, err = parseOptionalFloat(row[idx[4]]); err != nil {
			return nil, fmt.Errorf("row %d: failed to parse %s: %w", i+1, ColPositionX, err)
		}
		if rec.PositionY, err = parseOptionalFloat(row[idx[5]]); err != nil {
			return nil, fmt.Errorf("row %d: failed to parse %s: %w", i+1, ColPositionY, err)
		}

		records = append(records, rec)
	}
	return records, nil
}

func parseOptionalFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// parseOptionalCode accepts integral values written either as "2" or "2.0".
func parseOptionalCode(s string) (int, bool, error) {
	v, err := parseOptionalFloat(s)
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("%q is not an integer code", s)
	}
	return int(v), true, nil
}

// coerceFloat never fails: unparseable input becomes NaN. The simulation
// writes "inf" when no object is tracked, which ParseFloat accepts.
func coerceFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
