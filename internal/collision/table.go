package collision

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/banshee-data/collision.report/internal/fsutil"
	"github.com/banshee-data/collision.report/internal/monitoring"
)

// Default file patterns written by the simulation services.
const (
	DefaultDataPattern  = "collision_data_*.csv"
	DefaultAlertPattern = "collision_alert_*.csv"
)

// ErrHeaderMismatch is returned when a file's header differs from the first
// file loaded for the same pattern.
var ErrHeaderMismatch = errors.New("csv header does not match previous files")

// Source records how many rows one file contributed to a Table.
type Source struct {
	Path string
	Rows int
}

// Table is the concatenation of every CSV file matching a pattern. Rows keep
// file discovery order, then row order within each file. A Table is never
// modified after LoadTable returns it.
type Table struct {
	Columns []string
	Rows    [][]string
	Sources []Source
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table holds no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// Column returns the index of the named column, or -1.
func (t *Table) Column(name string) int {
	if t == nil {
		return -1
	}
	return slices.Index(t.Columns, name)
}

// LoadTable reads every file matching pattern and concatenates them. No match
// yields an empty table, not an error. A file that cannot be parsed aborts
// the whole load.
func LoadTable(fsys fsutil.FileSystem, pattern string) (*Table, error) {
	paths, err := fsys.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	t := &Table{}
	for _, path := range paths {
		header, rows, err := readCSV(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}

		if t.Columns == nil {
			t.Columns = header
		} else if !slices.Equal(t.Columns, header) {
			return nil, fmt.Errorf("%s: %w: got %v, want %v", path, ErrHeaderMismatch, header, t.Columns)
		}

		t.Rows = append(t.Rows, rows...)
		t.Sources = append(t.Sources, Source{Path: path, Rows: len(rows)})
		monitoring.Logf("loaded %d rows from %s", len(rows), path)
	}

	return t, nil
}

// readCSV parses one file. The first record is the header.
func readCSV(fsys fsutil.FileSystem, path string) ([]string, [][]string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("no header row")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse rows: %w", err)
	}
	return header, rows, nil
}
