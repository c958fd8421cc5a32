// Package testutil provides shared test utilities and fixtures.
//
// The fixtures mirror the CSV files written by the simulation services so
// package tests can build logs without touching the real filesystem.
package testutil

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/banshee-data/collision.report/internal/fsutil"
)

// DataHeader is the header written by the collision warning service.
var DataHeader = []string{"VehicleID", "Time", "SubCauseCode", "TTC", "PositionX", "PositionY"}

// AlertHeader is the header written by the alert receiver service.
var AlertHeader = []string{"VehicleID", "Time", "SenderID", "TTC", "SubCauseCode"}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// CSV encodes a header and rows as CSV text.
func CSV(header []string, rows ...[]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(header)
	_ = w.WriteAll(rows)
	return buf.Bytes()
}

// Row builds a warning log row.
func Row(vehicle, time, code, ttc, x, y string) []string {
	return []string{vehicle, time, code, ttc, x, y}
}

// WriteFile stores data in fsys, failing the test on error.
func WriteFile(t testing.TB, fsys fsutil.FileSystem, name string, data []byte) {
	t.Helper()
	if err := fsys.WriteFile(name, data, 0644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
}

// NewDataFS returns an in-memory filesystem holding one warning log per entry
// of files, keyed by file name.
func NewDataFS(t testing.TB, files map[string][][]string) *fsutil.MemoryFileSystem {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	for name, rows := range files {
		WriteFile(t, mfs, name, CSV(DataHeader, rows...))
	}
	return mfs
}
