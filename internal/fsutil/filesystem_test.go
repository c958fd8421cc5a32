package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOSFileSystem_Glob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"collision_data_b.csv", "collision_data_a.csv", "collision_alert_a.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	got, err := OSFileSystem{}.Glob(filepath.Join(dir, "collision_data_*.csv"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	want := []string{
		filepath.Join(dir, "collision_data_a.csv"),
		filepath.Join(dir, "collision_data_b.csv"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Glob mismatch (-want +got):\n%s", diff)
	}
}

func TestOSFileSystem_RemoveMissing(t *testing.T) {
	if err := (OSFileSystem{}).Remove(filepath.Join(t.TempDir(), "absent.db")); err != nil {
		t.Errorf("Remove of missing file should succeed, got %v", err)
	}
}

func TestMemoryFileSystem_Glob(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("collision_data_2.csv", []byte("a"), 0644)
	_ = mfs.WriteFile("collision_data_1.csv", []byte("b"), 0644)
	_ = mfs.WriteFile("collision_alert_1.csv", []byte("c"), 0644)
	_ = mfs.WriteFile("logs/collision_data_3.csv", []byte("d"), 0644)

	got, err := mfs.Glob("collision_data_*.csv")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	want := []string{"collision_data_1.csv", "collision_data_2.csv"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Glob mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryFileSystem_GlobBadPattern(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if _, err := mfs.Glob("[unterminated"); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("VehicleID,Time\nveh0,1.0\n")
	if err := mfs.WriteFile("/data.csv", testData, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/data.csv")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}

	// The stored copy must not alias the caller's slice.
	testData[0] = 'X'
	data, _ = mfs.ReadFile("/data.csv")
	if data[0] != 'V' {
		t.Error("stored data was mutated through the caller's slice")
	}
}

func TestMemoryFileSystem_Open(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("a.csv", []byte("hello"), 0644)

	f, err := mfs.Open("a.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected hello, got %q", data)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 5 || info.Name() != "a.csv" {
		t.Errorf("unexpected file info: name=%s size=%d", info.Name(), info.Size())
	}

	if _, err := mfs.Open("missing.csv"); err == nil {
		t.Error("expected error opening missing file")
	}
}

func TestMemoryFileSystem_MkdirAllRemoveExists(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.MkdirAll("out/plots", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if !mfs.Exists("out") || !mfs.Exists("out/plots") {
		t.Error("expected directories to exist")
	}

	_ = mfs.WriteFile("out/plots/a.png", []byte{1}, 0644)
	if !mfs.Exists("out/plots/a.png") {
		t.Error("expected file to exist")
	}
	if err := mfs.Remove("out/plots/a.png"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if mfs.Exists("out/plots/a.png") {
		t.Error("expected file to be removed")
	}
	if err := mfs.Remove("out/plots/a.png"); err != nil {
		t.Errorf("second Remove should be a no-op, got %v", err)
	}
}
