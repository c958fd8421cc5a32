package testutil

import (
	"net/http"
	"strings"
	"testing"
)

func TestAssertStatusCode(t *testing.T) {
	t.Parallel()
	AssertStatusCode(t, http.StatusOK, http.StatusOK)
}

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestCSV(t *testing.T) {
	t.Parallel()

	got := string(CSV(DataHeader, Row("veh0", "1.5", "2", "0.8", "10", "-4.2")))
	want := "VehicleID,Time,SubCauseCode,TTC,PositionX,PositionY\nveh0,1.5,2,0.8,10,-4.2\n"
	if got != want {
		t.Errorf("CSV() = %q, want %q", got, want)
	}
}

func TestNewDataFS(t *testing.T) {
	t.Parallel()

	mfs := NewDataFS(t, map[string][][]string{
		"collision_data_veh0.csv": {Row("veh0", "0.1", "0", "", "1", "2")},
	})
	data, err := mfs.ReadFile("collision_data_veh0.csv")
	AssertNoError(t, err)
	if !strings.HasPrefix(string(data), "VehicleID,") {
		t.Errorf("unexpected fixture content %q", data)
	}
}
