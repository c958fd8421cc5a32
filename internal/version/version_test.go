package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldSHA, oldTime := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldTime })

	Version, GitSHA, BuildTime = "1.2.0", "abc123", "2026-01-01T00:00:00Z"
	want := "collision-analyse 1.2.0 (git abc123, built 2026-01-01T00:00:00Z)"
	if got := String("collision-analyse"); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
