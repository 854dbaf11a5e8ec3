package version

import (
	"strings"
	"testing"
)

func TestVersionHasDefault(t *testing.T) {
	if Version == "" {
		t.Fatalf("Version should have a default value")
	}
	if !strings.Contains(Version, "-dev") {
		t.Fatalf("default Version should carry -dev suffix, got %q", Version)
	}
}

func TestVersionCanBeOverridden(t *testing.T) {
	origVersion := Version
	origCommit := GitCommit
	origDate := BuildDate
	defer func() {
		Version = origVersion
		GitCommit = origCommit
		BuildDate = origDate
	}()

	// симуляция -ldflags при сборке релиза
	Version = "1.2.3"
	GitCommit = "abc123def456"
	BuildDate = "2026-01-15T10:30:00Z"

	if Version != "1.2.3" {
		t.Fatalf("Version = %q, want 1.2.3", Version)
	}
	if GitCommit != "abc123def456" || BuildDate != "2026-01-15T10:30:00Z" {
		t.Fatalf("GitCommit/BuildDate not overridden: %q / %q", GitCommit, BuildDate)
	}
}
