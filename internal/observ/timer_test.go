package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerPhases(t *testing.T) {
	tm := NewTimer()
	done := tm.Begin("parse")
	time.Sleep(time.Millisecond)
	done("3 files")
	tm.Begin("resolve")("")

	report := tm.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("got %d phases, want 2", len(report.Phases))
	}
	if report.Phases[0].Name != "parse" || report.Phases[0].Note != "3 files" {
		t.Fatalf("phase 0 = %+v", report.Phases[0])
	}
	if report.Phases[0].DurationMS <= 0 {
		t.Fatalf("parse duration = %v", report.Phases[0].DurationMS)
	}
	if report.TotalMS < report.Phases[0].DurationMS {
		t.Fatalf("total %v < parse %v", report.TotalMS, report.Phases[0].DurationMS)
	}
}

func TestTimerSummary(t *testing.T) {
	tm := NewTimer()
	tm.Begin("observe")("90 observations")
	s := tm.Summary()
	if !strings.Contains(s, "observe") || !strings.Contains(s, "90 observations") {
		t.Fatalf("summary missing phase info:\n%s", s)
	}
	if !strings.Contains(s, "total") {
		t.Fatalf("summary missing total:\n%s", s)
	}
}

func TestEmptyTimerReport(t *testing.T) {
	var report = NewTimer().Report()
	if report.TotalMS != 0 || len(report.Phases) != 0 {
		t.Fatalf("empty timer report = %+v", report)
	}
}
