package observ

import (
	"fmt"
	"strings"
	"time"
)

// Phase records the duration and metadata of one pipeline stage.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer tracks the stages of an annotation run. Not safe for concurrent
// use; the pipeline owns one timer and closes phases from its own goroutine.
type Timer struct {
	phases []Phase
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin opens a phase and returns the closer. The note passed to the closer
// ends up in the report, use it for counts ("12 files", "87 suggestions").
func (t *Timer) Begin(name string) func(note string) {
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	idx := len(t.phases) - 1
	return func(note string) {
		p := &t.phases[idx]
		p.Dur = time.Since(p.Start)
		p.Note = note
	}
}

// Summary returns a human-readable breakdown of all tracked phases.
func (t *Timer) Summary() string { return t.Report().Summary() }

// PhaseReport представляет сжатую информацию о фазе для сериализации.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report описывает агрегированные данные таймера.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Summary formats the report for terminal output.
func (r Report) Summary() string {
	var out strings.Builder
	out.WriteString("timings:\n")
	for _, p := range r.Phases {
		fmt.Fprintf(&out, "  %-12s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			out.WriteString("  // " + p.Note)
		}
		out.WriteByte('\n')
	}
	fmt.Fprintf(&out, "  %-12s %7.2f ms\n", "total", r.TotalMS)
	return out.String()
}

// Report формирует срез фаз и общую длительность в миллисекундах.
func (t *Timer) Report() Report {
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{
		Phases: make([]PhaseReport, len(t.phases)),
	}
	var total time.Duration
	for i, phase := range t.phases {
		total += phase.Dur
		report.Phases[i] = PhaseReport{
			Name:       phase.Name,
			DurationMS: durationToMillis(phase.Dur),
			Note:       phase.Note,
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
