package trace

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)

	sp := Begin(tr, ScopePhase, "parse", 0)
	if sp.ID() == 0 {
		t.Fatalf("span got no ID")
	}
	sp.End("3 files")

	out := buf.String()
	if !strings.Contains(out, "→ parse") {
		t.Fatalf("missing begin line:\n%s", out)
	}
	if !strings.Contains(out, "← parse (3 files)") {
		t.Fatalf("missing end line:\n%s", out)
	}
}

func TestStreamTracerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)

	Point(tr, ScopeFile, "parse", "app.ves", 0)
	if buf.Len() != 0 {
		t.Fatalf("file-scope point emitted at phase level:\n%s", buf.String())
	}

	Point(tr, ScopeRun, "annotate", "", 0)
	if buf.Len() == 0 {
		t.Fatalf("run-scope point dropped at phase level")
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelFile, FormatNDJSON)

	Point(tr, ScopeFile, "observe", "lib.ves", 7)

	var got struct {
		Seq      uint64 `json:"seq"`
		Kind     string `json:"kind"`
		Scope    string `json:"scope"`
		ParentID uint64 `json:"parent_id"`
		Name     string `json:"name"`
		Detail   string `json:"detail"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if got.Seq != 1 || got.Kind != "point" || got.Scope != "file" {
		t.Fatalf("event = %+v", got)
	}
	if got.Name != "observe" || got.Detail != "lib.ves" || got.ParentID != 7 {
		t.Fatalf("event = %+v", got)
	}
}

func TestRingTracerWrapAround(t *testing.T) {
	tr := NewRingTracer(4, LevelPhase)
	for i := 0; i < 6; i++ {
		tr.Emit(Event{Kind: KindPoint, Scope: ScopePhase, Name: "p", Detail: strings.Repeat("x", i)})
	}

	events := tr.Snapshot()
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	// остаются события 3..6
	if events[0].Seq != 3 || events[3].Seq != 6 {
		t.Fatalf("snapshot seqs = %d..%d, want 3..6", events[0].Seq, events[3].Seq)
	}
	if events[3].Detail != "xxxxx" {
		t.Fatalf("last event = %+v", events[3])
	}
}

func TestRingTracerDump(t *testing.T) {
	tr := NewRingTracer(8, LevelPhase)
	Begin(tr, ScopeRun, "annotate", 0).End("done")

	var buf bytes.Buffer
	if err := tr.Dump(&buf, FormatText); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(buf.String(), "annotate (done)") {
		t.Fatalf("dump output:\n%s", buf.String())
	}
}

func TestLevelShouldEmit(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeRun, false},
		{LevelOff, ScopeFile, false},
		{LevelPhase, ScopeRun, true},
		{LevelPhase, ScopePhase, true},
		{LevelPhase, ScopeFile, false},
		{LevelFile, ScopeRun, true},
		{LevelFile, ScopeFile, true},
	}
	for _, c := range cases {
		if got := c.level.ShouldEmit(c.scope); got != c.want {
			t.Fatalf("%v.ShouldEmit(%v) = %v, want %v", c.level, c.scope, got, c.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel("file"); err != nil || lvl != LevelFile {
		t.Fatalf("ParseLevel(file) = %v, %v", lvl, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("ParseLevel(verbose) accepted")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode(both) = %v, %v", m, err)
	}
	if _, err := ParseMode("tape"); err == nil {
		t.Fatalf("ParseMode(tape) accepted")
	}
}

func TestNewOffReturnsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Enabled() {
		t.Fatalf("off tracer is enabled")
	}
	// Emit на nop не должен паниковать
	tr.Emit(Event{Kind: KindPoint, Scope: ScopeRun, Name: "x"})
}

func TestNewAutoFormatByExtension(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{
		Level:      LevelPhase,
		Mode:       ModeStream,
		Output:     &buf,
		OutputPath: "run.ndjson",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	Point(tr, ScopeRun, "annotate", "", 0)
	if !json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Fatalf("expected NDJSON output, got:\n%s", buf.String())
	}
}

func TestMultiTracerFansOut(t *testing.T) {
	var buf bytes.Buffer
	stream := NewStreamTracer(&buf, LevelPhase, FormatText)
	ring := NewRingTracer(8, LevelPhase)
	tr := NewMultiTracer(LevelPhase, stream, ring)

	Begin(tr, ScopePhase, "resolve", 0).End("")

	if !strings.Contains(buf.String(), "resolve") {
		t.Fatalf("stream missed the span:\n%s", buf.String())
	}
	if got := len(ring.Snapshot()); got != 2 {
		t.Fatalf("ring holds %d events, want 2", got)
	}
}

func TestBeginOnDisabledTracer(t *testing.T) {
	sp := Begin(Nop, ScopeRun, "annotate", 0)
	if sp.ID() != 0 {
		t.Fatalf("disabled span got ID %d", sp.ID())
	}
	if d := sp.End("ignored"); d != 0 {
		t.Fatalf("disabled span duration = %v", d)
	}
	var nilSpan *Span
	if nilSpan.End("") != 0 || nilSpan.ID() != 0 {
		t.Fatalf("nil span not inert")
	}
}

func TestSpanWithExtra(t *testing.T) {
	tr := NewRingTracer(8, LevelPhase)
	Begin(tr, ScopePhase, "collate", 0).WithExtra("locations", "12").End("")

	events := tr.Snapshot()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].Extra["locations"] != "12" {
		t.Fatalf("end event extra = %v", events[1].Extra)
	}
}

func TestHeartbeatEmits(t *testing.T) {
	tr := NewRingTracer(64, LevelPhase)
	hb := StartHeartbeat(tr, time.Millisecond)
	if hb == nil {
		t.Fatalf("heartbeat did not start")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		beats := 0
		for _, ev := range tr.Snapshot() {
			if ev.Kind == KindHeartbeat {
				beats++
			}
		}
		if beats > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no heartbeat within 2s")
		}
		time.Sleep(time.Millisecond)
	}
	hb.Stop()

	// после Stop новых ударов нет
	before := len(tr.Snapshot())
	time.Sleep(5 * time.Millisecond)
	if after := len(tr.Snapshot()); after != before {
		t.Fatalf("heartbeat kept beating after Stop: %d -> %d", before, after)
	}
}
