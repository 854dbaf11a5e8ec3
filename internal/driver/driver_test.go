package driver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"vesna/internal/driver"
	"vesna/internal/suggest"
	"vesna/internal/trace"
)

const appSrc = `fn greet(name) { emit(name); }
fn emit(s: string) { }
fn main() { greet("hi"); pick(new Button()); pick(new Input()); }
fn pick(w) { }
`

const uiSrc = `elem class Button {
	width;
	fn resize(w: int) { this.width = w; }
}
elem class Input { }
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func patchesFor(res *driver.Result, name string) []suggest.Suggestion {
	for path, sugs := range res.Patches {
		if strings.HasSuffix(path, name) {
			return sugs
		}
	}
	return nil
}

func TestAnnotatePipeline(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.ves": appSrc, "ui.ves": uiSrc})

	res, err := driver.Annotate(context.Background(), dir, driver.Options{Jobs: 2})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if res.HasErrors() {
		for _, fr := range res.Files {
			t.Logf("%s: %v", fr.Path, fr.Bag.Items())
		}
		t.Fatalf("unexpected errors: %v", res.ProgramBag.Items())
	}

	if res.Observations != 4 {
		t.Fatalf("observations = %d, want 4", res.Observations)
	}
	if res.Index.SlotCount() != 8 {
		t.Fatalf("open slots = %d, want 8", res.Index.SlotCount())
	}
	if res.Stats.Buckets != 3 || res.Stats.Suggested != 3 || res.Stats.Expired != 0 {
		t.Fatalf("stats = %+v", res.Stats)
	}

	app := patchesFor(res, "app.ves")
	if len(app) != 2 {
		t.Fatalf("app suggestions = %+v", app)
	}
	if app[0].Line != 1 || app[0].Kind != suggest.KindParam || app[0].Param != 0 || app[0].Text != "string" {
		t.Fatalf("greet suggestion = %+v", app[0])
	}
	if app[1].Line != 4 || app[1].Text != "Elem" {
		t.Fatalf("pick suggestion = %+v", app[1])
	}

	ui := patchesFor(res, "ui.ves")
	if len(ui) != 1 {
		t.Fatalf("ui suggestions = %+v", ui)
	}
	if ui[0].Line != 2 || ui[0].Kind != suggest.KindMember || ui[0].Text != "int" {
		t.Fatalf("width suggestion = %+v", ui[0])
	}

	if len(res.Timing.Phases) == 0 {
		t.Fatal("timing report is empty")
	}
}

func TestAnnotateDeterministicAcrossJobs(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.ves": appSrc, "ui.ves": uiSrc})

	var base *driver.Result
	for _, jobs := range []int{1, 2, 8} {
		res, err := driver.Annotate(context.Background(), dir, driver.Options{Jobs: jobs})
		if err != nil {
			t.Fatalf("jobs=%d: %v", jobs, err)
		}
		if base == nil {
			base = res
			continue
		}
		if !reflect.DeepEqual(res.Patches, base.Patches) {
			t.Fatalf("jobs=%d patches differ:\n%+v\nvs\n%+v", jobs, res.Patches, base.Patches)
		}
		if res.Stats != base.Stats {
			t.Fatalf("jobs=%d stats differ: %+v vs %+v", jobs, res.Stats, base.Stats)
		}
	}
}

func TestAnnotateTargetsFilter(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.ves": appSrc, "ui.ves": uiSrc})

	res, err := driver.Annotate(context.Background(), dir, driver.Options{
		Targets: []string{filepath.Join(dir, "ui.ves")},
	})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if len(res.Patches) != 1 {
		t.Fatalf("patched files = %d, want 1: %+v", len(res.Patches), res.Patches)
	}
	if ui := patchesFor(res, "ui.ves"); len(ui) != 1 || ui[0].Text != "int" {
		t.Fatalf("ui suggestions = %+v", ui)
	}
	// наблюдения собираются по всей программе, фильтруются только локации
	if res.Stats.Buckets != 1 {
		t.Fatalf("stats = %+v", res.Stats)
	}
}

func TestAnnotateDeadlineExpiry(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.ves": appSrc, "ui.ves": uiSrc})

	res, err := driver.Annotate(context.Background(), dir, driver.Options{
		Jobs:     1,
		Deadline: time.Nanosecond,
	})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if res.Stats.Expired != 3 || res.Stats.Suggested != 0 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if res.Patches.Total() != 0 {
		t.Fatalf("expired run produced %d suggestions", res.Patches.Total())
	}
	// просроченные локации не валят прогон
	if res.Stats.Buckets != 3 {
		t.Fatalf("buckets = %d, want 3", res.Stats.Buckets)
	}
}

func TestAnnotateSkipsBrokenFiles(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"app.ves": appSrc,
		"bad.ves": "fn broken( {\n",
		"ui.ves":  uiSrc,
	})

	res, err := driver.Annotate(context.Background(), dir, driver.Options{})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if !res.HasErrors() {
		t.Fatal("broken file did not surface errors")
	}
	var bad *driver.FileResult
	for i := range res.Files {
		if strings.HasSuffix(res.Files[i].Path, "bad.ves") {
			bad = &res.Files[i]
		}
	}
	if bad == nil {
		t.Fatal("bad.ves missing from results")
	}
	if bad.File != nil || bad.Index != nil {
		t.Fatal("broken file was indexed")
	}
	if !bad.Bag.HasErrors() {
		t.Fatal("broken file has no diagnostics")
	}
	// остальные файлы обработаны как обычно
	if res.Patches.Total() != 3 {
		t.Fatalf("suggestions = %d, want 3", res.Patches.Total())
	}
}

func TestAnnotateEmptyDir(t *testing.T) {
	res, err := driver.Annotate(context.Background(), t.TempDir(), driver.Options{})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if len(res.Files) != 0 || res.Patches.Total() != 0 {
		t.Fatalf("empty dir produced results: %+v", res)
	}
}

func TestAnnotateCancelledContext(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.ves": appSrc})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := driver.Annotate(ctx, dir, driver.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestAnnotateWithCache(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.ves": appSrc, "ui.ves": uiSrc})
	cache, err := driver.OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}

	cold, err := driver.Annotate(context.Background(), dir, driver.Options{Cache: cache})
	if err != nil {
		t.Fatalf("cold run: %v", err)
	}
	warm, err := driver.Annotate(context.Background(), dir, driver.Options{Cache: cache})
	if err != nil {
		t.Fatalf("warm run: %v", err)
	}
	if !reflect.DeepEqual(cold.Patches, warm.Patches) {
		t.Fatalf("cache changed the outcome:\n%+v\nvs\n%+v", cold.Patches, warm.Patches)
	}
	if warm.Index.SlotCount() != cold.Index.SlotCount() {
		t.Fatalf("slot count drifted: %d vs %d", warm.Index.SlotCount(), cold.Index.SlotCount())
	}
}

func TestAnnotateObserveOnly(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.ves": appSrc, "ui.ves": uiSrc})

	res, err := driver.Annotate(context.Background(), dir, driver.Options{ObserveOnly: true})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if res.Observations != 4 {
		t.Fatalf("observations = %d, want 4", res.Observations)
	}
	if res.Buckets == nil || res.Buckets.Len() != 3 {
		t.Fatalf("buckets = %+v, want 3 locations", res.Buckets)
	}
	// фаза разрешения не запускалась
	if res.Patches.Total() != 0 || res.Stats.Buckets != 0 {
		t.Fatalf("observe-only run resolved something: %+v / %+v", res.Patches, res.Stats)
	}
	for _, key := range res.Buckets.Keys() {
		if b := res.Buckets.Get(key); b == nil || len(b.Obs) == 0 {
			t.Fatalf("empty bucket for %v", key)
		}
	}
}

func TestAnnotateInvalidateRunsOnce(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.ves": appSrc})

	calls := 0
	_, err := driver.Annotate(context.Background(), dir, driver.Options{
		Invalidate: func() error { calls++; return nil },
	})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if calls != 1 {
		t.Fatalf("invalidate ran %d times, want 1", calls)
	}

	boom := errors.New("boom")
	_, err = driver.Annotate(context.Background(), dir, driver.Options{
		Invalidate: func() error { return boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestAnnotateElementClassOverride(t *testing.T) {
	src := `class Control { }
class Slider extends Control { }
class Dial extends Control { }
fn tune(c) { }
fn main() { tune(new Slider()); tune(new Dial()); }
`
	dir := writeTree(t, map[string]string{"panel.ves": src})

	// Slider и Dial не элементные: догадка Elem не проходит
	plain, err := driver.Annotate(context.Background(), dir, driver.Options{})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if got := patchesFor(plain, "panel.ves"); len(got) != 0 {
		t.Fatalf("default run suggested %+v", got)
	}

	over, err := driver.Annotate(context.Background(), dir, driver.Options{ElementClass: "Control"})
	if err != nil {
		t.Fatalf("annotate with override: %v", err)
	}
	got := patchesFor(over, "panel.ves")
	if len(got) != 1 || got[0].Text != "Control" {
		t.Fatalf("override run = %+v, want one Control suggestion", got)
	}
}

func TestAnnotateStageEvents(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.ves": appSrc, "ui.ves": uiSrc})

	seen := make(chan driver.StageEvent, 64)
	_, err := driver.Annotate(context.Background(), dir, driver.Options{
		Jobs:     1,
		Observer: func(ev driver.StageEvent) { seen <- ev },
	})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	close(seen)

	stages := make(map[driver.Stage]bool)
	for ev := range seen {
		stages[ev.Stage] = true
	}
	for _, want := range []driver.Stage{driver.StageWalk, driver.StageParse, driver.StageObserve, driver.StageCollate, driver.StageResolve} {
		if !stages[want] {
			t.Fatalf("no events for stage %s", want)
		}
	}
}

func TestAnnotateTraceEvents(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.ves": appSrc, "ui.ves": uiSrc})

	ring := trace.NewRingTracer(256, trace.LevelFile)
	_, err := driver.Annotate(context.Background(), dir, driver.Options{Jobs: 2, Tracer: ring})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}

	events := ring.Snapshot()
	begins := make(map[string]trace.Event)
	ends := make(map[string]bool)
	filePoints := 0
	for _, ev := range events {
		switch ev.Kind {
		case trace.KindSpanBegin:
			begins[ev.Name] = ev
		case trace.KindSpanEnd:
			ends[ev.Name] = true
		case trace.KindPoint:
			if ev.Scope == trace.ScopeFile {
				filePoints++
			}
		}
	}

	for _, name := range []string{"annotate", "walk", "parse", "observe", "collate", "resolve"} {
		if _, ok := begins[name]; !ok {
			t.Fatalf("no begin event for %q", name)
		}
		if !ends[name] {
			t.Fatalf("no end event for %q", name)
		}
	}

	runID := begins["annotate"].SpanID
	if runID == 0 {
		t.Fatalf("run span has no ID")
	}
	if begins["parse"].ParentID != runID {
		t.Fatalf("parse span parent = %d, want %d", begins["parse"].ParentID, runID)
	}

	// две фазы с пофайловыми точками, по два файла в каждой
	if filePoints != 4 {
		t.Fatalf("file points = %d, want 4", filePoints)
	}
}

func TestAnnotateTraceLevelPhase(t *testing.T) {
	dir := writeTree(t, map[string]string{"app.ves": appSrc})

	ring := trace.NewRingTracer(256, trace.LevelPhase)
	_, err := driver.Annotate(context.Background(), dir, driver.Options{Jobs: 1, Tracer: ring})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}

	for _, ev := range ring.Snapshot() {
		if ev.Scope == trace.ScopeFile {
			t.Fatalf("file-scope event leaked at phase level: %+v", ev)
		}
	}
}
