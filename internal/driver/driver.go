// Package driver wires the annotation pipeline: walk a directory of Vesna
// sources, parse them, build the declaration index, replay every declaration
// in record mode over file shards, then collate the observations and resolve
// each open annotation slot into a suggestion.
package driver

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"vesna/internal/ast"
	"vesna/internal/check"
	"vesna/internal/deadline"
	"vesna/internal/decl"
	"vesna/internal/diag"
	"vesna/internal/observ"
	"vesna/internal/parser"
	"vesna/internal/source"
	"vesna/internal/suggest"
	"vesna/internal/trace"
)

// Options настраивают один прогон Annotate.
type Options struct {
	// Jobs is the worker count for the parse, observe and resolve phases.
	// Zero or negative means GOMAXPROCS.
	Jobs int

	// Deadline is the per-location resolution budget. Zero picks the
	// default budget; a negative value disables the guard entirely.
	Deadline time.Duration

	// MaxDiagnostics caps every per-file bag. Zero picks a default.
	MaxDiagnostics int

	// Cache holds declaration indexes keyed by content hash. Nil disables
	// caching.
	Cache *DiskCache

	// Invalidate, when set, runs once before the parse phase starts.
	// Аннотатор сбрасывает через него кэш при --fresh.
	Invalidate func() error

	// Observer receives progress events; may be nil.
	Observer StageObserver

	// Tracer receives run, phase and per-file trace events; nil disables
	// tracing.
	Tracer trace.Tracer

	// ElementClass overrides the base element class used by the heuristic
	// supertype search; empty means the builtin Elem.
	ElementClass string

	// Targets restricts suggestions to these files. Пустой список значит
	// "все файлы директории"; наблюдения при этом всё равно собираются по
	// всей программе.
	Targets []string

	// Exclude lists directory names skipped during the walk, e.g. vendor
	// trees named in the project manifest.
	Exclude []string

	// IndexOnly stops the pipeline after parsing and indexing. Наблюдения
	// не собираются, Patches остаётся пустым.
	IndexOnly bool

	// ObserveOnly stops the pipeline after collation. Buckets заполняются,
	// фаза разрешения не запускается.
	ObserveOnly bool

	// EmitTimings appends an informational timing diagnostic to the
	// program bag.
	EmitTimings bool
}

// FileResult содержит результат разбора одного файла.
type FileResult struct {
	Path   string          // нормализованный путь файла
	FileID source.FileID   // ID файла в FileSet
	File   *ast.File       // nil, если файл не загрузился или не разобрался
	Index  *decl.FileIndex // nil для файлов без дерева
	Bag    *diag.Bag       // диагностики файла
}

// Result is everything one Annotate run produced.
type Result struct {
	FileSet      *source.FileSet
	Files        []FileResult
	ProgramBag   *diag.Bag // диагностики уровня программы: дубликаты, аннотации
	Index        *decl.Index
	Observations int
	Buckets      *suggest.Buckets // nil при IndexOnly
	Patches      suggest.PatchSet
	Stats        suggest.Stats
	Timing       observ.Report
}

// HasErrors reports whether any file or the program itself has errors.
func (r *Result) HasErrors() bool {
	if r.ProgramBag.HasErrors() {
		return true
	}
	for i := range r.Files {
		if r.Files[i].Bag != nil && r.Files[i].Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Annotate runs the full pipeline over dir. Per-file problems land in the
// result bags; the returned error is reserved for walk failures and context
// cancellation. Результат детерминирован и не зависит от числа воркеров:
// файлы и бакеты режутся на непрерывные шарды, а их результаты склеиваются
// в порядке шардов.
func Annotate(ctx context.Context, dir string, opts Options) (*Result, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	maxDiag := opts.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = 256
	}
	budget := opts.Deadline
	switch {
	case budget == 0:
		budget = deadline.DefaultBudget
	case budget < 0:
		budget = 0
	}

	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	run := trace.Begin(opts.Tracer, trace.ScopeRun, "annotate", 0)
	defer run.End("")

	timer := observ.NewTimer()

	// Каждая фаза отмечается и в таймере, и в трассировщике.
	phase := func(name string) (func(detail string), uint64) {
		done := timer.Begin(name)
		sp := trace.Begin(opts.Tracer, trace.ScopePhase, name, run.ID())
		return func(detail string) {
			done(detail)
			sp.End(detail)
		}, sp.ID()
	}

	// Инвалидация выполняется ровно один раз, до первой фазы.
	if opts.Invalidate != nil {
		if err := opts.Invalidate(); err != nil {
			return nil, fmt.Errorf("cache invalidation failed: %w", err)
		}
	}

	endWalk, _ := phase("walk")
	files, err := ListFiles(dir, opts.Exclude)
	if err != nil {
		return nil, err
	}
	endWalk(fmt.Sprintf("%d files", len(files)))
	opts.Observer.emit(StageEvent{Stage: StageWalk, Done: len(files), Total: len(files)})

	res := &Result{
		FileSet:    source.NewFileSetWithBase(dir),
		ProgramBag: diag.NewBag(maxDiag),
		Index:      decl.NewIndex(),
		Patches:    make(suggest.PatchSet),
	}
	if len(files) == 0 {
		res.Timing = timer.Report()
		return res, nil
	}

	endParse, parseSpan := phase("parse")
	if err := parsePhase(ctx, res, files, jobs, maxDiag, parseSpan, opts); err != nil {
		return nil, err
	}
	endParse(fmt.Sprintf("%d files", len(res.Files)))

	if opts.IndexOnly {
		res.Timing = timer.Report()
		return res, nil
	}

	endObserve, observeSpan := phase("observe")
	all, err := observePhase(ctx, res, jobs, observeSpan, opts)
	if err != nil {
		return nil, err
	}
	res.Observations = len(all)
	endObserve(fmt.Sprintf("%d observations", len(all)))

	endCollate, _ := phase("collate")
	buckets := suggest.Collate(all, targetSet(res.FileSet, opts.Targets))
	res.Buckets = buckets
	endCollate(fmt.Sprintf("%d locations", buckets.Len()))
	opts.Observer.emit(StageEvent{Stage: StageCollate, Done: buckets.Len(), Total: buckets.Len()})

	if opts.ObserveOnly {
		res.Timing = timer.Report()
		return res, nil
	}

	endResolve, _ := phase("resolve")
	if err := resolvePhase(ctx, res, buckets, jobs, budget, opts); err != nil {
		return nil, err
	}
	endResolve(fmt.Sprintf("%d suggestions", res.Patches.Total()))

	res.Timing = timer.Report()
	if opts.EmitTimings {
		appendTimingDiagnostic(res.ProgramBag, timingPayload{
			Kind:    "annotate",
			Path:    dir,
			TotalMS: res.Timing.TotalMS,
			Phases:  res.Timing.Phases,
		})
	}
	return res, nil
}

// parsePhase loads and parses every file in parallel, then builds the
// declaration index in file order.
func parsePhase(ctx context.Context, res *Result, files []string, jobs, maxDiag int, span uint64, opts Options) error {
	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))

	// FileSet.Add не потокобезопасен, загружаем до ветвления
	for _, path := range files {
		fileID, err := res.FileSet.Load(path)
		if err != nil {
			loadErrors[path] = err
			continue
		}
		fileIDs[path] = fileID
	}

	maxErrors, err := safecast.Conv[uint](maxDiag)
	if err != nil {
		panic(fmt.Errorf("maxDiagnostics overflow: %w", err))
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	var parsed atomic.Int64

	for i, path := range files {
		g.Go(func(i int, path string) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				bag := diag.NewBag(maxDiag)

				if loadErr, hadError := loadErrors[path]; hadError {
					bag.Add(diag.Diagnostic{
						Severity: diag.SevError,
						Code:     diag.IOLoadFileError,
						Message:  "failed to load file: " + loadErr.Error(),
					})
					results[i] = FileResult{Path: path, Bag: bag}
					return nil
				}

				file := res.FileSet.Get(fileIDs[path])
				f, ok := parser.ParseFile(file, parser.Options{
					Reporter:  diag.BagReporter{Bag: bag},
					MaxErrors: maxErrors,
				})

				fr := FileResult{Path: file.Path, FileID: file.ID, Bag: bag}
				if ok {
					// битые файлы не индексируются и не проверяются
					fr.File = f
					fr.Index = indexFor(file, f, opts.Cache, bag)
				}
				results[i] = fr

				n := parsed.Add(1)
				trace.Point(opts.Tracer, trace.ScopeFile, "parse", path, span)
				opts.Observer.emit(StageEvent{Stage: StageParse, Path: path, Done: int(n), Total: len(files)})
				return nil
			}
		}(i, path))
	}

	if err := g.Wait(); err != nil {
		return err
	}

	res.Files = results
	for i := range results {
		if results[i].Index != nil {
			res.Index.Add(results[i].Index)
		}
	}
	return nil
}

// indexFor returns the declaration index for one file, going through the
// disk cache when one is configured. Cache failures degrade to warnings.
func indexFor(file *source.File, f *ast.File, cache *DiskCache, bag *diag.Bag) *decl.FileIndex {
	if cache != nil {
		fi, hit, err := cache.GetIndex(file.Path, file.Hash)
		if err != nil {
			bag.Add(diag.Diagnostic{
				Severity: diag.SevWarning,
				Code:     diag.IdxCacheError,
				Message:  "declaration cache read failed: " + err.Error(),
			})
		}
		if hit {
			return fi
		}
	}
	fi := decl.IndexFile(f)
	if cache != nil {
		if err := cache.PutIndex(fi); err != nil {
			bag.Add(diag.Diagnostic{
				Severity: diag.SevWarning,
				Code:     diag.IdxCacheError,
				Message:  "declaration cache write failed: " + err.Error(),
			})
		}
	}
	return fi
}

// observePhase builds the program and replays every indexed declaration in
// record mode. Файлы режутся на непрерывные шарды, каждый шард пишет в свой
// Recorder; списки наблюдений склеиваются в порядке шардов.
func observePhase(ctx context.Context, res *Result, jobs int, span uint64, opts Options) ([]suggest.Observation, error) {
	var trees []*ast.File
	total := 0
	for i := range res.Files {
		if res.Files[i].File != nil {
			trees = append(trees, res.Files[i].File)
			total++
		}
	}
	prog := check.NewProgram(trees, diag.BagReporter{Bag: res.ProgramBag})
	if total == 0 {
		return nil, nil
	}

	shards := shardFiles(res.Files, jobs)
	recorders := make([]*check.Recorder, len(shards))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(shards))
	var observed atomic.Int64

	for si, shard := range shards {
		g.Go(func(si int, shard []*FileResult) func() error {
			return func() error {
				rec := &check.Recorder{}
				recorders[si] = rec
				ropts := check.Options{Record: true, Recorder: rec}
				for _, fr := range shard {
					select {
					case <-gctx.Done():
						return gctx.Err()
					default:
					}
					if fr.File == nil || fr.Index == nil {
						continue
					}
					for _, d := range fr.Index.Decls {
						if err := prog.Run(fr.Path, d.Name, ropts); err != nil {
							return fmt.Errorf("observe %s: %w", fr.Path, err)
						}
					}
					n := observed.Add(1)
					trace.Point(opts.Tracer, trace.ScopeFile, "observe", fr.Path, span)
					opts.Observer.emit(StageEvent{Stage: StageObserve, Path: fr.Path, Done: int(n), Total: total})
				}
				return nil
			}
		}(si, shard))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []suggest.Observation
	for _, rec := range recorders {
		if rec != nil {
			all = append(all, rec.Observations()...)
		}
	}
	return all, nil
}

// shardFiles splits the file list into at most jobs contiguous shards.
func shardFiles(files []FileResult, jobs int) [][]*FileResult {
	if jobs < 1 {
		jobs = 1
	}
	total := len(files)
	if total == 0 {
		return nil
	}
	if jobs > total {
		jobs = total
	}
	out := make([][]*FileResult, 0, jobs)
	per := total / jobs
	rem := total % jobs
	idx := 0
	for s := 0; s < jobs; s++ {
		size := per
		if s < rem {
			size++
		}
		shard := make([]*FileResult, 0, size)
		for i := 0; i < size; i++ {
			shard = append(shard, &files[idx])
			idx++
		}
		out = append(out, shard)
	}
	return out
}

// resolvePhase resolves bucket shards in parallel and merges the outcome in
// shard order.
func resolvePhase(ctx context.Context, res *Result, buckets *suggest.Buckets, jobs int, budget time.Duration, opts Options) error {
	if buckets.Len() == 0 {
		return nil
	}
	shards := buckets.Shard(min(jobs, buckets.Len()))

	type shardOut struct {
		patches suggest.PatchSet
		stats   suggest.Stats
	}
	outs := make([]shardOut, len(shards))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(shards))
	var resolved atomic.Int64

	for i, shard := range shards {
		g.Go(func(i int, shard []*suggest.Bucket) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				r := &suggest.Resolver{Budget: budget, ElementClass: opts.ElementClass}
				patches := r.ResolveAll(shard)
				outs[i] = shardOut{patches: patches, stats: r.Stats}
				n := resolved.Add(int64(len(shard)))
				opts.Observer.emit(StageEvent{Stage: StageResolve, Done: int(n), Total: buckets.Len()})
				return nil
			}
		}(i, shard))
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i := range outs {
		res.Patches.Merge(outs[i].patches)
		res.Stats.Add(outs[i].stats)
	}
	return nil
}

// targetSet normalizes target paths through the file set so they compare
// equal to observation keys. nil значит "без фильтра".
func targetSet(fs *source.FileSet, targets []string) map[string]bool {
	if len(targets) == 0 {
		return nil
	}
	out := make(map[string]bool, len(targets))
	for _, t := range targets {
		if f, ok := fs.GetByPath(t); ok {
			out[f.Path] = true
		}
	}
	return out
}
