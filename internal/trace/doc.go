// Package trace provides an event tracing subsystem for the annotation
// pipeline.
//
// It records run, phase and per-file events so slow or hanging runs can be
// diagnosed without attaching a profiler.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	vesna annotate --trace=- --trace-level=phase ./app
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - nop tracer: zero-overhead no-op when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer holding the last N events
//   - MultiTracer: fans out to several tracers
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: no tracing
//   - LevelPhase: run and phase boundaries
//   - LevelFile: additionally per-file events
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeRun: one whole pipeline run
//   - ScopePhase: pipeline phases (walk, parse, observe, collate, resolve)
//   - ScopeFile: per-file processing
//
// The driver receives its Tracer through Options; there is no implicit
// propagation:
//
//	span := trace.Begin(tracer, trace.ScopePhase, "parse", runID)
//	defer span.End("")
package trace
