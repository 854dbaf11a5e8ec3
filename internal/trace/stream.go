package trace

import (
	"io"
	"sync"
)

// StreamTracer writes events immediately to an io.Writer.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
	seq    uint64
}

// NewStreamTracer creates a new StreamTracer.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{w: w, level: level, format: format}
}

// Emit writes an event to the output.
func (t *StreamTracer) Emit(ev Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	ev.Seq = t.seq

	// Запись best-effort: ошибки трассировки не должны ронять пайплайн.
	_, _ = t.w.Write(FormatEvent(ev, t.format)) //nolint:errcheck
}

// Flush ensures all buffered data is written.
// For StreamTracer this is a no-op since we write immediately.
func (t *StreamTracer) Flush() error {
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close flushes and closes the writer if it implements io.Closer.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if closer, ok := t.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Level returns the current tracing level.
func (t *StreamTracer) Level() Level {
	return t.level
}

// Enabled returns true if tracing is active.
func (t *StreamTracer) Enabled() bool {
	return t.level > LevelOff
}
