// Package prof wraps runtime profiling for the CLI: CPU profiles, heap
// snapshots and runtime traces behind one start/stop pair each. Файлы
// держатся в пакетном состоянии; процесс профилирует себя один раз.
package prof

import (
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// active holds the files backing the currently running collectors.
var active struct {
	cpu   *os.File
	trace *os.File
}

// StartCPU enables CPU profiling and writes samples to the provided path.
func StartCPU(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return err
	}
	active.cpu = f
	return nil
}

// StopCPU stops an active CPU profile and closes the underlying file.
// Безопасно вызывать без активного профиля.
func StopCPU() {
	pprof.StopCPUProfile()
	if active.cpu != nil {
		_ = active.cpu.Close()
		active.cpu = nil
	}
}

// WriteMem captures a heap profile to the supplied file path. A GC runs
// first so the profile reflects live objects, not garbage.
func WriteMem(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// StartTrace writes runtime trace data to the provided path.
func StartTrace(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := trace.Start(f); err != nil {
		_ = f.Close()
		return err
	}
	active.trace = f
	return nil
}

// StopTrace ends an active runtime trace and closes the file.
func StopTrace() {
	trace.Stop()
	if active.trace != nil {
		_ = active.trace.Close()
		active.trace = nil
	}
}
