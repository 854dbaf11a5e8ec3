package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vesna/internal/trace"
)

// setupTracing inspects trace-related flags and initializes the tracer.
// The returned tracer goes into driver.Options; the cleanup function stops
// the heartbeat and flushes the output.
func setupTracing(cmd *cobra.Command) (trace.Tracer, func(), error) {
	flags := cmd.Root().PersistentFlags()

	traceOutput, err := flags.GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}

	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}

	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}

	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	heartbeatInterval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, err
	}

	if level == trace.LevelOff {
		if traceOutput == "" {
			return trace.Nop, func() {}, nil
		}
		// Путь задан — значит трассировка нужна хотя бы по фазам.
		level = trace.LevelPhase
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	cleanup := func() {
		heartbeat.Stop()
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}

	return tracer, cleanup, nil
}
