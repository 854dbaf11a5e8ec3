package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"vesna/internal/diagfmt"
	"vesna/internal/driver"
	"vesna/internal/suggest"
)

var observeCmd = &cobra.Command{
	Use:   "observe [flags] [directory]",
	Short: "Dump raw type observations per annotation slot",
	Long: `Observe runs the record phase of the pipeline and stops after collation,
printing every observed type grouped by annotation slot. Резолвер не
запускается: это сырой материал, из которого annotate выводит предложения`,
	Args: cobra.MaximumNArgs(1),
	RunE: runObserve,
}

func init() {
	observeCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	observeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	observeCmd.Flags().Bool("no-cache", false, "skip the on-disk declaration index cache")
	observeCmd.Flags().StringSlice("target", nil, "observe only slots of these files (repeatable)")
	observeCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

type bucketJSON struct {
	File  string   `json:"file"`
	Line  uint32   `json:"line"`
	Kind  string   `json:"kind"`
	Param uint16   `json:"param,omitempty"`
	Types []string `json:"types"`
}

type observeOutput struct {
	Root         string       `json:"root"`
	Observations int          `json:"observations"`
	Locations    []bucketJSON `json:"locations"`
}

func runObserve(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	targets, err := cmd.Flags().GetStringSlice("target")
	if err != nil {
		return fmt.Errorf("failed to get target flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	maxDiag, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	dir, manifest, err := resolveProgramDir(args)
	if err != nil {
		return err
	}

	cleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	tracer, traceCleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer traceCleanup()

	opts := driver.Options{
		Jobs:           jobs,
		MaxDiagnostics: maxDiag,
		Targets:        targets,
		Tracer:         tracer,
		ObserveOnly:    true,
	}
	if manifest != nil {
		opts.Exclude = manifest.Config.Annotate.Exclude
	}
	if !noCache {
		if cache, cacheErr := driver.OpenDiskCache("vesna"); cacheErr == nil {
			opts.Cache = cache
		}
	}

	res, err := driver.Annotate(cmd.Context(), dir, opts)
	if err != nil {
		return fmt.Errorf("observe %s: %w", dir, err)
	}
	out := cmd.OutOrStdout()

	if format == "json" {
		payload := observeOutput{
			Root:         dir,
			Observations: res.Observations,
			Locations:    make([]bucketJSON, 0, res.Buckets.Len()),
		}
		for _, key := range res.Buckets.Keys() {
			b := res.Buckets.Get(key)
			types := make([]string, 0, len(b.Obs))
			for _, o := range b.Obs {
				types = append(types, o.Type.String())
			}
			payload.Locations = append(payload.Locations, bucketJSON{
				File:  displayPath(dir, key.Path, fullPath),
				Line:  key.Line,
				Kind:  key.Kind.String(),
				Param: key.Param,
				Types: types,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(payload); encErr != nil {
			return encErr
		}
	} else {
		printDiagnostics(out, res, maxDiag, diagfmt.PrettyOpts{
			Color:    colorEnabled(cmd),
			PathMode: pathModeFor(fullPath),
			Max:      maxDiag,
		})
		var lastFile string
		for _, key := range res.Buckets.Keys() {
			b := res.Buckets.Get(key)
			if key.Path != lastFile {
				fmt.Fprintln(out, displayPath(dir, key.Path, fullPath))
				lastFile = key.Path
			}
			fmt.Fprintf(out, "  L%-4d %s:", key.Line, slotLabel(key))
			for _, o := range b.Obs {
				fmt.Fprintf(out, " %s", o.Type)
			}
			fmt.Fprintln(out)
		}
		if res.Buckets.Len() > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%d observations over %d locations\n", res.Observations, res.Buckets.Len())
	}

	if res.HasErrors() {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - diagnostics already printed
	}
	return nil
}

func slotLabel(key suggest.LocationKey) string {
	if key.Kind == suggest.KindParam {
		return fmt.Sprintf("param %d", key.Param)
	}
	return key.Kind.String()
}
