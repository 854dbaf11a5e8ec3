package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vesna/internal/diag"
	"vesna/internal/diagfmt"
	"vesna/internal/driver"
	"vesna/internal/patch"
	"vesna/internal/project"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate [flags] [directory]",
	Short: "Suggest type annotations for unannotated declarations",
	Long: `Annotate replays every declaration of a Vesna program in record mode,
collates the observed types per annotation slot and resolves at most one
suggestion per slot. With --write the suggestions are inserted into the
source files`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnnotate,
}

// init registers CLI flags for the annotate command used by runAnnotate.
func init() {
	annotateCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	annotateCmd.Flags().Duration("deadline", 0, "per-location resolution budget (0=default, negative disables)")
	annotateCmd.Flags().Bool("write", false, "insert suggested annotations into the source files")
	annotateCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	annotateCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	annotateCmd.Flags().Bool("no-cache", false, "skip the on-disk declaration index cache")
	annotateCmd.Flags().Bool("fresh", false, "drop the declaration index cache before running")
	annotateCmd.Flags().StringSlice("target", nil, "suggest only for these files (repeatable)")
	annotateCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	annotateCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

type annotationJSON struct {
	File   string `json:"file"`
	Line   uint32 `json:"line"`
	Kind   string `json:"kind"`
	Param  uint16 `json:"param,omitempty"`
	Name   string `json:"name,omitempty"`
	Method string `json:"method,omitempty"`
	Type   string `json:"type"`
	Target string `json:"target"`
}

type statsJSON struct {
	Locations int `json:"locations"`
	Suggested int `json:"suggested"`
	Expired   int `json:"expired"`
	Unclean   int `json:"unclean"`
	Stale     int `json:"stale,omitempty"`
}

type annotateOutput struct {
	Root        string                    `json:"root"`
	Annotations []annotationJSON          `json:"annotations"`
	Stats       statsJSON                 `json:"stats"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

// runAnnotate executes the "annotate" command: it resolves the program
// directory (argument or nearest vesna.toml), runs the annotation pipeline,
// prints the resulting suggestions in the chosen format and, with --write,
// inserts them into the source files. The process exits non-zero when the
// program has errors.
func runAnnotate(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	budget, err := cmd.Flags().GetDuration("deadline")
	if err != nil {
		return fmt.Errorf("failed to get deadline flag: %w", err)
	}
	write, err := cmd.Flags().GetBool("write")
	if err != nil {
		return fmt.Errorf("failed to get write flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	fresh, err := cmd.Flags().GetBool("fresh")
	if err != nil {
		return fmt.Errorf("failed to get fresh flag: %w", err)
	}
	targets, err := cmd.Flags().GetStringSlice("target")
	if err != nil {
		return fmt.Errorf("failed to get target flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	maxDiag, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
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
		Deadline:       budget,
		MaxDiagnostics: maxDiag,
		Targets:        targets,
		Tracer:         tracer,
		EmitTimings:    showTimings && format == "json",
	}
	if manifest != nil {
		if opts.Jobs == 0 {
			opts.Jobs = manifest.Config.Annotate.Jobs
		}
		if opts.Deadline == 0 && manifest.Config.Annotate.DeadlineMS != 0 {
			opts.Deadline = time.Duration(manifest.Config.Annotate.DeadlineMS) * time.Millisecond
		}
		opts.ElementClass = manifest.Config.Annotate.ElementClass
		opts.Exclude = manifest.Config.Annotate.Exclude
	}
	if !noCache {
		cache, cacheErr := driver.OpenDiskCache("vesna")
		if cacheErr != nil {
			fmt.Fprintf(os.Stderr, "warning: disk cache unavailable: %v\n", cacheErr)
		} else {
			opts.Cache = cache
			if fresh {
				opts.Invalidate = cache.DropAll
			}
		}
	}

	var res *driver.Result
	if shouldUseTUI(mode) && !quiet && format == "pretty" {
		files, listErr := driver.ListFiles(dir, opts.Exclude)
		if listErr != nil {
			return listErr
		}
		res, err = runAnnotateWithUI(cmd.Context(), "annotating "+dir, files, dir, opts)
	} else {
		res, err = driver.Annotate(cmd.Context(), dir, opts)
	}
	if err != nil {
		return fmt.Errorf("annotate %s: %w", dir, err)
	}

	plan := patch.Build(res.Index, res.Patches)
	out := cmd.OutOrStdout()

	if format == "json" {
		if encErr := renderAnnotateJSON(out, dir, res, plan, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathModeFor(fullPath),
			Max:              maxDiag,
			IncludeNotes:     withNotes,
		}, fullPath); encErr != nil {
			return encErr
		}
	} else {
		printDiagnostics(out, res, maxDiag, diagfmt.PrettyOpts{
			Color:     colorEnabled(cmd),
			PathMode:  pathModeFor(fullPath),
			ShowNotes: withNotes,
			Max:       maxDiag,
		})
		renderAnnotatePretty(out, dir, res, plan, fullPath, quiet)
		if showTimings && !quiet {
			fmt.Fprintln(out, res.Timing.Summary())
		}
	}

	if write {
		// при json-выводе служебные строки не должны ломать документ
		applyOut := out
		if format == "json" {
			applyOut = os.Stderr
		}
		if applyErr := applyPlan(applyOut, res, plan, quiet); applyErr != nil {
			return applyErr
		}
	}

	if res.HasErrors() {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - diagnostics already printed
	}
	return nil
}

// resolveProgramDir picks the directory to annotate: the explicit argument
// when given, otherwise the root of the nearest vesna.toml, otherwise the
// current directory. Манифест ищется в обоих случаях ради секции [annotate].
func resolveProgramDir(args []string) (string, *project.Manifest, error) {
	start := "."
	if len(args) > 0 && args[0] != "" {
		start = args[0]
	}
	manifest, found, err := project.Load(start)
	if err != nil {
		return "", nil, err
	}
	if len(args) > 0 && args[0] != "" {
		return args[0], manifest, nil
	}
	if found {
		return manifest.Root, manifest, nil
	}
	return ".", nil, nil
}

func renderAnnotatePretty(out io.Writer, dir string, res *driver.Result, plan *patch.Plan, fullPath, quiet bool) {
	if plan.Total() == 0 {
		fmt.Fprintln(out, "no annotations to suggest")
		printResolveCounters(out, res, plan)
		return
	}
	if !quiet {
		for i := range plan.Files {
			fp := &plan.Files[i]
			fmt.Fprintln(out, displayPath(dir, fp.Path, fullPath))
			for _, item := range fp.Items {
				fmt.Fprintf(out, "  L%-4d %s\n", item.Key.Line, item.Describe())
			}
		}
		fmt.Fprintln(out)
	}
	printResolveCounters(out, res, plan)
}

func printResolveCounters(out io.Writer, res *driver.Result, plan *patch.Plan) {
	fmt.Fprintf(out, "%d annotations suggested (%d locations", plan.Total(), res.Stats.Buckets)
	if res.Stats.Expired > 0 {
		fmt.Fprintf(out, ", %d expired", res.Stats.Expired)
	}
	if len(plan.Stale) > 0 {
		fmt.Fprintf(out, ", %d stale", len(plan.Stale))
	}
	fmt.Fprintln(out, ")")
}

func renderAnnotateJSON(out io.Writer, dir string, res *driver.Result, plan *patch.Plan, diagOpts diagfmt.JSONOpts, fullPath bool) error {
	annotations := make([]annotationJSON, 0, plan.Total())
	for i := range plan.Files {
		fp := &plan.Files[i]
		for _, item := range fp.Items {
			annotations = append(annotations, annotationJSON{
				File:   displayPath(dir, fp.Path, fullPath),
				Line:   item.Key.Line,
				Kind:   item.Slot.Kind.String(),
				Param:  item.Slot.Param,
				Name:   item.Slot.Name,
				Method: item.Slot.Method,
				Type:   item.Text,
				Target: item.Describe(),
			})
		}
	}

	bag := mergedBag(res, diagOpts.Max)
	payload := annotateOutput{
		Root:        dir,
		Annotations: annotations,
		Stats: statsJSON{
			Locations: res.Stats.Buckets,
			Suggested: res.Stats.Suggested,
			Expired:   res.Stats.Expired,
			Unclean:   res.Stats.Unclean,
			Stale:     len(plan.Stale),
		},
		Diagnostics: diagfmt.BuildDiagnosticsOutput(bag, res.FileSet, diagOpts),
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// applyPlan inserts the planned annotations into the source files. Пустой
// план не ошибка: команда уже напечатала "no annotations to suggest".
func applyPlan(out io.Writer, res *driver.Result, plan *patch.Plan, quiet bool) error {
	applyBag := diag.NewBag(64)
	applied, err := patch.Apply(res.FileSet, res.Index, plan, diag.BagReporter{Bag: applyBag})
	if err != nil {
		if errors.Is(err, patch.ErrNoPatches) {
			return nil
		}
		return fmt.Errorf("apply annotations: %w", err)
	}
	edits := 0
	for _, ch := range applied.Changes {
		edits += ch.EditCount
	}
	fmt.Fprintf(out, "wrote %d annotations into %d files\n", edits, len(applied.Changes))
	if !quiet {
		for _, sk := range applied.Skipped {
			fmt.Fprintf(out, "skipped %s: %s\n", sk.Path, sk.Reason)
		}
	}
	return nil
}
