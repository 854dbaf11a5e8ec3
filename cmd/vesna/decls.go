package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"vesna/internal/decl"
	"vesna/internal/diagfmt"
	"vesna/internal/driver"
	"vesna/internal/suggest"
)

var declsCmd = &cobra.Command{
	Use:   "decls [flags] [directory]",
	Short: "List declarations with open annotation slots",
	Long: `Decls parses and indexes a Vesna program without running inference and
lists every annotation slot that is still empty. Useful to see what annotate
would try to fill`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecls,
}

func init() {
	declsCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	declsCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	declsCmd.Flags().Bool("no-cache", false, "skip the on-disk declaration index cache")
	declsCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

type slotJSON struct {
	File   string `json:"file"`
	Decl   string `json:"decl"`
	Line   uint32 `json:"line"`
	Kind   string `json:"kind"`
	Param  uint16 `json:"param,omitempty"`
	Name   string `json:"name,omitempty"`
	Method string `json:"method,omitempty"`
}

type declsOutput struct {
	Root  string     `json:"root"`
	Slots []slotJSON `json:"slots"`
	Count int        `json:"count"`
}

func runDecls(cmd *cobra.Command, args []string) error {
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
	opts := driver.Options{
		Jobs:           jobs,
		MaxDiagnostics: maxDiag,
		IndexOnly:      true,
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
		return fmt.Errorf("index %s: %w", dir, err)
	}
	out := cmd.OutOrStdout()

	if format == "json" {
		payload := declsOutput{Root: dir}
		for _, path := range res.Index.Files() {
			fi := res.Index.File(path)
			shown := displayPath(dir, path, fullPath)
			for _, d := range fi.Decls {
				for _, s := range d.Slots {
					payload.Slots = append(payload.Slots, slotJSON{
						File:   shown,
						Decl:   d.Name,
						Line:   s.Line,
						Kind:   s.Kind.String(),
						Param:  s.Param,
						Name:   s.Name,
						Method: s.Method,
					})
				}
			}
		}
		payload.Count = len(payload.Slots)
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
		total := 0
		for _, path := range res.Index.Files() {
			fi := res.Index.File(path)
			if fi.SlotCount() == 0 {
				continue
			}
			fmt.Fprintln(out, displayPath(dir, path, fullPath))
			for _, d := range fi.Decls {
				for _, s := range d.Slots {
					fmt.Fprintf(out, "  L%-4d %s\n", s.Line, describeSlot(d, s))
					total++
				}
			}
		}
		if total > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%d open slots in %d files\n", total, len(res.Index.Files()))
	}

	if res.HasErrors() {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - diagnostics already printed
	}
	return nil
}

func describeSlot(d decl.Decl, s decl.Slot) string {
	switch s.Kind {
	case suggest.KindParam:
		if s.Method != "" {
			return fmt.Sprintf("param %s of %s.%s", s.Name, d.Name, s.Method)
		}
		return fmt.Sprintf("param %s of %s", s.Name, d.Name)
	case suggest.KindRet:
		if s.Method != "" {
			return fmt.Sprintf("return of %s.%s", d.Name, s.Method)
		}
		return fmt.Sprintf("return of %s", s.Name)
	case suggest.KindMember:
		return fmt.Sprintf("member %s of %s", s.Name, d.Name)
	default:
		return s.Name
	}
}
