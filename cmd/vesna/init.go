package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"vesna/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new vesna project",
	Long: `Initialize a new vesna project by creating a project manifest (vesna.toml)
and a starter source file (main.ves). If [path|name] is omitted, initializes
the current directory. If a non-existing name is provided, a directory will be
created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

// runInit initializes a Vesna project at the specified target path (or the
// current working directory when no argument or "." is provided) by creating
// a vesna.toml manifest and a main.ves starter file.
//
// It resolves the target path, creates the directory if it does not exist,
// derives a project name from the directory basename (falling back to
// "vesna-project" for invalid names), and refuses to initialize if
// vesna.toml already exists. On success it writes the manifest and starter
// file and prints the created files; it returns an error for any filesystem
// or validation failures.
func runInit(cmd *cobra.Command, args []string) error {
	// Resolve target directory
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else {
		// treat as path or name relative to cwd
		arg := args[0]
		if !filepath.IsAbs(arg) {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			target = filepath.Join(wd, arg)
		} else {
			target = arg
		}
	}

	// Ensure directory exists
	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	// Determine project name from directory basename
	name := filepath.Base(target)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "vesna-project"
	}

	// Create manifest file if not exists
	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}

	manifest := buildDefaultManifest(name)
	if err := os.WriteFile(manifestPath, []byte(manifest), os.FileMode(0o600)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	// Create main.ves if not exists
	mainPath := filepath.Join(target, "main.ves")
	createdMain := false
	if _, err := os.Stat(mainPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(mainPath, []byte(defaultMainVes()), 0o600); err != nil {
			return fmt.Errorf("failed to write main.ves: %w", err)
		}
		createdMain = true
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err2 := filepath.Rel(wd, target); err2 == nil {
			rel = r
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized vesna project in %s\n", rel)
	fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", project.ManifestName)
	if createdMain {
		fmt.Fprintf(cmd.OutOrStdout(), "  - main.ves\n")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "  - main.ves (existing)\n")
	}
	return nil
}

// buildDefaultManifest returns a minimal TOML manifest for a Vesna project
// using the provided package name. The manifest contains [package] metadata
// and a commented [annotate] section showing the tunable defaults.
func buildDefaultManifest(name string) string {
	// Minimal TOML manifest used as a project marker.
	return fmt.Sprintf(`# Vesna project manifest
[package]
name = "%s"
version = "0.1.0"

# Defaults for `+"`vesna annotate`"+`; command-line flags override these.
[annotate]
# jobs = 4
# deadline_ms = 60000
# element_class = "Elem"
# exclude = ["vendor"]
`, name)
}

// defaultMainVes returns the starter Vesna source used when initializing a
// new project. The parameter of headline is deliberately unannotated so that
// `vesna annotate` has something to suggest right away.
func defaultMainVes() string {
	return `// Vesna starter source.
// Run ` + "`vesna annotate`" + ` to see a suggestion for the parameter below.

elem class Banner {
	fn show(text: string) : string {
		return text;
	}
}

fn headline(b) : string {
	return b.show("welcome to vesna");
}

fn main() {
	headline(new Banner());
}
`
}
