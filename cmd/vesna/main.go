package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vesna/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "vesna",
	Short: "Vesna type annotation assistant",
	Long:  `Vesna suggests missing type annotations for .ves sources by replaying every declaration in record mode and reconciling the observed value flows`,
}

// main initializes the CLI by setting the command version, registering
// subcommands and persistent flags, and then executes the root command.
// If command execution returns an error, the process exits with status code 1.
func main() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	// Добавляем команды
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(declsCmd)
	rootCmd.AddCommand(observeCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to the given file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to the given file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a runtime trace to the given file")
	rootCmd.PersistentFlags().String("trace", "", "write pipeline trace events to the given file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace verbosity (off|phase|file)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "trace ring buffer capacity")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit trace heartbeats at this interval (0=off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// colorEnabled решает, красить ли вывод, по флагу --color и типу stdout.
func colorEnabled(cmd *cobra.Command) bool {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		mode = "auto"
	}
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
