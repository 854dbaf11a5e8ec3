package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vesna/internal/driver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the on-disk declaration index cache",
	Long: `Manage the cache of declaration indexes keyed by file content hash.
The cache lives under the user cache directory and is safe to remove at any
time; annotate rebuilds missing entries on the next run.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached declaration index",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE:  runCachePath,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePathCmd)
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	cache, err := driver.OpenDiskCache("vesna")
	if err != nil {
		return fmt.Errorf("failed to locate cache: %w", err)
	}
	info, err := os.Stat(cache.Dir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(cmd.OutOrStdout(), "cache directory not found")
			return nil
		}
		return fmt.Errorf("failed to stat %q: %w", cache.Dir(), err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", cache.Dir())
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cache.Dir())
	return nil
}

func runCachePath(cmd *cobra.Command, _ []string) error {
	cache, err := driver.OpenDiskCache("vesna")
	if err != nil {
		return fmt.Errorf("failed to locate cache: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cache.Dir())
	return nil
}
