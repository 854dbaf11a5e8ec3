// Package project locates and reads the vesna.toml project manifest.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file the manifest search looks for.
const ManifestName = "vesna.toml"

// Manifest is a parsed vesna.toml together with its location.
type Manifest struct {
	Path   string // абсолютный путь к vesna.toml
	Root   string // каталог, в котором лежит манифест
	Config Config
}

// Config mirrors the TOML structure of vesna.toml.
type Config struct {
	Package  PackageConfig  `toml:"package"`
	Annotate AnnotateConfig `toml:"annotate"`
}

// PackageConfig describes the [package] section.
type PackageConfig struct {
	Name string `toml:"name"`
}

// AnnotateConfig holds per-project annotation defaults from the optional
// [annotate] section. Флаги командной строки имеют приоритет над манифестом.
type AnnotateConfig struct {
	Jobs         int      `toml:"jobs"`
	DeadlineMS   int      `toml:"deadline_ms"`
	ElementClass string   `toml:"element_class"`
	Exclude      []string `toml:"exclude"`
}

// Find walks up from startDir to locate vesna.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindRoot returns the directory containing vesna.toml, if any.
func FindRoot(startDir string) (root string, ok bool, err error) {
	manifestPath, ok, err := Find(startDir)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(manifestPath), true, nil
}

// Load finds and parses the manifest nearest to startDir. ok=false без
// ошибки означает, что манифеста нет и проект работает на одних флагах.
func Load(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	return cfg, nil
}
