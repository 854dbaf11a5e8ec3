package diagfmt

import (
	"path/filepath"
	"strings"

	"vesna/internal/source"
)

// displayPath форматирует путь файла согласно режиму. Виртуальные файлы
// всегда показываются по их имени.
func displayPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	if f.Flags&source.FileVirtual != 0 {
		return f.Path
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeRelative, PathModeAuto:
		if base := fs.BaseDir(); base != "" {
			if rel, err := source.RelativePath(f.Path, base); err == nil && !strings.HasPrefix(rel, "..") {
				return rel
			}
		}
	case PathModeBasename:
		return source.BaseName(f.Path)
	}
	return f.Path
}
