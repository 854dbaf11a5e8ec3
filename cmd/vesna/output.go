package main

import (
	"fmt"
	"io"
	"path/filepath"

	"vesna/internal/diag"
	"vesna/internal/diagfmt"
	"vesna/internal/driver"
	"vesna/internal/source"
)

// mergedBag собирает диагностики программы и всех файлов в один Bag и
// сортирует их для стабильного вывода.
func mergedBag(res *driver.Result, maxDiag int) *diag.Bag {
	bag := diag.NewBag(maxDiag)
	bag.Merge(res.ProgramBag)
	for i := range res.Files {
		bag.Merge(res.Files[i].Bag)
	}
	bag.Sort()
	return bag
}

func pathModeFor(fullPath bool) diagfmt.PathMode {
	if fullPath {
		return diagfmt.PathModeAbsolute
	}
	return diagfmt.PathModeAuto
}

// displayPath форматирует путь предложения: абсолютный при --fullpath,
// иначе относительный к корню прогона, насколько это возможно.
func displayPath(root, path string, fullPath bool) string {
	if fullPath {
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
		return path
	}
	if root != "" {
		if rel, err := source.RelativePath(path, root); err == nil {
			return rel
		}
	}
	return path
}

// printDiagnostics печатает объединённые диагностики результата.
func printDiagnostics(out io.Writer, res *driver.Result, maxDiag int, opts diagfmt.PrettyOpts) int {
	bag := mergedBag(res, maxDiag)
	if bag.Len() == 0 {
		return 0
	}
	diagfmt.Pretty(out, bag, res.FileSet, opts)
	fmt.Fprintln(out)
	return bag.Len()
}
