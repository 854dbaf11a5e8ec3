package driver

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// ListFiles возвращает отсортированный список всех *.ves файлов в dir.
// Каталоги, чьё имя входит в exclude, пропускаются целиком. Сортировка
// фиксирует порядок файлов для всего пайплайна.
func ListFiles(dir string, exclude []string) ([]string, error) {
	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[name] = struct{}{}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, ok := skip[d.Name()]; ok && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".ves") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
