package source

import (
	"path/filepath"
	"slices"

	"golang.org/x/text/unicode/norm"
)

// normalizeCRLF заменяет все \r\n на \n, не трогая одиночные \r.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}

	out := make([]byte, 0, len(content))
	changed := false

	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, changed
}

func removeBOM(content []byte) ([]byte, bool) {
	if len(content) < 3 {
		return content, false
	}

	if content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:], true
	}

	return content, false
}

// normalizeNFC приводит содержимое к NFC, чтобы идентификаторы в разных
// юникодных формах сравнивались одинаково.
func normalizeNFC(content []byte) ([]byte, bool) {
	if norm.NFC.IsNormal(content) {
		return content, false
	}
	return norm.NFC.Bytes(content), true
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, len(content)/32)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i))
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// Если LineIdx пустой, то весь файл — одна строка.
	if len(lineIdx) == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}

	// бинпоиск: наибольший lineIdx[i] <= off
	lo, hi := 0, len(lineIdx)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		if lineIdx[mid] <= off {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	line := hi

	if line < 0 {
		return LineCol{Line: 1, Col: off + 1}
	}

	var startOff uint32
	if line == 0 {
		startOff = 0
	} else {
		startOff = lineIdx[line-1] + 1
	}

	return LineCol{Line: uint32(line + 1), Col: off - startOff + 1}
}

func normalizePath(p string) string {
	// единый вид в кроссплатформенных дифах
	return filepath.ToSlash(filepath.Clean(p))
}

// RelativePath returns path relative to base when possible.
func RelativePath(path, base string) (string, error) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// BaseName returns the final path element.
func BaseName(path string) string {
	return filepath.Base(path)
}
