package source

import (
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet manages a collection of source files and resolves spans to
// line/column positions.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> id
	baseDir string
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// NewFileSetWithBase создаёт FileSet с заданной базовой директорией.
func NewFileSetWithBase(baseDir string) *FileSet {
	return &FileSet{
		files:   make([]File, 0),
		index:   make(map[string]FileID),
		baseDir: baseDir,
	}
}

// BaseDir returns the base directory for relative path formatting.
func (fs *FileSet) BaseDir() string {
	if fs.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fs.baseDir
}

// Add stores a file from normalized bytes, computes LineIdx and Hash, and
// returns a new FileID. It always creates a new FileID even when a file with
// the same path already exists; the index points at the latest version.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	hash := sha256.Sum256(content)
	lineIdx := buildLineIndex(content)
	normalizedPath := normalizePath(path)

	lenFiles, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: lineIdx,
		Hash:    hash,
		Flags:   flags,
	})
	fs.index[normalizedPath] = id
	return id
}

// Load reads a file from disk, strips the BOM, normalizes CRLF and Unicode
// form, and calls Add.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	content, renorm := normalizeNFC(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	if renorm {
		flags |= FileRenormalized
	}
	return fs.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory file (tests, stdin) with the FileVirtual flag.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	content, _ = removeBOM(content)
	content, _ = normalizeCRLF(content)
	content, _ = normalizeNFC(content)
	return fs.Add(name, content, FileVirtual)
}

// Get returns the file metadata for the given ID.
func (fs *FileSet) Get(id FileID) *File {
	return &fs.files[id]
}

// GetByPath возвращает *File по пути, если он был загружен в этот FileSet.
func (fs *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fs.index[normalizePath(path)]; ok {
		return &fs.files[id], true
	}
	return nil, false
}

// Len returns the number of files in the set.
func (fs *FileSet) Len() int {
	return len(fs.files)
}

// Resolve converts a span into line and column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.files[span.File]
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// LineOf returns the 1-based line holding the given byte offset.
func (f *File) LineOf(off uint32) uint32 {
	return toLineCol(f.LineIdx, off).Line
}

// LineStart returns the byte offset at which the 1-based line begins.
// Offsets past the last line saturate to len(Content).
func (f *File) LineStart(line uint32) uint32 {
	if line <= 1 {
		return 0
	}
	idx := int(line) - 2
	if idx >= len(f.LineIdx) {
		return uint32(len(f.Content))
	}
	return f.LineIdx[idx] + 1
}
