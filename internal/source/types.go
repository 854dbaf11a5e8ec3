package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM indicates a UTF-8 BOM was stripped on load.
	FileHadBOM
	// FileNormalizedCRLF indicates CRLF line endings were rewritten to LF.
	FileNormalizedCRLF
	// FileRenormalized indicates the content was not NFC-normalized on disk.
	FileRenormalized
)

// File captures metadata and content for a single source file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
