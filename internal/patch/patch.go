// Package patch turns resolved suggestions into source edits. Every
// suggestion joins its open annotation slot in the declaration index and
// becomes a ": T" insertion at the slot offset.
package patch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"vesna/internal/decl"
	"vesna/internal/diag"
	"vesna/internal/source"
	"vesna/internal/suggest"
)

// ErrNoPatches is returned when nothing was written.
var ErrNoPatches = errors.New("no applicable annotations found")

// Item is one planned insertion: a suggestion joined to its slot.
type Item struct {
	Key  suggest.LocationKey
	Slot decl.Slot
	Text string
}

// Describe formats one planned insertion for terminal output.
func (it Item) Describe() string {
	switch it.Slot.Kind {
	case suggest.KindParam:
		if it.Slot.Method != "" {
			return fmt.Sprintf("param %s of %s: %s", it.Slot.Name, it.Slot.Method, it.Text)
		}
		return fmt.Sprintf("param %s: %s", it.Slot.Name, it.Text)
	case suggest.KindRet:
		return fmt.Sprintf("return of %s: %s", it.Slot.Name, it.Text)
	case suggest.KindMember:
		return fmt.Sprintf("member %s: %s", it.Slot.Name, it.Text)
	default:
		return it.Text
	}
}

// FilePlan lists the planned insertions for one file in location order.
type FilePlan struct {
	Path  string
	Items []Item
}

// Plan is the join of a patch set with the declaration index.
type Plan struct {
	Files []FilePlan            // отсортированы по пути
	Stale []suggest.LocationKey // предложения, под которыми нет открытого слота
}

// Total counts planned insertions across all files.
func (p *Plan) Total() int {
	n := 0
	for i := range p.Files {
		n += len(p.Files[i].Items)
	}
	return n
}

// Build joins every suggestion with its slot. Suggestions whose location has
// no open slot land in Stale; так бывает, когда кэшированный индекс и дерево
// разошлись.
func Build(ix *decl.Index, patches suggest.PatchSet) *Plan {
	plan := &Plan{}

	paths := make([]string, 0, len(patches))
	for path := range patches {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		var items []Item
		for _, sug := range patches[path] {
			key := suggest.LocationKey{Path: path, Line: sug.Line, Kind: sug.Kind, Param: sug.Param}
			slot, ok := ix.Slot(key)
			if !ok {
				plan.Stale = append(plan.Stale, key)
				continue
			}
			items = append(items, Item{Key: key, Slot: slot, Text: sug.Text})
		}
		if len(items) > 0 {
			plan.Files = append(plan.Files, FilePlan{Path: path, Items: items})
		}
	}
	return plan
}

// Render returns the file content with the annotations inserted. Offsets
// refer to the indexed content; edits apply back to front so earlier offsets
// stay valid.
func (fp *FilePlan) Render(content []byte) []byte {
	items := append([]Item(nil), fp.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Slot.InsertOff > items[j].Slot.InsertOff
	})

	working := append([]byte(nil), content...)
	for _, it := range items {
		off := int(it.Slot.InsertOff)
		if off > len(working) {
			off = len(working)
		}
		ann := []byte(": " + it.Text)
		suffix := append([]byte(nil), working[off:]...)
		working = append(append(working[:off], ann...), suffix...)
	}
	return working
}

// FileChange summarises modifications performed on one file.
type FileChange struct {
	Path      string
	EditCount int
}

// Skipped captures a file that was not patched and why.
type Skipped struct {
	Path   string
	Reason string
}

// Result aggregates written changes and skipped files.
type Result struct {
	Changes []FileChange
	Skipped []Skipped
}

// Apply writes the plan to disk. Каждый файл перечитывается, и его хэш
// сверяется с хэшем из индекса: файл, изменившийся после индексации,
// пропускается, чтобы не затереть чужие правки.
func Apply(fs *source.FileSet, ix *decl.Index, plan *Plan, reporter diag.Reporter) (*Result, error) {
	result := &Result{
		Changes: make([]FileChange, 0, len(plan.Files)),
		Skipped: make([]Skipped, 0),
	}
	if fs == nil {
		return result, fmt.Errorf("patch: FileSet is nil")
	}
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	if plan.Total() == 0 {
		return result, ErrNoPatches
	}

	for i := range plan.Files {
		fp := &plan.Files[i]

		fi := ix.File(fp.Path)
		if fi == nil {
			result.Skipped = append(result.Skipped, Skipped{Path: fp.Path, Reason: "file missing from declaration index"})
			continue
		}
		cur, ok := fs.GetByPath(fp.Path)
		if !ok {
			result.Skipped = append(result.Skipped, Skipped{Path: fp.Path, Reason: "file missing from file set"})
			continue
		}
		if cur.Flags&source.FileVirtual != 0 {
			result.Skipped = append(result.Skipped, Skipped{Path: fp.Path, Reason: "target file is virtual"})
			continue
		}

		// перечитываем с той же нормализацией, что была при индексации
		scratch := source.NewFileSet()
		id, err := scratch.Load(fp.Path)
		if err != nil {
			reporter.Report(diag.IOLoadFileError, diag.SevError, source.Span{},
				"failed to reload file: "+err.Error())
			result.Skipped = append(result.Skipped, Skipped{Path: fp.Path, Reason: "reload failed"})
			continue
		}
		disk := scratch.Get(id)
		if disk.Hash != fi.Hash {
			reporter.Report(diag.IdxStaleDecl, diag.SevWarning, source.Span{},
				fmt.Sprintf("%s changed since it was indexed; skipping", fp.Path))
			result.Skipped = append(result.Skipped, Skipped{Path: fp.Path, Reason: "file changed since indexing"})
			continue
		}

		out := fp.Render(disk.Content)

		mode := os.FileMode(0o644)
		if info, err := os.Stat(fp.Path); err == nil {
			mode = info.Mode()
		}
		if err := writeAtomic(fp.Path, out, mode); err != nil {
			return result, fmt.Errorf("write %s: %w", fp.Path, err)
		}
		result.Changes = append(result.Changes, FileChange{Path: fp.Path, EditCount: len(fp.Items)})
	}

	if len(result.Changes) == 0 {
		return result, ErrNoPatches
	}
	return result, nil
}

// writeAtomic replaces path through a sibling temp file and rename.
func writeAtomic(path string, content []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	name := f.Name()
	defer func() {
		if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Printf("failed to remove temp file: %v", err)
		}
	}()

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(name, mode); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(name, path)
}
