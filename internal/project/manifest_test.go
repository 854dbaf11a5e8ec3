package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadParsesManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"shop\"\n\n[annotate]\njobs = 4\ndeadline_ms = 120\nelement_class = \"Widget\"\nexclude = [\"vendor\", \"gen\"]\n")

	m, ok, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatalf("expected manifest to be found")
	}
	if m.Root != dir {
		t.Fatalf("Root = %q, want %q", m.Root, dir)
	}
	if m.Config.Package.Name != "shop" {
		t.Fatalf("package name = %q", m.Config.Package.Name)
	}
	if m.Config.Annotate.Jobs != 4 || m.Config.Annotate.DeadlineMS != 120 {
		t.Fatalf("annotate section = %+v", m.Config.Annotate)
	}
	if m.Config.Annotate.ElementClass != "Widget" {
		t.Fatalf("element_class = %q, want Widget", m.Config.Annotate.ElementClass)
	}
	if len(m.Config.Annotate.Exclude) != 2 || m.Config.Annotate.Exclude[0] != "vendor" {
		t.Fatalf("exclude = %v", m.Config.Annotate.Exclude)
	}
}

func TestLoadWalksUpFromNestedDir(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"shop\"\n")
	nested := filepath.Join(dir, "src", "ui")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m, ok, err := Load(nested)
	if err != nil || !ok {
		t.Fatalf("Load from nested dir: ok=%v err=%v", ok, err)
	}
	if m.Root != dir {
		t.Fatalf("Root = %q, want %q", m.Root, dir)
	}
}

func TestLoadAnnotateSectionOptional(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"bare\"\n")

	m, ok, err := Load(dir)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if m.Config.Annotate.Jobs != 0 || len(m.Config.Annotate.Exclude) != 0 {
		t.Fatalf("expected zero annotate defaults, got %+v", m.Config.Annotate)
	}
}

func TestLoadRejectsMissingPackageName(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[annotate]\njobs = 2\n")

	if _, _, err := Load(dir); err == nil {
		t.Fatalf("expected error for manifest without [package].name")
	}
}

func TestLoadMissingManifest(t *testing.T) {
	m, ok, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok || m != nil {
		t.Fatalf("expected no manifest, got ok=%v m=%+v", ok, m)
	}
}
