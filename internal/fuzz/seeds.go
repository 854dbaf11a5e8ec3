package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB — ограничение для тестового корпуса
)

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	addGrammarSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.ves файлы
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".ves" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
	if err != nil {
		return
	}
}

// addGrammarSeeds feeds one snippet per grammar construct so the mutator
// starts from well-formed material.
func addGrammarSeeds(f *testing.F) {
	seeds := []string{
		"",
		"fn main() { }\n",
		"fn greet(name) { emit(name); }\nfn emit(s: string) { }\n",
		"fn pick() : int { return 42; }\n",
		"fn stop() { return; }\n",
		"fn opt(x: ?string) : ?string { return null; }\n",
		"fn later() : Async<int> { return later(); }\nfn use() { let v = await later(); }\n",
		"class Box<T> {\n\tvalue: T;\n\tfn put(v: T) { this.value = v; }\n\tfn get() : T { return this.value; }\n}\n",
		"elem class Button {\n\twidth;\n\tfn resize(w: int) { this.width = w; }\n}\n",
		"class Slider extends Control { }\nclass Control { }\n",
		"fn make() { let b = new Box<int>(); b.put(1); }\n",
		"class Conn {\n\tfn init(addr: string) { }\n}\nfn dial() { let c = new Conn(\"host\"); }\n",
		"// комментарий\nfn f() { let s = \"строка с \\\"кавычками\\\"\"; }\n",
		"fn nums() { let a = 1; let b = 2.5; let c = true; let d = null; }\n",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
