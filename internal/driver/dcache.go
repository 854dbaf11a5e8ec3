package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"vesna/internal/decl"
)

// Версия схемы кэша; увеличивается при любом изменении indexPayload.
const indexSchemaVersion uint16 = 1

// DiskCache хранит индексы деклараций по SHA-256 содержимого файла.
// Ключ не зависит от пути: перемещённый файл с тем же содержимым остаётся
// попаданием. Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// indexPayload is the on-disk form of one file index.
type indexPayload struct {
	Schema uint16
	Hash   [32]byte
	Decls  []decl.Decl
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt opens a cache rooted at an explicit directory (tests).
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root directory.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key [32]byte) string {
	hexKey := hex.EncodeToString(key[:])
	// Подкаталог "decls" — чтобы кэш было удобно чистить руками.
	return filepath.Join(c.dir, "decls", hexKey+".mp")
}

// PutIndex serializes and writes a file index keyed by its content hash.
func (c *DiskCache) PutIndex(fi *decl.FileIndex) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(fi.Hash)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Printf("failed to remove temp file: %v", err)
		}
	}()

	payload := indexPayload{
		Schema: indexSchemaVersion,
		Hash:   fi.Hash,
		Decls:  fi.Decls,
	}
	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(&payload); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// GetIndex reads a cached index for the given content hash. The returned
// index is rebound to path: содержимое одно и то же, путь — текущий.
func (c *DiskCache) GetIndex(path string, hash [32]byte) (*decl.FileIndex, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(hash)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() {
		_ = f.Close()
	}()

	var payload indexPayload
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != indexSchemaVersion || payload.Hash != hash {
		// Устаревшая схема читается как промах, файл перезапишется.
		return nil, false, nil
	}
	return &decl.FileIndex{Path: path, Hash: payload.Hash, Decls: payload.Decls}, true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим в фоне
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
