// Package artifacts implements the ride-scoped ArtifactStore: a
// process-safe name -> path map backed by a directory tree, persisted to a
// manifest that survives across runs. It generalizes orc's state package
// (loop counts, feedback files, atomic writes) into a typed content store.
package artifacts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// EntryKind distinguishes a file artifact from a directory artifact.
type EntryKind string

const (
	KindFile      EntryKind = "file"
	KindDirectory EntryKind = "directory"
)

// Entry is one artifact's metadata, as recorded in the manifest. ID is a
// uuid minted at Put time, independent of Name, so two runs that both
// produce an artifact named "bin" still mint distinguishable manifest
// entries if callers need to tell them apart across restores.
type Entry struct {
	ID           string
	Name         string
	RelativePath string
	Kind         EntryKind
	SizeBytes    int64
	CreatedAt    time.Time
	Checksum     string // "blake3:<hex>"; for directories, a hash of sorted relative paths + sizes
}

// Store is the ride-scoped artifact directory: a concurrent name ->
// absolute-path map, plus manifest load/save.
type Store struct {
	Dir string // e.g. <workspace>/.kite/artifacts

	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns a Store rooted at dir. The directory is not created until the
// first Put or manifest operation.
func New(dir string) *Store {
	return &Store{Dir: dir, entries: make(map[string]Entry)}
}

// Put copies source (a file or directory) under <Dir>/<name>, replacing any
// existing entry with the same name, and registers it in the store.
func (s *Store) Put(name, sourcePath string) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("artifacts: creating store dir: %w", err)
	}
	dest := filepath.Join(s.Dir, name)

	info, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("artifacts: stat %q: %w", sourcePath, err)
	}

	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("artifacts: clearing previous entry %q: %w", name, err)
	}

	var kind EntryKind
	var size int64
	var checksum string
	if info.IsDir() {
		kind = KindDirectory
		if err := copyDirAtomic(sourcePath, dest); err != nil {
			return err
		}
		size, err = dirSize(dest)
		if err != nil {
			return err
		}
		checksum, err = checksumDir(dest)
		if err != nil {
			return err
		}
	} else {
		kind = KindFile
		if err := copyFileAtomic(sourcePath, dest, info.Mode()); err != nil {
			return err
		}
		size = info.Size()
		checksum, err = checksumFile(dest)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.entries[name] = Entry{
		ID:           uuid.NewString(),
		Name:         name,
		RelativePath: name,
		Kind:         kind,
		SizeBytes:    size,
		CreatedAt:    time.Now(),
		Checksum:     checksum,
	}
	s.mu.Unlock()
	return nil
}

// Get returns the absolute path for name, and ok=false if absent.
func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	return filepath.Join(s.Dir, e.RelativePath), true
}

// Has reports whether name is registered.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[name]
	return ok
}

// List returns every registered artifact name, in no particular order.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// Remove deletes name from both the in-memory map and the backing
// directory.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	if ok {
		delete(s.entries, name)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return os.RemoveAll(filepath.Join(s.Dir, e.RelativePath))
}

// Clear empties the in-memory map without touching the backing directory.
// Used by tests.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.Walk(root, func(_ string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			total += fi.Size()
		}
		return nil
	})
	return total, err
}

// checksumDir hashes a stable concatenation of every regular file's
// relative path and size under root, sorted by path, so two directories
// with identical contents (but produced by different copies) checksum the
// same, without reading file bytes.
func checksumDir(root string) (string, error) {
	type entry struct {
		relPath string
		size    int64
	}
	var entries []entry
	err := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, entry{relPath: filepath.ToSlash(rel), size: fi.Size()})
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].relPath < entries[j].relPath })

	h := blake3.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s\x00%d\n", e.relPath, e.size)
	}
	return fmt.Sprintf("blake3:%x", h.Sum(nil)), nil
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("blake3:%x", h.Sum(nil)), nil
}
