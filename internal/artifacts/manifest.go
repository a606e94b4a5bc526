package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
)

const manifestVersion = 1

// manifestFile is the on-disk JSON envelope at <Dir>/.manifest.json.
type manifestFile struct {
	Version   int                      `json:"version"`
	RideName  *string                  `json:"rideName"`
	Timestamp int64                    `json:"timestamp"`
	Artifacts map[string]manifestEntry `json:"artifacts"`
}

type manifestEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RelativePath string `json:"relativePath"`
	Type         string `json:"type"`
	SizeBytes    int64  `json:"sizeBytes"`
	CreatedAt    int64  `json:"createdAt"`
	Checksum     string `json:"checksum"`
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.Dir, ".manifest.json")
}

// SaveManifest serializes the store's current entries to .manifest.json
// atomically (write temp, rename).
func (s *Store) SaveManifest(rideName string) error {
	s.mu.RLock()
	mf := manifestFile{
		Version:   manifestVersion,
		Timestamp: time.Now().UnixMilli(),
		Artifacts: make(map[string]manifestEntry, len(s.entries)),
	}
	if rideName != "" {
		mf.RideName = &rideName
	}
	for name, e := range s.entries {
		mf.Artifacts[name] = manifestEntry{
			ID:           e.ID,
			Name:         e.Name,
			RelativePath: e.RelativePath,
			Type:         string(e.Kind),
			SizeBytes:    e.SizeBytes,
			CreatedAt:    e.CreatedAt.UnixMilli(),
			Checksum:     e.Checksum,
		}
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(s.manifestPath(), data, 0o644)
}

// RestoreFromManifest reads .manifest.json, if present, and registers every
// entry whose path still exists under Dir. A corrupt or missing manifest is
// treated as absent: RestoreFromManifest returns count=0 and the run
// proceeds, rather than failing.
func (s *Store) RestoreFromManifest() (count int, err error) {
	data, readErr := os.ReadFile(s.manifestPath())
	if readErr != nil {
		return 0, nil
	}

	var mf manifestFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string]Entry)
	}
	for name, me := range mf.Artifacts {
		full := filepath.Join(s.Dir, me.RelativePath)
		if _, err := os.Stat(full); err != nil {
			continue
		}
		kind := EntryKind(me.Type)
		if kind != KindFile && kind != KindDirectory {
			continue
		}
		id := me.ID
		if id == "" {
			id = uuid.NewString()
		}
		s.entries[name] = Entry{
			ID:           id,
			Name:         me.Name,
			RelativePath: me.RelativePath,
			Kind:         kind,
			SizeBytes:    me.SizeBytes,
			CreatedAt:    time.UnixMilli(me.CreatedAt),
			Checksum:     me.Checksum,
		}
		count++
	}
	return count, nil
}
