package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists published snapshots as one JSON file per version so a
// restarted coordinator can serve the last aggregate as baseline. Round
// state is never persisted.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) Save(snap Snapshot) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	file := filepath.Join(fs.dir, fmt.Sprintf("model_v%d.json", snap.Version))
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}

	return nil
}

func (fs *FileStore) Load(version uint64) (Snapshot, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.load(version)
}

// LoadLatest returns the highest persisted version, or ErrNoSnapshot when
// the directory holds none.
func (fs *FileStore) LoadLatest() (Snapshot, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var latest uint64
	var found bool
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var version uint64
		if _, err := fmt.Sscanf(entry.Name(), "model_v%d.json", &version); err != nil {
			continue
		}
		if !found || version > latest {
			latest = version
			found = true
		}
	}
	if !found {
		return Snapshot{}, ErrNoSnapshot
	}

	return fs.load(latest)
}

func (fs *FileStore) load(version uint64) (Snapshot, error) {
	file := filepath.Join(fs.dir, fmt.Sprintf("model_v%d.json", version))
	data, err := os.ReadFile(file)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return snap, nil
}
