package indexer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotVersion guards against loading snapshots written by an
// incompatible result schema.
const snapshotVersion = 1

// snapshot is the on-disk form of the index.
type snapshot struct {
	Version int             `msgpack:"version"`
	Files   []*FileAnalysis `msgpack:"files"`
}

// SaveSnapshot writes every cached analysis to path so a later session
// can warm-start without re-analyzing unchanged files. The write goes
// through a temp file and rename so a crash never leaves a truncated
// snapshot behind.
func (idx *Index) SaveSnapshot(path string) error {
	snap := snapshot{
		Version: snapshotVersion,
		Files:   idx.All(),
	}

	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}

	idx.logger.Info("index snapshot saved", "path", path, "files", len(snap.Files))
	return nil
}

// LoadSnapshot restores cached analyses from a snapshot file. Entries
// are loaded as-is; content hashes are verified lazily the next time
// each file is analyzed, so stale entries cost nothing beyond cache
// space. Returns the number of entries loaded.
func (idx *Index) LoadSnapshot(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return 0, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	loaded := 0
	idx.mu.Lock()
	for _, fa := range snap.Files {
		if fa == nil || fa.FilePath == "" || fa.Result == nil {
			continue
		}
		idx.cache.Add(fa.FilePath, fa)
		loaded++
	}
	idx.mu.Unlock()

	idx.logger.Info("index snapshot loaded", "path", path, "files", loaded)
	return loaded, nil
}
