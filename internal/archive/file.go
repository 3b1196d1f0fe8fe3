package archive

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileArchive writes snapshots as JSON files in dated directories.
type FileArchive struct {
	basePath string
	mu       sync.RWMutex
}

func NewFileArchive(basePath string) (*FileArchive, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &FileArchive{basePath: basePath}, nil
}

func (a *FileArchive) Save(ctx context.Context, snap *Snapshot) (SnapshotInfo, error) {
	if err := ctx.Err(); err != nil {
		return SnapshotInfo{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	path := filepath.Join(a.basePath, filepath.FromSlash(objectName(snap)))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return SnapshotInfo{}, fmt.Errorf("failed to create date directory: %w", err)
	}

	data, err := encode(snap)
	if err != nil {
		return SnapshotInfo{}, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return SnapshotInfo{}, fmt.Errorf("failed to write snapshot file: %w", err)
	}

	return SnapshotInfo{
		ID:        snap.ID,
		CreatedAt: snap.CreatedAt,
		Checksum:  snap.Checksum,
		Size:      int64(len(data)),
	}, nil
}

func (a *FileArchive) List(ctx context.Context) ([]SnapshotInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	infos := make([]SnapshotInfo, 0)
	err := filepath.WalkDir(a.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}
		snap, err := decode(data)
		if err != nil {
			return err
		}
		infos = append(infos, SnapshotInfo{
			ID:        snap.ID,
			CreatedAt: snap.CreatedAt,
			Checksum:  snap.Checksum,
			Size:      int64(len(data)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking the archive: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

func (a *FileArchive) Get(ctx context.Context, id string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	suffix := "_" + id + ".json"
	var found *Snapshot
	err := filepath.WalkDir(a.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}
		found, err = decode(data)
		if err != nil {
			return err
		}
		return filepath.SkipAll
	})
	if err != nil {
		return nil, fmt.Errorf("error walking the archive: %w", err)
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return found, nil
}
