// Package archive keeps point-in-time snapshots of the published article list.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bilgisen/schoolpress/internal/models"
	"github.com/bilgisen/schoolpress/internal/utils"
	"github.com/google/uuid"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is a frozen copy of the article list.
type Snapshot struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Checksum  string           `json:"checksum"`
	Articles  []models.Article `json:"articles"`
}

// SnapshotInfo describes a stored snapshot without its articles.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Checksum  string    `json:"checksum,omitempty"`
	Size      int64     `json:"size"`
}

// Archive stores snapshots.
type Archive interface {
	Save(ctx context.Context, snap *Snapshot) (SnapshotInfo, error)
	// List returns snapshots newest first.
	List(ctx context.Context) ([]SnapshotInfo, error)
	Get(ctx context.Context, id string) (*Snapshot, error)
}

// NewSnapshot freezes articles into a snapshot stamped with now.
func NewSnapshot(articles []models.Article, now time.Time) (*Snapshot, error) {
	data, err := json.Marshal(articles)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal articles: %w", err)
	}
	return &Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
		Checksum:  utils.HashBytes(data),
		Articles:  articles,
	}, nil
}

// objectName places a snapshot under its creation date: YYYY/MM/DD/<unix>_<id>.json.
func objectName(snap *Snapshot) string {
	return fmt.Sprintf("%s/%d_%s.json", snap.CreatedAt.Format("2006/01/02"), snap.CreatedAt.Unix(), snap.ID)
}

func encode(snap *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
