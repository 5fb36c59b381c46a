package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// RetentionCap is the maximum number of records kept in the recent-files
// index. When a save would exceed it, the oldest record is evicted
// silently and its blob destroyed. This is a retention policy, not an
// error.
const RetentionCap = 50

const indexFileName = "recent_files.json"

// Index is the ordered, size-capped registry of FileRecord, persisted as a
// single JSON array in one well-known file. It is deliberately not a
// queryable database: every mutation rewrites the whole list.
//
// The mutex serializes writers within this process. Two processes sharing
// the same data directory race last-writer-wins on the whole list, which is
// accepted for a single-user tool.
type Index struct {
	mu   sync.Mutex
	path string
}

func NewIndex(dir string) *Index {
	return &Index{path: filepath.Join(dir, indexFileName)}
}

// List returns up to limit records, most recent first. Empty state and
// unreadable state both yield an empty slice; corruption must never block
// the caller.
func (ix *Index) List(limit int) []FileRecord {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	records := ix.load()
	if limit < 0 {
		limit = 0
	}
	if limit > len(records) {
		limit = len(records)
	}
	return records[:limit]
}

// InsertFront prepends rec, truncates to RetentionCap and persists the full
// list back. Records that fell off the cap are returned so the caller can
// destroy their blobs. When the persist fails nothing is evicted: the old
// list is still on disk and the blobs must stay with it.
func (ix *Index) InsertFront(rec FileRecord) ([]FileRecord, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	records := append([]FileRecord{rec}, ix.load()...)
	var evicted []FileRecord
	if len(records) > RetentionCap {
		evicted = records[RetentionCap:]
		records = records[:RetentionCap]
	}
	if err := ix.persist(records); err != nil {
		return nil, err
	}
	return evicted, nil
}

// Remove filters the record with the given id out of the list. Removing an
// absent id is a no-op.
func (ix *Index) Remove(id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	records := ix.load()
	kept := records[:0]
	for _, rec := range records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return nil
	}
	return ix.persist(kept)
}

// load reads the persisted list. A missing file is empty state; an
// unparseable file is treated as empty so that corruption never blocks new
// writes or crashes the caller.
func (ix *Index) load() []FileRecord {
	data, err := os.ReadFile(ix.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", ix.path).Msg("cannot read file index, starting empty")
		}
		return nil
	}

	var records []FileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn().Err(err).Str("path", ix.path).Msg("corrupted file index, starting empty")
		return nil
	}
	return records
}

func (ix *Index) persist(records []FileRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode file index: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(ix.path), "index-*")
	if err != nil {
		return fmt.Errorf("persist file index: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("persist file index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persist file index: %w", err)
	}
	if err := os.Rename(tmpPath, ix.path); err != nil {
		return fmt.Errorf("persist file index: %w", err)
	}
	return nil
}
