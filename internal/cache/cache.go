// Package cache maps canonical scan roots to previously computed snapshots.
//
// Snapshots are persisted in the SQLite store and fronted by a small
// in-process LRU so repeated lookups within one invocation stay cheap. A
// cached snapshot is returned as-is: nothing here re-checks the filesystem,
// so a hit may describe state that has since changed. Refreshing is always
// an explicit caller decision.
package cache

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/blackwell-systems/diskscope/internal/inventory"
	"github.com/blackwell-systems/diskscope/internal/store"
)

// cacheSlots bounds the in-process LRU front.
const cacheSlots = 32

// CanonicalRoot resolves a path to the form used as a cache key: absolute,
// lexically cleaned, and case-folded on Windows. Two spellings of the same
// root always map to the same key. The path is not required to exist.
func CanonicalRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	abs = filepath.Clean(abs)
	if runtime.GOOS == "windows" {
		abs = strings.ToLower(abs)
	}
	return abs, nil
}

// Cache provides snapshot lookup and storage keyed by canonical root.
type Cache struct {
	store *store.Store
	mem   *lru.Cache[string, *inventory.Snapshot]
	log   *zap.Logger
}

// New creates a Cache backed by the given store.
func New(st *store.Store, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mem, err := lru.New[string, *inventory.Snapshot](cacheSlots)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache front: %w", err)
	}
	return &Cache{store: st, mem: mem, log: logger}, nil
}

// Load returns the cached snapshot for a path, if one exists. Any failure to
// produce a usable snapshot, including a corrupt row, reads as a miss rather
// than an error so callers can always fall back to a fresh scan.
func (c *Cache) Load(path string) (*inventory.Snapshot, bool) {
	root, err := CanonicalRoot(path)
	if err != nil {
		c.log.Debug("cache lookup skipped", zap.String("path", path), zap.Error(err))
		return nil, false
	}

	if snap, ok := c.mem.Get(root); ok {
		return snap, true
	}

	snap, err := c.store.GetSnapshot(root)
	if err != nil {
		if !errors.Is(err, store.ErrSnapshotNotFound) {
			c.log.Debug("discarding unreadable cache row", zap.String("root", root), zap.Error(err))
		}
		return nil, false
	}

	c.mem.Add(root, snap)
	return snap, true
}

// Store persists a snapshot under its canonical root. The per-file listing
// is only written through when keepFiles is set.
func (c *Cache) Store(snap *inventory.Snapshot, keepFiles bool) error {
	root, err := CanonicalRoot(snap.Root)
	if err != nil {
		return err
	}
	snap.Root = root

	if err := c.store.PutSnapshot(snap, keepFiles); err != nil {
		return err
	}

	c.mem.Add(root, snap)
	return nil
}

// Invalidate drops the cached snapshot for a path. Returns
// store.ErrSnapshotNotFound when nothing was cached for it.
func (c *Cache) Invalidate(path string) error {
	root, err := CanonicalRoot(path)
	if err != nil {
		return err
	}
	c.mem.Remove(root)
	return c.store.DeleteSnapshot(root)
}

// Clear drops every cached snapshot and reports how many were removed.
func (c *Cache) Clear() (int64, error) {
	c.mem.Purge()
	return c.store.DeleteAllSnapshots()
}

// Entries lists summaries of all cached snapshots.
func (c *Cache) Entries() ([]*store.CacheEntry, error) {
	return c.store.ListSnapshots()
}
