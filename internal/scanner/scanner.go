// Package scanner walks a filesystem subtree and produces an inventory
// snapshot: bottom-up directory totals, bounded top lists and an extension
// histogram, with platform exclusions applied before descent.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blackwell-systems/diskscope/internal/inventory"
	"github.com/blackwell-systems/diskscope/internal/platform"
)

// ErrRootNotAccessible marks a scan root that does not exist or cannot be
// opened as a directory. It is the only fatal scan error; every deeper
// failure is recorded and skipped.
var ErrRootNotAccessible = errors.New("scan root not accessible")

// DefaultTopK bounds the top-directory and top-file lists when the caller
// does not choose a value.
const DefaultTopK = 10

// Options control a single Scan invocation.
type Options struct {
	// TopK bounds the top-directory and top-file lists. Non-positive
	// values fall back to DefaultTopK.
	TopK int

	// RetainFiles keeps the flat FileRecord list on the snapshot so
	// duplicate detection or export can consume it.
	RetainFiles bool
}

// Progress is a point-in-time view of a running scan.
type Progress struct {
	Dirs  int64
	Files int64
	Bytes int64
}

// Engine scans subtrees using one platform policy. A scan is single
// threaded; only the progress counters may be read concurrently, so a
// display ticker can poll them without joining the walk. Run scans on one
// Engine sequentially.
type Engine struct {
	policy platform.Policy
	log    *zap.Logger

	dirs  atomic.Int64
	files atomic.Int64
	bytes atomic.Int64
}

// New creates an Engine with the given platform policy. A nil logger
// disables logging.
func New(policy platform.Policy, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{policy: policy, log: logger}
}

// Progress returns the live counters of the current scan.
func (e *Engine) Progress() Progress {
	return Progress{
		Dirs:  e.dirs.Load(),
		Files: e.files.Load(),
		Bytes: e.bytes.Load(),
	}
}

// Scan walks root depth-first and returns the completed snapshot. It fails
// only when the root itself cannot be opened as a directory or when ctx is
// canceled; all per-entry failures are counted on the snapshot instead.
func (e *Engine) Scan(ctx context.Context, root string, opts Options) (*inventory.Snapshot, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRootNotAccessible, root, err)
	}
	absRoot = filepath.Clean(absRoot)

	// The root is the one place where a symlink is followed: scanning a
	// linked directory by its link name is legitimate.
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRootNotAccessible, absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s: not a directory", ErrRootNotAccessible, absRoot)
	}

	e.dirs.Store(0)
	e.files.Store(0)
	e.bytes.Store(0)

	st := &scanState{
		topDirs:  newTopK(topK),
		topFiles: newTopK(topK),
		exts:     make(map[string]int64),
		retain:   opts.RetainFiles,
	}

	rootAgg, err := e.walkDir(ctx, absRoot, st, true)
	if err != nil {
		return nil, err
	}

	snap := &inventory.Snapshot{
		ID:             uuid.New().String(),
		Root:           absRoot,
		ScannedAt:      time.Now().UTC(),
		TotalSize:      rootAgg.TotalSize,
		TotalFiles:     st.totalFiles,
		TotalDirs:      st.totalDirs,
		AccessFailures: st.failures,
		TopDirectories: st.topDirs.Entries(),
		TopFiles:       st.topFiles.Entries(),
		Extensions:     st.exts,
	}
	if opts.RetainFiles {
		snap.Files = st.records
	}

	e.log.Debug("scan complete",
		zap.String("root", absRoot),
		zap.Int64("total_size", snap.TotalSize),
		zap.Int64("files", snap.TotalFiles),
		zap.Int64("dirs", snap.TotalDirs),
		zap.Int64("access_failures", snap.AccessFailures))

	return snap, nil
}

// scanState accumulates snapshot-wide results across the recursion.
type scanState struct {
	topDirs    *topK
	topFiles   *topK
	exts       map[string]int64
	records    []inventory.FileRecord
	retain     bool
	totalFiles int64
	totalDirs  int64
	failures   int64
}

// walkDir processes one directory and returns its finalized aggregate. The
// aggregate is only complete after every child directory has returned, so
// totals propagate bottom-up. Only context cancellation and (for the root)
// an unopenable directory abort the walk.
func (e *Engine) walkDir(ctx context.Context, path string, st *scanState, isRoot bool) (*inventory.DirectoryAggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agg := &inventory.DirectoryAggregate{Path: path}

	entries, err := os.ReadDir(path)
	if err != nil {
		if isRoot {
			return nil, fmt.Errorf("%w: %s: %v", ErrRootNotAccessible, path, err)
		}
		// Partially scanned: the directory is counted but contributes no
		// sizes, and the failure is visible on its aggregate.
		e.log.Debug("failed to list directory", zap.String("path", path), zap.Error(err))
		agg.AccessFailures = 1
		st.failures++
		e.finalizeDir(agg, st)
		return agg, nil
	}

	for _, entry := range entries {
		child := filepath.Join(path, entry.Name())

		if entry.IsDir() {
			if e.policy.ShouldSkip(child) {
				e.log.Debug("pruned directory", zap.String("path", child))
				continue
			}
			childAgg, err := e.walkDir(ctx, child, st, false)
			if err != nil {
				return nil, err
			}
			agg.TotalSize += childAgg.TotalSize
			agg.TotalFileCount += childAgg.TotalFileCount
			continue
		}

		// Symlinks carry the directory bit only through their target, so
		// they land here and are recorded without being traversed.
		if e.policy.ShouldSkip(child) {
			e.log.Debug("skipped entry", zap.String("path", child))
			continue
		}

		rec, ok := e.policy.Stat(child)
		if !ok {
			e.log.Debug("stat failed", zap.String("path", child))
			agg.AccessFailures++
			st.failures++
			continue
		}

		agg.TotalSize += rec.Size
		agg.DirectFileCount++
		agg.TotalFileCount++

		st.totalFiles++
		st.exts[inventory.NormalizeExtension(rec.Path)] += rec.Size
		st.topFiles.Add(rec.Path, rec.Size)
		if st.retain {
			st.records = append(st.records, rec)
		}

		e.files.Add(1)
		e.bytes.Add(rec.Size)
	}

	e.finalizeDir(agg, st)
	return agg, nil
}

// finalizeDir records a completed aggregate in the snapshot-wide state.
func (e *Engine) finalizeDir(agg *inventory.DirectoryAggregate, st *scanState) {
	st.topDirs.Add(agg.Path, agg.TotalSize)
	st.totalDirs++
	e.dirs.Add(1)
}
