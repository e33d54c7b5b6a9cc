package app

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/blackwell-systems/diskscope/internal/cache"
	"github.com/blackwell-systems/diskscope/internal/config"
	"github.com/blackwell-systems/diskscope/internal/inventory"
	"github.com/blackwell-systems/diskscope/internal/output"
	"github.com/blackwell-systems/diskscope/internal/platform"
	"github.com/blackwell-systems/diskscope/internal/scanner"
	"github.com/blackwell-systems/diskscope/internal/store"
)

// newLogger builds the command logger. Verbose mode uses the development
// console encoder at debug level; otherwise only errors reach stderr, as
// JSON, so reports on stdout stay clean.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.ErrorLevel),
		Encoding:         "json",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}
	return cfg.Build()
}

// openStore opens the snapshot database and ensures its schema exists.
func openStore(cfg *config.Config) (*store.Store, error) {
	path, err := getDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get database path: %w", err)
	}

	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.CreateSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}

	return db, nil
}

// rootArg returns the positional scan root, defaulting to the current
// directory.
func rootArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// obtainSnapshot returns a snapshot for root, serving from the cache when
// allowed and walking the tree under the given policy otherwise. A cached
// snapshot only counts when it carries the per-file listing the caller asked
// for. Fresh scans are written back to the cache best effort. The second
// return reports whether the snapshot came from the cache.
func obtainSnapshot(ctx context.Context, c *cache.Cache, log *zap.Logger, policy platform.Policy, root string, opts scanner.Options, useCache, showProgress bool) (*inventory.Snapshot, bool, error) {
	if useCache {
		if snap, ok := c.Load(root); ok {
			if !opts.RetainFiles || snap.HasFileList() {
				return snap, true, nil
			}
		}
	}

	engine := scanner.New(policy, log)

	var meter *output.Meter
	if showProgress {
		meter = output.NewMeter(fmt.Sprintf("Scanning %s", root), func() string {
			p := engine.Progress()
			return fmt.Sprintf("%s dirs, %s files, %s",
				humanize.Comma(p.Dirs), humanize.Comma(p.Files), humanize.IBytes(uint64(p.Bytes)))
		})
		meter.Start()
	}

	snap, err := engine.Scan(ctx, root, opts)
	if meter != nil {
		if err != nil {
			meter.Stop()
		} else {
			p := engine.Progress()
			meter.StopWithMessage(fmt.Sprintf("✓ Scanned %s dirs, %s files (%s)",
				humanize.Comma(p.Dirs), humanize.Comma(p.Files), humanize.IBytes(uint64(p.Bytes))))
		}
	}
	if err != nil {
		return nil, false, err
	}

	if err := c.Store(snap, opts.RetainFiles); err != nil {
		// The scan itself succeeded; a failed cache write only costs the
		// next lookup.
		log.Warn("failed to cache snapshot", zap.String("root", snap.Root), zap.Error(err))
	}

	return snap, false, nil
}
