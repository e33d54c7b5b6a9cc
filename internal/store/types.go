package store

import "time"

// CacheEntry summarizes one cached snapshot row without its payload.
type CacheEntry struct {
	Root           string
	SnapshotID     string
	ScannedAt      time.Time
	CachedAt       time.Time
	TotalSize      int64
	TotalFiles     int64
	TotalDirs      int64
	AccessFailures int64
	HasFiles       bool
}
