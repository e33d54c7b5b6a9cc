package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/diskscope/internal/inventory"
)

// ErrSnapshotNotFound is returned when no cached snapshot exists for a root.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot cache operations

// PutSnapshot inserts or replaces the cached snapshot for its root.
// The per-file listing is only persisted when keepFiles is set; everything
// else in the snapshot is always stored.
func (s *Store) PutSnapshot(snap *inventory.Snapshot, keepFiles bool) error {
	topDirsJSON, err := json.Marshal(snap.TopDirectories)
	if err != nil {
		return fmt.Errorf("failed to marshal top directories: %w", err)
	}

	topFilesJSON, err := json.Marshal(snap.TopFiles)
	if err != nil {
		return fmt.Errorf("failed to marshal top files: %w", err)
	}

	extensionsJSON, err := json.Marshal(snap.Extensions)
	if err != nil {
		return fmt.Errorf("failed to marshal extensions: %w", err)
	}

	var files interface{}
	if keepFiles && snap.Files != nil {
		filesJSON, err := json.Marshal(snap.Files)
		if err != nil {
			return fmt.Errorf("failed to marshal file records: %w", err)
		}
		files = string(filesJSON)
	}

	query := `
		INSERT OR REPLACE INTO snapshots
		(root, id, scanned_at, cached_at, total_size, total_files, total_dirs, access_failures, top_directories, top_files, extensions, files)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		snap.Root,
		snap.ID,
		snap.ScannedAt.Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		snap.TotalSize,
		snap.TotalFiles,
		snap.TotalDirs,
		snap.AccessFailures,
		string(topDirsJSON),
		string(topFilesJSON),
		string(extensionsJSON),
		files,
	)

	if err != nil {
		return fmt.Errorf("failed to store snapshot for %s: %w", snap.Root, err)
	}

	return nil
}

// GetSnapshot retrieves the cached snapshot for a canonical root.
func (s *Store) GetSnapshot(root string) (*inventory.Snapshot, error) {
	query := `
		SELECT root, id, scanned_at, total_size, total_files, total_dirs, access_failures, top_directories, top_files, extensions, files
		FROM snapshots
		WHERE root = ?
	`

	var snap inventory.Snapshot
	var scannedAt string
	var topDirsJSON string
	var topFilesJSON string
	var extensionsJSON string
	var filesJSON sql.NullString

	err := s.db.QueryRow(query, root).Scan(
		&snap.Root,
		&snap.ID,
		&scannedAt,
		&snap.TotalSize,
		&snap.TotalFiles,
		&snap.TotalDirs,
		&snap.AccessFailures,
		&topDirsJSON,
		&topFilesJSON,
		&extensionsJSON,
		&filesJSON,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot for %s: %w", root, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot for %s: %w", root, err)
	}

	// Parse scanned_at timestamp
	snap.ScannedAt, err = time.Parse(time.RFC3339, scannedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scanned_at for %s: %w", root, err)
	}

	if err := json.Unmarshal([]byte(topDirsJSON), &snap.TopDirectories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal top directories for %s: %w", root, err)
	}
	if err := json.Unmarshal([]byte(topFilesJSON), &snap.TopFiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal top files for %s: %w", root, err)
	}
	if err := json.Unmarshal([]byte(extensionsJSON), &snap.Extensions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extensions for %s: %w", root, err)
	}

	if filesJSON.Valid {
		if err := json.Unmarshal([]byte(filesJSON.String), &snap.Files); err != nil {
			return nil, fmt.Errorf("failed to unmarshal file records for %s: %w", root, err)
		}
	}

	return &snap, nil
}

// ListSnapshots returns summaries of every cached snapshot ordered by root.
func (s *Store) ListSnapshots() ([]*CacheEntry, error) {
	query := `
		SELECT root, id, scanned_at, cached_at, total_size, total_files, total_dirs, access_failures, files IS NOT NULL
		FROM snapshots
		ORDER BY root
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var entries []*CacheEntry
	for rows.Next() {
		var entry CacheEntry
		var scannedAt string
		var cachedAt string

		err := rows.Scan(
			&entry.Root,
			&entry.SnapshotID,
			&scannedAt,
			&cachedAt,
			&entry.TotalSize,
			&entry.TotalFiles,
			&entry.TotalDirs,
			&entry.AccessFailures,
			&entry.HasFiles,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		// Parse timestamps
		entry.ScannedAt, err = time.Parse(time.RFC3339, scannedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse scanned_at for %s: %w", entry.Root, err)
		}
		entry.CachedAt, err = time.Parse(time.RFC3339, cachedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cached_at for %s: %w", entry.Root, err)
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return entries, nil
}

// DeleteSnapshot removes the cached snapshot for a root.
func (s *Store) DeleteSnapshot(root string) error {
	query := `DELETE FROM snapshots WHERE root = ?`
	result, err := s.db.Exec(query, root)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot for %s: %w", root, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("snapshot for %s: %w", root, ErrSnapshotNotFound)
	}

	return nil
}

// DeleteAllSnapshots removes every cached snapshot and reports how many rows
// were dropped.
func (s *Store) DeleteAllSnapshots() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM snapshots`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear snapshots: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
