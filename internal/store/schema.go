package store

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    root TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    scanned_at TIMESTAMP NOT NULL,
    cached_at TIMESTAMP NOT NULL,
    total_size INTEGER NOT NULL,
    total_files INTEGER NOT NULL,
    total_dirs INTEGER NOT NULL,
    access_failures INTEGER NOT NULL,
    top_directories TEXT NOT NULL,
    top_files TEXT NOT NULL,
    extensions TEXT NOT NULL,
    files TEXT
);

CREATE INDEX IF NOT EXISTS idx_snapshots_cached_at ON snapshots(cached_at);
`
