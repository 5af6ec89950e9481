package store

import (
	"database/sql"
	"errors"
	"time"
)

// FileSummaryEntry is a row of file_summary_cache (spec §3). A summary
// is valid so long as ContentHash matches the file's current content
// hash — the caller, not this package, enforces that invariant on read.
type FileSummaryEntry struct {
	Key         string
	RepoRoot    string
	FilePath    string
	ContentHash string
	Summary     string
	UpdatedAt   time.Time
}

func (s *Store) GetFileSummary(key string) (FileSummaryEntry, bool, error) {
	row := s.db.QueryRow(`
		SELECT key, repo_root, file_path, content_hash, summary, updated_at
		FROM file_summary_cache
		WHERE key = ?
	`, key)

	var e FileSummaryEntry
	var updatedAt string
	if err := row.Scan(&e.Key, &e.RepoRoot, &e.FilePath, &e.ContentHash, &e.Summary, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FileSummaryEntry{}, false, nil
		}
		return FileSummaryEntry{}, false, err
	}
	e.UpdatedAt = parseTime(updatedAt)
	return e, true, nil
}

func (s *Store) UpsertFileSummary(e FileSummaryEntry, now time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO file_summary_cache (key, repo_root, file_path, content_hash, summary, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			repo_root = excluded.repo_root,
			file_path = excluded.file_path,
			content_hash = excluded.content_hash,
			summary = excluded.summary,
			updated_at = excluded.updated_at
	`, e.Key, e.RepoRoot, e.FilePath, e.ContentHash, e.Summary, formatTime(now))
	return err
}
