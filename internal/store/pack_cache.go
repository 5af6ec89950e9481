package store

import (
	"database/sql"
	"errors"
	"time"
)

// PackCacheEntry is a row of pack_cache (spec §3, §6).
type PackCacheEntry struct {
	Key              string
	TaskFingerprint  string
	ChangedFilesHash string
	HeadCommit       string
	Provider         string
	Mode             string
	BudgetBytes      int
	Pack             string
	UpdatedAt        time.Time
}

// GetPackCache looks up a pack_cache row by key. ok is false on miss.
func (s *Store) GetPackCache(key string) (PackCacheEntry, bool, error) {
	row := s.db.QueryRow(`
		SELECT key, task_fingerprint, changed_files_hash, head_commit, provider, mode, budget_bytes, pack, updated_at
		FROM pack_cache
		WHERE key = ?
	`, key)

	var e PackCacheEntry
	var updatedAt string
	if err := row.Scan(&e.Key, &e.TaskFingerprint, &e.ChangedFilesHash, &e.HeadCommit,
		&e.Provider, &e.Mode, &e.BudgetBytes, &e.Pack, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PackCacheEntry{}, false, nil
		}
		return PackCacheEntry{}, false, err
	}
	e.UpdatedAt = parseTime(updatedAt)
	return e, true, nil
}

// UpsertPackCache inserts or replaces a pack_cache row; idempotent by
// key (spec §5 "all cache upserts are idempotent").
func (s *Store) UpsertPackCache(e PackCacheEntry, now time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO pack_cache (key, task_fingerprint, changed_files_hash, head_commit, provider, mode, budget_bytes, pack, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			task_fingerprint = excluded.task_fingerprint,
			changed_files_hash = excluded.changed_files_hash,
			head_commit = excluded.head_commit,
			provider = excluded.provider,
			mode = excluded.mode,
			budget_bytes = excluded.budget_bytes,
			pack = excluded.pack,
			updated_at = excluded.updated_at
	`, e.Key, e.TaskFingerprint, e.ChangedFilesHash, e.HeadCommit, e.Provider, e.Mode,
		e.BudgetBytes, e.Pack, formatTime(now))
	return err
}

// PrunePackCacheOlderThan deletes pack_cache rows whose updated_at
// precedes cutoff — the bounded retention policy SPEC_FULL.md adds for
// spec.md's open "unbounded pack-cache retention" question.
func (s *Store) PrunePackCacheOlderThan(cutoff time.Time) error {
	_, err := s.db.Exec(`DELETE FROM pack_cache WHERE updated_at < ?`, formatTime(cutoff))
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
