package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SearchCacheEntry is a row of search_cache (spec §3). TTL enforcement
// (60s) is the caller's responsibility, checked against UpdatedAt.
type SearchCacheEntry struct {
	Key         string
	RepoRoot    string
	Query       string
	CommitHash  string
	Scope       string
	ResultFiles []string
	UpdatedAt   time.Time
}

type searchResultJSON struct {
	Files []string `json:"files"`
}

func (s *Store) GetSearchCache(key string) (SearchCacheEntry, bool, error) {
	row := s.db.QueryRow(`
		SELECT key, repo_root, query, commit_hash, scope, result_json, updated_at
		FROM search_cache
		WHERE key = ?
	`, key)

	var e SearchCacheEntry
	var resultJSON, updatedAt string
	if err := row.Scan(&e.Key, &e.RepoRoot, &e.Query, &e.CommitHash, &e.Scope, &resultJSON, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SearchCacheEntry{}, false, nil
		}
		return SearchCacheEntry{}, false, err
	}
	var parsed searchResultJSON
	if err := json.Unmarshal([]byte(resultJSON), &parsed); err == nil {
		e.ResultFiles = parsed.Files
	}
	e.UpdatedAt = parseTime(updatedAt)
	return e, true, nil
}

func (s *Store) UpsertSearchCache(e SearchCacheEntry, now time.Time) error {
	payload, err := json.Marshal(searchResultJSON{Files: e.ResultFiles})
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO search_cache (key, repo_root, query, commit_hash, scope, result_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			repo_root = excluded.repo_root,
			query = excluded.query,
			commit_hash = excluded.commit_hash,
			scope = excluded.scope,
			result_json = excluded.result_json,
			updated_at = excluded.updated_at
	`, e.Key, e.RepoRoot, e.Query, e.CommitHash, e.Scope, string(payload), formatTime(now))
	return err
}
