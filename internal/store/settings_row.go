package store

import (
	"database/sql"
	"errors"
	"time"
)

const settingsSingletonID = "singleton"

// SettingsRow is the settings table singleton (spec §3 Settings, §6).
type SettingsRow struct {
	ArtifactPolicy     string
	AutoCommitToMemory bool
	TokenMode          string
	MemoryBranch       string
	UpdatedAt          time.Time
}

// GetSettings reads the singleton row. ok is false if it has never
// been written. The engine does not read this row (it runs on the
// config.Settings it is constructed with); the doctor check reads it
// to report settings_exists.
func (s *Store) GetSettings() (SettingsRow, bool, error) {
	row := s.db.QueryRow(`
		SELECT artifact_policy, auto_commit_to_memory_branch, token_mode, memory_branch, updated_at
		FROM settings
		WHERE id = ?
	`, settingsSingletonID)

	var out SettingsRow
	var autoCommit int
	var updatedAt string
	if err := row.Scan(&out.ArtifactPolicy, &autoCommit, &out.TokenMode, &out.MemoryBranch, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SettingsRow{}, false, nil
		}
		return SettingsRow{}, false, err
	}
	out.AutoCommitToMemory = autoCommit != 0
	out.UpdatedAt = parseTime(updatedAt)
	return out, true, nil
}

// UpsertSettings writes the singleton row.
func (s *Store) UpsertSettings(row SettingsRow, now time.Time) error {
	autoCommit := 0
	if row.AutoCommitToMemory {
		autoCommit = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO settings (id, artifact_policy, auto_commit_to_memory_branch, token_mode, memory_branch, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			artifact_policy = excluded.artifact_policy,
			auto_commit_to_memory_branch = excluded.auto_commit_to_memory_branch,
			token_mode = excluded.token_mode,
			memory_branch = excluded.memory_branch,
			updated_at = excluded.updated_at
	`, settingsSingletonID, row.ArtifactPolicy, autoCommit, row.TokenMode, row.MemoryBranch, formatTime(now))
	return err
}
