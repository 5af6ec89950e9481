package store

import (
	"database/sql"
	"errors"
	"time"
)

// SessionState is a row of session_state (spec §3). LastSnapshotAt is
// the zero Time when there has been no prior snapshot.
type SessionState struct {
	SubSessionID         string
	LastChangedFilesHash string
	TurnsSinceSnapshot   int
	TotalInjectedBytes   int
	LastSnapshotAt       time.Time
	UpdatedAt            time.Time
}

func (s *Store) GetSessionState(subSessionID string) (SessionState, bool, error) {
	row := s.db.QueryRow(`
		SELECT sub_session_id, last_changed_files_hash, turns_since_snapshot, total_injected_bytes, last_snapshot_at, updated_at
		FROM session_state
		WHERE sub_session_id = ?
	`, subSessionID)

	var st SessionState
	var lastSnapshotAt sql.NullString
	var updatedAt string
	if err := row.Scan(&st.SubSessionID, &st.LastChangedFilesHash, &st.TurnsSinceSnapshot,
		&st.TotalInjectedBytes, &lastSnapshotAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionState{}, false, nil
		}
		return SessionState{}, false, err
	}
	if lastSnapshotAt.Valid && lastSnapshotAt.String != "" {
		st.LastSnapshotAt = parseTime(lastSnapshotAt.String)
	}
	st.UpdatedAt = parseTime(updatedAt)
	return st, true, nil
}

// UpsertSessionState writes the single commit point for a sub-session's
// counters (spec §5: "the state update at the end of each public method
// is the single commit point").
func (s *Store) UpsertSessionState(st SessionState, now time.Time) error {
	var lastSnapshotAt sql.NullString
	if !st.LastSnapshotAt.IsZero() {
		lastSnapshotAt = sql.NullString{String: formatTime(st.LastSnapshotAt), Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO session_state (sub_session_id, last_changed_files_hash, turns_since_snapshot, total_injected_bytes, last_snapshot_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(sub_session_id) DO UPDATE SET
			last_changed_files_hash = excluded.last_changed_files_hash,
			turns_since_snapshot = excluded.turns_since_snapshot,
			total_injected_bytes = excluded.total_injected_bytes,
			last_snapshot_at = excluded.last_snapshot_at,
			updated_at = excluded.updated_at
	`, st.SubSessionID, st.LastChangedFilesHash, st.TurnsSinceSnapshot, st.TotalInjectedBytes,
		lastSnapshotAt, formatTime(now))
	return err
}
