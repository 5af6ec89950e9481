package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ArtifactType enumerates the three kinds the Event Detector (spec
// §4.9) can fire.
type ArtifactType string

const (
	ArtifactTypeDevlog            ArtifactType = "devlog"
	ArtifactTypeADR               ArtifactType = "adr"
	ArtifactTypeRejectedApproach  ArtifactType = "rejected-approach"
)

// ArtifactStatus is the review lifecycle field (spec §3); only "draft"
// is ever written by this engine — a downstream reviewer owns the rest.
type ArtifactStatus string

const (
	ArtifactStatusDraft    ArtifactStatus = "draft"
	ArtifactStatusAccepted ArtifactStatus = "accepted"
	ArtifactStatusRejected ArtifactStatus = "rejected"
)

// Provenance records why an artifact exists (spec §3 Artifact.provenance).
type Provenance struct {
	EventFingerprint string `json:"event_fingerprint"`
	CreatedBy        string `json:"created_by"`
}

// Artifact is a row of the artifact table (spec §3, §6).
type Artifact struct {
	ID           string
	SubSessionID string
	Type         ArtifactType
	Content      string
	Status       ArtifactStatus
	Provenance   Provenance
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewArtifactID generates a fresh artifact id. Artifact is the one
// entity in this store whose identity is not content-addressed, so it
// gets a real id generator rather than a hash — google/uuid, already
// present transitively via the MCP stack, promoted to direct use.
func NewArtifactID() string {
	return uuid.NewString()
}

// RecentArtifacts returns up to limit artifacts for (subSessionID, type)
// ordered by creation descending, the lookup write_if_new (spec §4.11)
// uses for its dedup check.
func (s *Store) RecentArtifacts(subSessionID string, artifactType ArtifactType, limit int) ([]Artifact, error) {
	rows, err := s.db.Query(`
		SELECT id, sub_session_id, type, content, status, provenance_json, created_at, updated_at
		FROM artifact
		WHERE sub_session_id = ? AND type = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, subSessionID, string(artifactType), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		var typeStr, statusStr, provenanceJSON, createdAt, updatedAt string
		if err := rows.Scan(&a.ID, &a.SubSessionID, &typeStr, &a.Content, &statusStr,
			&provenanceJSON, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		a.Type = ArtifactType(typeStr)
		a.Status = ArtifactStatus(statusStr)
		_ = json.Unmarshal([]byte(provenanceJSON), &a.Provenance)
		a.CreatedAt = parseTime(createdAt)
		a.UpdatedAt = parseTime(updatedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertArtifact appends a new draft artifact (spec §3: "Artifacts are
// append-only drafts").
func (s *Store) InsertArtifact(a Artifact, now time.Time) error {
	provenanceJSON, err := json.Marshal(a.Provenance)
	if err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = ArtifactStatusDraft
	}
	_, err = s.db.Exec(`
		INSERT INTO artifact (id, sub_session_id, type, content, status, provenance_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.SubSessionID, string(a.Type), a.Content, string(a.Status), string(provenanceJSON),
		formatTime(now), formatTime(now))
	return err
}
