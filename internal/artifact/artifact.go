// Package artifact renders and writes the three memory artifact kinds
// (devlog, ADR, rejected-approach) with YAML front matter over a
// markdown body, de-duplicated by event fingerprint (spec §4.11).
package artifact

import (
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cue-systems/continuity/internal/hashutil"
	"github.com/cue-systems/continuity/internal/store"
)

const recentLookbackLimit = 12

// FrontMatter is marshaled as the YAML header of an artifact's content.
type FrontMatter struct {
	Type             string `yaml:"type"`
	SubSessionID     string `yaml:"sub_session_id"`
	EventFingerprint string `yaml:"event_fingerprint"`
	CreatedBy        string `yaml:"created_by"`
}

// Render composes an artifact's stored content: YAML front matter
// followed by the markdown body, in the shape the retrieval pack's
// note-taking examples use for memory documents.
func Render(fm FrontMatter, body string) (string, error) {
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String(), nil
}

// WriteIfNew implements spec §4.11: no-op if an artifact already
// exists for (sub_session_id, type, event_fingerprint) among the most
// recent recentLookbackLimit artifacts of that (sub_session_id, type);
// otherwise inserts a new draft.
func WriteIfNew(st *store.Store, subSessionID string, artifactType store.ArtifactType, eventFingerprint, content string, now time.Time) error {
	recent, err := st.RecentArtifacts(subSessionID, artifactType, recentLookbackLimit)
	if err != nil {
		return err
	}
	for _, a := range recent {
		if a.Provenance.EventFingerprint == eventFingerprint {
			return nil
		}
	}

	a := store.Artifact{
		ID:           store.NewArtifactID(),
		SubSessionID: subSessionID,
		Type:         artifactType,
		Content:      content,
		Provenance: store.Provenance{
			EventFingerprint: eventFingerprint,
			CreatedBy:        "continuity",
		},
	}
	return st.InsertArtifact(a, now)
}

// ClampPrompt and ClampResponse apply the byte caps spec §4.13 names for
// devlog content (prompt ≤ 900 bytes, assistant summary ≤ 1,500 bytes).
func ClampPrompt(s string) string   { return hashutil.ClampBytes(s, 900) }
func ClampResponse(s string) string { return hashutil.ClampBytes(s, 1500) }

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// DevlogInput is the content spec §4.13 step 5 requires for the devlog
// artifact body.
type DevlogInput struct {
	Provider            string
	Mode                string
	HeadCommit          string
	ChangedFiles        []string
	DiffLines           int
	Reasons             []string
	ArtifactPolicy       string
	MemoryBranch         string
	AutoCommitEligible   bool
	Prompt               string
	AssistantSummary     string
}

// DevlogBody renders the devlog artifact body (spec §4.13 step 5).
func DevlogBody(in DevlogInput) string {
	var b strings.Builder
	b.WriteString("provider: " + in.Provider + "\n")
	b.WriteString("mode: " + in.Mode + "\n")
	b.WriteString("commit: " + in.HeadCommit + "\n")
	b.WriteString("changed_files: " + strings.Join(firstN(in.ChangedFiles, 24), ", ") + "\n")
	b.WriteString("diff_lines: " + strconv.Itoa(in.DiffLines) + "\n")
	b.WriteString("reasons: " + strings.Join(in.Reasons, ", ") + "\n")
	b.WriteString("artifact_policy: " + in.ArtifactPolicy + "\n")
	b.WriteString("memory_branch: " + in.MemoryBranch + "\n")
	b.WriteString("auto_commit_eligible: " + boolStr(in.AutoCommitEligible) + "\n\n")
	b.WriteString("prompt: " + ClampPrompt(in.Prompt) + "\n\n")
	b.WriteString("assistant_summary: " + ClampResponse(in.AssistantSummary))
	return b.String()
}

// ADRBody renders the ADR artifact body (spec §4.13 step 5): boundary
// files (first 12) plus placeholders for a downstream reviewer to fill
// in the decision and its consequences.
func ADRBody(boundaryFiles []string) string {
	var b strings.Builder
	b.WriteString("boundary_files: " + strings.Join(firstN(boundaryFiles, 12), ", ") + "\n\n")
	b.WriteString("decision: TODO\n")
	b.WriteString("consequences: TODO")
	return b.String()
}

// RejectedApproachBody renders the rejected-approach artifact body.
func RejectedApproachBody(reason, prompt, response string) string {
	var b strings.Builder
	b.WriteString("reason: " + reason + "\n\n")
	b.WriteString("prompt: " + ClampPrompt(prompt) + "\n\n")
	b.WriteString("response: " + ClampResponse(response))
	return b.String()
}

// GovernorActionBody renders the additional devlog artifact recording
// a non-ok governor action (spec §4.13 step 7).
func GovernorActionBody(action string, reasons []string) string {
	return "governor_action: " + action + "\nreasons: " + strings.Join(reasons, ", ")
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
