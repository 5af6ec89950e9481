// Package safeguard decides whether an automatic commit to a memory
// branch is permitted (spec §4.12).
package safeguard

import "github.com/cue-systems/continuity/internal/config"

// Decision is the safeguard gate's output.
type Decision struct {
	Requested bool
	Allowed   bool
}

// Evaluate computes auto-commit eligibility for the given settings and
// current branch.
func Evaluate(settings config.Settings, currentBranch string) Decision {
	requested := settings.ArtifactPolicy == config.ArtifactPolicyMemoryBranch && settings.AutoCommitToMemory
	allowed := requested && currentBranch == settings.MemoryBranch
	return Decision{Requested: requested, Allowed: allowed}
}

// BlockFingerprint is the event fingerprint used for the devlog artifact
// written when a commit was requested but not allowed (spec §4.12).
func BlockFingerprint(headCommit, currentBranch string) string {
	return headCommit + ":auto-commit-blocked:" + currentBranch
}
