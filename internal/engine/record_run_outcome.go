package engine

import (
	"sort"
	"time"

	"github.com/cue-systems/continuity/internal/artifact"
	"github.com/cue-systems/continuity/internal/config"
	"github.com/cue-systems/continuity/internal/eventdetect"
	"github.com/cue-systems/continuity/internal/governor"
	"github.com/cue-systems/continuity/internal/rehydrate"
	"github.com/cue-systems/continuity/internal/repoprobe"
	"github.com/cue-systems/continuity/internal/safeguard"
	"github.com/cue-systems/continuity/internal/store"
	"github.com/cue-systems/continuity/internal/telemetry"
)

// RecordRunOutcomeInput is spec §4.13's record_run_outcome signature.
type RecordRunOutcomeInput struct {
	SubSessionID      string
	Cwd               string
	ProjectPath       string
	Provider          Provider
	Mode              SessionMode
	Prompt            string
	AssistantResponse string
	InjectedBytes     int
	WasError          bool
}

// RecordRunOutcomeOutput is spec §4.13's return value.
type RecordRunOutcomeOutput struct {
	Action  governor.Action
	Reasons []string
}

func (in RecordRunOutcomeInput) repoRoot() string {
	if in.ProjectPath != "" {
		return in.ProjectPath
	}
	return in.Cwd
}

// RecordRunOutcome runs spec §4.13's ten-step post-run sequence. It
// never returns an error.
func (e *Engine) RecordRunOutcome(in RecordRunOutcomeInput) RecordRunOutcomeOutput {
	lock := e.lockFor(in.SubSessionID)
	lock.Lock()
	defer lock.Unlock()

	if e.settings.ContinuityMode == config.ModeOff {
		return RecordRunOutcomeOutput{Action: governor.ActionOK}
	}

	now := e.now()

	// Step 2: probe repo, compute diff stats, read prior SessionState,
	// compute next counters.
	repoRoot := in.repoRoot()
	state := repoprobe.Probe(repoRoot)
	changedFilesHash := state.ChangedFilesHash()

	prev, hasPrior, _ := e.store.GetSessionState(in.SubSessionID)
	nextTurns := prev.TurnsSinceSnapshot + 1
	injected := in.InjectedBytes
	if injected < 0 {
		injected = 0
	}
	nextBytes := prev.TotalInjectedBytes + injected

	elapsed := governor.InfiniteElapsed
	if hasPrior && !prev.LastSnapshotAt.IsZero() {
		elapsed = now.Sub(prev.LastSnapshotAt)
	}

	// Step 3: safeguard eligibility, active mode only.
	var safeguardDecision safeguard.Decision
	if e.settings.ContinuityMode == config.ModeActive {
		safeguardDecision = safeguard.Evaluate(e.settings, state.Branch)
	}

	// Step 4: governor decision + capability gating.
	rawAction, rawReasons := governor.Decide(governor.Inputs{
		TurnsSinceSnapshot:   nextTurns,
		TotalInjectedBytes:   nextBytes,
		ChangedFilesCount:    len(state.Changed),
		DiffLines:            state.DiffLines,
		ElapsedSinceSnapshot: elapsed,
	})
	effectiveAction, reasons := governor.Gate(rawAction, rawReasons, governor.Capabilities{
		SnapshotEnabled:  e.settings.SnapshotEnabled,
		RehydrateEnabled: e.settings.RehydrateEnabled,
	})

	// Step 5: event detector + conditional artifact writes, active mode only.
	detection := eventdetect.Detect(state.HeadCommit, changedFilesHash, state.Changed, state.DiffLines, in.AssistantResponse, in.WasError)
	if e.settings.ContinuityMode == config.ModeActive {
		e.writeDetectedArtifacts(in, state, detection, safeguardDecision, now)
	}

	// Step 6: persist SessionState.
	next := store.SessionState{
		SubSessionID:         in.SubSessionID,
		LastChangedFilesHash: changedFilesHash,
	}
	if effectiveAction == governor.ActionOK {
		next.TurnsSinceSnapshot = nextTurns
		next.TotalInjectedBytes = nextBytes
		next.LastSnapshotAt = prev.LastSnapshotAt
	} else {
		next.TurnsSinceSnapshot = 0
		next.TotalInjectedBytes = 0
		next.LastSnapshotAt = now
	}
	_ = e.store.UpsertSessionState(next, now)

	// Step 7: additional governor-action devlog on non-ok action, active mode only.
	if e.settings.ContinuityMode == config.ModeActive && effectiveAction != governor.ActionOK {
		fp := state.HeadCommit + ":governor:" + string(effectiveAction) + ":" + now.Format(time.RFC3339Nano)
		body := artifact.GovernorActionBody(string(effectiveAction), reasons)
		_ = artifact.WriteIfNew(e.store, in.SubSessionID, store.ArtifactTypeDevlog, fp, mustRender(store.ArtifactTypeDevlog, in.SubSessionID, fp, body), now)
	}

	// Step 8: safeguard telemetry + block-devlog (spec §4.12, §4.13 step 8).
	if safeguardDecision.Requested {
		e.sink.Safeguard(telemetry.SafeguardEvent{Allowed: safeguardDecision.Allowed})
		if !safeguardDecision.Allowed {
			fp := safeguard.BlockFingerprint(state.HeadCommit, state.Branch)
			body := artifact.RejectedApproachBody("auto-commit-blocked", in.Prompt, in.AssistantResponse)
			_ = artifact.WriteIfNew(e.store, in.SubSessionID, store.ArtifactTypeDevlog, fp, mustRender(store.ArtifactTypeDevlog, in.SubSessionID, fp, body), now)
		}
	}

	e.sink.GovernorAction(telemetry.GovernorActionEvent{Action: string(effectiveAction), Reasons: reasons})

	// Step 9: rehydrate, active mode + rehydrate action only.
	if e.settings.ContinuityMode == config.ModeActive && effectiveAction == governor.ActionRehydrate && e.sessions != nil {
		_ = rehydrate.Perform(e.sessions, in.SubSessionID, reasons, in.Prompt, func(subSessionID string, limit int) ([]store.Artifact, error) {
			var all []store.Artifact
			for _, t := range []store.ArtifactType{store.ArtifactTypeDevlog, store.ArtifactTypeADR, store.ArtifactTypeRejectedApproach} {
				recent, err := e.store.RecentArtifacts(subSessionID, t, limit)
				if err != nil {
					return nil, err
				}
				all = append(all, recent...)
			}
			sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
			if len(all) > limit {
				all = all[:limit]
			}
			return all, nil
		})
	}

	return RecordRunOutcomeOutput{Action: effectiveAction, Reasons: reasons}
}

// writeDetectedArtifacts implements step 5: write a devlog/ADR/
// rejected-approach artifact for each kind the event detector fired,
// deduped by event fingerprint.
func (e *Engine) writeDetectedArtifacts(in RecordRunOutcomeInput, state repoprobe.State, d eventdetect.Result, sg safeguard.Decision, now time.Time) {
	if d.Devlog {
		body := artifact.DevlogBody(artifact.DevlogInput{
			Provider:           string(in.Provider),
			Mode:               string(in.Mode),
			HeadCommit:         state.HeadCommit,
			ChangedFiles:       state.Changed,
			DiffLines:          state.DiffLines,
			Reasons:            d.Reasons,
			ArtifactPolicy:     string(e.settings.ArtifactPolicy),
			MemoryBranch:       e.settings.MemoryBranch,
			AutoCommitEligible: sg.Allowed,
			Prompt:             in.Prompt,
			AssistantSummary:   in.AssistantResponse,
		})
		_ = artifact.WriteIfNew(e.store, in.SubSessionID, store.ArtifactTypeDevlog, d.EventFingerprint, mustRender(store.ArtifactTypeDevlog, in.SubSessionID, d.EventFingerprint, body), now)
	}

	if d.ADR {
		fp := d.EventFingerprint + ":adr"
		body := artifact.ADRBody(d.BoundaryFiles)
		_ = artifact.WriteIfNew(e.store, in.SubSessionID, store.ArtifactTypeADR, fp, mustRender(store.ArtifactTypeADR, in.SubSessionID, fp, body), now)
	}

	if d.RejectedApproach {
		fp := d.EventFingerprint + ":rejected"
		body := artifact.RejectedApproachBody(d.RejectedReason, in.Prompt, in.AssistantResponse)
		_ = artifact.WriteIfNew(e.store, in.SubSessionID, store.ArtifactTypeRejectedApproach, fp, mustRender(store.ArtifactTypeRejectedApproach, in.SubSessionID, fp, body), now)
	}
}

// mustRender composes an artifact's stored content with front matter;
// a YAML marshal failure (which cannot occur for this fixed-shape
// struct) falls back to the bare body rather than failing the turn.
func mustRender(artifactType store.ArtifactType, subSessionID, eventFingerprint, body string) string {
	content, err := artifact.Render(artifact.FrontMatter{
		Type:             string(artifactType),
		SubSessionID:     subSessionID,
		EventFingerprint: eventFingerprint,
		CreatedBy:        "continuity",
	}, body)
	if err != nil {
		return body
	}
	return content
}

func (e *Engine) now() time.Time {
	return now()
}
