package engine

import (
	"strings"
	"time"

	"github.com/cue-systems/continuity/internal/config"
	"github.com/cue-systems/continuity/internal/pack"
	"github.com/cue-systems/continuity/internal/repoprobe"
	"github.com/cue-systems/continuity/internal/store"
	"github.com/cue-systems/continuity/internal/telemetry"
)

// ApplyInput is spec §4.8's apply signature.
type ApplyInput struct {
	SubSessionID string
	Cwd          string
	ProjectPath  string
	Prompt       string
	Mode         SessionMode
	Provider     Provider
}

// ApplyOutput is spec §4.8's apply return value.
type ApplyOutput struct {
	PromptOut     string
	CacheHit      bool
	InjectedBytes int
	ReusedPercent int
	StateIDs      pack.StateIDs
}

func (in ApplyInput) repoRoot() string {
	if strings.TrimSpace(in.ProjectPath) != "" {
		return in.ProjectPath
	}
	return in.Cwd
}

// Apply runs spec §4.8. It never returns an error.
func (e *Engine) Apply(in ApplyInput) ApplyOutput {
	lock := e.lockFor(in.SubSessionID)
	lock.Lock()
	defer lock.Unlock()

	if e.settings.ContinuityMode == config.ModeOff {
		ids := pack.StateIDs{}
		if in.Mode == SessionModePlan {
			ids.PlanContractID = pack.PlanContractID(in.Prompt)
		}
		return ApplyOutput{PromptOut: in.Prompt, CacheHit: false, InjectedBytes: 0, ReusedPercent: 100, StateIDs: ids}
	}

	repoRoot := in.repoRoot()
	state := repoprobe.Probe(repoRoot)
	profile := config.Profile(e.settings.TokenMode)
	taskFingerprint := pack.TaskFingerprint(in.Prompt)
	changedFilesHash := state.ChangedFilesHash()

	cacheKey := pack.CacheKey(taskFingerprint, changedFilesHash, state.HeadCommit, string(in.Provider), string(in.Mode), profile.MaxPackBytes)
	ids := pack.StateIDs{
		AnchorPackID:  pack.AnchorPackID(repoRoot, state.HeadCommit),
		ContextPackID: pack.ContextPackID(cacheKey),
	}
	if in.Mode == SessionModePlan {
		ids.PlanContractID = pack.PlanContractID(in.Prompt)
	}

	sessionState, hasPriorState, _ := e.store.GetSessionState(in.SubSessionID)
	deltaPackText := pack.BuildDelta(state, in.Prompt, sessionState.LastChangedFilesHash, hasPriorState, e.recentMessageTexts(in.SubSessionID))
	ids.DeltaPackID = pack.DeltaPackID(deltaPackText)

	nowTime := time.Now()

	cached, hit, _ := e.store.GetPackCache(cacheKey)
	var out ApplyOutput
	if hit {
		out = e.applyOnHit(in, ids, cacheKey, cached, deltaPackText)
	} else {
		out = e.applyOnMiss(in, repoRoot, state, profile, ids, cacheKey, taskFingerprint, changedFilesHash, deltaPackText, hasPriorState, nowTime)
	}

	injected := len(out.PromptOut) - len(in.Prompt)
	if injected < 0 {
		injected = 0
	}
	out.InjectedBytes = injected

	e.sink.PackMetrics(telemetry.PackMetricsEvent{
		Provider:      string(in.Provider),
		Mode:          string(in.Mode),
		CacheHit:      out.CacheHit,
		ReusedPercent: out.ReusedPercent,
		InjectedBytes: out.InjectedBytes,
	})

	if e.settings.ContinuityMode == config.ModePassive {
		out.PromptOut = in.Prompt
	}
	return out
}

// applyOnHit implements spec §4.8 step 4's "Hit" branch: a delta-only
// envelope when ProtocolState still points at this cache key, otherwise
// the full cached pack recomposed with the new prompt.
func (e *Engine) applyOnHit(in ApplyInput, ids pack.StateIDs, cacheKey string, cached store.PackCacheEntry, deltaPackText string) ApplyOutput {
	last, _ := e.getProtocolState(in.SubSessionID)
	e.setProtocolState(in.SubSessionID, cacheKey)

	if last == cacheKey {
		return ApplyOutput{
			PromptOut:     pack.AssembleDeltaOnly(ids, deltaPackText, in.Prompt),
			CacheHit:      true,
			ReusedPercent: 95,
			StateIDs:      ids,
		}
	}
	return ApplyOutput{
		PromptOut:     pack.ComposeCachedEnvelope(cached.Pack, in.Prompt),
		CacheHit:      true,
		ReusedPercent: 75,
		StateIDs:      ids,
	}
}

// applyOnMiss implements spec §4.8 step 4's "Miss" branch: build every
// sub-pack, assemble the full envelope, and persist it.
func (e *Engine) applyOnMiss(in ApplyInput, repoRoot string, state repoprobe.State, profile config.BudgetProfile, ids pack.StateIDs, cacheKey, taskFingerprint, changedFilesHash, deltaPackText string, hasPriorState bool, now time.Time) ApplyOutput {
	anchor := pack.BuildAnchor(repoRoot)
	context := pack.BuildContext(e.store, repoRoot, state, in.Prompt, profile, now)

	planContract := ""
	if in.Mode == SessionModePlan {
		planContract = in.Prompt
	}

	composite := pack.AssembleFull(ids, anchor, context, planContract, deltaPackText, in.Prompt, profile.MaxPackBytes)

	e.prunePackCache(now)

	_ = e.store.UpsertPackCache(store.PackCacheEntry{
		Key:              cacheKey,
		TaskFingerprint:  taskFingerprint,
		ChangedFilesHash: changedFilesHash,
		HeadCommit:       state.HeadCommit,
		Provider:         string(in.Provider),
		Mode:             string(in.Mode),
		BudgetBytes:      profile.MaxPackBytes,
		Pack:             composite,
	}, now)

	// Session state is created on first apply for a sub-session and from
	// then on mutated only by RecordRunOutcome (spec §3 Lifecycle); a
	// later cache miss (a new prompt, a new commit) must not stomp the
	// turn/byte counters RecordRunOutcome has been accumulating.
	if !hasPriorState {
		_ = e.store.UpsertSessionState(store.SessionState{
			SubSessionID:         in.SubSessionID,
			LastChangedFilesHash: changedFilesHash,
			TurnsSinceSnapshot:   0,
			TotalInjectedBytes:   len(composite),
		}, now)
	}

	// ProtocolState is left for the first hit to set: the first repeat of
	// a prompt replays the full cached pack, and only the repeat after it
	// switches to the delta-only envelope.

	return ApplyOutput{
		PromptOut:     composite + "\n\n" + in.Prompt,
		CacheHit:      false,
		ReusedPercent: 35,
		StateIDs:      ids,
	}
}

// prunePackCache deletes pack_cache rows older than the configured
// retention window (SPEC_FULL.md §C.3: spec.md leaves pack-cache
// retention as an open question; this engine bounds it with a lazy
// prune on every cache miss rather than leaving the table unbounded).
func (e *Engine) prunePackCache(now time.Time) {
	days := e.settings.PackCacheRetentionDays
	if days <= 0 {
		days = 30
	}
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	_ = e.store.PrunePackCacheOlderThan(cutoff)
}

// recentMessageTexts extracts up to the last 12 message texts for the
// failing-test digest (spec §4.7); empty if there is no session store
// or no recorded session yet.
func (e *Engine) recentMessageTexts(subSessionID string) []string {
	if e.sessions == nil {
		return nil
	}
	session, ok, err := e.sessions.LoadSession(subSessionID)
	if err != nil || !ok {
		return nil
	}
	messages := session.Messages
	if len(messages) > 12 {
		messages = messages[len(messages)-12:]
	}
	var out []string
	for _, m := range messages {
		for _, p := range m.Parts {
			out = append(out, p.Text)
		}
	}
	return out
}
