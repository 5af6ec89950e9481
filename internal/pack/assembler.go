// Package pack implements the Anchor, Context, and Delta Pack builders
// and the envelope assembler (spec §4.5-§4.8): the pre-run half of the
// Continuity Engine that turns a prompt into a byte-budgeted context
// pack.
package pack

import (
	"strings"

	"github.com/cue-systems/continuity/internal/hashutil"
)

// Envelope section labels (spec §4.8) — part of the external contract,
// downstream prompts depend on the exact strings and ordering.
const (
	LabelStateIDs      = "[1CODE_CONTINUITY_STATE_IDS]"
	LabelAnchor        = "[1CODE_CONTINUITY_ANCHOR]"
	LabelContext       = "[1CODE_CONTINUITY_CONTEXT]"
	LabelPlanContract  = "[1CODE_PLAN_CONTRACT]"
	LabelDelta         = "[1CODE_CONTINUITY_DELTA]"
	LabelObjective     = "[1CODE_OBJECTIVE]"
	LabelUserRequest   = "[1CODE_USER_REQUEST]"
)

// StateIDs is the block of compound ids rendered under LabelStateIDs.
// Any empty field renders as "none".
type StateIDs struct {
	AnchorPackID    string
	ContextPackID   string
	PlanContractID  string
	DeltaPackID     string
}

func (ids StateIDs) render() string {
	or := func(v string) string {
		if v == "" {
			return "none"
		}
		return v
	}
	return strings.Join([]string{
		"anchorPackId: " + or(ids.AnchorPackID),
		"contextPackId: " + or(ids.ContextPackID),
		"planContractId: " + or(ids.PlanContractID),
		"deltaPackId: " + or(ids.DeltaPackID),
	}, "\n")
}

func objectiveOf(prompt string) string {
	return objectiveLine(prompt)
}

// AssembleFull builds the composite envelope on a pack-cache miss:
// state ids, anchor, context, optional plan contract, delta, objective,
// user request label, in fixed order, clamped as a whole to maxPackBytes.
// The user request label carries no body — every caller of AssembleFull
// concatenates the prompt itself, since the same composite is cached and
// replayed verbatim against later, different prompts (spec §4.8 step 4
// "Hit" / different-key branch via ComposeCachedEnvelope).
func AssembleFull(ids StateIDs, anchor, context, planContract, delta, prompt string, maxPackBytes int) string {
	var sections []string
	sections = append(sections, LabelStateIDs+"\n"+ids.render())
	sections = append(sections, LabelAnchor+"\n"+anchor)
	sections = append(sections, LabelContext+"\n"+context)
	if planContract != "" {
		sections = append(sections, LabelPlanContract+"\n"+planContract)
	}
	sections = append(sections, LabelDelta+"\n"+delta)
	sections = append(sections, LabelObjective+"\n"+objectiveOf(prompt))
	sections = append(sections, LabelUserRequest)

	envelope := strings.Join(sections, "\n\n")
	return hashutil.ClampBytes(envelope, maxPackBytes)
}

// AssembleDeltaOnly builds the lighter envelope used on a cache hit
// whose ProtocolState still points at the same cache key (spec §4.8
// step 4 "Hit" / same key branch).
func AssembleDeltaOnly(ids StateIDs, delta, prompt string) string {
	sections := []string{
		LabelStateIDs + "\n" + ids.render(),
		LabelDelta + "\n" + delta,
		LabelObjective + "\n" + objectiveOf(prompt),
		LabelUserRequest + "\n" + prompt,
	}
	return strings.Join(sections, "\n\n")
}

// ComposeCachedEnvelope reuses a cached pack (different cache key than
// the previous turn) followed by the raw prompt (spec §4.8 step 4 "Hit"
// / different-key branch).
func ComposeCachedEnvelope(cachedPack, prompt string) string {
	return cachedPack + "\n\n" + prompt
}
