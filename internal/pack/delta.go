package pack

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cue-systems/continuity/internal/hashutil"
	"github.com/cue-systems/continuity/internal/repoprobe"
)

const (
	objectiveClampChars      = 200
	changedFilesDeltaLimit   = 20
	failingTestDigestMaxLast = 40
	failingTestDigestBytes   = 2000
)

var failingTestPattern = regexp.MustCompile(`(?i)fail|failed|error|exception|assert`)

// BuildDelta assembles the Delta Pack (spec §4.7). lastChangedFilesHash
// is the empty string when there is no prior SessionState.
func BuildDelta(state repoprobe.State, prompt string, lastChangedFilesHash string, hasPriorState bool, recentMessages []string) string {
	objective := objectiveLine(prompt)
	digest := failingTestDigest(recentMessages)

	var b strings.Builder
	switch {
	case !hasPriorState:
		b.WriteString("first_run: true\n")
		writeObjectiveAndChanges(&b, objective, state.Changed, digest)
		writeDiffSnippet(&b, state.DiffSnippet)
	case lastChangedFilesHash == state.ChangedFilesHash():
		b.WriteString("repo_delta: unchanged\n")
		b.WriteString("objective: " + objective + "\n")
		b.WriteString("failing_tests: " + digest)
	default:
		b.WriteString("repo_delta: changed\n")
		writeObjectiveAndChanges(&b, objective, state.Changed, digest)
		writeDiffSnippet(&b, state.DiffSnippet)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeObjectiveAndChanges(b *strings.Builder, objective string, changed []string, digest string) {
	b.WriteString("objective: " + objective + "\n")
	limited := changed
	if len(limited) > changedFilesDeltaLimit {
		limited = limited[:changedFilesDeltaLimit]
	}
	b.WriteString(fmt.Sprintf("changed_files(%d): %s\n", len(limited), strings.Join(limited, ", ")))
	b.WriteString("failing_tests: " + digest + "\n")
}

func writeDiffSnippet(b *strings.Builder, diff string) {
	if diff == "" {
		return
	}
	b.WriteString("diff:\n")
	b.WriteString(diff)
}

func objectiveLine(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return clampRunesChars(trimmed, objectiveClampChars)
		}
	}
	return ""
}

func clampRunesChars(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// failingTestDigest scans the text of the last 12 session messages (the
// caller passes exactly that slice) for failure-shaped lines (spec §4.7).
func failingTestDigest(messages []string) string {
	var matched []string
	for _, msg := range messages {
		for _, line := range strings.Split(msg, "\n") {
			if failingTestPattern.MatchString(line) {
				matched = append(matched, line)
			}
		}
	}
	if len(matched) == 0 {
		return ""
	}
	if len(matched) > failingTestDigestMaxLast {
		matched = matched[len(matched)-failingTestDigestMaxLast:]
	}
	return hashutil.ClampBytes(strings.Join(matched, "\n"), failingTestDigestBytes)
}
