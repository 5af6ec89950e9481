// Package eventdetect classifies a completed turn as devlog-worthy,
// ADR-worthy, or rejected-approach-worthy (spec §4.9).
package eventdetect

import (
	"strconv"
	"strings"

	"github.com/cue-systems/continuity/internal/hashutil"
)

const (
	diffLinesThreshold   = 120
	changedFilesThreshold = 6
)

var boundaryPrefixes = []string{
	"src/main/lib/trpc/",
	"src/main/lib/db/",
	"src/main/lib/continuity/",
	"src/main/lib/plugins/",
	"src/main/lib/mcp-",
	"src/main/lib/oauth",
	"src/main/lib/git/",
}

var pivotPhrases = []string{"instead", "alternative approach", "pivot"}

const (
	RejectedReasonRunError      = "run-error"
	RejectedReasonDirectionChange = "direction-change"
)

// Result is the event-detector output (spec §4.9).
type Result struct {
	Devlog           bool
	ADR              bool
	RejectedApproach bool
	RejectedReason   string
	Reasons          []string
	BoundaryFiles    []string
	EventFingerprint string
}

// Detect classifies a turn given repo facts and the assistant's response.
func Detect(headCommit, changedFilesHash string, changedFiles []string, diffLines int, response string, wasError bool) Result {
	var reasons []string
	var r Result

	if diffLines >= diffLinesThreshold {
		reasons = append(reasons, "diff>120")
	}
	if len(changedFiles) >= changedFilesThreshold {
		reasons = append(reasons, "changed_files>6")
	}
	if wasError {
		reasons = append(reasons, "run-error")
		r.RejectedApproach = true
		r.RejectedReason = RejectedReasonRunError
	}

	r.BoundaryFiles = boundaryFilesOf(changedFiles)
	if len(r.BoundaryFiles) > 0 {
		r.ADR = true
		reasons = append(reasons, "boundary-modules-touched")
	}

	if !wasError && containsPivotPhrase(response) {
		r.RejectedApproach = true
		r.RejectedReason = RejectedReasonDirectionChange
	}

	r.Reasons = reasons
	r.Devlog = len(reasons) > 0
	r.EventFingerprint = fingerprint(headCommit, changedFilesHash, diffLines, wasError, response)
	return r
}

func boundaryFilesOf(changedFiles []string) []string {
	var out []string
	for _, f := range changedFiles {
		for _, prefix := range boundaryPrefixes {
			if strings.HasPrefix(f, prefix) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func containsPivotPhrase(response string) bool {
	lower := strings.ToLower(response)
	for _, phrase := range pivotPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func fingerprint(headCommit, changedFilesHash string, diffLines int, wasError bool, response string) string {
	lower := []rune(strings.ToLower(response))
	if len(lower) > 160 {
		lower = lower[:160]
	}
	return hashutil.SumFields(headCommit, changedFilesHash, strconv.Itoa(diffLines), strconv.FormatBool(wasError), string(lower))
}
