// Package governor implements the post-run threshold state machine
// (spec §4.10): turns, injected bytes, changed files, diff size, and
// elapsed time each vote toward ok/snapshot/rehydrate.
package governor

import (
	"math"
	"time"
)

// InfiniteElapsed is the sentinel Inputs.ElapsedSinceSnapshot callers
// pass when there is no prior snapshot (spec §4.10: "∞ if no prior
// snapshot"), guaranteed to clear both elapsed thresholds.
const InfiniteElapsed = time.Duration(math.MaxInt64)

// Action is the governor's decision.
type Action string

const (
	ActionOK        Action = "ok"
	ActionSnapshot  Action = "snapshot"
	ActionRehydrate Action = "rehydrate"
)

// Inputs are the governor's five signals (spec §4.10).
type Inputs struct {
	TurnsSinceSnapshot     int
	TotalInjectedBytes     int
	ChangedFilesCount      int
	DiffLines              int
	ElapsedSinceSnapshot   time.Duration // InfiniteElapsed when there is no prior snapshot
}

// Capabilities gate which actions the decision may surface (spec §4.10
// capability gating).
type Capabilities struct {
	SnapshotEnabled  bool
	RehydrateEnabled bool
}

const (
	snapshotTurns    = 7
	rehydrateTurns   = 12
	snapshotBytes    = 90000
	rehydrateBytes   = 150000
	snapshotFiles    = 10
	rehydrateFiles   = 18
	snapshotDiff     = 160
	rehydrateDiff    = 280
	snapshotElapsed  = 25 * time.Minute
	rehydrateElapsed = 50 * time.Minute
)

// Decide returns the raw governor decision (before capability gating)
// and the reasons that fired for it.
func Decide(in Inputs) (Action, []string) {
	var rehydrateReasons, snapshotReasons []string

	check := func(value, snapshotThreshold, rehydrateThreshold int, name string) {
		if value >= rehydrateThreshold {
			rehydrateReasons = append(rehydrateReasons, name)
		}
		if value >= snapshotThreshold {
			snapshotReasons = append(snapshotReasons, name)
		}
	}

	check(in.TurnsSinceSnapshot, snapshotTurns, rehydrateTurns, "turns_since_snapshot")
	check(in.TotalInjectedBytes, snapshotBytes, rehydrateBytes, "total_injected_bytes")
	check(in.ChangedFilesCount, snapshotFiles, rehydrateFiles, "changed_files_count")
	check(in.DiffLines, snapshotDiff, rehydrateDiff, "diff_lines")

	if in.ElapsedSinceSnapshot >= rehydrateElapsed {
		rehydrateReasons = append(rehydrateReasons, "elapsed_since_snapshot_ms")
	}
	if in.ElapsedSinceSnapshot >= snapshotElapsed {
		snapshotReasons = append(snapshotReasons, "elapsed_since_snapshot_ms")
	}

	if len(rehydrateReasons) >= 2 {
		return ActionRehydrate, rehydrateReasons
	}
	if len(snapshotReasons) >= 2 {
		return ActionSnapshot, snapshotReasons
	}
	return ActionOK, nil
}

// Gate applies capability gating to a raw decision (spec §4.10): a
// disabled rehydrate degrades to snapshot, or to ok when snapshot is
// also disabled; a disabled snapshot degrades to ok. Reasons are kept
// when the result is still snapshot or rehydrate, and are nil when the
// result is ok.
func Gate(action Action, reasons []string, caps Capabilities) (Action, []string) {
	if action == ActionRehydrate && !caps.RehydrateEnabled {
		if caps.SnapshotEnabled {
			return ActionSnapshot, reasons
		}
		return ActionOK, nil
	}
	if action == ActionSnapshot && !caps.SnapshotEnabled {
		return ActionOK, nil
	}
	return action, reasons
}
