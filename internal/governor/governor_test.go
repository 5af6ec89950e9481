package governor

import (
	"testing"
	"time"
)

func TestDecideOKBelowAllThresholds(t *testing.T) {
	action, reasons := Decide(Inputs{ElapsedSinceSnapshot: time.Minute})
	if action != ActionOK || len(reasons) != 0 {
		t.Fatalf("got %v %v", action, reasons)
	}
}

func TestDecideSnapshotWithTwoReasons(t *testing.T) {
	action, reasons := Decide(Inputs{
		TurnsSinceSnapshot:   7,
		ChangedFilesCount:    10,
		ElapsedSinceSnapshot: time.Minute,
	})
	if action != ActionSnapshot {
		t.Fatalf("got %v", action)
	}
	if len(reasons) != 2 {
		t.Fatalf("expected 2 reasons, got %v", reasons)
	}
}

func TestDecideRehydrateWithTwoRehydrateReasons(t *testing.T) {
	action, reasons := Decide(Inputs{
		TurnsSinceSnapshot:   12,
		TotalInjectedBytes:   150000,
		ElapsedSinceSnapshot: time.Minute,
	})
	if action != ActionRehydrate {
		t.Fatalf("got %v", action)
	}
	if len(reasons) != 2 {
		t.Fatalf("expected 2 reasons, got %v", reasons)
	}
}

func TestDecideSingleReasonStaysOK(t *testing.T) {
	action, _ := Decide(Inputs{TurnsSinceSnapshot: 7, ElapsedSinceSnapshot: time.Minute})
	if action != ActionOK {
		t.Fatalf("got %v", action)
	}
}

func TestDecideInfiniteElapsedAlwaysCountsAsReason(t *testing.T) {
	action, reasons := Decide(Inputs{
		ChangedFilesCount:    10,
		ElapsedSinceSnapshot: InfiniteElapsed,
	})
	if action != ActionSnapshot {
		t.Fatalf("got %v, reasons %v", action, reasons)
	}
}

func TestGateDegradesRehydrateToSnapshot(t *testing.T) {
	action, _ := Gate(ActionRehydrate, []string{"x"}, Capabilities{SnapshotEnabled: true, RehydrateEnabled: false})
	if action != ActionSnapshot {
		t.Fatalf("got %v", action)
	}
}

func TestGateDegradesRehydrateToOKWhenSnapshotAlsoDisabled(t *testing.T) {
	action, reasons := Gate(ActionRehydrate, []string{"x"}, Capabilities{SnapshotEnabled: false, RehydrateEnabled: false})
	if action != ActionOK || reasons != nil {
		t.Fatalf("got %v %v", action, reasons)
	}
}

func TestGateDegradesSnapshotToOK(t *testing.T) {
	action, reasons := Gate(ActionSnapshot, []string{"x"}, Capabilities{SnapshotEnabled: false})
	if action != ActionOK || reasons != nil {
		t.Fatalf("got %v %v", action, reasons)
	}
}

func TestGatePassesThroughWhenEnabled(t *testing.T) {
	action, reasons := Gate(ActionRehydrate, []string{"x"}, Capabilities{SnapshotEnabled: true, RehydrateEnabled: true})
	if action != ActionRehydrate || len(reasons) != 1 {
		t.Fatalf("got %v %v", action, reasons)
	}
}
