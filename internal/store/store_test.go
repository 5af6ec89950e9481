package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "continuity.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestPackCacheRoundTrip(t *testing.T) {
	st := openTestStore(t)
	now := time.Now()

	_, ok, err := st.GetPackCache("missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected miss for unknown key")
	}

	entry := PackCacheEntry{
		Key:              "k1",
		TaskFingerprint:  "tf1",
		ChangedFilesHash: "cfh1",
		HeadCommit:       "abc123",
		Provider:         "claude",
		Mode:             "agent",
		BudgetBytes:      24000,
		Pack:             "pack text",
	}
	if err := st.UpsertPackCache(entry, now); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, ok, err := st.GetPackCache("k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.Pack != entry.Pack || got.HeadCommit != entry.HeadCommit {
		t.Fatalf("got %+v, want %+v", got, entry)
	}

	entry.Pack = "updated pack text"
	if err := st.UpsertPackCache(entry, now.Add(time.Second)); err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	got2, _, err := st.GetPackCache("k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got2.Pack != "updated pack text" {
		t.Fatalf("expected updated pack text, got %q", got2.Pack)
	}
}

func TestPackCachePrune(t *testing.T) {
	st := openTestStore(t)
	old := time.Now().Add(-40 * 24 * time.Hour)
	recent := time.Now()

	if err := st.UpsertPackCache(PackCacheEntry{Key: "old", Pack: "x"}, old); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.UpsertPackCache(PackCacheEntry{Key: "new", Pack: "y"}, recent); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := st.PrunePackCacheOlderThan(time.Now().Add(-30 * 24 * time.Hour)); err != nil {
		t.Fatalf("prune: %v", err)
	}

	if _, ok, _ := st.GetPackCache("old"); ok {
		t.Fatalf("expected old entry pruned")
	}
	if _, ok, _ := st.GetPackCache("new"); !ok {
		t.Fatalf("expected new entry retained")
	}
}

func TestSessionStateRoundTrip(t *testing.T) {
	st := openTestStore(t)
	now := time.Now()

	_, ok, err := st.GetSessionState("sess-1")
	if err != nil || ok {
		t.Fatalf("expected miss, err=%v ok=%v", err, ok)
	}

	state := SessionState{
		SubSessionID:         "sess-1",
		LastChangedFilesHash: "h1",
		TurnsSinceSnapshot:   3,
		TotalInjectedBytes:   5000,
	}
	if err := st.UpsertSessionState(state, now); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, ok, err := st.GetSessionState("sess-1")
	if err != nil || !ok {
		t.Fatalf("expected hit, err=%v", err)
	}
	if got.TurnsSinceSnapshot != 3 || got.TotalInjectedBytes != 5000 {
		t.Fatalf("got %+v", got)
	}
	if !got.LastSnapshotAt.IsZero() {
		t.Fatalf("expected zero last snapshot time, got %v", got.LastSnapshotAt)
	}
}

func TestArtifactDedupLookup(t *testing.T) {
	st := openTestStore(t)
	now := time.Now()

	a := Artifact{
		ID:           NewArtifactID(),
		SubSessionID: "sess-1",
		Type:         ArtifactTypeDevlog,
		Content:      "content",
		Provenance:   Provenance{EventFingerprint: "fp-1", CreatedBy: "continuity"},
	}
	if err := st.InsertArtifact(a, now); err != nil {
		t.Fatalf("insert: %v", err)
	}

	recent, err := st.RecentArtifacts("sess-1", ArtifactTypeDevlog, 12)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Provenance.EventFingerprint != "fp-1" {
		t.Fatalf("got %+v", recent)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	now := time.Now()

	_, ok, err := st.GetSettings()
	if err != nil || ok {
		t.Fatalf("expected no settings row yet, err=%v ok=%v", err, ok)
	}

	row := SettingsRow{
		ArtifactPolicy:     "auto-write-memory-branch",
		AutoCommitToMemory: true,
		TokenMode:          "debug",
		MemoryBranch:       "memory/continuity",
	}
	if err := st.UpsertSettings(row, now); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, ok, err := st.GetSettings()
	if err != nil || !ok {
		t.Fatalf("expected hit, err=%v", err)
	}
	if !got.AutoCommitToMemory || got.TokenMode != "debug" {
		t.Fatalf("got %+v", got)
	}
}
