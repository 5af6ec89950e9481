package artifact

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cue-systems/continuity/internal/store"
)

func openTestStoreForArtifact(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "artifact.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRenderIncludesFrontMatterAndBody(t *testing.T) {
	out, err := Render(FrontMatter{Type: "devlog", SubSessionID: "s1", EventFingerprint: "fp1", CreatedBy: "continuity"}, "body text")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, "---\n") {
		t.Fatalf("expected front matter delimiter, got %q", out)
	}
	if !strings.Contains(out, "type: devlog") {
		t.Fatalf("expected type field, got %q", out)
	}
	if !strings.HasSuffix(out, "body text") {
		t.Fatalf("expected body suffix, got %q", out)
	}
}

func TestWriteIfNewSkipsDuplicateFingerprint(t *testing.T) {
	st := openTestStoreForArtifact(t)
	now := time.Now()

	if err := WriteIfNew(st, "sess-1", store.ArtifactTypeDevlog, "fp-1", "content a", now); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteIfNew(st, "sess-1", store.ArtifactTypeDevlog, "fp-1", "content b", now.Add(time.Minute)); err != nil {
		t.Fatalf("second write: %v", err)
	}

	recent, err := st.RecentArtifacts("sess-1", store.ArtifactTypeDevlog, 12)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected dedup to one artifact, got %d", len(recent))
	}
	if recent[0].Content != "content a" {
		t.Fatalf("expected original content retained, got %q", recent[0].Content)
	}
}

func TestWriteIfNewInsertsNewFingerprint(t *testing.T) {
	st := openTestStoreForArtifact(t)
	now := time.Now()

	if err := WriteIfNew(st, "sess-1", store.ArtifactTypeDevlog, "fp-1", "content a", now); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteIfNew(st, "sess-1", store.ArtifactTypeDevlog, "fp-2", "content b", now); err != nil {
		t.Fatalf("second write: %v", err)
	}

	recent, err := st.RecentArtifacts("sess-1", store.ArtifactTypeDevlog, 12)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected two artifacts, got %d", len(recent))
	}
}

func TestDevlogBodyIncludesClampedFields(t *testing.T) {
	out := DevlogBody(DevlogInput{
		Provider:     "claude",
		Mode:         "agent",
		HeadCommit:   "abc",
		ChangedFiles: []string{"a.go", "b.go"},
		DiffLines:    42,
		Reasons:      []string{"diff>120"},
		Prompt:       "fix the bug",
	})
	if !strings.Contains(out, "provider: claude") || !strings.Contains(out, "diff_lines: 42") {
		t.Fatalf("got %q", out)
	}
}

func TestADRBodyListsBoundaryFiles(t *testing.T) {
	out := ADRBody([]string{"src/main/lib/db/schema.go"})
	if !strings.Contains(out, "src/main/lib/db/schema.go") {
		t.Fatalf("got %q", out)
	}
}
