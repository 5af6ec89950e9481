package repoprobe

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Skipf("git unavailable in test environment: %v: %s", err, out)
		}
	}
	run("init", "-q", "-b", "main")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("write readme: %v", err)
	}
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return dir
}

func TestProbeNoGitDegradesCleanly(t *testing.T) {
	dir := t.TempDir()
	state := Probe(dir)
	if state.HeadCommit != NoGitHeadCommit {
		t.Fatalf("expected no-git head commit, got %q", state.HeadCommit)
	}
	if state.Branch != UnknownBranch {
		t.Fatalf("expected unknown branch, got %q", state.Branch)
	}
	if len(state.Changed) != 0 {
		t.Fatalf("expected no changed files, got %v", state.Changed)
	}
	if state.DiffLines != 0 {
		t.Fatalf("expected zero diff lines, got %d", state.DiffLines)
	}
}

func TestProbeCleanRepo(t *testing.T) {
	dir := initRepo(t)
	state := Probe(dir)
	if state.HeadCommit == "" || state.HeadCommit == NoGitHeadCommit {
		t.Fatalf("expected a real head commit, got %q", state.HeadCommit)
	}
	if len(state.Changed) != 0 {
		t.Fatalf("expected clean worktree, got %v", state.Changed)
	}
}

func TestProbeDetectsChangedFile(t *testing.T) {
	dir := initRepo(t)
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello again\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	state := Probe(dir)
	if len(state.Changed) != 2 {
		t.Fatalf("expected 2 changed files, got %v", state.Changed)
	}
	for i := 1; i < len(state.Changed); i++ {
		if state.Changed[i-1] > state.Changed[i] {
			t.Fatalf("expected lexicographic order, got %v", state.Changed)
		}
	}
}

func TestListFilesFallsBackWithoutGit(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("b"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("ignored.txt\n"), 0o644); err != nil {
		t.Fatalf("write gitignore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	files := walkWithGitignore(dir)
	found := map[string]bool{}
	for _, f := range files {
		found[f] = true
	}
	if !found["a.txt"] || !found[filepath.ToSlash(filepath.Join("sub", "b.txt"))] {
		t.Fatalf("expected a.txt and sub/b.txt, got %v", files)
	}
	if found["ignored.txt"] {
		t.Fatalf("expected ignored.txt to be excluded, got %v", files)
	}
}
