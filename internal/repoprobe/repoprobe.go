// Package repoprobe implements the Repo Probe (spec §4.1): best-effort
// reads of HEAD commit, changed-file list, diff snippet/stats, current
// branch, and a full file listing. Every operation degrades to a
// conservative default on failure rather than returning an error — the
// engine must never fail a turn because the working tree is unusual.
package repoprobe

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/cue-systems/continuity/internal/hashutil"
)

// State is the snapshot of repo facts the engine consumes (spec §3 RepoState
// plus the extra scalar fields §4.1's operations expose individually).
type State struct {
	HeadCommit  string
	Branch      string
	Changed     []string // lexicographically sorted, deduplicated
	DiffSnippet string
	DiffLines   int
}

const (
	diffTimeout      = 7 * time.Second
	diffMaxBytes     = 2 << 20 // 2 MiB
	listFilesTimeout = 8 * time.Second
	listFilesMaxBytes = 6 << 20 // 6 MiB
	diffSnippetMaxBytes = 4000
)

// NoGitHeadCommit / NoGitChangedHash are the degenerate values spec §3
// defines for a directory with no usable VCS.
const (
	NoGitHeadCommit  = "no-git"
	NoGitChangedHash = "no-changes"
	UnknownBranch    = "unknown"
)

// Probe reads repo state for root, never returning an error: any
// failure yields the degenerate no-git state.
func Probe(root string) State {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return State{HeadCommit: NoGitHeadCommit, Branch: UnknownBranch}
	}

	head, branch := headAndBranch(repo)
	changed := changedFiles(repo)
	diffText, diffLines := diffSnippetAndStats(root)

	state := State{
		HeadCommit:  head,
		Branch:      branch,
		Changed:     changed,
		DiffSnippet: diffText,
		DiffLines:   diffLines,
	}
	if state.HeadCommit == "" {
		state.HeadCommit = NoGitHeadCommit
	}
	if state.Branch == "" {
		state.Branch = UnknownBranch
	}
	return state
}

// ChangedFilesHash is spec §3's RepoState.changed_files_hash: sha256 of
// the changed paths joined by newline, or the degenerate "no-changes"
// when there are none.
func (st State) ChangedFilesHash() string {
	if len(st.Changed) == 0 {
		return NoGitChangedHash
	}
	return hashutil.Sum(strings.Join(st.Changed, "\n"))
}

func headAndBranch(repo *git.Repository) (string, string) {
	ref, err := repo.Head()
	if err != nil {
		return "", ""
	}
	branch := UnknownBranch
	if ref.Name().IsBranch() {
		branch = ref.Name().Short()
	}
	return ref.Hash().String(), branch
}

func changedFiles(repo *git.Repository) []string {
	wt, err := repo.Worktree()
	if err != nil {
		return nil
	}
	status, err := wt.Status()
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{}, len(status))
	for file, st := range status {
		if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
			continue
		}
		seen[file] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// diffSnippetAndStats shells to git for unified diff text and numstat
// totals: go-git's Worktree API exposes status but not working-tree
// content diffs, so this follows the teacher's subprocess-with-timeout
// discipline for the one operation that needs it.
func diffSnippetAndStats(root string) (string, int) {
	diffText := runGitBounded(root, diffTimeout, diffMaxBytes,
		"diff", "--unified=1", "HEAD")
	snippet := hashutil.ClampBytes(diffText, diffSnippetMaxBytes)

	numstat := runGitBounded(root, diffTimeout, diffMaxBytes,
		"diff", "--numstat", "HEAD")
	lines := sumNumstat(numstat)
	return snippet, lines
}

func sumNumstat(numstat string) int {
	total := 0
	for _, line := range strings.Split(numstat, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		added, err1 := strconv.Atoi(fields[0])
		removed, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			continue // binary files report "-\t-\tpath"
		}
		total += added + removed
	}
	return total
}

func runGitBounded(root string, timeout time.Duration, maxBytes int, args ...string) string {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", root}, args...)...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return ""
	}

	out := stdout.Bytes()
	if len(out) > maxBytes {
		out = out[:maxBytes]
	}
	return string(out)
}

// ListFiles returns the repo's file listing, respecting ignore rules
// (spec §4.1). It tries `rg --files` first (which also lists untracked
// files that are not ignored), then `git ls-files`, and when neither
// command succeeds it falls back to a .gitignore-filtered directory walk.
func ListFiles(root string) []string {
	if out := runRipgrepFiles(root); out != nil {
		return out
	}
	if out := runGitLsFiles(root); out != nil {
		return out
	}
	return walkWithGitignore(root)
}

func runRipgrepFiles(root string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), listFilesTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "rg", "--files")
	cmd.Dir = root
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil
	}
	return boundedLines(stdout.Bytes(), listFilesMaxBytes)
}

func runGitLsFiles(root string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), listFilesTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "-C", root, "ls-files")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil
	}
	return boundedLines(stdout.Bytes(), listFilesMaxBytes)
}

func boundedLines(out []byte, maxBytes int) []string {
	if len(out) > maxBytes {
		out = out[:maxBytes]
	}
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "\n")
}

// walkWithGitignore degrades list_files to a manual directory walk
// filtered by .gitignore when neither rg nor git are usable — grounded
// on the teacher's ingest.go use of the same go-gitignore library for
// the same ignore-respecting-walk purpose.
func walkWithGitignore(root string) []string {
	matcher, _ := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))

	var out []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // fail-soft: skip unreadable entries
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, ".git/") || rel == ".git" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	sort.Strings(out)
	return out
}

// CurrentBranch is a standalone accessor used by the safeguard gate,
// which only needs the branch name (spec §4.12).
func CurrentBranch(root string) string {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return UnknownBranch
	}
	ref, err := repo.Head()
	if err != nil {
		return UnknownBranch
	}
	if !ref.Name().IsBranch() {
		return UnknownBranch
	}
	return ref.Name().Short()
}
