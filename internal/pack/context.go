package pack

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cue-systems/continuity/internal/config"
	"github.com/cue-systems/continuity/internal/hashutil"
	"github.com/cue-systems/continuity/internal/keyword"
	"github.com/cue-systems/continuity/internal/repoprobe"
	"github.com/cue-systems/continuity/internal/store"
	"github.com/cue-systems/continuity/internal/summarize"
)

// NoRelevantFiles is returned verbatim when keyword extraction yields
// nothing (spec §4.6 step 1).
const NoRelevantFiles = "No relevant files identified."

const (
	searchCacheTTL    = 60 * time.Second
	searchScoreCount   = 24
	pathMatchScore     = 3
	basenameMatchScore = 4
)

// BuildContext assembles the Context Pack (spec §4.6).
func BuildContext(st *store.Store, repoRoot string, state repoprobe.State, prompt string, profile config.BudgetProfile, now time.Time) string {
	keywords := keyword.Extract(prompt)
	if len(keywords) == 0 {
		return NoRelevantFiles
	}

	hits := searchFiles(st, repoRoot, state.HeadCommit, keywords, now)

	candidates := buildCandidateSet(state.Changed, hits, profile.MaxContextFiles)

	var sections []string
	total := 0
	for _, rel := range candidates {
		summary, ok := summaryFor(st, repoRoot, rel, profile.MaxFileReadBytes, now)
		if !ok {
			continue
		}
		addition := summary
		if len(sections) > 0 {
			addition = "\n\n---\n\n" + summary
		}
		if total+len(addition) > profile.MaxContextSummaryBytes {
			break
		}
		sections = append(sections, summary)
		total += len(addition)
	}

	if len(sections) == 0 {
		return NoRelevantFiles
	}
	return strings.Join(sections, "\n\n---\n\n")
}

type scoredFile struct {
	path  string
	score int
}

func searchFiles(st *store.Store, repoRoot, headCommit string, keywords []string, now time.Time) []string {
	cacheKey := SearchCacheKey(repoRoot, headCommit, keywords)
	if st != nil {
		if entry, ok, err := st.GetSearchCache(cacheKey); err == nil && ok {
			if now.Sub(entry.UpdatedAt) < searchCacheTTL {
				return entry.ResultFiles
			}
		}
	}

	listing := repoprobe.ListFiles(repoRoot)
	hits := scoreFiles(listing, keywords)

	if st != nil {
		_ = st.UpsertSearchCache(store.SearchCacheEntry{
			Key:         cacheKey,
			RepoRoot:    repoRoot,
			Query:       strings.Join(keywords, ","),
			CommitHash:  headCommit,
			Scope:       "repo",
			ResultFiles: hits,
		}, now)
	}
	return hits
}

func scoreFiles(listing []string, keywords []string) []string {
	var scored []scoredFile
	for _, path := range listing {
		lowerPath := strings.ToLower(path)
		base := strings.ToLower(filepath.Base(path))
		score := 0
		for _, kw := range keywords {
			if strings.Contains(lowerPath, kw) {
				score += pathMatchScore
				if strings.Contains(base, kw) {
					score += basenameMatchScore
				}
			}
		}
		if score > 0 {
			scored = append(scored, scoredFile{path: path, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > searchScoreCount {
		scored = scored[:searchScoreCount]
	}
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.path
	}
	return out
}

func buildCandidateSet(changedFiles, searchHits []string, maxFiles int) []string {
	var ordered []string
	if len(changedFiles) > 4 {
		ordered = append(ordered, changedFiles[:4]...)
	} else {
		ordered = append(ordered, changedFiles...)
	}
	ordered = append(ordered, searchHits...)

	seen := make(map[string]struct{}, len(ordered))
	out := make([]string, 0, len(ordered))
	for _, p := range ordered {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
		if len(out) == maxFiles {
			break
		}
	}
	return out
}

func summaryFor(st *store.Store, repoRoot, relPath string, maxReadBytes int, now time.Time) (string, bool) {
	fullPath := filepath.Join(repoRoot, relPath)
	info, err := os.Stat(fullPath)
	if err != nil || !info.Mode().IsRegular() || info.Size() > int64(maxReadBytes) {
		return "", false
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return "", false
	}
	contentHash := hashutil.Sum(string(content))
	key := FileSummaryKey(repoRoot, relPath, contentHash)

	if st != nil {
		if entry, ok, err := st.GetFileSummary(key); err == nil && ok && entry.ContentHash == contentHash {
			return entry.Summary, true
		}
	}

	summary := summarize.Build(relPath, string(content))
	if st != nil {
		_ = st.UpsertFileSummary(store.FileSummaryEntry{
			Key:         key,
			RepoRoot:    repoRoot,
			FilePath:    relPath,
			ContentHash: contentHash,
			Summary:     summary,
		}, now)
	}
	return summary, true
}
