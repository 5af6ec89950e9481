package pack

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cue-systems/continuity/internal/hashutil"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizePrompt lowercases and collapses whitespace runs, the
// normalization spec §3 TaskFingerprint and §4.8 plan_contract_id share.
func NormalizePrompt(prompt string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(prompt)), " ")
}

// TaskFingerprint is spec §3's sha256 of the normalized prompt.
func TaskFingerprint(prompt string) string {
	return hashutil.Sum(NormalizePrompt(prompt))
}

// CacheKey is spec §3's compound PackCacheEntry primary key.
func CacheKey(taskFingerprint, changedFilesHash, headCommit, provider, mode string, maxPackBytes int) string {
	return hashutil.SumFields(taskFingerprint, changedFilesHash, headCommit, provider, mode, strconv.Itoa(maxPackBytes))
}

// AnchorPackID is spec §4.8's anchor_pack_id.
func AnchorPackID(repoRoot, headCommit string) string {
	return hashutil.Sum(repoRoot + ":anchor:" + headCommit)
}

// ContextPackID is spec §4.8's context_pack_id.
func ContextPackID(cacheKey string) string {
	return hashutil.Sum(cacheKey)
}

// PlanContractID is spec §4.8's plan_contract_id, only computed in plan mode.
func PlanContractID(prompt string) string {
	return hashutil.Sum(NormalizePrompt(prompt))
}

// DeltaPackID is spec §4.8's delta_pack_id.
func DeltaPackID(deltaPack string) string {
	return hashutil.Sum(deltaPack)
}

// SearchCacheKey is spec §3's SearchCacheEntry primary key.
func SearchCacheKey(repoRoot, headCommit string, keywords []string) string {
	return repoRoot + ":" + headCommit + ":" + strings.Join(keywords, ",")
}

// FileSummaryKey is spec §3's FileSummaryEntry primary key.
func FileSummaryKey(repoRoot, relPath, contentHash string) string {
	return hashutil.Sum(repoRoot + ":" + relPath + ":" + contentHash)
}
