package pack

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cue-systems/continuity/internal/hashutil"
)

const anchorClampBytes = 3000

var anchorFiles = []string{"AGENTS.md", "CLAUDE.md", "README.md"}

// NoAnchorFiles is returned verbatim when none of the fixed anchor
// files exist (spec §4.5).
const NoAnchorFiles = "No anchor files found."

// BuildAnchor reads the fixed ordered anchor document set from repoRoot
// and renders the Anchor Pack (spec §4.5).
func BuildAnchor(repoRoot string) string {
	var sections []string
	for _, name := range anchorFiles {
		content, err := os.ReadFile(filepath.Join(repoRoot, name))
		if err != nil {
			continue
		}
		clamped := hashutil.ClampBytes(string(content), anchorClampBytes)
		sections = append(sections, "## "+name+"\n"+clamped)
	}
	if len(sections) == 0 {
		return NoAnchorFiles
	}
	return strings.Join(sections, "\n\n")
}
