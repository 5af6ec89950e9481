// Package summarize implements the File Summary Builder (spec §4.4):
// a text block of structural metadata extracted from a file's content,
// cheap enough to run inline on every cache miss.
package summarize

import (
	"strconv"
	"strings"

	"github.com/cue-systems/continuity/internal/hashutil"
)

const (
	maxFirstLineChars = 120
	maxSymbolLines     = 12
	maxSymbolsBytes    = 900
)

var symbolPrefixes = []string{
	"export ",
	"module.exports",
	"class ",
	"function ",
	"interface ",
	"type ",
}

// Build renders the summary block for relPath given its content.
func Build(relPath string, content string) string {
	lines := strings.Split(content, "\n")

	var b strings.Builder
	b.WriteString("file: ")
	b.WriteString(relPath)
	b.WriteString("\nlines: ")
	b.WriteString(strconv.Itoa(len(lines)))

	if first, ok := firstNonBlank(lines); ok {
		b.WriteString("\nfirst_line: ")
		b.WriteString(clampRunes(first, maxFirstLineChars))
	}

	if symbols := extractSymbols(lines); len(symbols) > 0 {
		joined := strings.Join(symbols, " | ")
		b.WriteString("\nsymbols: ")
		b.WriteString(hashutil.ClampBytes(joined, maxSymbolsBytes))
	}

	return b.String()
}

func firstNonBlank(lines []string) (string, bool) {
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed != "" {
			return trimmed, true
		}
	}
	return "", false
}

func extractSymbols(lines []string) []string {
	var out []string
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if matchesSymbolPrefix(trimmed) {
			out = append(out, trimmed)
			if len(out) == maxSymbolLines {
				break
			}
		}
	}
	return out
}

func matchesSymbolPrefix(trimmed string) bool {
	for _, prefix := range symbolPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

func clampRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
