package summarize

import (
	"strings"
	"testing"
)

func TestBuildBasicFields(t *testing.T) {
	content := "\n\n  function handleRequest(req) {\n    return req\n  }\n"
	out := Build("src/handler.js", content)

	if !strings.Contains(out, "file: src/handler.js") {
		t.Fatalf("missing file line: %q", out)
	}
	if !strings.Contains(out, "first_line: function handleRequest(req) {") {
		t.Fatalf("missing first_line: %q", out)
	}
	if !strings.Contains(out, "symbols: function handleRequest(req) {") {
		t.Fatalf("missing symbols: %q", out)
	}
}

func TestBuildNoSymbolsOmitsLine(t *testing.T) {
	out := Build("README.md", "just some prose\nmore prose\n")
	if strings.Contains(out, "symbols:") {
		t.Fatalf("expected no symbols line, got %q", out)
	}
}

func TestBuildCapsSymbolLinesAtTwelve(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("export const x = 1\n")
	}
	out := Build("src/many.ts", b.String())
	symbolsLine := ""
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "symbols: ") {
			symbolsLine = line
		}
	}
	count := strings.Count(symbolsLine, "export const x = 1")
	if count != 12 {
		t.Fatalf("expected 12 symbol occurrences, got %d", count)
	}
}

func TestBuildFirstLineClampedTo120Chars(t *testing.T) {
	long := strings.Repeat("a", 200)
	out := Build("f.txt", long+"\n")
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "first_line: ") {
			value := strings.TrimPrefix(line, "first_line: ")
			if len([]rune(value)) != 120 {
				t.Fatalf("expected 120 rune first_line, got %d", len([]rune(value)))
			}
			return
		}
	}
	t.Fatalf("no first_line found in %q", out)
}

func TestBuildBlankFileHasNoFirstLine(t *testing.T) {
	out := Build("empty.txt", "\n\n\n")
	if strings.Contains(out, "first_line:") {
		t.Fatalf("expected no first_line, got %q", out)
	}
}
