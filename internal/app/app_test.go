package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cue-systems/continuity/internal/config"
)

func withCwd(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestRunVersion(t *testing.T) {
	var out, errOut bytes.Buffer
	code := Run([]string{"version"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out.String(), "continuity") {
		t.Fatalf("expected version string, got %q", out.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	code := Run([]string{"bogus"}, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(errOut.String(), "unknown command") {
		t.Fatalf("expected unknown command message, got %q", errOut.String())
	}
}

func TestRunNoArgsPrintsUsage(t *testing.T) {
	var out, errOut bytes.Buffer
	code := Run(nil, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(out.String(), "usage:") {
		t.Fatalf("expected usage text, got %q", out.String())
	}
}

func TestRunDoctorJSONOnFreshRepo(t *testing.T) {
	base := t.TempDir()
	withCwd(t, base)
	config.SetDataDirOverride(t.TempDir())
	t.Cleanup(func() { config.SetDataDirOverride("") })

	var out, errOut bytes.Buffer
	code := Run([]string{"doctor", "--json"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr=%s)", code, errOut.String())
	}

	var report struct {
		OK         bool `json:"ok"`
		StoreOpens bool `json:"store_opens"`
	}
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal doctor report: %v", err)
	}
	if !report.OK || !report.StoreOpens {
		t.Fatalf("expected ok report, got %+v", report)
	}
}

func TestRunSimulateRequiresPrompt(t *testing.T) {
	base := t.TempDir()
	withCwd(t, base)
	config.SetDataDirOverride(t.TempDir())
	t.Cleanup(func() { config.SetDataDirOverride("") })

	var out, errOut bytes.Buffer
	code := Run([]string{"simulate"}, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(errOut.String(), "--prompt is required") {
		t.Fatalf("expected prompt-required message, got %q", errOut.String())
	}
}

func TestRunSimulatePrintsEnvelopeAndAction(t *testing.T) {
	base := t.TempDir()
	withCwd(t, base)
	dataDir := t.TempDir()
	config.SetDataDirOverride(dataDir)
	t.Cleanup(func() { config.SetDataDirOverride("") })

	var out, errOut bytes.Buffer
	code := Run([]string{"simulate", "--prompt", "fix the bug", "--response", "done"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr=%s)", code, errOut.String())
	}
	if !strings.Contains(out.String(), "envelope") {
		t.Fatalf("expected envelope section, got %q", out.String())
	}
	if !strings.Contains(out.String(), "record_run_outcome: action=") {
		t.Fatalf("expected outcome section, got %q", out.String())
	}
}

func TestRunDataDirGlobalFlag(t *testing.T) {
	base := t.TempDir()
	withCwd(t, base)
	dataDir := filepath.Join(t.TempDir(), "custom")
	t.Cleanup(func() { config.SetDataDirOverride("") })

	var out, errOut bytes.Buffer
	code := Run([]string{"--data-dir", dataDir, "doctor", "--json"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr=%s)", code, errOut.String())
	}
	var report struct {
		DBPath string `json:"db_path"`
	}
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal doctor report: %v", err)
	}
	if !strings.HasPrefix(report.DBPath, dataDir) {
		t.Fatalf("expected db_path under %s, got %s", dataDir, report.DBPath)
	}
}
