// Package enginehealth checks that the engine's dependencies are
// reachable before MCP/CLI startup: the store opens, the settings row
// is readable, and a VCS tool is usable — grounded on the teacher's
// internal/health package, narrowed to this engine's surface.
package enginehealth

import (
	"os/exec"
	"time"

	"github.com/cue-systems/continuity/internal/config"
	"github.com/cue-systems/continuity/internal/repoprobe"
	"github.com/cue-systems/continuity/internal/store"
)

// Report is the health-check result printed by the doctor command (a
// supplemented operation, see SPEC_FULL.md §C.1).
type Report struct {
	OK                 bool    `json:"ok"`
	DBPath             string  `json:"db_path"`
	StoreOpens         bool    `json:"store_opens"`
	SettingsExists     bool    `json:"settings_exists"`
	SettingsAgeSeconds float64 `json:"settings_age_seconds,omitempty"`
	ContinuityMode     string  `json:"continuity_mode"`
	RepoRoot           string  `json:"repo_root"`
	HeadCommit         string  `json:"head_commit"`
	GitToolFound       bool    `json:"git_tool_found"`
	Error              string  `json:"error,omitempty"`
}

// Check opens the store, reads settings, and probes the repo at root.
// It never panics; any failure is reflected in Report.Error with OK=false.
func Check(settings config.Settings, root string) Report {
	report := Report{
		DBPath:         settings.DBPath(config.RepoID(root)),
		ContinuityMode: string(settings.ContinuityMode),
		RepoRoot:       root,
		GitToolFound:   gitToolFound(),
	}

	st, err := store.Open(report.DBPath)
	if err != nil {
		report.Error = "store open failed: " + err.Error()
		return report
	}
	defer st.Close()
	report.StoreOpens = true

	row, exists, err := st.GetSettings()
	if err != nil {
		report.Error = "settings read failed: " + err.Error()
		return report
	}
	report.SettingsExists = exists
	if exists {
		report.SettingsAgeSeconds = SinceVersion(row.UpdatedAt).Seconds()
	}

	state := repoprobe.Probe(root)
	report.HeadCommit = state.HeadCommit

	report.OK = true
	return report
}

func gitToolFound() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// SinceVersion returns the time elapsed since updatedAt, or zero when
// updatedAt is the zero time; Check uses it to fill SettingsAgeSeconds
// from the settings row's updated_at.
func SinceVersion(updatedAt time.Time) time.Duration {
	if updatedAt.IsZero() {
		return 0
	}
	return time.Since(updatedAt)
}
