package app

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/cue-systems/continuity/internal/config"
	"github.com/cue-systems/continuity/internal/enginehealth"
)

func runDoctor(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(errOut)
	repoOverride := fs.String("repo", "", "Repo root override (default: cwd)")
	jsonOut := fs.Bool("json", false, "Output machine-readable JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	root := strings.TrimSpace(*repoOverride)
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(errOut, "getwd: %v\n", err)
			return 1
		}
		root = cwd
	}

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(errOut, "config load: %v\n", err)
		return 1
	}

	report := enginehealth.Check(settings, root)

	if *jsonOut {
		encoded, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(errOut, "json error: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, string(encoded))
	} else {
		writeDoctorReport(out, report)
	}

	if !report.OK {
		return 1
	}
	return 0
}

func writeDoctorReport(out io.Writer, report enginehealth.Report) {
	status := color.New(color.FgGreen).Sprint("ok")
	if !report.OK {
		status = color.New(color.FgRed).Sprint("error")
	}
	fmt.Fprintf(out, "continuity doctor: %s\n", status)
	fmt.Fprintf(out, "repo_root: %s\n", report.RepoRoot)
	fmt.Fprintf(out, "head_commit: %s\n", report.HeadCommit)
	fmt.Fprintf(out, "continuity_mode: %s\n", report.ContinuityMode)
	fmt.Fprintf(out, "db_path: %s\n", report.DBPath)
	fmt.Fprintf(out, "store_opens: %v\n", report.StoreOpens)
	fmt.Fprintf(out, "settings_exists: %v\n", report.SettingsExists)
	if report.SettingsExists {
		fmt.Fprintf(out, "settings_age_seconds: %.0f\n", report.SettingsAgeSeconds)
	}
	fmt.Fprintf(out, "git_tool_found: %v\n", report.GitToolFound)
	if report.Error != "" {
		fmt.Fprintf(out, "error: %s\n", report.Error)
	}
}
