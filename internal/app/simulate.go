package app

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cue-systems/continuity/internal/config"
	"github.com/cue-systems/continuity/internal/engine"
	"github.com/cue-systems/continuity/internal/store"
	"github.com/cue-systems/continuity/internal/telemetry"
)

// runSimulate is a manual driver that calls Apply then RecordRunOutcome
// against a real working directory, printing the envelope and the
// governor decision — useful for exercising the engine without wiring
// a real dispatcher.
func runSimulate(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(errOut)
	repoOverride := fs.String("repo", "", "Repo root override (default: cwd)")
	subSessionID := fs.String("session", "simulate", "Sub-session id")
	prompt := fs.String("prompt", "", "User prompt for this turn")
	response := fs.String("response", "", "Assistant response text for record_run_outcome")
	mode := fs.String("mode", "agent", "Session mode: plan|agent")
	provider := fs.String("provider", "claude", "Provider: claude|codex")
	wasError := fs.Bool("was-error", false, "Mark the simulated turn as a run error")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *prompt == "" {
		fmt.Fprintln(errOut, "--prompt is required")
		return 2
	}

	root := *repoOverride
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
	if settings.ContinuityMode == config.ModeOff {
		settings.ContinuityMode = config.ModeActive
	}

	st, err := store.Open(settings.DBPath(config.RepoID(root)))
	if err != nil {
		fmt.Fprintf(errOut, "store open: %v\n", err)
		return 1
	}
	defer st.Close()

	eng := engine.New(st, settings, nil, telemetry.NopSink{})

	sessionMode := engine.SessionModeAgent
	if *mode == "plan" {
		sessionMode = engine.SessionModePlan
	}
	sessionProvider := engine.ProviderClaude
	if *provider == "codex" {
		sessionProvider = engine.ProviderCodex
	}

	applyOut := eng.Apply(engine.ApplyInput{
		SubSessionID: *subSessionID,
		Cwd:          root,
		Prompt:       *prompt,
		Mode:         sessionMode,
		Provider:     sessionProvider,
	})
	fmt.Fprintln(out, "--- envelope ---")
	fmt.Fprintln(out, applyOut.PromptOut)
	fmt.Fprintf(out, "--- apply: cache_hit=%v injected_bytes=%d reused_percent=%d ---\n",
		applyOut.CacheHit, applyOut.InjectedBytes, applyOut.ReusedPercent)

	outcome := eng.RecordRunOutcome(engine.RecordRunOutcomeInput{
		SubSessionID:      *subSessionID,
		Cwd:               root,
		Provider:          sessionProvider,
		Mode:              sessionMode,
		Prompt:            *prompt,
		AssistantResponse: *response,
		InjectedBytes:     applyOut.InjectedBytes,
		WasError:          *wasError,
	})
	fmt.Fprintf(out, "--- record_run_outcome: action=%s reasons=%v ---\n", outcome.Action, outcome.Reasons)

	return 0
}
