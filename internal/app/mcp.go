package app

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cue-systems/continuity/internal/config"
	"github.com/cue-systems/continuity/internal/engine"
	"github.com/cue-systems/continuity/internal/mcpserver"
	"github.com/cue-systems/continuity/internal/store"
	"github.com/cue-systems/continuity/internal/telemetry"
)

func runMCP(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.SetOutput(errOut)
	name := fs.String("name", "continuity", "Server name")
	repoOverride := fs.String("repo", "", "Repo root override (default: cwd)")
	forceStdio := fs.Bool("stdio", false, "Force raw MCP stdio mode on interactive terminals")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if !shouldServeMCPStdio(*forceStdio, isInteractiveTerminal(os.Stdin), isInteractiveTerminal(os.Stdout)) {
		fmt.Fprintln(errOut, "mcp stdio expects a JSON-RPC client, not an interactive terminal.")
		fmt.Fprintln(errOut, "Force raw mode with: continuity mcp --stdio")
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

	st, err := store.Open(settings.DBPath(config.RepoID(root)))
	if err != nil {
		fmt.Fprintf(errOut, "store open: %v\n", err)
		return 1
	}
	defer st.Close()

	sink, err := telemetry.NewPrometheusSink(prometheus.NewRegistry())
	if err != nil {
		fmt.Fprintf(errOut, "telemetry sink: %v\n", err)
		return 1
	}

	eng := engine.New(st, settings, nil, sink)
	srv := mcpserver.New(eng, *name, version)

	fmt.Fprintf(errOut, "continuity mcp: repo=%s mode=%s db=%s\n", root, settings.ContinuityMode, settings.DBPath(config.RepoID(root)))
	if err := server.ServeStdio(srv); err != nil {
		fmt.Fprintf(errOut, "mcp server error: %v\n", err)
		return 1
	}
	return 0
}

func shouldServeMCPStdio(forceStdio, stdinTTY, stdoutTTY bool) bool {
	if forceStdio {
		return true
	}
	return !(stdinTTY && stdoutTTY)
}

func isInteractiveTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
