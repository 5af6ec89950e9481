// Package app is the Continuity Engine's command dispatcher, mirroring
// the teacher's internal/app.Run shape: parse global flags, dispatch on
// the first positional argument, return a process exit code.
package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/cue-systems/continuity/internal/config"
)

const version = "0.1.0"

// Run dispatches args to the simulate/mcp/doctor subcommands.
func Run(args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		writeUsage(out)
		return 2
	}

	parsedArgs, dataDir, err := splitGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(errOut, err.Error())
		writeUsage(errOut)
		return 2
	}
	if dataDir != "" {
		config.SetDataDirOverride(dataDir)
	}
	args = parsedArgs
	if len(args) == 0 {
		writeUsage(out)
		return 2
	}

	switch strings.ToLower(args[0]) {
	case "simulate":
		return runSimulate(args[1:], out, errOut)
	case "mcp":
		return runMCP(args[1:], out, errOut)
	case "doctor":
		return runDoctor(args[1:], out, errOut)
	case "version", "-v", "--version":
		fmt.Fprintln(out, "continuity "+version)
		return 0
	case "help", "-h", "--help":
		writeUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n", args[0])
		writeUsage(errOut)
		return 2
	}
}

// splitGlobalFlags extracts a --data-dir=<path> (or --data-dir <path>)
// global flag from any position in args, before or after the
// subcommand, and returns the remaining args in their original order.
func splitGlobalFlags(args []string) ([]string, string, error) {
	var out []string
	var dataDir string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--data-dir":
			if i+1 >= len(args) {
				return nil, "", fmt.Errorf("--data-dir requires a value")
			}
			dataDir = args[i+1]
			i++
		case strings.HasPrefix(arg, "--data-dir="):
			dataDir = strings.TrimPrefix(arg, "--data-dir=")
		default:
			out = append(out, arg)
		}
	}
	return out, dataDir, nil
}

func writeUsage(out io.Writer) {
	fmt.Fprintln(out, "continuity: deterministic pre-run context assembly and post-run governance")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "usage: continuity [--data-dir <path>] <command> [args]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "commands:")
	fmt.Fprintln(out, "  simulate   run apply then record_run_outcome against a working directory")
	fmt.Fprintln(out, "  mcp        serve apply/record_run_outcome as MCP tools over stdio")
	fmt.Fprintln(out, "  doctor     validate store and repo resolution")
	fmt.Fprintln(out, "  version    print the version and exit")
}
