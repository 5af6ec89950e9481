// Package mcpserver exposes the engine's two public operations, apply
// and record_run_outcome, as MCP tools over stdio — grounded on the
// teacher's internal/app/mcp.go tool-registration shape, narrowed to
// this engine's two-operation surface.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cue-systems/continuity/internal/engine"
)

// New builds an MCP server with the apply and record_run_outcome tools
// wired to eng. name/version identify the server to the client.
func New(eng *engine.Engine, name, version string) *server.MCPServer {
	srv := server.NewMCPServer(name, version, server.WithToolCapabilities(false))

	applyTool := mcp.NewTool("continuity_apply",
		mcp.WithDescription("Assemble a continuity envelope for the next turn's prompt: anchor/context/delta sections prepended to the user's request, or a cache/delta-only reuse when nothing relevant has changed."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("sub_session_id", mcp.Required(), mcp.Description("Stable id for this conversation turn sequence")),
		mcp.WithString("cwd", mcp.Required(), mcp.Description("Working directory of the calling session")),
		mcp.WithString("project_path", mcp.Description("Explicit repo root override, if different from cwd")),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The user's latest request")),
		mcp.WithString("mode", mcp.Description("Session mode: plan|agent"), mcp.Enum("plan", "agent"), mcp.DefaultString("agent")),
		mcp.WithString("provider", mcp.Description("Calling model provider: claude|codex"), mcp.Enum("claude", "codex"), mcp.DefaultString("claude")),
	)
	srv.AddTool(applyTool, func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleApply(eng, request)
	})

	recordTool := mcp.NewTool("continuity_record_run_outcome",
		mcp.WithDescription("Report the outcome of a completed turn so the governor can decide whether to keep going, snapshot, or rehydrate the session."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("sub_session_id", mcp.Required(), mcp.Description("Stable id for this conversation turn sequence")),
		mcp.WithString("cwd", mcp.Required(), mcp.Description("Working directory of the calling session")),
		mcp.WithString("project_path", mcp.Description("Explicit repo root override, if different from cwd")),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The user's request for the turn that just completed")),
		mcp.WithString("assistant_response", mcp.Description("The assistant's final response text for that turn")),
		mcp.WithString("mode", mcp.Description("Session mode: plan|agent"), mcp.Enum("plan", "agent"), mcp.DefaultString("agent")),
		mcp.WithString("provider", mcp.Description("Calling model provider: claude|codex"), mcp.Enum("claude", "codex"), mcp.DefaultString("claude")),
		mcp.WithNumber("injected_bytes", mcp.Description("Bytes injected into the prompt by the preceding apply call")),
		mcp.WithBoolean("was_error", mcp.Description("Whether the turn ended in a tool/run error")),
	)
	srv.AddTool(recordTool, func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRecordRunOutcome(eng, request)
	})

	return srv
}

func handleApply(eng *engine.Engine, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subSessionID, err := request.RequireString("sub_session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cwd, err := request.RequireString("cwd")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prompt, err := request.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := eng.Apply(engine.ApplyInput{
		SubSessionID: subSessionID,
		Cwd:          cwd,
		ProjectPath:  strings.TrimSpace(request.GetString("project_path", "")),
		Prompt:       prompt,
		Mode:         sessionModeOf(request.GetString("mode", "agent")),
		Provider:     providerOf(request.GetString("provider", "claude")),
	})

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: out.PromptOut},
		},
		StructuredContent: out,
	}, nil
}

func handleRecordRunOutcome(eng *engine.Engine, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subSessionID, err := request.RequireString("sub_session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cwd, err := request.RequireString("cwd")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prompt, err := request.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := eng.RecordRunOutcome(engine.RecordRunOutcomeInput{
		SubSessionID:      subSessionID,
		Cwd:               cwd,
		ProjectPath:       strings.TrimSpace(request.GetString("project_path", "")),
		Provider:          providerOf(request.GetString("provider", "claude")),
		Mode:              sessionModeOf(request.GetString("mode", "agent")),
		Prompt:            prompt,
		AssistantResponse: request.GetString("assistant_response", ""),
		InjectedBytes:     request.GetInt("injected_bytes", 0),
		WasError:          request.GetBool("was_error", false),
	})

	summary := fmt.Sprintf("action=%s reasons=%s", out.Action, strings.Join(out.Reasons, ","))
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: summary},
		},
		StructuredContent: out,
	}, nil
}

func sessionModeOf(v string) engine.SessionMode {
	if strings.EqualFold(v, "plan") {
		return engine.SessionModePlan
	}
	return engine.SessionModeAgent
}

func providerOf(v string) engine.Provider {
	if strings.EqualFold(v, "codex") {
		return engine.ProviderCodex
	}
	return engine.ProviderClaude
}
