// Package rehydrate implements the rehydrate action (spec §4.14):
// replacing a session's message log with a single synthetic carry-over
// message summarizing recent artifacts.
package rehydrate

import (
	"strings"

	"github.com/cue-systems/continuity/internal/hashutil"
	"github.com/cue-systems/continuity/internal/store"
)

const (
	maxArtifacts           = 6
	artifactLineClampBytes = 180
	promptClampBytes       = 600
)

// MessagePart is one part of a session message (spec §6 Session
// message store collaborator interface).
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message is one entry of a session's message log.
type Message struct {
	Role  string        `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// Session is the subset of the external session record rehydrate reads
// and mutates.
type Session struct {
	Messages   []Message
	SessionID  string
	StreamID   string
	Mode       string
	ChatID     string
}

// SessionStore is the collaborator interface spec §6 names: read/write
// a sub-session record and touch its parent chat's updated_at.
type SessionStore interface {
	LoadSession(subSessionID string) (Session, bool, error)
	ReplaceMessages(subSessionID string, messages []Message) error
	ClearProviderHandles(subSessionID string) error
	TouchParentChat(chatID string) error
}

// Perform executes spec §4.14's steps. recentArtifacts is called with
// limit 6 and supplies the most recent artifacts for subSessionID,
// newest first, of any type.
func Perform(ss SessionStore, subSessionID string, reasons []string, latestPrompt string, recentArtifacts func(subSessionID string, limit int) ([]store.Artifact, error)) error {
	session, ok, err := ss.LoadSession(subSessionID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	artifacts, err := recentArtifacts(subSessionID, maxArtifacts)
	if err != nil {
		return err
	}

	message := buildMessage(session.Mode, reasons, artifacts, latestPrompt)

	if err := ss.ReplaceMessages(subSessionID, []Message{message}); err != nil {
		return err
	}
	if err := ss.ClearProviderHandles(subSessionID); err != nil {
		return err
	}
	return ss.TouchParentChat(session.ChatID)
}

func buildMessage(mode string, reasons []string, artifacts []store.Artifact, latestPrompt string) Message {
	reasonText := strings.Join(reasons, ";")
	if reasonText == "" {
		reasonText = "governor-pressure"
	}

	var b strings.Builder
	b.WriteString("[1CODE_CONTINUITY_REHYDRATE]\n")
	b.WriteString("mode: " + mode + "\n")
	b.WriteString("reasons: " + reasonText + "\n")
	for _, a := range artifacts {
		b.WriteString("- " + string(a.Type) + ": " + hashutil.ClampBytes(firstNonBlankLine(a.Content), artifactLineClampBytes) + "\n")
	}
	b.WriteString("latest_user_prompt: " + hashutil.ClampBytes(latestPrompt, promptClampBytes))

	return Message{
		Role: "assistant",
		Parts: []MessagePart{
			{Type: "text", Text: b.String()},
		},
	}
}

func firstNonBlankLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
