// Package engine wires the leaf packages (config, store, repoprobe,
// pack, governor, artifact, safeguard, rehydrate, telemetry) behind the
// Continuity Engine's two public operations, apply and
// record_run_outcome (spec §4.8, §4.13). Both operations never return
// an error: every internal failure degrades to a conservative default
// (spec §7 "never-throws").
package engine

import (
	"sync"
	"time"

	"github.com/cue-systems/continuity/internal/config"
	"github.com/cue-systems/continuity/internal/rehydrate"
	"github.com/cue-systems/continuity/internal/store"
	"github.com/cue-systems/continuity/internal/telemetry"
)

// SessionMode is the per-turn request mode (distinct from
// config.Mode, the engine-wide continuity_mode).
type SessionMode string

const (
	SessionModePlan  SessionMode = "plan"
	SessionModeAgent SessionMode = "agent"
)

// Provider identifies the calling model provider.
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderCodex  Provider = "codex"
)

// Engine is the process-wide facade. One Engine is shared by every
// sub-session; ProtocolState and the sub-session mutex are its only
// in-memory state, matching spec §5's resource policy.
type Engine struct {
	store    *store.Store
	settings config.Settings
	sessions rehydrate.SessionStore
	sink     telemetry.Sink

	mu            sync.Mutex
	protocolState map[string]string // sub_session_id -> last CacheKey
	turnLocks     map[string]*sync.Mutex
}

// New constructs an Engine. sessions may be nil if the caller never
// invokes RecordRunOutcome in active mode with rehydrate enabled; sink
// may be nil, in which case telemetry.NopSink{} is used.
func New(st *store.Store, settings config.Settings, sessions rehydrate.SessionStore, sink telemetry.Sink) *Engine {
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	return &Engine{
		store:         st,
		settings:      settings,
		sessions:      sessions,
		sink:          sink,
		protocolState: make(map[string]string),
		turnLocks:     make(map[string]*sync.Mutex),
	}
}

// lockFor serializes apply/record_run_outcome pairs per sub-session
// (spec §5 ordering guarantees).
func (e *Engine) lockFor(subSessionID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.turnLocks[subSessionID]
	if !ok {
		l = &sync.Mutex{}
		e.turnLocks[subSessionID] = l
	}
	return l
}

func (e *Engine) getProtocolState(subSessionID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.protocolState[subSessionID]
	return v, ok
}

func (e *Engine) setProtocolState(subSessionID, cacheKey string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.protocolState[subSessionID] = cacheKey
}

func now() time.Time {
	return time.Now()
}
