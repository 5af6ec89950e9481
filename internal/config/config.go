// Package config loads the engine's Settings singleton (spec §3, §6)
// from an optional TOML file, overlaid on documented defaults and
// environment variables, in the same load/merge/save shape the teacher
// uses for its own config.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Mode is the engine-wide operating mode (spec §3 Mode).
type Mode string

const (
	ModeOff     Mode = "off"
	ModePassive Mode = "passive"
	ModeActive  Mode = "active"
)

// TokenMode selects a BudgetProfile (spec §3 TokenMode).
type TokenMode string

const (
	TokenModeLow    TokenMode = "low"
	TokenModeNormal TokenMode = "normal"
	TokenModeDebug  TokenMode = "debug"
)

// ArtifactPolicy controls how memory artifacts are committed (spec §3 Settings).
type ArtifactPolicy string

const (
	ArtifactPolicyManualCommit  ArtifactPolicy = "auto-write-manual-commit"
	ArtifactPolicyMemoryBranch  ArtifactPolicy = "auto-write-memory-branch"
)

// BudgetProfile is one row of the static token-mode table (spec §3).
type BudgetProfile struct {
	MaxPackBytes           int
	MaxContextFiles        int
	MaxContextSummaryBytes int
	MaxFileReadBytes       int
}

var budgetProfiles = map[TokenMode]BudgetProfile{
	TokenModeLow: {
		MaxPackBytes:           14000,
		MaxContextFiles:        4,
		MaxContextSummaryBytes: 9000,
		MaxFileReadBytes:       90000,
	},
	TokenModeNormal: {
		MaxPackBytes:           24000,
		MaxContextFiles:        8,
		MaxContextSummaryBytes: 16000,
		MaxFileReadBytes:       180000,
	},
	TokenModeDebug: {
		MaxPackBytes:           42000,
		MaxContextFiles:        12,
		MaxContextSummaryBytes: 24000,
		MaxFileReadBytes:       300000,
	},
}

// Profile returns the BudgetProfile for mode, defaulting to normal for
// an unrecognized value (spec §7 Configuration inconsistency policy).
func Profile(mode TokenMode) BudgetProfile {
	if p, ok := budgetProfiles[mode]; ok {
		return p
	}
	return budgetProfiles[TokenModeNormal]
}

// Settings is the persisted singleton (spec §3 Settings) plus the
// process-level fields (data dir, capability flags) needed to locate
// and open the store.
type Settings struct {
	ConfigDir  string `toml:"config_dir"`
	DataDir    string `toml:"data_dir"`

	ContinuityMode        Mode           `toml:"continuity_mode"`
	TokenMode             TokenMode      `toml:"token_mode"`
	ArtifactPolicy        ArtifactPolicy `toml:"artifact_policy"`
	AutoCommitToMemory    bool           `toml:"auto_commit_to_memory_branch"`
	MemoryBranch          string         `toml:"memory_branch"`
	SnapshotEnabled        bool          `toml:"snapshot_enabled"`
	RehydrateEnabled       bool          `toml:"rehydrate_enabled"`
	PackCacheRetentionDays int           `toml:"pack_cache_retention_days"`
}

var dataDirOverride string

// SetDataDirOverride forces the data directory regardless of env/file,
// mirroring the teacher's global override hook for tests and the
// --data-dir CLI flag.
func SetDataDirOverride(path string) {
	dataDirOverride = strings.TrimSpace(path)
}

// Default returns the documented defaults (spec §6 Configuration inputs).
func Default() (Settings, error) {
	configHome, dataHome, err := xdgHomes()
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		ConfigDir:              filepath.Join(configHome, "continuity"),
		DataDir:                filepath.Join(dataHome, "continuity"),
		ContinuityMode:         ModeOff,
		TokenMode:              TokenModeNormal,
		ArtifactPolicy:         ArtifactPolicyManualCommit,
		AutoCommitToMemory:     false,
		MemoryBranch:           "memory/continuity",
		SnapshotEnabled:        true,
		RehydrateEnabled:       false,
		PackCacheRetentionDays: 30,
	}, nil
}

// Load reads defaults, overlays the TOML settings file if present, then
// applies CONTINUITY_ENABLED, CONTINUITY_MODE and CONTINUITY_TOKEN_MODE
// only when no settings file exists: once the file is present these
// variables are ignored, even for fields the file leaves unset.
// CONTINUITY_DATA_DIR (see resolveDataDir) is honoured either way and
// takes precedence over the file's data_dir. The store's settings row
// is not consulted.
func Load() (Settings, error) {
	cfg, err := Default()
	if err != nil {
		return Settings{}, err
	}

	fileOverlaid := false
	path := filepath.Join(cfg.ConfigDir, "settings.toml")
	if _, statErr := os.Stat(path); statErr == nil {
		if _, decodeErr := toml.DecodeFile(path, &cfg); decodeErr != nil {
			return Settings{}, decodeErr
		}
		fileOverlaid = true
	}

	applyEnvOverrides(&cfg, fileOverlaid)

	dataDir := resolveDataDir(cfg)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return Settings{}, err
	}
	cfg.DataDir = dataDir

	if cfg.MemoryBranch == "" {
		cfg.MemoryBranch = "memory/continuity"
	}
	if cfg.PackCacheRetentionDays <= 0 {
		cfg.PackCacheRetentionDays = 30
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Settings, fileOverlaid bool) {
	// Legacy boolean alias: CONTINUITY_ENABLED=1 => active.
	if v := strings.TrimSpace(os.Getenv("CONTINUITY_ENABLED")); v != "" && !fileOverlaid {
		if enabled, err := strconv.ParseBool(v); err == nil && enabled {
			cfg.ContinuityMode = ModeActive
		}
	}
	if v := Mode(strings.ToLower(strings.TrimSpace(os.Getenv("CONTINUITY_MODE")))); v != "" && !fileOverlaid {
		switch v {
		case ModeOff, ModePassive, ModeActive:
			cfg.ContinuityMode = v
		}
	}
	if v := TokenMode(strings.ToLower(strings.TrimSpace(os.Getenv("CONTINUITY_TOKEN_MODE")))); v != "" && !fileOverlaid {
		switch v {
		case TokenModeLow, TokenModeNormal, TokenModeDebug:
			cfg.TokenMode = v
		}
	}
}

// Save writes Settings back atomically (tmp file + rename), the same
// pattern the teacher's config.Save uses.
func (c Settings) Save() error {
	if err := os.MkdirAll(c.ConfigDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(c.ConfigDir, "settings.toml")
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// DBPath returns the sqlite path for a given repo id.
func (c Settings) DBPath(repoID string) string {
	return filepath.Join(resolveDataDir(c), "repos", repoID, "continuity.db")
}

// RepoID derives a stable, filesystem-safe directory name for root's
// per-repo store, so two different working trees never share a database.
func RepoID(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:])[:16]
}

func xdgHomes() (string, string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	dataHome := os.Getenv("XDG_DATA_HOME")
	if configHome != "" && dataHome != "" {
		return configHome, dataHome, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", err
	}
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	return configHome, dataHome, nil
}

func resolveDataDir(cfg Settings) string {
	if dataDirOverride != "" {
		return dataDirOverride
	}
	if env := strings.TrimSpace(os.Getenv("CONTINUITY_DATA_DIR")); env != "" {
		return env
	}
	if strings.TrimSpace(cfg.DataDir) != "" {
		return cfg.DataDir
	}
	return filepath.Join(".", "continuity")
}
