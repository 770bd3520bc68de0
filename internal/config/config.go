// Package config loads and manages the agent's TOML configuration,
// following the shape and loading idiom of the teacher's
// internal/config/config.go (BurntSushi/toml, a New()-populated
// default struct, LoadFile/LoadDefault).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the agent's top-level configuration.
type Config struct {
	Agent     AgentConfig     `toml:"agent"`
	Bridge    BridgeConfig    `toml:"bridge"`
	VLM       LLMConfig       `toml:"vlm"`
	Loop      LoopConfig      `toml:"loop"`
	Storage   StorageConfig   `toml:"storage"`
	Skills    SkillsConfig    `toml:"skills"`
	Dashboard DashboardConfig `toml:"dashboard"`
}

// AgentConfig contains agent identification settings.
type AgentConfig struct {
	ID        string `toml:"id"`
	Workspace string `toml:"workspace"`
}

// BridgeConfig configures the in-process game bridge client.
type BridgeConfig struct {
	Endpoint       string `toml:"endpoint"` // in-process dial target
	CallTimeoutSec int    `toml:"call_timeout_sec"`
}

// LLMConfig describes the VLM profile, reusing the teacher's
// LLMConfig/Profile shape since the VLM is, structurally, just another
// LLM provider profile (image+text in, text out).
type LLMConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	APIKeyEnv  string `toml:"api_key_env"`
	BaseURL    string `toml:"base_url"`
	MaxTokens  int    `toml:"max_tokens"`
	TimeoutSec int    `toml:"timeout_sec"` // default 30s per §5
}

// LoopConfig holds the agent loop's cadence and failure thresholds.
// CommentaryCadence, StuckThresholdTicks, PhantomFailThreshold and
// TargetFailThreshold are not read by the executor, which uses fixed
// values equal to the defaults noted below.
type LoopConfig struct {
	ThinkIntervalMS      int `toml:"think_interval_ms"`      // 1000-2000 per §4.1
	CommentaryCadence    int `toml:"commentary_cadence"`     // default 5 (§4.6)
	StuckThresholdTicks  int `toml:"stuck_threshold_ticks"`  // default 10 (§4.6)
	PhantomFailThreshold int `toml:"phantom_fail_threshold"` // default 2 (§4.6, §7)
	TargetFailThreshold  int `toml:"target_fail_threshold"`  // default 3 (§4.6, §7)
	ReplanPeriodHours    int `toml:"replan_period_hours"`    // default 2 (§4.6)
}

// StorageConfig locates the persisted plan/lessons/carryover files.
type StorageConfig struct {
	Path string `toml:"path"` // base directory for all persistent data
}

// SkillsConfig locates the declarative skill catalog.
type SkillsConfig struct {
	CatalogPath string `toml:"catalog_path"`
}

// DashboardConfig configures the telemetry publisher.
type DashboardConfig struct {
	Enabled       bool   `toml:"enabled"`
	NATSURL       string `toml:"nats_url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

// New returns a Config populated with sane defaults.
func New() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Endpoint:       "inproc://bridge",
			CallTimeoutSec: 5,
		},
		VLM: LLMConfig{
			MaxTokens:  4096,
			TimeoutSec: 30,
		},
		Loop: LoopConfig{
			ThinkIntervalMS:      1500,
			CommentaryCadence:    5,
			StuckThresholdTicks:  10,
			PhantomFailThreshold: 2,
			TargetFailThreshold:  3,
			ReplanPeriodHours:    2,
		},
		Storage: StorageConfig{
			Path: "~/.local/farmagent",
		},
		Skills: SkillsConfig{
			CatalogPath: "configs/skills.yaml",
		},
		Dashboard: DashboardConfig{
			SubjectPrefix: "farmagent",
		},
	}
}

// Default returns a default configuration (alias kept for parity with
// the teacher's Default()/New() pair).
func Default() *Config { return New() }

// LoadFile loads configuration from a TOML file, defaults first.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadDefault loads agent.toml from the current directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return LoadFile(filepath.Join(cwd, "agent.toml"))
}

// GetAPIKey returns the VLM API key from its configured environment variable.
func (c *Config) GetAPIKey() string {
	envVar := c.VLM.APIKeyEnv
	if envVar == "" {
		envVar = DefaultAPIKeyEnv(c.VLM.Provider)
	}
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

// DefaultAPIKeyEnv returns the default environment variable name for a provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}
