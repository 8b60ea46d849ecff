// Package config loads remotable project configuration from
// .remotable/config.yaml. Environment variables override file values, and
// CLI flags override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"remotable/internal/buildenv"
)

// Config holds all remotable configuration.
type Config struct {
	Name string `yaml:"name"`

	// Build environment defaults; the REMOTABLE_* variables and CLI flags
	// take precedence.
	Build BuildConfig `yaml:"build"`

	// Defaults are project-level attribute values applied beneath
	// per-function attribute lists.
	Defaults DefaultsConfig `yaml:"defaults"`

	// Logging controls the category file logger.
	Logging LoggingConfig `yaml:"logging"`
}

// BuildConfig configures the build environment.
type BuildConfig struct {
	OutDir string `yaml:"out_dir"`
	Local  bool   `yaml:"local"`
}

// DefaultsConfig holds project-level attribute defaults. Zero values mean
// unset.
type DefaultsConfig struct {
	Datadir    string `yaml:"datadir"`
	RPCAddress string `yaml:"rpc_address"`
	RPCPort    uint16 `yaml:"rpc_port"`
	Net        string `yaml:"net"`
}

// LoggingConfig configures the category file logger. The logging package
// reads the same file with a mirrored struct.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "remotable",
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Path returns the config file location for a workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, ".remotable", "config.yaml")
}

// Load reads the configuration, falling back to defaults when the file
// does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides lets the build-environment variables win over file
// values. The variable reads themselves live in buildenv.
func (c *Config) applyEnvOverrides() {
	env := buildenv.Lookup()
	if env.OutDir != "" {
		c.Build.OutDir = env.OutDir
	}
	if env.Local {
		c.Build.Local = true
	}
}

// Env resolves the effective build environment. The out-dir flag value (if
// any) has already been folded in by the caller; an empty OutDir is the
// missing-environment failure of the transformation contract.
func (c *Config) Env() (buildenv.Env, error) {
	if c.Build.OutDir == "" {
		return buildenv.Env{}, &buildenv.MissingEnvironmentError{Var: buildenv.EnvOutDir}
	}
	return buildenv.Env{OutDir: c.Build.OutDir, Local: c.Build.Local}, nil
}
