// SPDX-License-Identifier: MPL-2.0

// Package config loads the bitsmith configuration: built-in defaults,
// overlaid by an optional CUE config file, overlaid by BITSMITH_* environment
// variables. CLI flags are applied on top by the command layer, so the full
// precedence is flags > env > config file > defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"bitsmith-cli/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for config directory resolution.
	AppName = "bitsmith"
	// ConfigFileName is the config file name (with extension).
	ConfigFileName = "config.cue"
	// EnvPrefix is the prefix for all environment variable overrides.
	EnvPrefix = "BITSMITH"
)

//go:embed config_schema.cue
var configSchema string

type (
	// Config is the effective bitsmith configuration.
	Config struct {
		// Toolchain is the local toolchain binary override (path or command name).
		Toolchain string `mapstructure:"toolchain"`
		// ContainerEngine is the preferred engine for the container backend.
		ContainerEngine string `mapstructure:"container_engine"`
		// Container configures the container backend.
		Container ContainerConfig `mapstructure:"container"`
		// Remote configures the remote backend.
		Remote RemoteConfig `mapstructure:"remote"`
		// UI holds presentation settings.
		UI UIConfig `mapstructure:"ui"`
	}

	// ContainerConfig selects the container backend when Image is non-empty.
	ContainerConfig struct {
		Image    string `mapstructure:"image"`
		Platform string `mapstructure:"platform"`
	}

	// RemoteConfig selects the remote backend when Host is non-empty.
	RemoteConfig struct {
		Host      string `mapstructure:"host"`
		User      string `mapstructure:"user"`
		Port      int    `mapstructure:"port"`
		Dir       string `mapstructure:"dir"`
		Toolchain string `mapstructure:"toolchain"`
	}

	// UIConfig holds presentation settings.
	UIConfig struct {
		Verbose bool `mapstructure:"verbose"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: "docker",
		Remote: RemoteConfig{
			Port: 22,
			Dir:  "bitsmith-build",
		},
	}
}

// envBindings maps viper keys to their environment variable equivalents.
var envBindings = map[string]string{
	"toolchain":          EnvPrefix + "_TOOLCHAIN",
	"container_engine":   EnvPrefix + "_CONTAINER_ENGINE",
	"container.image":    EnvPrefix + "_CONTAINER_IMAGE",
	"container.platform": EnvPrefix + "_CONTAINER_PLATFORM",
	"remote.host":        EnvPrefix + "_REMOTE_HOST",
	"remote.user":        EnvPrefix + "_REMOTE_USER",
	"remote.port":        EnvPrefix + "_REMOTE_PORT",
	"remote.dir":         EnvPrefix + "_REMOTE_DIR",
	"remote.toolchain":   EnvPrefix + "_REMOTE_TOOLCHAIN",
}

// ConfigDir returns the bitsmith configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load builds the effective configuration. cfgFile, when non-empty, is used
// exclusively; otherwise the per-user config directory and the current
// directory are probed for an optional config.cue.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("container_engine", defaults.ContainerEngine)
	v.SetDefault("remote.port", defaults.Remote.Port)
	v.SetDefault("remote.dir", defaults.Remote.Dir)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	path, err := resolveConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext(issue.CategoryConfig).
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the expected schema").
				Wrap(err).
				BuildError()
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, issue.NewErrorContext(issue.CategoryConfig).
			WithOperation("decode configuration").
			WithResource(path).
			Wrap(err).
			BuildError()
	}
	return cfg, nil
}

func resolveConfigFile(cfgFile string) (string, error) {
	if cfgFile != "" {
		if !fileExists(cfgFile) {
			return "", issue.NewErrorContext(issue.CategoryConfig).
				WithOperation("load configuration").
				WithResource(cfgFile).
				WithSuggestion("Verify the file path is correct").
				Wrap(fmt.Errorf("config file not found")).
				BuildError()
		}
		return cfgFile, nil
	}

	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	userPath := filepath.Join(cfgDir, ConfigFileName)
	if fileExists(userPath) {
		return userPath, nil
	}
	localPath := AppName + ".cue"
	if fileExists(localPath) {
		return localPath, nil
	}
	return "", nil
}

// loadCUEIntoViper parses a CUE config file, validates it against the
// embedded schema, and merges the decoded values into viper beneath any
// environment overrides.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return fmt.Errorf("failed to parse config file: %w", userValue.Err())
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	return v.MergeConfigMap(configMap)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
