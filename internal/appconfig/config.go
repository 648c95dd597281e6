package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int            `mapstructure:"config_version" yaml:"config_version"`
	Engine        EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Terminal      TerminalConfig `mapstructure:"terminal" yaml:"terminal"`
	SSH           SSHConfig      `mapstructure:"ssh" yaml:"ssh"`
	HTTP          HTTPConfig     `mapstructure:"http" yaml:"http"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// EngineConfig configures the container engine endpoint.
type EngineConfig struct {
	Address        string `mapstructure:"address" yaml:"address"`
	APIVersion     string `mapstructure:"api_version" yaml:"api_version"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// TerminalConfig controls terminal layout and the shell started for exec sessions.
type TerminalConfig struct {
	Padding     float64  `mapstructure:"padding" yaml:"padding"`
	Rows        int      `mapstructure:"rows" yaml:"rows"`
	ExecCommand []string `mapstructure:"exec_command" yaml:"exec_command"`
	// FollowSeconds is how often served consoles poll their container.
	FollowSeconds int `mapstructure:"follow_seconds" yaml:"follow_seconds"`
}

// SSHConfig configures the SSH front-end.
type SSHConfig struct {
	Addr               string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath        string `mapstructure:"host_key_path" yaml:"host_key_path"`
	AuthorizedKeysPath string `mapstructure:"authorized_keys_path" yaml:"authorized_keys_path"`
}

// HTTPConfig configures the HTTP front-end.
type HTTPConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	BasePath string `mapstructure:"base_path" yaml:"base_path"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = filepath.Join("/run", "user", fmt.Sprintf("%d", os.Getuid()))
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Engine: EngineConfig{
			Address:        fmt.Sprintf("unix://%s", filepath.Join(runtimeDir, "podman", "podman.sock")),
			APIVersion:     "v1.12",
			TimeoutSeconds: 30,
		},
		Terminal: TerminalConfig{
			Padding:       ConsolePadding,
			Rows:          24,
			ExecCommand:   []string{"/bin/sh"},
			FollowSeconds: 2,
		},
		SSH: SSHConfig{
			Addr:               ":27522",
			HostKeyPath:        filepath.Join(home, ".ctrconsole", "ssh_host_key"),
			AuthorizedKeysPath: filepath.Join(home, ".ssh", "authorized_keys"),
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:27580",
		},
	}, nil
}

// ConsolePadding is the horizontal chrome around a browser terminal in pixels:
// 24px panel padding on four sides, a 3px border, 21px xterm inner padding and
// a 20px scrollbar.
const ConsolePadding = 24*4 + 3 + 21 + 20

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ctrconsole", "config.yaml"), nil
}
