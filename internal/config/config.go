package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys.
// "stderr.mode" is read from TTYTEST_STDERR_MODE, and so on.
const EnvPrefix = "TTYTEST"

// Config represents the complete ttytest configuration
type Config struct {
	Launch  LaunchConfig  `mapstructure:"launch"`
	Stderr  StderrConfig  `mapstructure:"stderr"`
	Wait    WaitConfig    `mapstructure:"wait"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// LaunchConfig controls how child processes are started
type LaunchConfig struct {
	// Mode is how the child is started.
	// Options: "fork", "spawn", "pty"
	Mode string `mapstructure:"mode"`
	// Encoding is the text encoding of the child's output (default: "utf-8")
	Encoding string `mapstructure:"encoding"`
	// Dir is the working directory of the child (default: current directory)
	Dir string `mapstructure:"dir"`
	// Rows and Cols set the terminal size in pty mode (default: 24x80)
	Rows int `mapstructure:"rows"`
	Cols int `mapstructure:"cols"`
}

// StderrConfig controls what happens when the child writes to stderr
type StderrConfig struct {
	// Mode is "throw" (abort the run on the first chunk) or "collect"
	// (record chunks in the stderr history)
	Mode string `mapstructure:"mode"`
}

// WaitConfig controls the default timings of waits
type WaitConfig struct {
	// TimeoutMs bounds WaitFor and Next when no per-call timeout is given
	TimeoutMs int `mapstructure:"timeout_ms"`
	// DelayMs is the default length of an unconditional delay
	DelayMs int `mapstructure:"delay_ms"`
}

// LoggingConfig controls the debug log
type LoggingConfig struct {
	// Debug logs every output chunk; it forces the level to "debug"
	Debug bool `mapstructure:"debug"`
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// Dir, when set, sends logs to {dir}/debug.log instead of stderr
	Dir string `mapstructure:"dir"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Launch: LaunchConfig{
			Mode:     "fork",
			Encoding: "utf-8",
			Rows:     24,
			Cols:     80,
		},
		Stderr: StderrConfig{
			Mode: "throw",
		},
		Wait: WaitConfig{
			TimeoutMs: 1000,
			DelayMs:   1,
		},
		Logging: LoggingConfig{
			Debug: false,
			Level: "info",
		},
	}
}

// Timeout returns the wait timeout as a time.Duration
func (c *WaitConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Delay returns the default delay as a time.Duration
func (c *WaitConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// EffectiveLevel returns the log level to use, taking Debug into account
func (c *LoggingConfig) EffectiveLevel() string {
	if c.Debug {
		return "debug"
	}
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	// Launch defaults
	v.SetDefault("launch.mode", defaults.Launch.Mode)
	v.SetDefault("launch.encoding", defaults.Launch.Encoding)
	v.SetDefault("launch.dir", defaults.Launch.Dir)
	v.SetDefault("launch.rows", defaults.Launch.Rows)
	v.SetDefault("launch.cols", defaults.Launch.Cols)

	// Stderr defaults
	v.SetDefault("stderr.mode", defaults.Stderr.Mode)

	// Wait defaults
	v.SetDefault("wait.timeout_ms", defaults.Wait.TimeoutMs)
	v.SetDefault("wait.delay_ms", defaults.Wait.DelayMs)

	// Logging defaults
	v.SetDefault("logging.debug", defaults.Logging.Debug)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)
}

// BindEnv makes every key overridable from TTYTEST_* environment variables.
// Call SetDefaults first: only keys viper knows about are looked up.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// FromEnv builds a Config from the defaults and TTYTEST_* variables only,
// without reading any file.
func FromEnv() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return Load(v)
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ttytest")
	}
	// Fall back to ~/.config/ttytest
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ttytest"
	}
	return filepath.Join(home, ".config", "ttytest")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
