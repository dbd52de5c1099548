// Package config loads the crash handler configuration: built-in defaults,
// then an optional YAML file, then FAULTLINE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/willibrandon/faultline/pkg/artifact"
	"github.com/willibrandon/faultline/pkg/dumpinfo"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "FAULTLINE_CONFIG"

// Debugger backends.
const (
	DebuggerGDB   = "gdb"
	DebuggerDelve = "dlv"
	DebuggerNone  = "none"
)

// Defaults.
const (
	DefaultDebuggerTimeout = 60 * time.Second
	// DefaultHandlerFrame is the frame gdb selects for disassembly: the
	// faulting frame sits a few frames above the signal trampoline.
	DefaultHandlerFrame = 4
)

// Config is the complete crash handler configuration.
type Config struct {
	// Dir receives the artifacts. Empty means os.TempDir().
	Dir    string `yaml:"dir" env:"FAULTLINE_DIR"`
	Prefix string `yaml:"prefix" env:"FAULTLINE_PREFIX"`

	// Debugger selects the extended backtrace backend: gdb, dlv or none.
	Debugger string `yaml:"debugger" env:"FAULTLINE_DEBUGGER"`
	// DebuggerCommand overrides the command looked up for the backend.
	DebuggerCommand string `yaml:"debugger_command" env:"FAULTLINE_DEBUGGER_COMMAND"`
	// DebuggerTimeout bounds the wait for the debugger; zero waits forever.
	DebuggerTimeout time.Duration `yaml:"debugger_timeout" env:"FAULTLINE_DEBUGGER_TIMEOUT"`
	HandlerFrame    int           `yaml:"handler_frame" env:"FAULTLINE_HANDLER_FRAME"`

	// HandleIgnored installs the handler even for signals the process
	// already ignores.
	HandleIgnored bool `yaml:"handle_ignored" env:"FAULTLINE_HANDLE_IGNORED"`
	RawBacktrace  bool `yaml:"raw_backtrace" env:"FAULTLINE_RAW_BACKTRACE"`
	GoroutineDump bool `yaml:"goroutine_dump" env:"FAULTLINE_GOROUTINE_DUMP"`
	LogHistory    int  `yaml:"log_history" env:"FAULTLINE_LOG_HISTORY"`
	AllowPtrace   bool `yaml:"allow_ptrace" env:"FAULTLINE_ALLOW_PTRACE"`
	// Traceback is passed to debug.SetTraceback when set ("crash" makes the
	// runtime dump core on its own fatal errors).
	Traceback string `yaml:"traceback" env:"FAULTLINE_TRACEBACK"`
	Compress  bool   `yaml:"compress" env:"FAULTLINE_COMPRESS"`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"FAULTLINE_LOG_LEVEL"`
	Pretty *bool  `yaml:"pretty" env:"FAULTLINE_LOG_PRETTY"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Prefix:          artifact.DefaultPrefix,
		Debugger:        DebuggerGDB,
		DebuggerTimeout: DefaultDebuggerTimeout,
		HandlerFrame:    DefaultHandlerFrame,
		RawBacktrace:    true,
		GoroutineDump:   true,
		LogHistory:      dumpinfo.DefaultHistoryLines,
		AllowPtrace:     true,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. The file is path, or FAULTLINE_CONFIG when
// path is empty; a missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the crash handler cannot use.
func (c *Config) Validate() error {
	switch c.Debugger {
	case DebuggerGDB, DebuggerDelve, DebuggerNone:
	default:
		return fmt.Errorf("invalid debugger %q: must be one of gdb, dlv, none", c.Debugger)
	}
	if c.Prefix == "" {
		return fmt.Errorf("artifact prefix cannot be empty")
	}
	if strings.ContainsRune(c.Prefix, os.PathSeparator) {
		return fmt.Errorf("artifact prefix %q must not contain a path separator", c.Prefix)
	}
	if c.DebuggerTimeout < 0 {
		return fmt.Errorf("debugger timeout cannot be negative: %s", c.DebuggerTimeout)
	}
	if c.HandlerFrame < 0 {
		return fmt.Errorf("handler frame cannot be negative: %d", c.HandlerFrame)
	}
	if c.LogHistory < 0 {
		return fmt.Errorf("log history cannot be negative: %d", c.LogHistory)
	}
	return nil
}

// Command returns the command name to locate for the configured backend.
func (c *Config) Command() string {
	if c.DebuggerCommand != "" {
		return c.DebuggerCommand
	}
	return c.Debugger
}
