// Package config resolves client settings from flags, environment variables,
// an optional YAML file and built-in defaults, in that order of precedence.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

// Built-in defaults.
const (
	DefaultAPIURL   = "http://127.0.0.1:8000"
	DefaultUsername = "demo"
	DefaultPassword = "demo123"
	DefaultTimeout  = 30 * time.Second
)

// Options are the global command-line options. Unset options fall back to
// the config file, then to the defaults.
type Options struct {
	APIURL    string        `long:"api-url" env:"NAJDENO_API_URL" description:"Base URL of the lost & found API"`
	State     string        `long:"state" env:"NAJDENO_STATE" description:"Path of the local state database"`
	Username  string        `short:"u" long:"username" env:"NAJDENO_USERNAME" description:"Account used for posting"`
	Password  string        `long:"password" env:"NAJDENO_PASSWORD" description:"Password of the posting account"`
	Timeout   time.Duration `long:"timeout" env:"NAJDENO_TIMEOUT" description:"HTTP request timeout"`
	Config    string        `short:"c" long:"config" env:"NAJDENO_CONFIG" description:"Path of the YAML config file"`
	LogFile   string        `long:"log-file" env:"NAJDENO_LOG_FILE" description:"Also write logs to this file"`
	Debug     bool          `long:"debug" env:"NAJDENO_DEBUG" description:"Enable debug logging"`
	Ephemeral bool          `long:"ephemeral" description:"Keep state in memory only"`
}

// File is the YAML config file.
type File struct {
	APIURL   string `yaml:"api_url"`
	State    string `yaml:"state"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Timeout  string `yaml:"timeout"`
	LogFile  string `yaml:"log_file"`
}

// Config is the resolved client configuration.
type Config struct {
	APIURL    string
	StatePath string
	Username  string
	Password  string
	Timeout   time.Duration
	LogFile   string
	Debug     bool
	Ephemeral bool
}

// NewParser returns a go-flags parser for opts. Commands are added by the caller.
func NewParser(opts *Options) *flags.Parser {
	p := flags.NewParser(opts, flags.Default)
	p.Name = "najdeno"
	p.ShortDescription = "Lost & found client"
	return p
}

// Dir returns the per-user configuration directory, ~/.najdeno.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".najdeno"
	}
	return filepath.Join(home, ".najdeno")
}

// DefaultConfigPath is the config file read when --config is not given.
func DefaultConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultStatePath is the state database used when --state is not given.
func DefaultStatePath() string {
	return filepath.Join(Dir(), "state.sqlite3")
}

// LoadFile reads a YAML config file. A missing file yields an empty File
// unless required is set.
func LoadFile(path string, required bool) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &f, nil
}

// Resolve merges opts with the config file and the defaults.
func Resolve(opts Options) (*Config, error) {
	path := cmp.Or(expandHome(opts.Config), DefaultConfigPath())
	file, err := LoadFile(path, opts.Config != "")
	if err != nil {
		return nil, err
	}

	var fileTimeout time.Duration
	if file.Timeout != "" {
		fileTimeout, err = time.ParseDuration(file.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parsing timeout %q: %w", file.Timeout, err)
		}
	}

	cfg := &Config{
		APIURL:    strings.TrimRight(cmp.Or(opts.APIURL, file.APIURL, DefaultAPIURL), "/"),
		StatePath: expandHome(cmp.Or(opts.State, file.State, DefaultStatePath())),
		Username:  cmp.Or(opts.Username, file.Username, DefaultUsername),
		Password:  cmp.Or(opts.Password, file.Password, DefaultPassword),
		Timeout:   cmp.Or(opts.Timeout, fileTimeout, DefaultTimeout),
		LogFile:   expandHome(cmp.Or(opts.LogFile, file.LogFile)),
		Debug:     opts.Debug,
		Ephemeral: opts.Ephemeral,
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative")
	}
	return cfg, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
