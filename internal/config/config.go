package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
)

const (
	fileMode = 0o600
	dirMode  = 0o750
)

// Sentinel errors.
var (
	ErrNotFound = errors.New("no taskdeck config found")
	ErrInvalid  = errors.New("invalid config")
)

// Config represents the taskdeck configuration.
type Config struct {
	Version int          `yaml:"version"`
	Server  ServerConfig `yaml:"server"`
	Board   BoardConfig  `yaml:"board"`
	Locale  string       `yaml:"locale"`
	TUI     TUIConfig    `yaml:"tui,omitempty"`

	// LegacyBaseURL is the v1 top-level base_url, moved to server.base_url.
	LegacyBaseURL string `yaml:"base_url,omitempty"`

	dir             string `yaml:"-"`
	baseURLOverride string `yaml:"-"`
}

// ServerConfig locates the backend.
type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout,omitempty"`
}

// BoardConfig holds board metadata.
type BoardConfig struct {
	Name string `yaml:"name"`
}

// TUIConfig holds TUI-specific display settings.
type TUIConfig struct {
	TitleLines int `yaml:"title_lines,omitempty"`
	BodyLines  int `yaml:"body_lines,omitempty"`
}

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout.String(),
		},
		Board:  BoardConfig{Name: DefaultBoardName},
		Locale: DefaultLocale,
		TUI:    TUIConfig{TitleLines: DefaultTitleLines},
	}
}

// DefaultDir returns ~/.config/taskdeck (or the platform equivalent).
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Dir returns the absolute path to the config directory.
func (c *Config) Dir() string {
	return c.dir
}

// SetDir sets the config directory path.
func (c *Config) SetDir(dir string) {
	c.dir = dir
}

// ConfigPath returns the absolute path to the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.dir, ConfigFileName)
}

// SessionPath returns the absolute path to the session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.dir, SessionFileName)
}

// BaseURL returns the API root: an override (flag or environment) when set,
// otherwise server.base_url.
func (c *Config) BaseURL() string {
	if c.baseURLOverride != "" {
		return c.baseURLOverride
	}
	return c.Server.BaseURL
}

// OverrideBaseURL sets a base URL that wins over the file and is never saved.
func (c *Config) OverrideBaseURL(u string) error {
	if err := validateBaseURL(u); err != nil {
		return err
	}
	c.baseURLOverride = u
	return nil
}

// Timeout parses server.timeout. An empty value means DefaultTimeout.
func (c *Config) Timeout() time.Duration {
	if c.Server.Timeout == "" {
		return DefaultTimeout
	}
	d, err := time.ParseDuration(c.Server.Timeout)
	if err != nil {
		return DefaultTimeout
	}
	return d
}

// LanguageTag parses locale, falling back to English.
func (c *Config) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// TitleLines returns the configured number of title lines for TUI cards.
// Returns DefaultTitleLines if the value is unset (zero).
func (c *Config) TitleLines() int {
	if c.TUI.TitleLines == 0 {
		return DefaultTitleLines
	}
	return c.TUI.TitleLines
}

// BodyLines returns the configured number of description preview lines for
// TUI cards. Returns 0 (disabled) if the value is unset.
func (c *Config) BodyLines() int {
	return c.TUI.BodyLines
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if c.Board.Name == "" {
		return fmt.Errorf("%w: board.name is required", ErrInvalid)
	}
	if err := validateBaseURL(c.Server.BaseURL); err != nil {
		return err
	}
	if c.Server.Timeout != "" {
		d, err := time.ParseDuration(c.Server.Timeout)
		if err != nil {
			return fmt.Errorf("%w: invalid server.timeout %q: %w", ErrInvalid, c.Server.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: server.timeout must be positive", ErrInvalid)
		}
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("%w: invalid locale %q: %w", ErrInvalid, c.Locale, err)
	}
	return c.validateTUI()
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: server.base_url %q must be an http(s) URL", ErrInvalid, raw)
	}
	return nil
}

func (c *Config) validateTUI() error {
	const minTitleLines, maxTitleLines = 1, 3
	if c.TUI.TitleLines != 0 && (c.TUI.TitleLines < minTitleLines || c.TUI.TitleLines > maxTitleLines) {
		return fmt.Errorf("%w: tui.title_lines must be between %d and %d",
			ErrInvalid, minTitleLines, maxTitleLines)
	}
	const maxBodyLines = 2
	if c.TUI.BodyLines < 0 || c.TUI.BodyLines > maxBodyLines {
		return fmt.Errorf("%w: tui.body_lines must be between 0 and %d", ErrInvalid, maxBodyLines)
	}
	return nil
}

// Save writes the config to its config file, creating the directory.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.dir, dirMode); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(c.ConfigPath(), data, fileMode)
}

// Load reads, migrates and validates the config in dir, then applies the
// TASKDECK_BASE_URL override. It returns ErrNotFound when there is no file.
func Load(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	path := filepath.Join(absDir, ConfigFileName)
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted source
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.dir = absDir

	oldVersion := cfg.Version
	if err := migrate(&cfg); err != nil {
		return nil, err
	}
	if cfg.Version != oldVersion {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("saving migrated config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if env := os.Getenv(EnvBaseURL); env != "" {
		if err := cfg.OverrideBaseURL(env); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvBaseURL, err)
		}
	}
	return &cfg, nil
}

// LoadOrInit loads the config in dir, writing the defaults first when the
// directory has none.
func LoadOrInit(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if !errors.Is(err, ErrNotFound) {
		return cfg, err
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	def := NewDefault()
	def.SetDir(absDir)
	if err := def.Save(); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}
	return Load(absDir)
}
