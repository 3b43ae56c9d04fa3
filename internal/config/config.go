// internal/config/config.go
//
// This package handles configuration and the data directory layout.
// Settings come from built-in defaults, then retrowall.yaml, then
// RETROWALL_* environment variables, highest last.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kingrea/retro-wall/internal/quote"
	"github.com/kingrea/retro-wall/internal/store"
)

const (
	// DefaultFile is read from the working directory when no -config is given.
	DefaultFile = "retrowall.yaml"
	// DefaultDataDir holds the three quote files and the logs.
	DefaultDataDir = "data"
	// EnvPrefix marks environment overrides. Nested keys use a double
	// underscore: RETROWALL_KIOSK__EXIT_KEY.
	EnvPrefix = "RETROWALL_"

	logsDirName       = "logs"
	appLogName        = "retrowall.log"
	moderationLogName = "moderation.log"
)

// Config is the root configuration.
type Config struct {
	Store    StoreConfig    `koanf:"store"    validate:"required"`
	Kiosk    KioskConfig    `koanf:"kiosk"    validate:"required"`
	Feedback FeedbackConfig `koanf:"feedback" validate:"required"`
	Log      LogConfig      `koanf:"log"      validate:"required"`

	// Source is the file the values were read from, empty when none was.
	Source string `koanf:"-"`
}

// StoreConfig places the quote files.
type StoreConfig struct {
	Dir          string `koanf:"dir"           validate:"required"`
	PendingFile  string `koanf:"pending_file"  validate:"required,nefield=ApprovedFile,nefield=RemovedFile"`
	ApprovedFile string `koanf:"approved_file" validate:"required,nefield=RemovedFile"`
	RemovedFile  string `koanf:"removed_file"  validate:"required"`
}

// KioskConfig tunes the interaction loop.
type KioskConfig struct {
	Title             string        `koanf:"title"              validate:"required"`
	ReconcileInterval time.Duration `koanf:"reconcile_interval" validate:"min=100ms"`
	PollTimeout       time.Duration `koanf:"poll_timeout"       validate:"min=10ms,max=1s"`
	NoticeDuration    time.Duration `koanf:"notice_duration"    validate:"min=0"`
	RotateInterval    time.Duration `koanf:"rotate_interval"    validate:"min=1s"`
	TypewriterDelay   time.Duration `koanf:"typewriter_delay"   validate:"min=0"`
	ExitKey           string        `koanf:"exit_key"           validate:"required"`
	MaxNameLength     int           `koanf:"max_name_length"    validate:"min=1,max=200"`
	MaxQuoteLength    int           `koanf:"max_quote_length"   validate:"min=1,max=500"`
	WelcomeName       string        `koanf:"welcome_name"       validate:"required"`
	WelcomeQuote      string        `koanf:"welcome_quote"      validate:"required"`
}

// FeedbackConfig selects the audible cue.
type FeedbackConfig struct {
	Mode         string        `koanf:"mode"          validate:"oneof=auto none bell buzzer"`
	GPIOPin      int           `koanf:"gpio_pin"      validate:"min=1,max=40"`
	BeepDuration time.Duration `koanf:"beep_duration" validate:"min=10ms"`
}

// LogConfig controls the application log. The terminal belongs to the UI,
// so logs go to a rotating file and, under systemd, the journal.
type LogConfig struct {
	Level   string        `koanf:"level"   validate:"oneof=debug info warn error"`
	Journal string        `koanf:"journal" validate:"oneof=auto on off"`
	File    LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Path       string `koanf:"path"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Dir:          DefaultDataDir,
			PendingFile:  store.DefaultPendingFile,
			ApprovedFile: store.DefaultApprovedFile,
			RemovedFile:  store.DefaultRemovedFile,
		},
		Kiosk: KioskConfig{
			Title:             "Retro Wall",
			ReconcileInterval: 2 * time.Second,
			PollTimeout:       100 * time.Millisecond,
			NoticeDuration:    2 * time.Second,
			RotateInterval:    5 * time.Second,
			TypewriterDelay:   30 * time.Millisecond,
			ExitKey:           ")",
			MaxNameLength:     quote.DefaultMaxNameLength,
			MaxQuoteLength:    quote.DefaultMaxTextLength,
			WelcomeName:       "System",
			WelcomeQuote:      "Welcome to the Retro Wall!",
		},
		Feedback: FeedbackConfig{
			Mode:         "auto",
			GPIOPin:      18,
			BeepDuration: 120 * time.Millisecond,
		},
		Log: LogConfig{
			Level:   "info",
			Journal: "auto",
			File: LogFileConfig{
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

func defaults() map[string]any {
	return flatten(Default())
}

// flatten renders c as dotted koanf keys. Durations are kept as strings so
// they read back the way a person would write them.
func flatten(d Config) map[string]any {
	return map[string]any{
		"store.dir":           d.Store.Dir,
		"store.pending_file":  d.Store.PendingFile,
		"store.approved_file": d.Store.ApprovedFile,
		"store.removed_file":  d.Store.RemovedFile,

		"kiosk.title":              d.Kiosk.Title,
		"kiosk.reconcile_interval": d.Kiosk.ReconcileInterval.String(),
		"kiosk.poll_timeout":       d.Kiosk.PollTimeout.String(),
		"kiosk.notice_duration":    d.Kiosk.NoticeDuration.String(),
		"kiosk.rotate_interval":    d.Kiosk.RotateInterval.String(),
		"kiosk.typewriter_delay":   d.Kiosk.TypewriterDelay.String(),
		"kiosk.exit_key":           d.Kiosk.ExitKey,
		"kiosk.max_name_length":    d.Kiosk.MaxNameLength,
		"kiosk.max_quote_length":   d.Kiosk.MaxQuoteLength,
		"kiosk.welcome_name":       d.Kiosk.WelcomeName,
		"kiosk.welcome_quote":      d.Kiosk.WelcomeQuote,

		"feedback.mode":          d.Feedback.Mode,
		"feedback.gpio_pin":      d.Feedback.GPIOPin,
		"feedback.beep_duration": d.Feedback.BeepDuration.String(),

		"log.level":            d.Log.Level,
		"log.journal":          d.Log.Journal,
		"log.file.path":        d.Log.File.Path,
		"log.file.max_size":    d.Log.File.MaxSizeMB,
		"log.file.max_backups": d.Log.File.MaxBackups,
		"log.file.max_age":     d.Log.File.MaxAgeDays,
		"log.file.compress":    d.Log.File.Compress,
	}
}

// Load reads configuration with the following precedence (highest to lowest):
//  1. Environment variables (RETROWALL_ prefix)
//  2. The YAML file at path, or ./retrowall.yaml when path is empty
//  3. Default values
//
// An explicit path that does not exist is an error; the implicit default
// file is optional.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	source := ""
	if strings.TrimSpace(path) != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		source = path
	} else {
		loaded, err := loadFileIfExists(k, DefaultFile)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", DefaultFile, err)
		}
		if loaded {
			source = DefaultFile
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, EnvPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Source = source
	cfg.normalize()
	return &cfg, nil
}

// loadFileIfExists loads a YAML config file if it exists.
func loadFileIfExists(k *koanf.Koanf, path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Config) normalize() {
	c.Store.Dir = filepath.Clean(strings.TrimSpace(c.Store.Dir))
	c.Store.PendingFile = strings.TrimSpace(c.Store.PendingFile)
	c.Store.ApprovedFile = strings.TrimSpace(c.Store.ApprovedFile)
	c.Store.RemovedFile = strings.TrimSpace(c.Store.RemovedFile)
	c.Feedback.Mode = strings.ToLower(strings.TrimSpace(c.Feedback.Mode))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Journal = strings.ToLower(strings.TrimSpace(c.Log.Journal))
	c.Log.File.Path = strings.TrimSpace(c.Log.File.Path)
}

// SetDataDir overrides the store directory, as the -data flag does.
func (c *Config) SetDataDir(dir string) {
	if dir = strings.TrimSpace(dir); dir != "" {
		c.Store.Dir = filepath.Clean(dir)
	}
}

// StoreFileNames returns the file names handed to store.NewSet.
func (c *Config) StoreFileNames() store.FileNames {
	return store.FileNames{
		Pending:  c.Store.PendingFile,
		Approved: c.Store.ApprovedFile,
		Removed:  c.Store.RemovedFile,
	}
}

// Limits returns the submission field caps.
func (c *Config) Limits() quote.Limits {
	return quote.Limits{MaxName: c.Kiosk.MaxNameLength, MaxText: c.Kiosk.MaxQuoteLength}
}

// Welcome returns the placeholder shown when nothing is approved.
func (c *Config) Welcome() quote.Quote {
	return quote.Quote{Name: c.Kiosk.WelcomeName, Text: c.Kiosk.WelcomeQuote}
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.Store.Dir, logsDirName)
}

// LogFilePath returns the application log file.
func (c *Config) LogFilePath() string {
	if c.Log.File.Path != "" {
		return c.Log.File.Path
	}
	return filepath.Join(c.LogsDir(), appLogName)
}

// ModerationLogPath returns the audit trail file.
func (c *Config) ModerationLogPath() string {
	return filepath.Join(c.LogsDir(), moderationLogName)
}
