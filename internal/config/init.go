package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

const defaultConfigHeader = `# retrowall configuration
#
# Every key can be overridden from the environment, e.g.
#   RETROWALL_STORE__DIR=/srv/wall
#   RETROWALL_KIOSK__EXIT_KEY=")"
#
# feedback.mode: auto (buzzer on a Raspberry Pi, silent elsewhere), none, bell, buzzer
# log.journal:   auto (journald when running as a systemd unit), on, off

`

// InitDataDir creates the data directory structure used by the kiosk.
//
// Structure created:
// <store.dir>/
// └── logs/   <- application log and moderation trail
//
// The three quote files are created by the store set itself.
func InitDataDir(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	if err := os.MkdirAll(cfg.LogsDir(), 0o755); err != nil {
		return fmt.Errorf("config: ensure data dir: %w", err)
	}
	return nil
}

// WriteDefault writes cfg as YAML to path unless a file already exists
// there. It reports whether a file was written.
func WriteDefault(path string, cfg Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("config: stat %s: %w", path, err)
	}
	data, err := Encode(cfg)
	if err != nil {
		return false, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("config: ensure dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("config: write %s: %w", path, err)
	}
	return true, nil
}

// Encode renders cfg as commented YAML.
func Encode(cfg Config) ([]byte, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(flatten(cfg), "."), nil); err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(defaultConfigHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(k.Raw()); err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	return buf.Bytes(), nil
}
