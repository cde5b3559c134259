// Package settings persists the small bridge-adjacent flags (currently only
// the audio disable switch) in a system-wide TOML file.
package settings

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml"
)

// DefaultPath is the system-wide settings file.
const DefaultPath = "/etc/scufbridge/config.toml"

// Settings is the full on-disk document.
type Settings struct {
	Audio Audio `toml:"audio"`
}

// Audio gates the USB audio interface side effect.
type Audio struct {
	Disabled bool `toml:"disabled"`
}

// Store reads and writes the settings file. Loads are tolerant: a missing
// or malformed file yields defaults, because the bridge must come up even
// when its tangential configuration is broken.
type Store struct {
	Path   string
	logger *slog.Logger
}

func NewStore(path string, logger *slog.Logger) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{Path: path, logger: logger}
}

func (s *Store) Load() Settings {
	var out Settings
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("settings unreadable, using defaults", "path", s.Path, "error", err)
		}
		return out
	}
	if err := toml.Unmarshal(data, &out); err != nil {
		s.logger.Warn("malformed settings, using defaults", "path", s.Path, "error", err)
		return Settings{}
	}
	return out
}

func (s *Store) Save(v Settings) error {
	data, err := toml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	s.logger.Info("saved settings", "path", s.Path)
	return nil
}

// AudioDisabled is the single query the bridge needs; any failure reads as
// the default (audio enabled).
func (s *Store) AudioDisabled() bool {
	return s.Load().Audio.Disabled
}

// SetAudioDisabled flips the flag and persists it.
func (s *Store) SetAudioDisabled(disabled bool) error {
	v := s.Load()
	v.Audio.Disabled = disabled
	return s.Save(v)
}
