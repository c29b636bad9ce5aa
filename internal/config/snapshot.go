package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot captures where a session was when it was suspended so a reload can
// resume on the same phase.
type Snapshot struct {
	Index           int       `yaml:"index"`
	Elapsed         float64   `yaml:"elapsed"`
	LeadInRemaining int       `yaml:"lead_in_remaining"`
	Started         bool      `yaml:"started"`
	ActiveGroup     int       `yaml:"active_group"`
	GroupCount      int       `yaml:"group_count"`
	SavedAt         time.Time `yaml:"saved_at"`
}

// SaveSnapshot writes snap to path, creating parent directories.
func SaveSnapshot(path string, snap Snapshot) error {
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now().UTC()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: ensure state dir: %w", err)
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("config: encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot. The boolean is false when none was saved.
func LoadSnapshot(path string) (Snapshot, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("config: read %s: %w", path, err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return snap, true, nil
}

// ClearSnapshot removes a saved snapshot if present.
func ClearSnapshot(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
