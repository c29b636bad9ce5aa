// internal/config/config.go
//
// This package handles schedule configuration and the .beatblocks directory
// structure. Every project that runs beatblocks gets a .beatblocks/ folder
// holding its schedule file, logs and saved session state.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the directory we create in each project
	DirName = ".beatblocks"

	scheduleYAML = "config.yaml"
	scheduleTOML = "config.toml"
)

const defaultScheduleYAML = `# beatblocks schedule configuration
version: 1

# standalone: a dedicated music instance with a lead-in of silence.
# ambient: ride the level music that is already playing (no lead-in, offset 5).
track: standalone

# Sub-beats per tick and ticks per switch. A group switch happens every
# beats_per_tick * ticks_per_switch sub-beats.
beats_per_tick: 4
ticks_per_switch: 2

group_count: 2

# Uncomment to override the track defaults.
# lead_in: 16
# beat_index_offset: 0
# beat_index_max: 256
# tempo_multiplier: 1.0

legacy_resync: false
active_during_transitions: false

cues:
  switch: switch
  pulse: pulse
  pending: pending
`

// Config holds the runtime configuration for a project.
type Config struct {
	// ProjectDir is the directory where the user ran beatblocks from
	ProjectDir string

	// StateRoot is ProjectDir/.beatblocks
	StateRoot string

	// SchedulePath is the file the schedule was read from, empty when the
	// defaults were used.
	SchedulePath string

	Schedule Schedule
}

// InitDir creates the .beatblocks directory structure in the given project
// directory and writes a default config.yaml when no schedule file exists.
//
// Structure created:
// .beatblocks/
// ├── config.yaml
// ├── logs/         <- beatblocks.log and the session journal
// └── state/        <- saved session snapshots
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, DirName)
	for _, dir := range []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "state"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, scheduleTOML)); err == nil {
		return nil
	}
	return ensureFile(filepath.Join(root, scheduleYAML), defaultScheduleYAML)
}

// NewConfig loads the project schedule. config.toml wins over config.yaml
// when both exist; a project with neither runs on the standalone defaults.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		StateRoot:  filepath.Join(projectDir, DirName),
		Schedule:   DefaultSchedule(TrackStandalone),
	}
	for _, name := range []string{scheduleTOML, scheduleYAML} {
		path := filepath.Join(cfg.StateRoot, name)
		sched, err := LoadSchedule(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		cfg.Schedule = sched
		cfg.SchedulePath = path
		break
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateRoot, "logs")
}

// StateDir returns the path to the saved state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.StateRoot, "state")
}

// JournalPath returns the session journal file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "session.log")
}

// SnapshotPath returns where the last suspended session is stored.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.StateDir(), "session.yaml")
}

func ensureFile(path, contents string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(contents), 0o644)
}
