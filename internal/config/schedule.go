package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/beatblocks/internal/beat"
)

// ErrInvalidSchedule wraps every schedule validation failure.
var ErrInvalidSchedule = errors.New("invalid schedule")

// Track selects which default set applies to absent fields.
type Track string

const (
	// TrackStandalone is a dedicated music instance owned by the session.
	TrackStandalone Track = "standalone"
	// TrackAmbient borrows the level music that is already playing.
	TrackAmbient Track = "ambient"
)

// Format identifies the encoding of a schedule file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// CueNames maps scheduler events to audio cue identifiers.
type CueNames struct {
	Switch  string `yaml:"switch,omitempty" toml:"switch,omitempty"`
	Pulse   string `yaml:"pulse,omitempty" toml:"pulse,omitempty"`
	Pending string `yaml:"pending,omitempty" toml:"pending,omitempty"`
}

// ScheduleFile models the on-disk schedule. Pointer fields distinguish an
// absent key from an explicit zero so defaults only fill what is missing.
type ScheduleFile struct {
	Version                 int      `yaml:"version" toml:"version"`
	Track                   Track    `yaml:"track,omitempty" toml:"track,omitempty"`
	BeatsPerTick            *int     `yaml:"beats_per_tick,omitempty" toml:"beats_per_tick,omitempty"`
	TicksPerSwitch          *int     `yaml:"ticks_per_switch,omitempty" toml:"ticks_per_switch,omitempty"`
	GroupCount              *int     `yaml:"group_count,omitempty" toml:"group_count,omitempty"`
	BeatIndexMax            *int     `yaml:"beat_index_max,omitempty" toml:"beat_index_max,omitempty"`
	BeatIndexOffset         *int     `yaml:"beat_index_offset,omitempty" toml:"beat_index_offset,omitempty"`
	LeadIn                  *int     `yaml:"lead_in,omitempty" toml:"lead_in,omitempty"`
	TempoMultiplier         *float64 `yaml:"tempo_multiplier,omitempty" toml:"tempo_multiplier,omitempty"`
	LegacyResync            *bool    `yaml:"legacy_resync,omitempty" toml:"legacy_resync,omitempty"`
	ActiveDuringTransitions *bool    `yaml:"active_during_transitions,omitempty" toml:"active_during_transitions,omitempty"`
	PreRollVisuals          *bool    `yaml:"pre_roll_visuals,omitempty" toml:"pre_roll_visuals,omitempty"`
	Cues                    CueNames `yaml:"cues,omitempty" toml:"cues,omitempty"`
}

// Schedule is the resolved, immutable per-session configuration.
type Schedule struct {
	Track                   Track
	BeatsPerTick            int
	TicksPerSwitch          int
	GroupCount              int
	BeatIndexMax            int
	BeatIndexOffset         int
	LeadIn                  int
	TempoMultiplier         float64
	LegacyResync            bool
	ActiveDuringTransitions bool
	PreRollVisuals          bool
	Cues                    CueNames
}

// DefaultSchedule returns the documented defaults for a track kind.
func DefaultSchedule(track Track) Schedule {
	s := Schedule{
		Track:           TrackStandalone,
		BeatsPerTick:    4,
		TicksPerSwitch:  2,
		GroupCount:      2,
		BeatIndexMax:    beat.DefaultBeatIndexMax,
		BeatIndexOffset: 0,
		LeadIn:          16,
		TempoMultiplier: 1,
		Cues:            CueNames{Switch: "switch", Pulse: "pulse", Pending: "pending"},
	}
	if track == TrackAmbient {
		s.Track = TrackAmbient
		s.LeadIn = 0
		s.BeatIndexOffset = 5
	}
	return s
}

// Ambient reports whether the session borrows the level music.
func (s Schedule) Ambient() bool { return s.Track == TrackAmbient }

// Period returns the switch cycle for the policy layer.
func (s Schedule) Period() beat.Period {
	return beat.Period{BeatsPerTick: s.BeatsPerTick, TicksPerSwitch: s.TicksPerSwitch}
}

// SwitchPeriod is BeatsPerTick * TicksPerSwitch.
func (s Schedule) SwitchPeriod() int { return s.Period().SwitchPeriod() }

// Validate rejects schedules that cannot drive a session.
func (s Schedule) Validate() error {
	var problems []string
	if s.GroupCount < 1 {
		problems = append(problems, fmt.Sprintf("group_count must be >= 1, got %d", s.GroupCount))
	}
	if s.BeatsPerTick < 1 {
		problems = append(problems, fmt.Sprintf("beats_per_tick must be >= 1, got %d", s.BeatsPerTick))
	}
	if s.TicksPerSwitch < 1 {
		problems = append(problems, fmt.Sprintf("ticks_per_switch must be >= 1, got %d", s.TicksPerSwitch))
	}
	if s.BeatIndexMax < 1 {
		problems = append(problems, fmt.Sprintf("beat_index_max must be >= 1, got %d", s.BeatIndexMax))
	}
	if s.BeatIndexMax >= 1 && s.BeatsPerTick >= 1 && s.TicksPerSwitch >= 1 && s.BeatIndexMax%s.SwitchPeriod() != 0 {
		problems = append(problems, fmt.Sprintf("beat_index_max %d must be a multiple of the switch period %d", s.BeatIndexMax, s.SwitchPeriod()))
	}
	if s.LeadIn < 0 {
		problems = append(problems, fmt.Sprintf("lead_in must be >= 0, got %d", s.LeadIn))
	}
	if math.IsNaN(s.TempoMultiplier) || math.IsInf(s.TempoMultiplier, 0) {
		problems = append(problems, fmt.Sprintf("tempo_multiplier must be a finite number, got %v", s.TempoMultiplier))
	}
	switch s.Track {
	case TrackStandalone, TrackAmbient:
	default:
		problems = append(problems, fmt.Sprintf("track must be %q or %q, got %q", TrackStandalone, TrackAmbient, s.Track))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w: %s", ErrInvalidSchedule, strings.Join(problems, "; "))
}

// Resolve fills absent fields from the track defaults and validates the result.
func (f ScheduleFile) Resolve() (Schedule, error) {
	track := Track(strings.ToLower(strings.TrimSpace(string(f.Track))))
	if track == "" {
		track = TrackStandalone
	}
	s := DefaultSchedule(track)
	s.Track = track
	setInt(&s.BeatsPerTick, f.BeatsPerTick)
	setInt(&s.TicksPerSwitch, f.TicksPerSwitch)
	setInt(&s.GroupCount, f.GroupCount)
	setInt(&s.BeatIndexMax, f.BeatIndexMax)
	setInt(&s.BeatIndexOffset, f.BeatIndexOffset)
	setInt(&s.LeadIn, f.LeadIn)
	if f.TempoMultiplier != nil {
		s.TempoMultiplier = *f.TempoMultiplier
	}
	setBool(&s.LegacyResync, f.LegacyResync)
	setBool(&s.ActiveDuringTransitions, f.ActiveDuringTransitions)
	setBool(&s.PreRollVisuals, f.PreRollVisuals)
	if name := strings.TrimSpace(f.Cues.Switch); name != "" {
		s.Cues.Switch = name
	}
	if name := strings.TrimSpace(f.Cues.Pulse); name != "" {
		s.Cues.Pulse = name
	}
	if name := strings.TrimSpace(f.Cues.Pending); name != "" {
		s.Cues.Pending = name
	}
	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// FormatFor picks the decoder from the file extension. Anything that is not
// .toml is read as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// ReadScheduleFile reads the raw schedule without resolving defaults.
func ReadScheduleFile(path string) (ScheduleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScheduleFile{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	file, err := DecodeScheduleFile(data, FormatFor(path))
	if err != nil {
		return ScheduleFile{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return file, nil
}

// LoadSchedule reads and resolves the schedule at path. The returned error
// wraps fs.ErrNotExist when the file is missing so callers can fall back.
func LoadSchedule(path string) (Schedule, error) {
	file, err := ReadScheduleFile(path)
	if err != nil {
		return Schedule{}, err
	}
	return file.Resolve()
}

// DecodeScheduleFile parses a schedule document. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func DecodeScheduleFile(data []byte, format Format) (ScheduleFile, error) {
	var file ScheduleFile
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return ScheduleFile{}, err
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return ScheduleFile{}, err
		}
	}
	return file, nil
}

// ApplyOverrides layers key=value overrides on top of file. Keys use the YAML
// names; nested keys are dotted (cues.switch). Values are YAML scalars.
func ApplyOverrides(file *ScheduleFile, overrides map[string]string) error {
	if file == nil || len(overrides) == 0 {
		return nil
	}
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	doc := map[string]any{}
	for _, key := range keys {
		var value any
		if err := yaml.Unmarshal([]byte(overrides[key]), &value); err != nil {
			return fmt.Errorf("config: override %s: %w", key, err)
		}
		path := strings.Split(strings.TrimSpace(key), ".")
		node := doc
		for _, part := range path[:len(path)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[part] = child
			}
			node = child
		}
		node[path[len(path)-1]] = value
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: encode overrides: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(file); err != nil {
		return fmt.Errorf("config: apply overrides: %w", err)
	}
	return nil
}
