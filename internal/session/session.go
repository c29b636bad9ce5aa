package session

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/kingrea/beatblocks/internal/audio"
	"github.com/kingrea/beatblocks/internal/beat"
	"github.com/kingrea/beatblocks/internal/config"
	"github.com/kingrea/beatblocks/internal/haptic"
	"github.com/kingrea/beatblocks/internal/toggle"
)

// State enumerates the session lifecycle phases.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLeadIn        State = "lead-in"
	StateRunning       State = "running"
	StateSuspended     State = "suspended"
	StateTornDown      State = "torn-down"
)

var (
	// ErrNotStarted is returned by Advance before Start has been called.
	ErrNotStarted = errors.New("session: not started")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("session: already started")
	// ErrTornDown is returned by Advance and Start after Teardown.
	ErrTornDown = errors.New("session: torn down")
)

// Logger receives diagnostics for failures the session swallows.
type Logger interface {
	Printf(format string, args ...any)
}

// Journal records session milestones. *logbook.Logbook satisfies it.
type Journal interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

// Environment is the part of the world that may change while the scene is
// away. Zero fields leave the current value untouched.
type Environment struct {
	GroupCount      int
	TempoMultiplier float64
}

// Option customizes a Session.
type Option func(*Session)

// WithAudio attaches the audio binding. For an ambient schedule the binding
// is treated as borrowed: the session never starts, stops or closes it.
func WithAudio(b audio.Binding) Option {
	return func(s *Session) {
		s.audio = b
	}
}

// WithHaptics attaches a device pulsed on every live switch.
func WithHaptics(p haptic.Pulser) Option {
	return func(s *Session) {
		if p != nil {
			s.haptics = p
		}
	}
}

// WithLogger routes swallowed audio and haptic failures to l.
func WithLogger(l Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithJournal records milestones to j.
func WithJournal(j Journal) Option {
	return func(s *Session) {
		if j != nil {
			s.journal = j
		}
	}
}

// WithEnvironment installs the provider consulted on scene re-entry.
func WithEnvironment(fn func() Environment) Option {
	return func(s *Session) {
		s.env = fn
	}
}

type nopJournal struct{}

func (nopJournal) Info(string, ...any) {}
func (nopJournal) Warn(string, ...any) {}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Session is the lifecycle controller. It is not safe for concurrent use;
// callers drive it from a single loop.
type Session struct {
	schedule config.Schedule
	clock    *beat.Clock
	registry *toggle.Registry

	audio    audio.Binding
	borrowed bool
	haptics  haptic.Pulser
	logger   Logger
	journal  Journal
	env      func() Environment

	state     State
	started   bool
	audioLive bool
}

// New validates the schedule and builds an uninitialized session.
func New(schedule config.Schedule, opts ...Option) (*Session, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	clock, err := beat.NewClock(schedule.BeatIndexMax, schedule.LeadIn, schedule.TempoMultiplier)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	registry, err := toggle.NewRegistry(schedule.GroupCount)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s := &Session{
		schedule: schedule,
		clock:    clock,
		registry: registry,
		borrowed: schedule.Ambient(),
		haptics:  haptic.Nop{},
		logger:   nopLogger{},
		journal:  nopJournal{},
		state:    StateUninitialized,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Start enters lead-in. With no lead-in configured playback begins at once
// and the first sub-beat is applied immediately.
func (s *Session) Start() error {
	switch s.state {
	case StateUninitialized:
	case StateTornDown:
		return ErrTornDown
	default:
		return ErrAlreadyStarted
	}
	if s.clock.InLeadIn() {
		s.state = StateLeadIn
		s.journal.Info("lead-in: %d sub-beats", s.clock.LeadInRemaining())
		return nil
	}
	s.applyTick(beat.TickEvent{Index: s.clock.Index(), PlaybackStart: true})
	return nil
}

// Advance feeds dt seconds of real time to the clock and applies every tick
// it produces in order. Suspended sessions that do not run through
// transitions ignore the call.
func (s *Session) Advance(dt float64) error {
	switch s.state {
	case StateUninitialized:
		return ErrNotStarted
	case StateTornDown:
		return ErrTornDown
	case StateSuspended:
		if !s.schedule.ActiveDuringTransitions {
			return nil
		}
	}
	events, err := s.clock.Advance(dt)
	if err != nil {
		s.logger.Printf("session: advance %v: %v", dt, err)
		return err
	}
	for _, ev := range events {
		s.applyTick(ev)
	}
	return nil
}

func (s *Session) applyTick(ev beat.TickEvent) {
	if ev.PlaybackStart {
		s.beginPlayback()
	}
	live := s.started
	kind := beat.Classify(ev.Index, s.schedule.Period())
	if live || s.schedule.PreRollVisuals {
		if kind.Has(beat.Switch) {
			s.switchGroup(ev.Index, live)
		}
		if kind.Has(beat.PreSwitch) {
			s.markPending()
			if live {
				s.cue(s.schedule.Cues.Pending)
			}
		}
		if kind.Has(beat.Pulse) && live {
			s.cue(s.schedule.Cues.Pulse)
		}
	}
	if live {
		s.exportPhase(ev.Index)
	}
}

func (s *Session) beginPlayback() {
	s.started = true
	if s.state != StateSuspended {
		s.state = StateRunning
	}
	s.journal.Info("playback start")
	s.startAudio()
}

func (s *Session) switchGroup(index int, live bool) {
	active, _ := s.registry.Active()
	next := s.clampGroup(beat.NextGroup(active, s.registry.Len()))
	if err := s.registry.Activate(next); err != nil {
		s.logger.Printf("session: activate %d: %v", next, err)
		return
	}
	if !live {
		return
	}
	s.journal.Info("switch %d at sub-beat %d", next, index)
	s.cue(s.schedule.Cues.Switch)
	if err := s.haptics.Pulse(); err != nil {
		s.logger.Printf("session: haptic pulse: %v", err)
	}
}

// markPending flags the outgoing and incoming groups one sub-beat early.
func (s *Session) markPending() {
	active, ok := s.registry.Active()
	if ok {
		if err := s.registry.SetPending(active); err != nil {
			s.logger.Printf("session: pending %d: %v", active, err)
		}
	}
	next := s.clampGroup(beat.NextGroup(active, s.registry.Len()))
	if err := s.registry.SetPending(next); err != nil {
		s.logger.Printf("session: pending %d: %v", next, err)
	}
}

func (s *Session) exportPhase(index int) {
	if s.audio == nil {
		return
	}
	value := beat.Mod(index+s.schedule.BeatIndexOffset, s.clock.BeatIndexMax()) + 1
	if err := s.audio.SetParameter(audio.ParamSixteenthNote, value); err != nil {
		s.logger.Printf("session: set %s=%d: %v", audio.ParamSixteenthNote, value, err)
	}
}

func (s *Session) cue(id string) {
	if s.audio == nil || id == "" {
		return
	}
	if err := s.audio.PlayCue(id); err != nil {
		s.logger.Printf("session: cue %s: %v", id, err)
	}
}

func (s *Session) startAudio() {
	if s.audio == nil || s.borrowed || s.audioLive {
		return
	}
	if err := s.audio.Start(); err != nil {
		s.logger.Printf("session: audio start: %v", err)
		return
	}
	s.audioLive = true
}

func (s *Session) stopAudio() {
	if s.audio == nil || s.borrowed || !s.audioLive {
		return
	}
	s.audioLive = false
	if err := s.audio.Stop(); err != nil {
		s.logger.Printf("session: audio stop: %v", err)
	}
}

// OnSceneExit suspends a leading-in or running session. Unless the schedule
// runs through transitions the clock freezes and owned audio stops.
func (s *Session) OnSceneExit() {
	if s.state != StateLeadIn && s.state != StateRunning {
		return
	}
	s.state = StateSuspended
	s.journal.Info("suspend at sub-beat %d", s.clock.Index())
	if !s.schedule.ActiveDuringTransitions {
		s.stopAudio()
	}
}

// OnSceneEnter resumes a suspended session. The environment is re-read, the
// active group is recomputed from the current sub-beat and applied silently,
// and owned audio that was stopped on exit is restarted.
func (s *Session) OnSceneEnter() {
	if s.state != StateSuspended {
		return
	}
	s.refreshEnvironment()
	if !s.started {
		s.state = StateLeadIn
		s.journal.Info("resume lead-in: %d sub-beats left", s.clock.LeadInRemaining())
		return
	}
	index := s.clampGroup(s.resyncIndex())
	if err := s.registry.SilentResync(index); err != nil {
		s.logger.Printf("session: resync %d: %v", index, err)
	}
	s.state = StateRunning
	s.journal.Info("resync group %d at sub-beat %d", index, s.clock.Index())
	s.startAudio()
}

func (s *Session) resyncIndex() int {
	n := s.registry.Len()
	if s.schedule.LegacyResync {
		return LegacyResyncIndex(s.clock.Index(), s.schedule.BeatsPerTick, n)
	}
	return ModernResyncIndex(s.clock.Index(), s.schedule.SwitchPeriod(), n)
}

func (s *Session) refreshEnvironment() {
	if s.env == nil {
		return
	}
	env := s.env()
	if env.GroupCount >= 1 && env.GroupCount != s.registry.Len() {
		if err := s.registry.Resize(env.GroupCount); err != nil {
			s.logger.Printf("session: resize to %d groups: %v", env.GroupCount, err)
		} else {
			s.schedule.GroupCount = env.GroupCount
			s.journal.Info("group count now %d", env.GroupCount)
		}
	}
	if env.TempoMultiplier != 0 && !math.IsNaN(env.TempoMultiplier) && !math.IsInf(env.TempoMultiplier, 0) {
		s.clock.SetTempo(env.TempoMultiplier)
	}
}

// Teardown finishes every group and releases owned audio. It is safe to call
// from any state and more than once.
func (s *Session) Teardown() {
	if s.state == StateTornDown {
		return
	}
	s.state = StateTornDown
	s.registry.FinishAll()
	s.stopAudio()
	if c, ok := s.audio.(io.Closer); ok && !s.borrowed {
		if err := c.Close(); err != nil {
			s.logger.Printf("session: audio close: %v", err)
		}
	}
	s.journal.Info("teardown at sub-beat %d", s.clock.Index())
}

// clampGroup keeps policy output inside the registry. Out-of-range values
// cannot come from the modular arithmetic, so debug builds panic on them.
func (s *Session) clampGroup(index int) int {
	n := s.registry.Len()
	if index >= 0 && index < n {
		return index
	}
	if debugAssertions {
		panic(fmt.Sprintf("session: group index %d outside [0,%d)", index, n))
	}
	clamped := index
	if clamped < 0 {
		clamped = 0
	}
	if clamped >= n {
		clamped = n - 1
	}
	s.logger.Printf("session: clamped group index %d to %d", index, clamped)
	return clamped
}

// SetTempo changes the tempo multiplier. Values <= 0 pause the rhythm.
func (s *Session) SetTempo(tempo float64) {
	if math.IsNaN(tempo) || math.IsInf(tempo, 0) {
		return
	}
	s.clock.SetTempo(tempo)
}

// Register attaches a member to the group at index.
func (s *Session) Register(index int, member toggle.Member) (toggle.Registration, error) {
	return s.registry.Register(index, member)
}

// State returns the lifecycle phase.
func (s *Session) State() State { return s.state }

// Started reports whether lead-in has completed.
func (s *Session) Started() bool { return s.started }

// ActiveGroup returns the activated group, if any.
func (s *Session) ActiveGroup() (int, bool) { return s.registry.Active() }

// Index returns the current sub-beat index.
func (s *Session) Index() int { return s.clock.Index() }

// LeadInRemaining returns the sub-beats left before playback.
func (s *Session) LeadInRemaining() int { return s.clock.LeadInRemaining() }

// Phase returns how far the clock is through the current sub-beat.
func (s *Session) Phase() float64 { return s.clock.Phase() }

// Tempo returns the tempo multiplier.
func (s *Session) Tempo() float64 { return s.clock.Tempo() }

// Schedule returns the schedule in effect, including environment changes.
func (s *Session) Schedule() config.Schedule { return s.schedule }

// Groups returns a snapshot of every toggle group.
func (s *Session) Groups() []toggle.Group { return s.registry.Groups() }

// Registry exposes the registry for members that register late.
func (s *Session) Registry() *toggle.Registry { return s.registry }
