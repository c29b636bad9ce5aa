// internal/tui/app.go
//
// The terminal front end for beatblocks. It uses bubbletea, which follows
// The Elm Architecture:
//
// 1. Model: the App, which owns the rhythm session
// 2. Update: frame ticks and key presses mutate the session
// 3. View: the toggle groups rendered as blocks
//
// Every call into the session happens on the bubbletea update loop, so the
// session is never touched from two goroutines.

package tui

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/beatblocks/internal/audio"
	"github.com/kingrea/beatblocks/internal/config"
	"github.com/kingrea/beatblocks/internal/haptic"
	"github.com/kingrea/beatblocks/internal/logbook"
	"github.com/kingrea/beatblocks/internal/session"
	"github.com/kingrea/beatblocks/internal/toggle"
)

const (
	frameInterval = time.Second / 60
	// frames longer than this are treated as a stall and capped so a
	// suspended terminal does not replay minutes of switches at once.
	maxFrameDelta = time.Second
	flashFrames   = 12
	tempoStep     = 0.1
	minTempo      = 0.1
	maxTempo      = 4.0
	maxGroups     = 8
)

// frameMsg is delivered by tea.Tick once per frame.
type frameMsg time.Time

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithAudio sets the audio binding handed to the session.
func WithAudio(b audio.Binding) AppOption {
	return func(a *App) {
		a.audio = b
	}
}

// WithHaptics sets the device pulsed on switches.
func WithHaptics(p haptic.Pulser) AppOption {
	return func(a *App) {
		a.haptics = p
	}
}

// WithLogger routes swallowed session failures to l.
func WithLogger(l session.Logger) AppOption {
	return func(a *App) {
		a.logger = l
	}
}

// WithSnapshot resumes from a saved snapshot instead of starting fresh.
func WithSnapshot(snap config.Snapshot) AppOption {
	return func(a *App) {
		a.snapshot = &snap
	}
}

// App is the main application model.
type App struct {
	config  *config.Config
	session *session.Session
	logbook *logbook.Logbook

	audio    audio.Binding
	haptics  haptic.Pulser
	logger   session.Logger
	snapshot *config.Snapshot

	keys     keyMap
	help     help.Model
	progress progress.Model

	lastFrame   time.Time
	flash       []int
	envGroups   int
	pausedTempo float64

	statusMsg string
	err       error
	quitting  bool

	width  int
	height int
}

// NewApp builds the session described by cfg and starts it, or resumes it
// from a snapshot.
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	if cfg == nil {
		return nil, errors.New("tui: config is required")
	}
	a := &App{
		config:   cfg,
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	lb, err := logbook.New(cfg.JournalPath())
	if err != nil {
		return nil, fmt.Errorf("tui: open journal: %w", err)
	}
	a.logbook = lb
	a.envGroups = cfg.Schedule.GroupCount

	sessionOpts := []session.Option{
		session.WithJournal(lb),
		session.WithEnvironment(a.environment),
	}
	if a.audio != nil {
		sessionOpts = append(sessionOpts, session.WithAudio(a.audio))
	}
	if a.haptics != nil {
		sessionOpts = append(sessionOpts, session.WithHaptics(a.haptics))
	}
	if a.logger != nil {
		sessionOpts = append(sessionOpts, session.WithLogger(a.logger))
	}

	if a.snapshot != nil {
		s, err := session.Restore(cfg.Schedule, *a.snapshot, sessionOpts...)
		if err != nil {
			return nil, err
		}
		a.session = s
		a.envGroups = s.Registry().Len()
		a.registerMembers()
		s.OnSceneEnter()
		a.statusMsg = fmt.Sprintf("Resumed at sub-beat %d", s.Index())
		return a, nil
	}
	s, err := session.New(cfg.Schedule, sessionOpts...)
	if err != nil {
		return nil, err
	}
	a.session = s
	a.registerMembers()
	if err := s.Start(); err != nil {
		return nil, err
	}
	a.statusMsg = "Session started"
	return a, nil
}

// Session exposes the driven session.
func (a *App) Session() *session.Session { return a.session }

func (a *App) environment() session.Environment {
	return session.Environment{GroupCount: a.envGroups}
}

// registerMembers attaches a flash member to every group that has none yet.
func (a *App) registerMembers() {
	reg := a.session.Registry()
	n := reg.Len()
	for len(a.flash) < n {
		a.flash = append(a.flash, 0)
	}
	a.flash = a.flash[:n]
	for g := 0; g < n; g++ {
		if reg.Members(g) > 0 {
			continue
		}
		g := g
		_, err := a.session.Register(g, toggle.MemberFuncs{
			Activate: func() {
				if g < len(a.flash) {
					a.flash[g] = flashFrames
				}
			},
			Finish: func() {
				if g < len(a.flash) {
					a.flash[g] = 0
				}
			},
		})
		if err != nil {
			a.logWarn("register group %d: %v", g, err)
		}
	}
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nextFrame()
}

func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.progress.Width = max(10, min(40, msg.Width-10))
		return a, nil

	case frameMsg:
		if a.quitting {
			return a, nil
		}
		a.advanceFrame(time.Time(msg))
		return a, nextFrame()

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) advanceFrame(now time.Time) {
	for g := range a.flash {
		if a.flash[g] > 0 {
			a.flash[g]--
		}
	}
	if a.lastFrame.IsZero() {
		a.lastFrame = now
		return
	}
	dt := now.Sub(a.lastFrame)
	a.lastFrame = now
	if dt <= 0 {
		return
	}
	if dt > maxFrameDelta {
		dt = maxFrameDelta
	}
	if err := a.session.Advance(dt.Seconds()); err != nil {
		a.err = err
	}
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, a.quit()

	case key.Matches(msg, a.keys.Exit):
		a.session.OnSceneExit()
		a.statusMsg = fmt.Sprintf("Scene exited (%s)", a.session.State())

	case key.Matches(msg, a.keys.Enter):
		if a.session.State() != session.StateSuspended {
			a.statusMsg = "Nothing to re-enter"
			break
		}
		a.session.OnSceneEnter()
		a.registerMembers()
		active, _ := a.session.ActiveGroup()
		a.statusMsg = fmt.Sprintf("Re-entered: resynced to group %d", active+1)

	case key.Matches(msg, a.keys.Pause):
		if a.pausedTempo > 0 {
			a.session.SetTempo(a.pausedTempo)
			a.pausedTempo = 0
			a.statusMsg = "Rhythm resumed"
			break
		}
		a.pausedTempo = a.session.Tempo()
		a.session.SetTempo(0)
		a.statusMsg = "Rhythm paused"

	case key.Matches(msg, a.keys.Faster):
		a.nudgeTempo(tempoStep)

	case key.Matches(msg, a.keys.Slower):
		a.nudgeTempo(-tempoStep)

	case key.Matches(msg, a.keys.MoreGroup):
		a.envGroups = min(maxGroups, a.envGroups+1)
		a.statusMsg = fmt.Sprintf("%d groups after the next re-entry", a.envGroups)

	case key.Matches(msg, a.keys.LessGroup):
		a.envGroups = max(1, a.envGroups-1)
		a.statusMsg = fmt.Sprintf("%d groups after the next re-entry", a.envGroups)

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	}
	return a, nil
}

func (a *App) nudgeTempo(delta float64) {
	if a.pausedTempo > 0 {
		a.pausedTempo = clampTempo(a.pausedTempo + delta)
		a.statusMsg = fmt.Sprintf("Tempo x%.1f (paused)", a.pausedTempo)
		return
	}
	tempo := clampTempo(a.session.Tempo() + delta)
	a.session.SetTempo(tempo)
	a.statusMsg = fmt.Sprintf("Tempo x%.1f", tempo)
}

func clampTempo(t float64) float64 {
	t = math.Round(t*10) / 10
	return math.Max(minTempo, math.Min(maxTempo, t))
}

// quit saves where the session was, tears it down and exits.
func (a *App) quit() tea.Cmd {
	if a.quitting {
		return tea.Quit
	}
	a.quitting = true
	if a.session.State() != session.StateUninitialized {
		if err := config.SaveSnapshot(a.config.SnapshotPath(), a.session.Snapshot()); err != nil {
			a.logWarn("save snapshot: %v", err)
		}
	}
	a.session.Teardown()
	return tea.Quit
}
