package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/beatblocks/internal/audio"
	"github.com/kingrea/beatblocks/internal/config"
	"github.com/kingrea/beatblocks/internal/session"
)

func newTestConfig(t *testing.T, mutate func(*config.Schedule)) *config.Config {
	t.Helper()
	projectDir := t.TempDir()
	if err := config.InitDir(projectDir); err != nil {
		t.Fatalf("init dir: %v", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if mutate != nil {
		mutate(&cfg.Schedule)
	}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...AppOption) *App {
	t.Helper()
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app
}

func sendKey(t *testing.T, app *App, keyName string) tea.Cmd {
	t.Helper()
	var msg tea.KeyMsg
	switch keyName {
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keyName)}
	}
	model, cmd := app.Update(msg)
	if _, ok := model.(*App); !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	return cmd
}

// frames feeds count frames spaced by step starting at start.
func frames(t *testing.T, app *App, start time.Time, step time.Duration, count int) time.Time {
	t.Helper()
	now := start
	for i := 0; i < count; i++ {
		model, cmd := app.Update(frameMsg(now))
		if _, ok := model.(*App); !ok {
			t.Fatalf("unexpected model type: %T", model)
		}
		if cmd == nil {
			t.Fatalf("frame %d did not schedule the next frame", i)
		}
		now = now.Add(step)
	}
	return now
}

func TestFramesDriveTheSession(t *testing.T) {
	cfg := newTestConfig(t, func(s *config.Schedule) { s.LeadIn = 0 })
	rec := &audio.Recorder{}
	app := newTestApp(t, cfg, WithAudio(rec))
	if app.Session().State() != session.StateRunning {
		t.Fatalf("state = %s, want running", app.Session().State())
	}
	start := time.Unix(1_700_000_000, 0)
	frames(t, app, start, 500*time.Millisecond, 3)
	if got := app.Session().Index(); got != 6 {
		t.Fatalf("index after one second = %d, want 6", got)
	}
	if !rec.Playing() {
		t.Fatalf("owned audio should be playing")
	}
}

func TestFirstFrameOnlyAnchorsTime(t *testing.T) {
	cfg := newTestConfig(t, func(s *config.Schedule) { s.LeadIn = 0 })
	app := newTestApp(t, cfg)
	frames(t, app, time.Unix(100, 0), time.Second, 1)
	if app.Session().Index() != 0 {
		t.Fatalf("first frame advanced the clock to %d", app.Session().Index())
	}
}

func TestLongFramesAreCapped(t *testing.T) {
	cfg := newTestConfig(t, func(s *config.Schedule) { s.LeadIn = 0 })
	app := newTestApp(t, cfg)
	frames(t, app, time.Unix(100, 0), time.Minute, 2)
	if got := app.Session().Index(); got != 6 {
		t.Fatalf("a stalled frame should advance at most one second, index=%d", got)
	}
}

func TestSceneKeysSuspendAndResync(t *testing.T) {
	cfg := newTestConfig(t, func(s *config.Schedule) {
		s.LeadIn = 0
		s.GroupCount = 3
	})
	rec := &audio.Recorder{}
	app := newTestApp(t, cfg, WithAudio(rec))
	start := time.Unix(100, 0)
	now := frames(t, app, start, time.Second/6, 14)
	if app.Session().Index() != 13 {
		t.Fatalf("index = %d, want 13", app.Session().Index())
	}
	sendKey(t, app, "x")
	if app.Session().State() != session.StateSuspended {
		t.Fatalf("x should suspend, state=%s", app.Session().State())
	}
	frames(t, app, now, time.Second/6, 4)
	if app.Session().Index() != 13 {
		t.Fatalf("clock moved while suspended: %d", app.Session().Index())
	}
	sendKey(t, app, "]")
	sendKey(t, app, "e")
	if app.Session().State() != session.StateRunning {
		t.Fatalf("e should resume, state=%s", app.Session().State())
	}
	if got := app.Session().Registry().Len(); got != 4 {
		t.Fatalf("group count after re-entry = %d, want 4", got)
	}
	if active, _ := app.Session().ActiveGroup(); active != 2 {
		t.Fatalf("resync with 4 groups at phase 5 = %d, want 2", active)
	}
	if len(app.flash) != 4 {
		t.Fatalf("new group should get a flash member, have %d", len(app.flash))
	}
	for g := 0; g < 4; g++ {
		if got := app.Session().Registry().Members(g); got != 1 {
			t.Fatalf("group %d has %d flash members, want 1", g, got)
		}
	}
	if !strings.Contains(app.statusMsg, "group 3") {
		t.Fatalf("status = %q", app.statusMsg)
	}
}

func TestPauseAndTempoKeys(t *testing.T) {
	cfg := newTestConfig(t, func(s *config.Schedule) { s.LeadIn = 0 })
	app := newTestApp(t, cfg)
	sendKey(t, app, "+")
	if got := app.Session().Tempo(); got != 1.1 {
		t.Fatalf("tempo = %v, want 1.1", got)
	}
	sendKey(t, app, "p")
	if app.Session().Tempo() != 0 {
		t.Fatalf("pause should freeze the clock")
	}
	frames(t, app, time.Unix(100, 0), time.Second, 3)
	if app.Session().Index() != 0 {
		t.Fatalf("paused clock moved to %d", app.Session().Index())
	}
	sendKey(t, app, "-")
	sendKey(t, app, "p")
	if got := app.Session().Tempo(); got != 1.0 {
		t.Fatalf("tempo after resume = %v, want 1.0", got)
	}
}

func TestQuitSavesSnapshotAndTearsDown(t *testing.T) {
	cfg := newTestConfig(t, func(s *config.Schedule) { s.LeadIn = 0 })
	rec := &audio.Recorder{}
	app := newTestApp(t, cfg, WithAudio(rec))
	frames(t, app, time.Unix(100, 0), time.Second/6, 10)
	cmd := sendKey(t, app, "q")
	if cmd == nil {
		t.Fatalf("quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
	if app.Session().State() != session.StateTornDown {
		t.Fatalf("state = %s, want torn-down", app.Session().State())
	}
	if !rec.Closed() {
		t.Fatalf("owned audio should be closed on quit")
	}
	snap, ok, err := config.LoadSnapshot(cfg.SnapshotPath())
	if err != nil || !ok {
		t.Fatalf("load snapshot: ok=%v err=%v", ok, err)
	}
	if snap.Index != 9 || !snap.Started {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	resumed := newTestApp(t, cfg, WithAudio(&audio.Recorder{}), WithSnapshot(snap))
	if resumed.Session().State() != session.StateRunning || resumed.Session().Index() != 9 {
		t.Fatalf("resumed state=%s index=%d", resumed.Session().State(), resumed.Session().Index())
	}
}

func TestViewShowsLeadInAndBlocks(t *testing.T) {
	cfg := newTestConfig(t, nil)
	app := newTestApp(t, cfg)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	view := app.View()
	for _, want := range []string{"BEATBLOCKS", "LEAD-IN", "16 left", "JOURNAL"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	frames(t, app, time.Unix(100, 0), time.Second/6, 17)
	view = app.View()
	if !strings.Contains(view, "RUNNING") {
		t.Fatalf("view should show running after lead-in:\n%s", view)
	}
	if !strings.Contains(view, "■ 1") {
		t.Fatalf("freshly activated group should flash:\n%s", view)
	}
}

func TestPhaseGlyphTracksSubbeat(t *testing.T) {
	cases := map[float64]string{0: "▁", 0.26: "▃", 0.5: "▅", 0.999: "█", 1.5: "█", -1: "▁"}
	for phase, want := range cases {
		if got := phaseGlyph(phase); got != want {
			t.Fatalf("phaseGlyph(%v) = %q, want %q", phase, got, want)
		}
	}
	cfg := newTestConfig(t, func(s *config.Schedule) { s.LeadIn = 0 })
	app := newTestApp(t, cfg)
	frames(t, app, time.Unix(100, 0), time.Second/8, 2)
	if !strings.Contains(app.View(), phaseGlyph(app.Session().Phase())) {
		t.Fatalf("view should show the sub-beat phase:\n%s", app.View())
	}
	if app.Session().Phase() < 0.7 {
		t.Fatalf("phase after 1/8s = %v, want 0.75", app.Session().Phase())
	}
}
