// cmd/beatblocks/main.go
//
// This is the entry point for the beatblocks terminal player.
// When you run `beatblocks` from any directory, this is what executes.
//
// Flow:
// 1. Initialize .beatblocks/ and load the schedule
// 2. Open the speaker and any haptic devices that were asked for
// 3. Launch the TUI, which drives the rhythm session every frame

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/kingrea/beatblocks/internal/audio"
	"github.com/kingrea/beatblocks/internal/config"
	"github.com/kingrea/beatblocks/internal/haptic"
	"github.com/kingrea/beatblocks/internal/haptic/rumble"
	"github.com/kingrea/beatblocks/internal/logging"
	"github.com/kingrea/beatblocks/internal/tui"
)

const sampleRate = beep.SampleRate(44100)

// speakerLocker lets the binding mutate its mixer between speaker buffer fills.
type speakerLocker struct{}

func (speakerLocker) Lock()   { speaker.Lock() }
func (speakerLocker) Unlock() { speaker.Unlock() }

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred closes run on every path.
func run() error {
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	withAudio := flag.Bool("audio", true, "play cues through the default audio device")
	volume := flag.Float64("volume", 0, "master volume as a base-2 exponent (0 is unity)")
	midiPort := flag.String("midi", "", "MIDI output port that drives a vibration rig")
	hold := flag.Duration("hold", 40*time.Millisecond, "how long each MIDI pulse note is held")
	withRumble := flag.Bool("rumble", false, "rumble the first game controller on every switch")
	resume := flag.Bool("resume", false, "resume from the last saved session")
	flag.Parse()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
	}
	project, err := filepath.Abs(project)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}
	if err := config.InitDir(project); err != nil {
		return fmt.Errorf("init %s: %w", config.DirName, err)
	}
	cfg, err := config.NewConfig(project)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(project)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logger.Close()

	var opts []tui.AppOption
	opts = append(opts, tui.WithLogger(logger))

	if *withAudio {
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/30)); err != nil {
			return fmt.Errorf("open speaker: %w", err)
		}
		defer speaker.Close()
		binding, err := audio.NewBeepBinding(sampleRate, speaker.Play,
			audio.WithLocker(speakerLocker{}),
			audio.WithCues(cueBank(cfg.Schedule.Cues)),
			audio.WithVolume(*volume),
		)
		if err != nil {
			return fmt.Errorf("audio: %w", err)
		}
		// An ambient schedule rides music the host already plays, so the
		// host starts it and the session only borrows it.
		if cfg.Schedule.Ambient() {
			if err := binding.Start(); err != nil {
				return fmt.Errorf("start ambient music: %w", err)
			}
			defer binding.Close()
		}
		opts = append(opts, tui.WithAudio(binding))
	}

	var pulsers haptic.Multi
	if *midiPort != "" {
		defer midi.CloseDriver()
		p, err := haptic.OpenMIDIPulser(*midiPort, haptic.WithHold(*hold))
		if err != nil {
			return err
		}
		pulsers = append(pulsers, p)
	}
	if *withRumble {
		pad, err := rumble.Open(1, 60*time.Millisecond)
		if err != nil {
			return err
		}
		defer pad.Close()
		logger.Printf("rumble: using %s", pad.Name())
		pulsers = append(pulsers, pad)
	}
	if len(pulsers) > 0 {
		opts = append(opts, tui.WithHaptics(pulsers))
	}

	if *resume {
		snap, ok, err := config.LoadSnapshot(cfg.SnapshotPath())
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if ok {
			opts = append(opts, tui.WithSnapshot(snap))
		}
	}

	app, err := tui.NewApp(cfg, opts...)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer app.Session().Teardown()
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}

// cueBank lets the configured cue names play the built-in tones.
func cueBank(names config.CueNames) audio.CueBank {
	return audio.DefaultCues().Aliased(map[string]string{
		names.Switch:  "switch",
		names.Pulse:   "pulse",
		names.Pending: "pending",
	})
}
