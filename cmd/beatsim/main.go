// cmd/beatsim replays a schedule without a terminal or audio device. It feeds
// fixed frame deltas to a session wired to a recording binding and prints
// every audio call and group change, which makes schedule files easy to check.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/kingrea/beatblocks/internal/audio"
	"github.com/kingrea/beatblocks/internal/config"
	"github.com/kingrea/beatblocks/internal/haptic"
	"github.com/kingrea/beatblocks/internal/logging"
	"github.com/kingrea/beatblocks/internal/session"
	"github.com/kingrea/beatblocks/internal/toggle"
)

func main() {
	configFile := flag.String("config", "", "schedule file (.yaml or .toml); defaults apply when empty")
	frameCount := flag.Int("frames", 120, "number of frames to simulate")
	fps := flag.Float64("fps", 60, "simulated frames per second")
	exitAt := flag.Int("exit-at", -1, "frame at which the scene exits (-1 disables)")
	enterAt := flag.Int("enter-at", -1, "frame at which the scene is re-entered (-1 disables)")
	quiet := flag.Bool("quiet", false, "only print group changes")
	sets := keyValueFlag{}
	flag.Var(&sets, "set", "schedule override (key=value, repeatable)")
	flag.Parse()

	if *fps <= 0 {
		die("--fps must be positive")
	}
	schedule, err := loadSchedule(*configFile, sets)
	if err != nil {
		die("load schedule: %v", err)
	}
	rec := &audio.Recorder{}
	pulses := &haptic.Counter{}
	s, err := session.New(schedule,
		session.WithAudio(rec),
		session.WithHaptics(pulses),
		session.WithLogger(logging.NewWriter(os.Stderr)),
	)
	if err != nil {
		die("%v", err)
	}
	for g := 0; g < schedule.GroupCount; g++ {
		g := g
		_, _ = s.Register(g, toggle.MemberFuncs{
			Activate: func() { fmt.Printf("  group %d activated\n", g) },
			Pending:  func() { fmt.Printf("  group %d pending\n", g) },
		})
	}

	if err := s.Start(); err != nil {
		die("%v", err)
	}
	dt := 1 / *fps
	cues := map[string]int{}
	flushCalls(os.Stdout, rec, cues, -1, s, *quiet)
	for frame := 0; frame < *frameCount; frame++ {
		switch frame {
		case *exitAt:
			s.OnSceneExit()
			fmt.Printf("frame %d: scene exit (%s)\n", frame, s.State())
		case *enterAt:
			s.OnSceneEnter()
			active, _ := s.ActiveGroup()
			fmt.Printf("frame %d: scene enter, resynced to group %d\n", frame, active)
		}
		if err := s.Advance(dt); err != nil {
			die("frame %d: %v", frame, err)
		}
		flushCalls(os.Stdout, rec, cues, frame, s, *quiet)
	}
	s.Teardown()
	fmt.Printf("done: %d sub-beats, %d switch cues, %d pending cues, %d pulse cues, %d haptic pulses\n",
		s.Index(), cues[schedule.Cues.Switch], cues[schedule.Cues.Pending], cues[schedule.Cues.Pulse], pulses.Count())
}

// flushCalls prints and clears the recorded calls, tallying cues by name.
func flushCalls(w io.Writer, rec *audio.Recorder, cues map[string]int, frame int, s *session.Session, quiet bool) {
	if len(rec.Calls) == 0 {
		return
	}
	for _, c := range rec.Calls {
		if c.Method == "cue" {
			cues[c.Name]++
		}
	}
	if !quiet {
		parts := make([]string, 0, len(rec.Calls))
		for _, c := range rec.Calls {
			parts = append(parts, c.String())
		}
		fmt.Fprintf(w, "frame %d [%s sub-beat %d]: %s\n", frame, s.State(), s.Index(), strings.Join(parts, ", "))
	}
	rec.Reset()
}

func loadSchedule(path string, overrides keyValueFlag) (config.Schedule, error) {
	var file config.ScheduleFile
	if p := strings.TrimSpace(path); p != "" {
		var err error
		file, err = config.ReadScheduleFile(p)
		if err != nil {
			return config.Schedule{}, err
		}
	}
	if len(overrides) > 0 {
		if err := config.ApplyOverrides(&file, overrides); err != nil {
			return config.Schedule{}, err
		}
	}
	return file.Resolve()
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

type keyValueFlag map[string]string

func (kv *keyValueFlag) String() string {
	if kv == nil || len(*kv) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(*kv))
	for key, value := range *kv {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, value))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ", ")
}

func (kv *keyValueFlag) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("override key is empty in %q", value)
	}
	if *kv == nil {
		*kv = keyValueFlag{}
	}
	(*kv)[key] = val
	return nil
}
