package beat

import "testing"

func TestClassifySwitchEverySwitchPeriod(t *testing.T) {
	p := Period{BeatsPerTick: 4, TicksPerSwitch: 2}
	var switches []int
	for i := 0; i < 64; i++ {
		if Classify(i, p).Has(Switch) {
			switches = append(switches, i)
		}
	}
	want := []int{0, 8, 16, 24, 32, 40, 48, 56}
	if len(switches) != len(want) {
		t.Fatalf("switch ticks = %v, want %v", switches, want)
	}
	for i := range want {
		if switches[i] != want[i] {
			t.Fatalf("switch ticks = %v, want %v", switches, want)
		}
	}
}

func TestClassifyPreSwitchPrecedesSwitch(t *testing.T) {
	for _, p := range []Period{
		{BeatsPerTick: 4, TicksPerSwitch: 2},
		{BeatsPerTick: 3, TicksPerSwitch: 1},
		{BeatsPerTick: 2, TicksPerSwitch: 5},
	} {
		for i := 1; i < 200; i++ {
			pre := Classify(i-1, p).Has(PreSwitch)
			sw := Classify(i, p).Has(Switch)
			if pre != sw {
				t.Fatalf("period %+v: tick %d pre-switch=%v but tick %d switch=%v", p, i-1, pre, i, sw)
			}
		}
	}
}

func TestPreSwitchSurvivesIndexWrap(t *testing.T) {
	for _, tc := range []struct {
		max int
		p   Period
	}{
		{max: DefaultBeatIndexMax, p: Period{BeatsPerTick: 4, TicksPerSwitch: 2}},
		{max: 255, p: Period{BeatsPerTick: 3, TicksPerSwitch: 1}},
		{max: 30, p: Period{BeatsPerTick: 2, TicksPerSwitch: 5}},
	} {
		clock, err := NewClock(tc.max, 0, 1)
		if err != nil {
			t.Fatalf("new clock: %v", err)
		}
		prev := Classify(clock.Index(), tc.p)
		switches := 0
		for i := 0; i < 3*tc.max+7; i++ {
			events, err := clock.Advance(SubbeatDuration)
			if err != nil || len(events) != 1 {
				t.Fatalf("advance: %d events, err=%v", len(events), err)
			}
			kind := Classify(events[0].Index, tc.p)
			if kind.Has(Switch) {
				switches++
				if !prev.Has(PreSwitch) {
					t.Fatalf("max %d period %+v: switch at index %d not preceded by pre-switch (prev=%s)", tc.max, tc.p, events[0].Index, prev)
				}
			}
			prev = kind
		}
		if want := (3*tc.max + 7) / tc.p.SwitchPeriod(); switches != want {
			t.Fatalf("max %d period %+v: %d switches, want %d", tc.max, tc.p, switches, want)
		}
	}
}

func TestClassifyPulseSkipsSwitchTicks(t *testing.T) {
	p := Period{BeatsPerTick: 4, TicksPerSwitch: 2}
	cases := map[int]TickKind{
		0: Switch,
		1: None,
		4: Pulse,
		7: PreSwitch,
		8: Switch,
		12: Pulse,
		15: PreSwitch,
	}
	for idx, want := range cases {
		if got := Classify(idx, p); got != want {
			t.Fatalf("Classify(%d) = %s, want %s", idx, got, want)
		}
	}
}

func TestClassifyCoOccurringKinds(t *testing.T) {
	// a pulse can land on the pre-switch tick when the tick length is one sub-beat
	p := Period{BeatsPerTick: 1, TicksPerSwitch: 3}
	got := Classify(2, p)
	if !got.Has(PreSwitch) || !got.Has(Pulse) {
		t.Fatalf("expected pre-switch+pulse, got %s", got)
	}
	single := Period{BeatsPerTick: 1, TicksPerSwitch: 1}
	got = Classify(5, single)
	if !got.Has(Switch) || !got.Has(PreSwitch) || got.Has(Pulse) {
		t.Fatalf("expected switch+pre-switch without pulse, got %s", got)
	}
}

func TestClassifyInvalidPeriod(t *testing.T) {
	if got := Classify(0, Period{}); got != None {
		t.Fatalf("expected none for zero period, got %s", got)
	}
}

func TestNextGroupCycles(t *testing.T) {
	active := -1
	var seen []int
	for i := 0; i < 7; i++ {
		active = NextGroup(active, 3)
		seen = append(seen, active)
	}
	want := []int{0, 1, 2, 0, 1, 2, 0}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("cycle = %v, want %v", seen, want)
		}
	}
	if got := NextGroup(0, 1); got != 0 {
		t.Fatalf("single group should stay at 0, got %d", got)
	}
}

func TestTickKindString(t *testing.T) {
	if s := (Switch | Pulse).String(); s != "switch+pulse" {
		t.Fatalf("unexpected string %q", s)
	}
	if s := None.String(); s != "none" {
		t.Fatalf("unexpected string %q", s)
	}
}
