package beat

import "strings"

// TickKind is the set of classifications that apply to a tick. A tick can be
// several kinds at once; None is the empty set.
type TickKind uint8

const (
	// Switch advances the active group.
	Switch TickKind = 1 << iota
	// PreSwitch marks the outgoing and incoming groups pending one tick early.
	PreSwitch
	// Pulse fires a light audio cue without changing activation.
	Pulse
)

// None is a tick with no effect.
const None TickKind = 0

// Has reports whether every bit of kind is set on k.
func (k TickKind) Has(kind TickKind) bool {
	return kind != None && k&kind == kind
}

func (k TickKind) String() string {
	if k == None {
		return "none"
	}
	var parts []string
	if k.Has(Switch) {
		parts = append(parts, "switch")
	}
	if k.Has(PreSwitch) {
		parts = append(parts, "pre-switch")
	}
	if k.Has(Pulse) {
		parts = append(parts, "pulse")
	}
	return strings.Join(parts, "+")
}

// Period describes the switch cycle in sub-beats.
type Period struct {
	BeatsPerTick   int
	TicksPerSwitch int
}

// SwitchPeriod is the number of sub-beats between group activations.
func (p Period) SwitchPeriod() int {
	return p.BeatsPerTick * p.TicksPerSwitch
}

func (p Period) valid() bool {
	return p.BeatsPerTick >= 1 && p.TicksPerSwitch >= 1
}

// Classify returns every kind that applies to the tick at index.
func Classify(index int, p Period) TickKind {
	if !p.valid() {
		return None
	}
	period := p.SwitchPeriod()
	kind := None
	if Mod(index, period) == 0 {
		kind |= Switch
	}
	if Mod(index+1, period) == 0 {
		kind |= PreSwitch
	}
	if !kind.Has(Switch) && Mod(index, p.BeatsPerTick) == 0 {
		kind |= Pulse
	}
	return kind
}

// NextGroup returns the group that follows active. A negative active index
// means nothing is active yet, so the cycle starts at zero.
func NextGroup(active, groupCount int) int {
	if groupCount < 1 || active < 0 {
		return 0
	}
	return Mod(active+1, groupCount)
}
