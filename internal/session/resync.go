package session

import "github.com/kingrea/beatblocks/internal/beat"

// LegacyResyncIndex is the group a resumed session lands on for content whose
// switch period equals one tick of beatsPerTick sub-beats.
func LegacyResyncIndex(index, beatsPerTick, groupCount int) int {
	if beatsPerTick < 1 || groupCount < 1 {
		return 0
	}
	return beat.Mod(groupCount-1-floorDiv(index, beatsPerTick), groupCount)
}

// ModernResyncIndex picks the group from which half of the switch cycle the
// index falls in. The midpoint itself counts as the first half.
func ModernResyncIndex(index, period, groupCount int) int {
	if period < 1 || groupCount < 1 {
		return 0
	}
	// phase is an integer, so comparing against period/2 truncated is the same
	// as comparing against the exact half.
	if beat.Mod(index, period) > period/2 {
		return beat.Mod(groupCount-2, groupCount)
	}
	return beat.Mod(groupCount-1, groupCount)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
