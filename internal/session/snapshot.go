package session

import (
	"fmt"

	"github.com/kingrea/beatblocks/internal/config"
)

// Snapshot captures the clock and activation state for a later Restore.
func (s *Session) Snapshot() config.Snapshot {
	active, ok := s.registry.Active()
	if !ok {
		active = -1
	}
	return config.Snapshot{
		Index:           s.clock.Index(),
		Elapsed:         s.clock.Elapsed(),
		LeadInRemaining: s.clock.LeadInRemaining(),
		Started:         s.started,
		ActiveGroup:     active,
		GroupCount:      s.registry.Len(),
	}
}

// Restore rebuilds a session from a snapshot. The session comes back
// suspended with its audio stopped; OnSceneEnter resyncs it and resumes.
func Restore(schedule config.Schedule, snap config.Snapshot, opts ...Option) (*Session, error) {
	if snap.GroupCount >= 1 {
		schedule.GroupCount = snap.GroupCount
	}
	s, err := New(schedule, opts...)
	if err != nil {
		return nil, err
	}
	leadIn := snap.LeadInRemaining
	if snap.Started {
		leadIn = 0
	}
	s.clock.Restore(snap.Index, snap.Elapsed, leadIn)
	s.started = snap.Started || leadIn == 0
	if snap.ActiveGroup >= 0 && snap.ActiveGroup < s.registry.Len() {
		if err := s.registry.SilentResync(snap.ActiveGroup); err != nil {
			return nil, fmt.Errorf("session: restore group: %w", err)
		}
	}
	s.state = StateSuspended
	s.journal.Info("restored at sub-beat %d", s.clock.Index())
	return s, nil
}
