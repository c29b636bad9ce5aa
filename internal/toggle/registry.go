// Package toggle owns the set of mutually exclusive toggle groups and fans
// activation changes out to the member blocks registered against each group.
package toggle

import (
	"errors"
	"fmt"
)

// ErrGroupOutOfRange is returned when a group index is outside [0, Len()).
var ErrGroupOutOfRange = errors.New("toggle: group index out of range")

// Member is a block or layer that follows one toggle group.
type Member interface {
	OnActivate()
	OnPending()
	OnFinish()
}

// Deactivator is implemented by members that want to hear when their group
// stops being the active one.
type Deactivator interface {
	OnDeactivate()
}

// MemberFuncs adapts plain functions into a Member. Nil fields are ignored.
type MemberFuncs struct {
	Activate   func()
	Pending    func()
	Finish     func()
	Deactivate func()
}

func (m MemberFuncs) OnActivate() {
	if m.Activate != nil {
		m.Activate()
	}
}

func (m MemberFuncs) OnPending() {
	if m.Pending != nil {
		m.Pending()
	}
}

func (m MemberFuncs) OnFinish() {
	if m.Finish != nil {
		m.Finish()
	}
}

func (m MemberFuncs) OnDeactivate() {
	if m.Deactivate != nil {
		m.Deactivate()
	}
}

// Group is a snapshot of one toggle group.
type Group struct {
	Index     int
	Activated bool
	Pending   bool
}

// Registration represents an active member registration.
type Registration struct {
	cancel func()
}

// Close detaches the member from its group. Safe to call more than once.
func (r Registration) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}

type entry struct {
	member Member
}

// Registry tracks which group is activated and which are pending.
type Registry struct {
	groups   []Group
	members  [][]*entry
	active   int
	finished bool
}

// NewRegistry creates groupCount groups with nothing activated.
func NewRegistry(groupCount int) (*Registry, error) {
	if groupCount < 1 {
		return nil, fmt.Errorf("toggle: group count must be >= 1, got %d", groupCount)
	}
	r := &Registry{active: -1}
	r.resize(groupCount)
	return r, nil
}

// Len returns the number of groups.
func (r *Registry) Len() int { return len(r.groups) }

// Active returns the activated group, if any.
func (r *Registry) Active() (int, bool) {
	return r.active, r.active >= 0
}

// Groups returns a snapshot of every group.
func (r *Registry) Groups() []Group {
	out := make([]Group, len(r.groups))
	copy(out, r.groups)
	return out
}

// Members returns how many members follow the group at index.
func (r *Registry) Members(index int) int {
	if r.check(index) != nil {
		return 0
	}
	return len(r.members[index])
}

// Register attaches member to the group at index.
func (r *Registry) Register(index int, member Member) (Registration, error) {
	if member == nil {
		return Registration{}, fmt.Errorf("toggle: member is required")
	}
	if err := r.check(index); err != nil {
		return Registration{}, err
	}
	e := &entry{member: member}
	r.members[index] = append(r.members[index], e)
	return Registration{cancel: func() { r.remove(e) }}, nil
}

func (r *Registry) remove(e *entry) {
	for g, list := range r.members {
		for i, candidate := range list {
			if candidate != e {
				continue
			}
			r.members[g] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Activate makes index the only activated group, clears every pending flag
// and notifies the new group's members followed by the previous group's.
func (r *Registry) Activate(index int) error {
	prev, err := r.apply(index)
	if err != nil {
		return err
	}
	r.each(index, Member.OnActivate)
	if prev >= 0 && prev != index {
		r.each(prev, func(m Member) {
			if d, ok := m.(Deactivator); ok {
				d.OnDeactivate()
			}
		})
	}
	return nil
}

// SilentResync has the same state effect as Activate without notifying anyone.
func (r *Registry) SilentResync(index int) error {
	_, err := r.apply(index)
	return err
}

func (r *Registry) apply(index int) (int, error) {
	if err := r.check(index); err != nil {
		return -1, err
	}
	prev := r.active
	for i := range r.groups {
		r.groups[i].Activated = i == index
		r.groups[i].Pending = false
	}
	r.active = index
	r.finished = false
	return prev, nil
}

// SetPending flags the group at index as about to change. Members are only
// notified when the flag flips on.
func (r *Registry) SetPending(index int) error {
	if err := r.check(index); err != nil {
		return err
	}
	if r.groups[index].Pending {
		return nil
	}
	r.groups[index].Pending = true
	r.each(index, Member.OnPending)
	return nil
}

// FinishAll deactivates every group and tells every member to settle. A
// second call without an activation in between is a no-op.
func (r *Registry) FinishAll() {
	if r.finished {
		return
	}
	r.finished = true
	for i := range r.groups {
		r.groups[i].Activated = false
		r.groups[i].Pending = false
	}
	r.active = -1
	for i := range r.groups {
		r.each(i, Member.OnFinish)
	}
}

// Resize changes the number of groups. Members of removed groups are told to
// finish and detached. If the active group is removed nothing stays active.
func (r *Registry) Resize(groupCount int) error {
	if groupCount < 1 {
		return fmt.Errorf("toggle: group count must be >= 1, got %d", groupCount)
	}
	for i := groupCount; i < len(r.groups); i++ {
		r.each(i, Member.OnFinish)
	}
	r.resize(groupCount)
	if r.active >= groupCount {
		r.active = -1
	}
	return nil
}

func (r *Registry) resize(groupCount int) {
	groups := make([]Group, groupCount)
	members := make([][]*entry, groupCount)
	for i := range groups {
		groups[i].Index = i
		if i < len(r.groups) {
			groups[i] = r.groups[i]
			members[i] = r.members[i]
		}
	}
	r.groups = groups
	r.members = members
}

func (r *Registry) check(index int) error {
	if index < 0 || index >= len(r.groups) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrGroupOutOfRange, index, len(r.groups))
	}
	return nil
}

// each notifies a copy of the member list so callbacks may close their own
// registration.
func (r *Registry) each(index int, fn func(Member)) {
	list := append([]*entry(nil), r.members[index]...)
	for _, e := range list {
		fn(e.member)
	}
}
