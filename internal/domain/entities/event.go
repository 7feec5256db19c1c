package entities

import (
	"slices"
	"time"

	"eventposter/internal/domain"
)

// State is the lifecycle state of a tracked event. Ended events are dropped
// from the registry rather than kept in a terminal state.
type State int

const (
	StateDraft State = iota
	StateOpen
	StateFull
)

func (s State) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StateOpen:
		return "open"
	case StateFull:
		return "full"
	default:
		return "unknown"
	}
}

// MessageRef locates the rendered event message.
type MessageRef struct {
	GuildID   int64
	ChannelID int64
	MessageID int64
}

// SelectOption is one entry of the optional "pick a class" menu.
type SelectOption struct {
	Label string
	Icon  string
}

// Event is one hosted event. A hoster has at most one event per guild.
//
// Members are kept in join order, which gives slot numbers. A user is never
// in both Members and Maybe.
type Event struct {
	GuildID       int64
	Hoster        int64
	Members       []int64
	Maybe         []int64
	Description   string
	MaxSlots      *int
	Approver      *int64
	ChannelID     int64
	MessageID     int64 // 0 until the event is rendered
	Start         *time.Time
	SelectOptions []SelectOption
}

// Clone returns a deep copy, so a mutation can be persisted before it
// replaces the tracked value.
func (e *Event) Clone() *Event {
	c := *e
	c.Members = slices.Clone(e.Members)
	c.Maybe = slices.Clone(e.Maybe)
	c.SelectOptions = slices.Clone(e.SelectOptions)
	if e.MaxSlots != nil {
		v := *e.MaxSlots
		c.MaxSlots = &v
	}
	if e.Approver != nil {
		v := *e.Approver
		c.Approver = &v
	}
	if e.Start != nil {
		v := *e.Start
		c.Start = &v
	}
	return &c
}

// Ref returns the rendered message location; ok is false when the event has
// no message.
func (e *Event) Ref() (MessageRef, bool) {
	if e.MessageID == 0 {
		return MessageRef{}, false
	}
	return MessageRef{GuildID: e.GuildID, ChannelID: e.ChannelID, MessageID: e.MessageID}, true
}

func (e *Event) IsMember(user int64) bool { return slices.Contains(e.Members, user) }

func (e *Event) IsMaybe(user int64) bool { return slices.Contains(e.Maybe, user) }

// Limited reports whether a capacity is set. A stored max_slots of 0
// means no limit.
func (e *Event) Limited() bool {
	return e.MaxSlots != nil && *e.MaxSlots > 0
}

// JoinDisabled reports whether the join control must be disabled.
func (e *Event) JoinDisabled() bool {
	return e.Limited() && len(e.Members) >= *e.MaxSlots
}

// SlotsLeft returns the free slots, clamped at zero. ok is false when the
// event has no capacity limit.
func (e *Event) SlotsLeft() (n int, ok bool) {
	if !e.Limited() {
		return 0, false
	}
	return max(*e.MaxSlots-len(e.Members), 0), true
}

func (e *Event) State() State {
	switch {
	case e.MessageID == 0:
		return StateDraft
	case e.JoinDisabled():
		return StateFull
	default:
		return StateOpen
	}
}

// Join enrolls user as a member, pulling them out of the maybe list.
func (e *Event) Join(user int64) error {
	if e.IsMember(user) {
		return domain.ErrAlreadyMember
	}
	if e.JoinDisabled() {
		return domain.ErrEventFull
	}
	e.Maybe = remove(e.Maybe, user)
	e.Members = append(e.Members, user)
	return nil
}

// Leave removes a non-hoster from the event. The hoster gets
// ErrHosterLeave so the caller can ask whether to end the event instead.
func (e *Event) Leave(user int64) error {
	if user == e.Hoster {
		return domain.ErrHosterLeave
	}
	if !e.IsMember(user) {
		return domain.ErrNotMember
	}
	e.Members = remove(e.Members, user)
	e.Maybe = remove(e.Maybe, user)
	return nil
}

// MaybeJoin toggles user on the maybe list. A member moving to maybe frees
// their slot.
func (e *Event) MaybeJoin(user int64) error {
	if user == e.Hoster {
		return domain.ErrHosterMaybe
	}
	if e.IsMaybe(user) {
		e.Maybe = remove(e.Maybe, user)
		return nil
	}
	e.Members = remove(e.Members, user)
	e.Maybe = append(e.Maybe, user)
	return nil
}

// SelectOption enrolls user (capacity permitting) after they picked label.
// Existing members may always change their pick.
func (e *Event) SelectOption(user int64, label string) error {
	if !e.HasOption(label) {
		return domain.ErrUnknownOption
	}
	if e.IsMember(user) {
		return nil
	}
	if e.JoinDisabled() {
		return domain.ErrEventFull
	}
	e.Maybe = remove(e.Maybe, user)
	e.Members = append(e.Members, user)
	return nil
}

func (e *Event) HasOption(label string) bool {
	return slices.ContainsFunc(e.SelectOptions, func(o SelectOption) bool { return o.Label == label })
}

// Attendees lists the members other than the hoster, followed by the maybe
// list when includeMaybe is set. The result never shares memory with e.
func (e *Event) Attendees(includeMaybe bool) []int64 {
	out := make([]int64, 0, len(e.Members)+len(e.Maybe))
	for _, m := range e.Members {
		if m != e.Hoster {
			out = append(out, m)
		}
	}
	if includeMaybe {
		out = append(out, e.Maybe...)
	}
	return out
}

// ResolveStart parses the description once and caches the result. Later
// calls return the cached start even if the description changed; use
// ReparseStart after an edit.
func (e *Event) ResolveStart(parse func(string) (time.Time, bool)) (time.Time, bool) {
	if e.Start != nil {
		return *e.Start, true
	}
	t, ok := parse(e.Description)
	if !ok {
		return time.Time{}, false
	}
	t = t.UTC()
	e.Start = &t
	return t, true
}

// ReparseStart drops any cached start and resolves it again.
func (e *Event) ReparseStart(parse func(string) (time.Time, bool)) (time.Time, bool) {
	e.Start = nil
	return e.ResolveStart(parse)
}

// EffectiveStart is Start when set, else the creation time of the anchor
// message as reported by anchor. ok is false without a message.
func (e *Event) EffectiveStart(anchor func(messageID int64) time.Time) (time.Time, bool) {
	if e.MessageID == 0 {
		return time.Time{}, false
	}
	if e.Start != nil {
		return *e.Start, true
	}
	return anchor(e.MessageID), true
}

// ShouldRemove reports whether the event is past its grace window, or has
// no message left to anchor it.
func (e *Event) ShouldRemove(now time.Time, grace time.Duration, anchor func(int64) time.Time) bool {
	start, ok := e.EffectiveStart(anchor)
	if !ok {
		return true
	}
	return now.After(start.Add(grace))
}

// Remaining is the time left before the event expires. Non-positive means
// it has ended.
func (e *Event) Remaining(now time.Time, grace time.Duration, anchor func(int64) time.Time) time.Duration {
	start, ok := e.EffectiveStart(anchor)
	if !ok {
		return 0
	}
	return start.Add(grace).Sub(now)
}

func remove(ids []int64, id int64) []int64 {
	return slices.DeleteFunc(ids, func(v int64) bool { return v == id })
}
