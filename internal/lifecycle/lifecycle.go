package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	loopfsm "github.com/looplab/fsm"
)

// Status is the persisted lifecycle state of a company or offer.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusDisabled Status = "DISABLED"
)

// DisplayStatus is the read-time status shown to callers. It adds Expired,
// which is a function of wall-clock time and is never persisted.
type DisplayStatus string

const (
	DisplayPending  DisplayStatus = "PENDING"
	DisplayLive     DisplayStatus = "LIVE"
	DisplayExpired  DisplayStatus = "EXPIRED"
	DisplayDisabled DisplayStatus = "DISABLED"
)

// Event is a moderation action that moves an entity between stored statuses.
type Event string

const (
	EventApprove    Event = "approve"
	EventDisable    Event = "disable"
	EventReactivate Event = "reactivate"
)

// Transition defines one legal stored-status change.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions is the full transition table. Owners hold none of these
// events; all three are moderation-only. Reactivate is the admin-only path
// out of Disabled; nothing ever returns to Pending.
var Transitions = []Transition{
	{Event: EventApprove, Src: StatusPending, Dst: StatusActive},
	{Event: EventDisable, Src: StatusPending, Dst: StatusDisabled},
	{Event: EventDisable, Src: StatusActive, Dst: StatusDisabled},
	{Event: EventReactivate, Src: StatusDisabled, Dst: StatusActive},
}

// TransitionError is returned when an event is not legal from the current
// stored status.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from status %q", e.Event, e.Current)
}

// events converts Transitions into looplab/fsm descriptors, grouping
// transitions that share an event and destination.
var events = buildEvents()

func buildEvents() []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range Transitions {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{Name: k.event, Src: grouped[k], Dst: k.dst})
	}
	return out
}

// Apply validates event against the current stored status and returns the
// destination status. looplab/fsm tracks current state internally, so a
// short-lived machine is built per call.
func Apply(ctx context.Context, current Status, event Event) (Status, error) {
	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &noTransition) {
			return "", &TransitionError{Event: event, Current: current}
		}
		return "", err
	}

	return Status(machine.Current()), nil
}

// DeriveDisplayStatus computes the read-time status from the stored status
// and the offer's end date. Disabled dominates everything; past the end date
// an offer reads as Expired regardless of moderation state; otherwise the
// stored status decides between Pending and Live.
func DeriveDisplayStatus(stored Status, endDate time.Time, now time.Time) DisplayStatus {
	switch {
	case stored == StatusDisabled:
		return DisplayDisabled
	case now.After(endDate):
		return DisplayExpired
	case stored == StatusPending:
		return DisplayPending
	default:
		return DisplayLive
	}
}

// CanEdit reports whether the owner may still mutate the entity. Only
// Pending entities are owner-editable; once moderation advances the status
// the entity is immutable to its owner.
func CanEdit(stored Status) bool {
	return stored == StatusPending
}
