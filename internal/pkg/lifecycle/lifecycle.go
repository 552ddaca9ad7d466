// Package lifecycle holds the status transition table for projects and
// versions and the policy deciding how edits reach them.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

const DefaultReason = "No reason provided."

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotRestorable     = errors.New("entity is not restorable")
)

var transitions = map[model.Status][]model.Status{
	model.StatusPrivate:    {model.StatusPending, model.StatusRemoved},
	model.StatusPending:    {model.StatusVerified, model.StatusUnverified, model.StatusRemoved},
	model.StatusUnverified: {model.StatusPending, model.StatusVerified, model.StatusRemoved},
	model.StatusVerified:   {model.StatusPending, model.StatusUnverified, model.StatusRemoved},
	// leaving removed is only possible through a restore
	model.StatusRemoved: {model.StatusPending},
}

func CanTransition(from, to model.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Change describes an accepted status transition.
type Change struct {
	From model.Status
	To   model.Status
	// Event is the notification kind emitted for the change.
	Event model.EventKind
	// SetsApprover is true when lastApprovedById must be set to the actor.
	SetsApprover bool
	Restore      bool
}

// Plan validates from -> to. restorable is only consulted when leaving
// removed; callers that cannot cheaply compute it may pass a func.
func Plan(from, to model.Status, restorable func() (bool, error)) (Change, error) {
	if !to.Valid() {
		return Change{}, fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, to)
	}
	if !CanTransition(from, to) {
		return Change{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}

	ch := Change{From: from, To: to, Event: eventFor(from, to)}
	if from == model.StatusRemoved {
		ok := false
		if restorable != nil {
			var err error
			if ok, err = restorable(); err != nil {
				return Change{}, err
			}
		}
		if !ok {
			return Change{}, ErrNotRestorable
		}
		ch.Restore = true
		ch.Event = model.EventRestored
	}
	ch.SetsApprover = to == model.StatusVerified || to == model.StatusRemoved
	return ch, nil
}

func eventFor(from, to model.Status) model.EventKind {
	switch {
	case to == model.StatusVerified:
		return model.EventVerified
	case to == model.StatusRemoved:
		return model.EventRemoved
	case from == model.StatusVerified:
		return model.EventRevoked
	case to == model.StatusUnverified:
		return model.EventRejected
	default:
		return model.EventSubmitted
	}
}

// Entry builds the history row for a change. An empty reason is replaced by
// DefaultReason.
func Entry(to model.Status, reason string, userID uint, at time.Time) model.StatusHistoryEntry {
	if strings.TrimSpace(reason) == "" {
		reason = DefaultReason
	}
	return model.StatusHistoryEntry{Status: to, Reason: reason, UserID: userID, SetAt: at.UTC()}
}

type EditDecision int

const (
	Reject EditDecision = iota
	ApplyDirect
	Enqueue
)

func (d EditDecision) String() string {
	switch d {
	case ApplyDirect:
		return "apply_direct"
	case Enqueue:
		return "enqueue"
	default:
		return "reject"
	}
}

var editPolicy = map[model.EditKind]map[model.Status]EditDecision{
	model.EditKindProject: {
		model.StatusPrivate:    ApplyDirect,
		model.StatusPending:    ApplyDirect,
		model.StatusUnverified: ApplyDirect,
		model.StatusVerified:   Enqueue,
		model.StatusRemoved:    Reject,
	},
	model.EditKindVersion: {
		model.StatusPrivate:    ApplyDirect,
		model.StatusPending:    ApplyDirect,
		model.StatusUnverified: ApplyDirect,
		model.StatusVerified:   Enqueue,
		model.StatusRemoved:    Reject,
	},
}

// DecideEdit returns how an edit of kind reaches an entity in status.
// Unknown combinations are rejected.
func DecideEdit(status model.Status, kind model.EditKind) EditDecision {
	if byStatus, ok := editPolicy[kind]; ok {
		if d, ok := byStatus[status]; ok {
			return d
		}
	}
	return Reject
}
