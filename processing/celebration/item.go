package celebration

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type State int

const (
	StateCreated State = iota
	StateAnimating
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateAnimating:
		return "animating"
	case StateRemoved:
		return "removed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("invalid celebration item transition")

// Item is one flying sprite. It is only touched from the UI context.
type Item struct {
	ID       uuid.UUID
	Start    Point
	Target   Point
	Duration time.Duration

	state State
}

func NewItem(start, target Point, duration time.Duration) *Item {
	return &Item{
		ID:       uuid.New(),
		Start:    start,
		Target:   target,
		Duration: duration,
		state:    StateCreated,
	}
}

func (i *Item) State() State { return i.state }

// Begin moves the item from Created to Animating.
func (i *Item) Begin() error {
	return i.transition(StateCreated, StateAnimating)
}

// Finish moves the item from Animating to Removed.
func (i *Item) Finish() error {
	return i.transition(StateAnimating, StateRemoved)
}

func (i *Item) transition(from, to State) error {
	if i.state != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, i.state, to)
	}
	i.state = to
	return nil
}
