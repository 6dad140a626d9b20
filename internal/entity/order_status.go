package domain

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// orderTransitions lists, for every status, the statuses it may move to.
// Forward jumps along pending -> processing -> shipped -> delivered are allowed;
// cancellation only before shipping. Terminal states map to nothing.
var orderTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusDelivered, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// Statuses returns every known status in workflow order.
func Statuses() []Status {
	return []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}
}

func (s Status) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s Status) Terminal() bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 0
}

// TransitionTo returns nil when s may move to next, otherwise an error
// wrapping ErrInvalidTransition with a message fit for the caller.
func (s Status) TransitionTo(next Status) error {
	if !s.Valid() {
		return fmt.Errorf("%w: unknown current status %q", ErrInvalidTransition, s)
	}
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if s.Terminal() {
		return fmt.Errorf("%w: order is already %s", ErrInvalidTransition, s)
	}
	if s == next {
		return fmt.Errorf("%w: order is already %s", ErrInvalidTransition, s)
	}
	if s == StatusProcessing && next == StatusPending {
		return fmt.Errorf("%w: cannot revert from processing to pending", ErrInvalidTransition)
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return nil
		}
	}
	if next == StatusCancelled {
		return fmt.Errorf("%w: cannot cancel an order that is %s", ErrInvalidTransition, s)
	}
	return fmt.Errorf("%w: cannot move order from %s back to %s", ErrInvalidTransition, s, next)
}
