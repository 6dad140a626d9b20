package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitionTable(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPending, StatusProcessing}:   true,
		{StatusPending, StatusShipped}:      true,
		{StatusPending, StatusDelivered}:    true,
		{StatusPending, StatusCancelled}:    true,
		{StatusProcessing, StatusShipped}:   true,
		{StatusProcessing, StatusDelivered}: true,
		{StatusProcessing, StatusCancelled}: true,
		{StatusShipped, StatusDelivered}:    true,
	}

	for _, from := range Statuses() {
		for _, to := range Statuses() {
			err := from.TransitionTo(to)
			if allowed[[2]Status{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			require.Error(t, err, "%s -> %s", from, to)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
		}
	}
}

func TestStatusHappyPath(t *testing.T) {
	s := StatusPending
	for _, next := range []Status{StatusProcessing, StatusShipped, StatusDelivered} {
		require.NoError(t, s.TransitionTo(next))
		s = next
	}
	assert.True(t, s.Terminal())
}

func TestStatusMessages(t *testing.T) {
	err := StatusProcessing.TransitionTo(StatusPending)
	assert.EqualError(t, err, "invalid status transition: cannot revert from processing to pending")

	err = StatusShipped.TransitionTo(StatusProcessing)
	assert.EqualError(t, err, "invalid status transition: cannot move order from shipped back to processing")

	err = StatusShipped.TransitionTo(StatusCancelled)
	assert.EqualError(t, err, "invalid status transition: cannot cancel an order that is shipped")

	err = StatusCancelled.TransitionTo(StatusProcessing)
	assert.EqualError(t, err, "invalid status transition: order is already cancelled")

	err = StatusPending.TransitionTo("refunded")
	assert.EqualError(t, err, `invalid status transition: unknown status "refunded"`)
}
