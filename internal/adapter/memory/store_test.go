package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/thaijunny/fashion-be/internal/entity"
)

func TestWithinTx_RollbackKeepsConcurrentWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	bobDone := make(chan error, 1)

	txErr := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Carts().Insert(ctx, &domain.CartLine{ID: "a1", UserID: "alice", ProductID: "p", Quantity: 1}))
		go func() {
			bobDone <- s.Carts().Insert(context.Background(), &domain.CartLine{ID: "b1", UserID: "bob", ProductID: "p", Quantity: 1})
		}()
		// bob's write must wait for this transaction
		select {
		case err := <-bobDone:
			t.Errorf("write outside the transaction finished early: %v", err)
		case <-time.After(50 * time.Millisecond):
		}
		return errors.New("abort")
	})
	require.EqualError(t, txErr, "abort")
	require.NoError(t, <-bobDone)

	assert.Equal(t, 0, s.CartLen("alice"))
	assert.Equal(t, 1, s.CartLen("bob"))
}

func TestWithinTx_ReadsOutsideWaitForCommit(t *testing.T) {
	s := New()
	ctx := context.Background()
	seen := make(chan int, 1)

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Carts().Insert(ctx, &domain.CartLine{ID: "a1", UserID: "alice", Quantity: 1}))
		go func() {
			lines, _ := s.Carts().ListByUser(context.Background(), "alice")
			seen <- len(lines)
		}()
		time.Sleep(20 * time.Millisecond)
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Equal(t, 0, <-seen, "uncommitted line must not be visible")
}

func TestWithinTx_NestedJoinsOuter(t *testing.T) {
	s := New()
	ctx := context.Background()
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		return s.WithinTx(ctx, func(ctx context.Context) error {
			return s.Carts().Insert(ctx, &domain.CartLine{ID: "a1", UserID: "alice", Quantity: 1})
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.CartLen("alice"))
}
