package usecase

import (
	"context"
	"errors"
	"strings"

	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/logging"
)

type UpdateOrderStatus struct {
	orders OrderRepo
	cache  OrderCache // optional
}

func NewUpdateOrderStatus(orders OrderRepo, cache OrderCache) *UpdateOrderStatus {
	return &UpdateOrderStatus{orders: orders, cache: cache}
}

// Execute applies the order state machine. Illegal moves are validation
// errors; a concurrent change between read and write is reported as a
// validation error too, since the caller's view of the order is stale.
func (uc *UpdateOrderStatus) Execute(ctx context.Context, orderID string, to domain.Status) error {
	const op = "UpdateOrderStatus"

	if !to.Valid() {
		return Validation(op, "unknown status %q", to)
	}

	o, err := uc.orders.GetByID(ctx, orderID)
	if errors.Is(err, ErrRecordNotFound) {
		return NotFound(op, "order not found")
	}
	if err != nil {
		return Internal(op, err)
	}

	if err := o.Status.TransitionTo(to); err != nil {
		return &Error{Kind: ErrValidation, Op: op, Msg: trimKind(err), Err: err}
	}

	ok, err := uc.orders.UpdateStatusIf(ctx, o.ID, o.Status, to)
	if err != nil {
		return Internal(op, err)
	}
	if !ok {
		return Validation(op, "order %s changed status concurrently, retry", o.ID)
	}

	// Cache best-effort
	if uc.cache != nil {
		if err := uc.cache.SetStatus(ctx, o.ID, string(to)); err != nil {
			logging.FromCtx(ctx).Warn("order status cache write failed", "order_id", o.ID, "error", err)
		}
	}
	logging.FromCtx(ctx).Info("order status changed", "order_id", o.ID, "from", o.Status, "to", to)
	return nil
}

// trimKind drops the "invalid status transition: " prefix for user messages.
func trimKind(err error) string {
	return strings.TrimPrefix(err.Error(), domain.ErrInvalidTransition.Error()+": ")
}
