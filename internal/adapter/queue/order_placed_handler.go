package queue

import (
	"context"
	"fmt"

	"github.com/thaijunny/fashion-be/internal/logging"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

// NewOrderPlacedHandler consumes order.placed events and warms the order
// status cache.
func NewOrderPlacedHandler(cache usecase.OrderCache) Handler {
	return JSONHandler[usecase.OrderPlacedMsg]{
		HandleFunc: func(ctx context.Context, msg usecase.OrderPlacedMsg) error {
			if msg.OrderID == "" {
				return fmt.Errorf("%w: order.placed without order_id", ErrPoison)
			}
			if err := cache.SetStatus(ctx, msg.OrderID, msg.Status); err != nil {
				return err
			}
			logging.FromCtx(ctx).Info("order placed",
				"order_id", msg.OrderID, "user_id", msg.UserID,
				"total", msg.TotalAmount, "items", msg.ItemCount)
			return nil
		},
	}
}
