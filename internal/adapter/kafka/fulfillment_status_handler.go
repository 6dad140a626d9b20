package kafka

import (
	"context"
	"errors"
	"strings"

	"github.com/thaijunny/fashion-be/internal/adapter/observ"
	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/logging"
	"github.com/thaijunny/fashion-be/internal/usecase"
)

type StatusUpdater interface {
	Execute(ctx context.Context, orderID string, to domain.Status) error
}

// FulfillmentStatusHandler applies status updates pushed by the fulfillment
// partner through the same state machine the admin endpoint uses.
type FulfillmentStatusHandler struct {
	Updater StatusUpdater
	Cache   usecase.OrderCache // optional
}

func NewFulfillmentStatusHandler(u StatusUpdater, cache usecase.OrderCache) *FulfillmentStatusHandler {
	return &FulfillmentStatusHandler{Updater: u, Cache: cache}
}

// Handle returns an error only for failures worth redelivering. Rejected
// transitions and unknown orders are logged and dropped.
func (h *FulfillmentStatusHandler) Handle(ctx context.Context, ev usecase.FulfillmentStatusMsg) error {
	l := logging.FromCtx(ctx).With("order_id", ev.OrderID, "status", ev.Status)
	to := domain.Status(strings.ToLower(strings.TrimSpace(ev.Status)))

	// duplicate delivery
	if h.Cache != nil {
		if cur, ok, err := h.Cache.GetStatus(ctx, ev.OrderID); err == nil && ok && cur == string(to) {
			l.Debug("status already applied")
			return nil
		}
	}

	err := h.Updater.Execute(ctx, ev.OrderID, to)
	switch {
	case err == nil:
		observ.OrderStatusChanges.WithLabelValues("kafka", string(to)).Inc()
		return nil
	case errors.Is(err, usecase.ErrValidation), errors.Is(err, usecase.ErrNotFound):
		l.Warn("fulfillment status rejected", "error", err)
		return nil
	default:
		return err
	}
}
