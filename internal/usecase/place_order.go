package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/thaijunny/fashion-be/internal/entity"
	"github.com/thaijunny/fashion-be/internal/logging"
)

var tracer = otel.Tracer("github.com/thaijunny/fashion-be/internal/usecase")

// scopeCheckoutLock is the idempotency-store scope of the per-user checkout lock.
const scopeCheckoutLock = "checkout"

type PlaceOrderInput struct {
	UserID, IdempotencyKey                 string
	ShippingAddress, FullName, PhoneNumber string
	PaymentMethod                          domain.PaymentMethod
	TotalAmount                            decimal.Decimal
}

type PlaceOrderOutput struct {
	OrderID  string
	Status   domain.Status
	Replayed bool // true when the idempotency key matched an earlier order
}

type PlaceOrder struct {
	tx     TxManager
	carts  CartRepo
	orders OrderRepo
	out    OutboxRepo
	idem   IdempotencyStore

	verifyTotal bool
	now         func() time.Time
	newID       func() string
}

type PlaceOrderOption func(*PlaceOrder)

// WithVerifyTotal makes checkout reject a client total that differs from the
// sum of the priced lines.
func WithVerifyTotal(v bool) PlaceOrderOption { return func(uc *PlaceOrder) { uc.verifyTotal = v } }
func WithClock(now func() time.Time) PlaceOrderOption {
	return func(uc *PlaceOrder) { uc.now = now }
}
func WithIDGenerator(f func() string) PlaceOrderOption {
	return func(uc *PlaceOrder) { uc.newID = f }
}

// NewPlaceOrder wires the checkout use case. out and idem may be nil.
func NewPlaceOrder(tx TxManager, carts CartRepo, orders OrderRepo, out OutboxRepo, idem IdempotencyStore, opts ...PlaceOrderOption) *PlaceOrder {
	uc := &PlaceOrder{
		tx:          tx,
		carts:       carts,
		orders:      orders,
		out:         out,
		idem:        idem,
		verifyTotal: true,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *PlaceOrder) Execute(ctx context.Context, in PlaceOrderInput) (PlaceOrderOutput, error) {
	const op = "PlaceOrder"
	ctx, span := tracer.Start(ctx, "usecase.PlaceOrder",
		trace.WithAttributes(attribute.String("user.id", in.UserID)))
	defer span.End()
	log := logging.FromCtx(ctx).With("op", op, "user_id", in.UserID)

	if in.PaymentMethod == "" {
		in.PaymentMethod = domain.PaymentCashOnDelivery
	}
	if !in.PaymentMethod.Valid() {
		return PlaceOrderOutput{}, Validation(op, "unsupported payment method %q", in.PaymentMethod)
	}
	if !in.TotalAmount.IsPositive() {
		return PlaceOrderOutput{}, Validation(op, "total amount must be positive")
	}

	// Fast path: idempotency recall
	if out, ok := uc.replay(ctx, in); ok {
		log.Info("checkout replayed", "order_id", out.OrderID)
		return out, nil
	}

	// One checkout per user at a time
	if uc.idem != nil {
		ok, err := uc.idem.TryLock(ctx, scopeCheckoutLock, in.UserID)
		if err != nil {
			return PlaceOrderOutput{}, Internal(op, fmt.Errorf("checkout lock: %w", err))
		}
		if !ok {
			return PlaceOrderOutput{}, &Error{Kind: ErrDuplicate, Op: op, Msg: "checkout already in progress"}
		}
		defer func() {
			if err := uc.idem.Unlock(context.WithoutCancel(ctx), scopeCheckoutLock, in.UserID); err != nil {
				log.Warn("checkout unlock failed", "error", err)
			}
		}()
		// The previous holder may have finished the same request.
		if out, ok := uc.replay(ctx, in); ok {
			log.Info("checkout replayed after lock", "order_id", out.OrderID)
			return out, nil
		}
	}

	var order *domain.Order
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		lines, err := uc.carts.ListByUser(ctx, in.UserID)
		if err != nil {
			return Transaction(op, fmt.Errorf("load cart: %w", err))
		}
		if len(lines) == 0 {
			return Validation(op, "cart is empty")
		}
		span.SetAttributes(attribute.Int("cart.lines", len(lines)))

		o := &domain.Order{
			ID:              uc.newID(),
			UserID:          in.UserID,
			TotalAmount:     in.TotalAmount,
			Status:          domain.StatusPending,
			ShippingAddress: in.ShippingAddress,
			FullName:        in.FullName,
			PhoneNumber:     in.PhoneNumber,
			PaymentMethod:   in.PaymentMethod,
			CreatedAt:       uc.now().UTC(),
		}
		o.Items = uc.priceLines(o.ID, lines)

		if uc.verifyTotal {
			if computed := o.ItemsTotal(); !computed.Equal(in.TotalAmount) {
				return Validation(op, "total amount %s does not match cart total %s",
					in.TotalAmount.String(), computed.String())
			}
		}

		if err := uc.orders.Create(ctx, o); err != nil {
			return Transaction(op, fmt.Errorf("create order: %w", err))
		}
		if len(o.Items) > 0 {
			if err := uc.orders.AddItems(ctx, o.ID, o.Items); err != nil {
				return Transaction(op, fmt.Errorf("create order items: %w", err))
			}
		}
		if _, err := uc.carts.DeleteByUser(ctx, in.UserID); err != nil {
			return Transaction(op, fmt.Errorf("clear cart: %w", err))
		}
		if uc.out != nil {
			payload, err := json.Marshal(OrderPlacedMsg{
				Type:        "OrderPlacedV1",
				OrderID:     o.ID,
				UserID:      o.UserID,
				TotalAmount: o.TotalAmount.String(),
				ItemCount:   len(o.Items),
				Status:      string(o.Status),
			})
			if err != nil {
				return Transaction(op, fmt.Errorf("encode event: %w", err))
			}
			if err := uc.out.Insert(ctx, ChannelOrderPlaced, payload); err != nil {
				return Transaction(op, fmt.Errorf("enqueue event: %w", err))
			}
		}
		order = o
		return nil
	})
	if err != nil {
		var ue *Error
		if !errors.As(err, &ue) {
			// begin/commit failures and ctx cancellation
			err = Transaction(op, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("checkout failed", "error", err)
		return PlaceOrderOutput{}, err
	}

	if uc.idem != nil && in.IdempotencyKey != "" {
		if err := uc.idem.Remember(ctx, in.UserID, in.IdempotencyKey, order.ID); err != nil {
			log.Warn("idempotency remember failed", "error", err)
		}
	}

	log.Info("order placed", "order_id", order.ID, "items", len(order.Items), "total", order.TotalAmount.String())
	return PlaceOrderOutput{OrderID: order.ID, Status: order.Status}, nil
}

// priceLines freezes one line item per cart line, keeping the cart's order.
// Lines pointing at a product that no longer exists are dropped; design-only
// lines (no product) are kept at a zero unit price.
func (uc *PlaceOrder) priceLines(orderID string, lines []domain.CartLine) []domain.LineItem {
	items := make([]domain.LineItem, 0, len(lines))
	for _, l := range lines {
		if l.ProductID != "" && l.Product == nil {
			continue
		}
		items = append(items, domain.LineItem{
			ID:        uc.newID(),
			OrderID:   orderID,
			ProjectID: l.ProjectID,
			ProductID: l.ProductID,
			Selection: l.Selection,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice(),
		})
	}
	return items
}

func (uc *PlaceOrder) replay(ctx context.Context, in PlaceOrderInput) (PlaceOrderOutput, bool) {
	if uc.idem == nil || in.IdempotencyKey == "" {
		return PlaceOrderOutput{}, false
	}
	id, ok, err := uc.idem.Recall(ctx, in.UserID, in.IdempotencyKey)
	if err != nil || !ok {
		return PlaceOrderOutput{}, false
	}
	return PlaceOrderOutput{OrderID: id, Status: domain.StatusPending, Replayed: true}, true
}
