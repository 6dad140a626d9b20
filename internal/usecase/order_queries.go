package usecase

import (
	"context"
	"errors"

	domain "github.com/thaijunny/fashion-be/internal/entity"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Role   domain.Role
}

func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

type OrderQueries struct {
	orders OrderRepo
}

func NewOrderQueries(orders OrderRepo) *OrderQueries {
	return &OrderQueries{orders: orders}
}

func (q *OrderQueries) ListMine(ctx context.Context, actor Actor) ([]domain.Order, error) {
	out, err := q.orders.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, Internal("ListMyOrders", err)
	}
	return out, nil
}

// Get returns the order when actor owns it or is an admin. Orders of other
// users are reported as not found.
func (q *OrderQueries) Get(ctx context.Context, actor Actor, id string) (*domain.Order, error) {
	const op = "GetOrder"
	o, err := q.orders.GetByID(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, NotFound(op, "order not found")
	}
	if err != nil {
		return nil, Internal(op, err)
	}
	if o.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, NotFound(op, "order not found")
	}
	return o, nil
}

func (q *OrderQueries) ListAll(ctx context.Context, actor Actor) ([]domain.Order, error) {
	const op = "ListAllOrders"
	if !actor.IsAdmin() {
		return nil, Forbidden(op, "admin role required")
	}
	out, err := q.orders.ListAll(ctx)
	if err != nil {
		return nil, Internal(op, err)
	}
	return out, nil
}
