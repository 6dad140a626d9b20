package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "github.com/thaijunny/fashion-be/internal/entity"
)

type CartView struct {
	Lines     []domain.CartLine
	Total     decimal.Decimal
	ItemCount int
}

type AddToCartInput struct {
	UserID    string
	ProductID string
	ProjectID string
	domain.Selection
	Quantity int // 0 means 1
}

type Cart struct {
	carts    CartRepo
	products ProductRepo
	now      func() time.Time
}

func NewCart(carts CartRepo, products ProductRepo) *Cart {
	return &Cart{carts: carts, products: products, now: time.Now}
}

// View returns the cart newest first with its priced total.
func (uc *Cart) View(ctx context.Context, userID string) (CartView, error) {
	lines, err := uc.carts.ListByUser(ctx, userID)
	if err != nil {
		return CartView{}, Internal("ViewCart", err)
	}
	view := CartView{Lines: make([]domain.CartLine, 0, len(lines)), Total: decimal.Zero}
	for i := len(lines) - 1; i >= 0; i-- {
		l := lines[i]
		view.Lines = append(view.Lines, l)
		view.Total = view.Total.Add(l.Total())
		view.ItemCount += l.Quantity
	}
	return view, nil
}

// Add merges into an existing line with the same product and selection, or
// creates a new one. created is false when an existing line was merged.
func (uc *Cart) Add(ctx context.Context, in AddToCartInput) (line *domain.CartLine, created bool, err error) {
	const op = "AddToCart"

	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return nil, false, Validation(op, "quantity must be at least 1")
	}
	if in.Quantity > domain.MaxCartQuantity {
		return nil, false, Validation(op, "quantity cannot exceed %d", domain.MaxCartQuantity)
	}
	if in.ProductID == "" && in.ProjectID == "" {
		return nil, false, Validation(op, "product_id or project_id is required")
	}

	if in.ProductID != "" {
		if _, err := uc.products.GetByID(ctx, in.ProductID); err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return nil, false, NotFound(op, "product not found")
			}
			return nil, false, Internal(op, err)
		}

		existing, err := uc.carts.FindVariant(ctx, in.UserID, in.ProductID, in.Selection)
		if err != nil {
			return nil, false, Internal(op, err)
		}
		if existing != nil {
			qty := existing.Quantity + in.Quantity
			if qty > domain.MaxCartQuantity {
				return nil, false, Validation(op, "quantity cannot exceed %d", domain.MaxCartQuantity)
			}
			if err := uc.carts.UpdateQuantity(ctx, in.UserID, existing.ID, qty); err != nil {
				return nil, false, Internal(op, err)
			}
			line, err := uc.carts.Get(ctx, in.UserID, existing.ID)
			if err != nil {
				return nil, false, Internal(op, err)
			}
			return line, false, nil
		}
	}

	l := &domain.CartLine{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		ProductID: in.ProductID,
		ProjectID: in.ProjectID,
		Selection: in.Selection,
		Quantity:  in.Quantity,
		CreatedAt: uc.now().UTC(),
	}
	if err := uc.carts.Insert(ctx, l); err != nil {
		return nil, false, Internal(op, err)
	}
	line, err = uc.carts.Get(ctx, in.UserID, l.ID)
	if err != nil {
		return nil, false, Internal(op, err)
	}
	return line, true, nil
}

// UpdateQuantity sets the quantity of one of the user's lines. A quantity of
// zero or less removes the line and returns a nil line.
func (uc *Cart) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error) {
	const op = "UpdateCartQuantity"

	if quantity > domain.MaxCartQuantity {
		return nil, Validation(op, "quantity cannot exceed %d", domain.MaxCartQuantity)
	}

	if _, err := uc.carts.Get(ctx, userID, lineID); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, NotFound(op, "item not found in cart")
		}
		return nil, Internal(op, err)
	}

	if quantity <= 0 {
		if _, err := uc.carts.Delete(ctx, userID, lineID); err != nil {
			return nil, Internal(op, err)
		}
		return nil, nil
	}

	if err := uc.carts.UpdateQuantity(ctx, userID, lineID, quantity); err != nil {
		return nil, Internal(op, err)
	}
	line, err := uc.carts.Get(ctx, userID, lineID)
	if err != nil {
		return nil, Internal(op, err)
	}
	return line, nil
}

func (uc *Cart) Remove(ctx context.Context, userID, lineID string) error {
	ok, err := uc.carts.Delete(ctx, userID, lineID)
	if err != nil {
		return Internal("RemoveFromCart", err)
	}
	if !ok {
		return NotFound("RemoveFromCart", "item not found in cart")
	}
	return nil
}
