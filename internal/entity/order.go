package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentBankTransfer
}

var ErrInvalidAmount = errors.New("invalid amount")

// Order is the header of a completed checkout. TotalAmount is frozen at
// creation and never re-derived from the items.
type Order struct {
	ID              string
	UserID          string
	TotalAmount     decimal.Decimal
	Status          Status
	ShippingAddress string
	FullName        string
	PhoneNumber     string
	PaymentMethod   PaymentMethod
	CreatedAt       time.Time

	Items []LineItem
}

// LineItem is a cart line priced and frozen at checkout.
type LineItem struct {
	ID        string
	OrderID   string
	ProjectID string
	ProductID string
	Selection
	Quantity  int
	UnitPrice decimal.Decimal
}

func (li LineItem) Total() decimal.Decimal {
	return LineTotal(li.UnitPrice, li.Quantity)
}

func (o *Order) Validate() error {
	if !o.TotalAmount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// ItemsTotal sums the frozen line totals.
func (o *Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Total())
	}
	return sum
}
