package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxCartQuantity caps a single cart line, merged quantities included.
const MaxCartQuantity = 999

// CartLine is one pending selection. Quantity is always >= 1 once stored.
// Product is populated when the line is loaded for pricing and is nil when
// the referenced product no longer exists.
type CartLine struct {
	ID        string
	UserID    string
	ProductID string
	ProjectID string
	Selection
	Quantity  int
	CreatedAt time.Time

	Product *Product
}

// UnitPrice is zero for lines without a resolvable product.
func (l CartLine) UnitPrice() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}
	return l.Product.UnitPrice(l.Selection)
}

func (l CartLine) Total() decimal.Decimal {
	return LineTotal(l.UnitPrice(), l.Quantity)
}

// SameVariant reports whether other would be merged into l on add-to-cart.
func (l CartLine) SameVariant(productID string, sel Selection) bool {
	return l.ProductID == productID && l.Selection == sel
}
