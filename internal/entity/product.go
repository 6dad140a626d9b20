package domain

import "github.com/shopspring/decimal"

// Dimension is the attribute a variant adjustment applies to.
type Dimension string

const (
	DimensionSize     Dimension = "size"
	DimensionColor    Dimension = "color"
	DimensionMaterial Dimension = "material"
)

// VariantAdjustment is a signed delta on a product's base price. Value is the
// size name, the color hex code or the material name.
type VariantAdjustment struct {
	Dimension Dimension
	Value     string
	Delta     decimal.Decimal
}

type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Images      []string
	Category    string
	Adjustments []VariantAdjustment
}

// Selection is the size/color/material chosen for a cart line or line item.
// An empty field means the dimension was not chosen.
type Selection struct {
	Size     string
	Color    string
	Material string
}

func (s Selection) value(d Dimension) string {
	switch d {
	case DimensionSize:
		return s.Size
	case DimensionColor:
		return s.Color
	case DimensionMaterial:
		return s.Material
	}
	return ""
}

// UnitPrice prices sel against this product's adjustments.
func (p *Product) UnitPrice(sel Selection) decimal.Decimal {
	return UnitPrice(p.Price, sel, p.Adjustments)
}
