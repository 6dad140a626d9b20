package domain

import "github.com/shopspring/decimal"

var dimensions = [...]Dimension{DimensionSize, DimensionColor, DimensionMaterial}

// UnitPrice returns base plus, for every dimension chosen in sel, the delta of
// the first adjustment row matching that value. Dimensions that are not chosen
// or have no matching row contribute nothing.
func UnitPrice(base decimal.Decimal, sel Selection, adjustments []VariantAdjustment) decimal.Decimal {
	price := base
	for _, d := range dimensions {
		want := sel.value(d)
		if want == "" {
			continue
		}
		for _, adj := range adjustments {
			if adj.Dimension == d && adj.Value == want {
				price = price.Add(adj.Delta)
				break
			}
		}
	}
	return price
}

// LineTotal is the unit price times quantity.
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}
