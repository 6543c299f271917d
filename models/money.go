package models

import "github.com/shopspring/decimal"

// DefaultDeliveryFee is added once to every order total.
const DefaultDeliveryFee = 50.0

// TotalTolerance is the largest difference between a client total and the
// computed total that is still accepted.
const TotalTolerance = 0.01

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// Subtotal returns pricePerKg × quantity rounded to two decimal places.
func Subtotal(pricePerKg float64, quantity int) float64 {
	return round2(decimal.NewFromFloat(pricePerKg).Mul(decimal.NewFromInt(int64(quantity))))
}

// ItemsSubtotal sums the item subtotals.
func ItemsSubtotal(items []OrderItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Subtotal))
	}
	return round2(sum)
}

// OrderTotal returns the item subtotals plus the delivery fee.
func OrderTotal(items []OrderItem, deliveryFee float64) float64 {
	return round2(decimal.NewFromFloat(ItemsSubtotal(items)).Add(decimal.NewFromFloat(deliveryFee)))
}

// TotalsMatch reports whether two monetary amounts agree within TotalTolerance.
func TotalsMatch(a, b float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(TotalTolerance))
}
