// Package costing splits aggregate import-side costs across the line items
// of an import document. The arithmetic runs on decimals so that the
// per-item shares always sum back to the aggregate exactly; any rounding
// remainder is carried to the last item.
package costing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidItemCount indicates a distribution over zero or negative items.
var ErrInvalidItemCount = errors.New("costing: item count must be >= 1")

// Amount is an optional money amount. Import documents frequently omit one
// or more cost components; an absent Amount is coerced to zero exactly once,
// inside Distribute, instead of scattering nil checks through the math.
type Amount struct {
	value decimal.Decimal
	set   bool
}

// AmountOf wraps a present value.
func AmountOf(v float64) Amount {
	return Amount{value: decimal.NewFromFloat(v), set: true}
}

// NoAmount represents an absent value.
func NoAmount() Amount {
	return Amount{}
}

// IsSet reports whether the amount was supplied.
func (a Amount) IsSet() bool {
	return a.set
}

func (a Amount) orZero() decimal.Decimal {
	if !a.set {
		return decimal.Zero
	}
	return a.value
}

// Input carries the aggregate costs of one import document. GoodsAmount is
// in the document's foreign currency; ExchangeRate converts it to home
// currency. Duty, shipping and other costs are already home currency.
type Input struct {
	GoodsAmount  Amount
	ExchangeRate Amount
	DutyAmount   Amount
	ShippingCost Amount
	OtherCost    Amount
}

// Share is the equal fractional allocation for a single line item, in home
// currency, rounded to 2 decimal places.
type Share struct {
	GoodsAmount     float64
	DutyAmount      float64
	DomesticFreight float64
	OtherCost       float64
}

// Distribute splits the aggregate costs equally across itemCount items.
// Each component is rounded per item to 2 decimal places and the rounding
// remainder is assigned to the last item, so for every component the sum of
// shares equals the aggregate rounded to 2 decimal places.
func Distribute(in Input, itemCount int) ([]Share, error) {
	if itemCount < 1 {
		return nil, ErrInvalidItemCount
	}

	goods := in.GoodsAmount.orZero().Mul(in.ExchangeRate.orZero()).Round(2)
	duty := in.DutyAmount.orZero().Round(2)
	shipping := in.ShippingCost.orZero().Round(2)
	other := in.OtherCost.orZero().Round(2)

	goodsShares := split(goods, itemCount)
	dutyShares := split(duty, itemCount)
	shippingShares := split(shipping, itemCount)
	otherShares := split(other, itemCount)

	shares := make([]Share, itemCount)
	for i := range shares {
		shares[i] = Share{
			GoodsAmount:     goodsShares[i],
			DutyAmount:      dutyShares[i],
			DomesticFreight: shippingShares[i],
			OtherCost:       otherShares[i],
		}
	}
	return shares, nil
}

// split divides total into n 2-dp parts whose sum is exactly total. The
// first n-1 parts are total/n rounded; the last part absorbs the remainder.
func split(total decimal.Decimal, n int) []float64 {
	parts := make([]float64, n)
	each := total.Div(decimal.NewFromInt(int64(n))).Round(2)
	running := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i], _ = each.Float64()
		running = running.Add(each)
	}
	last := total.Sub(running)
	parts[n-1], _ = last.Float64()
	return parts
}
