package costing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Rounding policy under test: each component is split to 2-dp shares with
// the remainder carried to the last item, so shares sum exactly to the
// 2-dp aggregate for any item count.

func TestDistributeThreeItemImport(t *testing.T) {
	in := Input{
		GoodsAmount:  AmountOf(300),
		ExchangeRate: AmountOf(1300),
		DutyAmount:   AmountOf(30000),
		ShippingCost: AmountOf(15000),
		OtherCost:    AmountOf(0),
	}
	shares, err := Distribute(in, 3)
	require.NoError(t, err)
	require.Len(t, shares, 3)
	for _, s := range shares {
		require.InDelta(t, 130000.0, s.GoodsAmount, 0.001)
		require.InDelta(t, 10000.0, s.DutyAmount, 0.001)
		require.InDelta(t, 5000.0, s.DomesticFreight, 0.001)
		require.InDelta(t, 0.0, s.OtherCost, 0.001)
	}
}

func TestDistributeSumReproducesAggregate(t *testing.T) {
	cases := []struct {
		name  string
		in    Input
		items int
	}{
		{"uneven duty", Input{DutyAmount: AmountOf(100)}, 3},
		{"uneven goods", Input{GoodsAmount: AmountOf(999.97), ExchangeRate: AmountOf(1)}, 7},
		{"single item", Input{GoodsAmount: AmountOf(250), ExchangeRate: AmountOf(1312.5), DutyAmount: AmountOf(12345.67)}, 1},
		{"many items", Input{ShippingCost: AmountOf(70001.23), OtherCost: AmountOf(0.05)}, 13},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shares, err := Distribute(tc.in, tc.items)
			require.NoError(t, err)

			var goods, duty, freight, other float64
			for _, s := range shares {
				goods += s.GoodsAmount
				duty += s.DutyAmount
				freight += s.DomesticFreight
				other += s.OtherCost
			}
			rate := 0.0
			if tc.in.ExchangeRate.IsSet() {
				rate = mustFloat(tc.in.ExchangeRate)
			}
			require.InDelta(t, mustFloat(tc.in.GoodsAmount)*rate, goods, 0.005)
			require.InDelta(t, mustFloat(tc.in.DutyAmount), duty, 0.005)
			require.InDelta(t, mustFloat(tc.in.ShippingCost), freight, 0.005)
			require.InDelta(t, mustFloat(tc.in.OtherCost), other, 0.005)
		})
	}
}

func TestDistributeAbsentAmountsAreZero(t *testing.T) {
	shares, err := Distribute(Input{DutyAmount: AmountOf(9000)}, 2)
	require.NoError(t, err)
	for _, s := range shares {
		require.Zero(t, s.GoodsAmount)
		require.Zero(t, s.DomesticFreight)
		require.Zero(t, s.OtherCost)
	}
	require.InDelta(t, 9000.0, shares[0].DutyAmount+shares[1].DutyAmount, 0.001)
}

func TestDistributeGoodsWithoutRateIsZero(t *testing.T) {
	shares, err := Distribute(Input{GoodsAmount: AmountOf(500)}, 2)
	require.NoError(t, err)
	require.Zero(t, shares[0].GoodsAmount)
	require.Zero(t, shares[1].GoodsAmount)
}

func TestDistributeRejectsZeroItems(t *testing.T) {
	_, err := Distribute(Input{DutyAmount: AmountOf(100)}, 0)
	require.ErrorIs(t, err, ErrInvalidItemCount)

	_, err = Distribute(Input{}, -3)
	require.ErrorIs(t, err, ErrInvalidItemCount)
}

func mustFloat(a Amount) float64 {
	if !a.IsSet() {
		return 0
	}
	f, _ := a.value.Float64()
	return f
}
