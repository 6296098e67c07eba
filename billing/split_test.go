package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func platformFee(pct string) TaxRule {
	return TaxRule{Name: "Platform Fee", Percentage: d(pct), AppliesTo: AppliesToOwnerPayout, Role: RolePlatformFee}
}

func TestSplitSingleLine(t *testing.T) {
	snap, err := NewTaxSnapshot([]TaxRule{platformFee("10")})
	require.NoError(t, err)
	assert.True(t, snap.HasPlatformFee())

	line, err := PriceLine(LineItem{Date: "2026-10-20", StartTime: "09:00", EndTime: "12:00", Seats: 2}, Rates{Hourly: d("200")})
	require.NoError(t, err)
	assert.True(t, line.Amount.Equal(d("1200")))

	split := snap.Split(line.Amount, false)
	assert.True(t, split.TotalTax.Equal(d("120")), split.TotalTax.String())
	assert.True(t, split.PlatformCommission.Equal(d("120")))
	assert.True(t, split.OwnerPayout.Equal(d("1080")))
}

func TestSplitPremiumHalvesPlatformFeeOnly(t *testing.T) {
	gst := TaxRule{Name: "GST", Percentage: d("18"), AppliesTo: AppliesToBoth, Role: RoleOther}
	snap, err := NewTaxSnapshot([]TaxRule{gst, platformFee("10")})
	require.NoError(t, err)

	regular := snap.Split(d("1000"), false)
	premium := snap.Split(d("1000"), true)

	assert.True(t, regular.Lines[1].EffectivePercentage.Equal(d("10")))
	assert.True(t, premium.Lines[1].EffectivePercentage.Equal(d("5")))
	assert.True(t, premium.Lines[0].EffectivePercentage.Equal(d("18")))

	assert.True(t, premium.PlatformCommission.Equal(d("50")))
	assert.True(t, premium.TotalTax.Equal(d("230")))
	assert.True(t, premium.OwnerPayout.Equal(d("770")))
}

func TestSplitWithoutPlatformFee(t *testing.T) {
	snap, err := NewTaxSnapshot([]TaxRule{{Name: "GST", Percentage: d("18"), Role: RoleOther}})
	require.NoError(t, err)
	assert.False(t, snap.HasPlatformFee())

	split := snap.Split(d("500"), true)
	assert.True(t, split.PlatformCommission.IsZero())
	assert.True(t, split.TotalTax.Equal(d("90")))
}

func TestNewTaxSnapshotRejectsBadConfig(t *testing.T) {
	_, err := NewTaxSnapshot([]TaxRule{platformFee("10"), platformFee("5")})
	assert.ErrorIs(t, err, ErrMultiplePlatformFees)

	_, err = NewTaxSnapshot([]TaxRule{{Name: "Bad", Percentage: d("120")}})
	assert.ErrorIs(t, err, ErrInvalidPercentage)
}

func TestAllocateProportional(t *testing.T) {
	split := Split{Total: d("1000"), TotalTax: d("150"), PlatformCommission: d("100"), OwnerPayout: d("850")}
	shares := Allocate(split, []decimal.Decimal{d("300"), d("700")})

	require.Len(t, shares, 2)
	assert.True(t, shares[0].Tax.Equal(d("45")))
	assert.True(t, shares[1].Tax.Equal(d("105")))
	assert.True(t, shares[0].Commission.Equal(d("30")))
	assert.True(t, shares[1].Commission.Equal(d("70")))
	assert.True(t, shares[0].Payout.Equal(d("225")))
}

func TestAllocateSumsMatchTotals(t *testing.T) {
	snap, err := NewTaxSnapshot([]TaxRule{
		{Name: "GST", Percentage: d("18"), Role: RoleOther},
		platformFee("7.5"),
	})
	require.NoError(t, err)

	batches := [][]decimal.Decimal{
		{d("333.33"), d("333.33"), d("333.34")},
		{d("0.01"), d("999.99")},
		{d("125.50"), d("80"), d("42.25"), d("17.17"), d("1")},
		{d("1")},
	}
	for _, amounts := range batches {
		total := decimal.Sum(amounts[0], amounts[1:]...)
		split := snap.Split(total, false)
		shares := Allocate(split, amounts)

		tax, commission, payout := decimal.Zero, decimal.Zero, decimal.Zero
		for _, s := range shares {
			tax = tax.Add(s.Tax)
			commission = commission.Add(s.Commission)
			payout = payout.Add(s.Payout)
		}
		assert.True(t, tax.Equal(split.TotalTax), "tax %s != %s", tax, split.TotalTax)
		assert.True(t, commission.Equal(split.PlatformCommission))
		assert.True(t, payout.Add(tax).Add(commission).Equal(total))
	}
}

func TestAllocateZeroTotal(t *testing.T) {
	snap, err := NewTaxSnapshot([]TaxRule{platformFee("10")})
	require.NoError(t, err)

	split := snap.Split(decimal.Zero, false)
	shares := Allocate(split, []decimal.Decimal{decimal.Zero, decimal.Zero})
	for _, s := range shares {
		assert.True(t, s.Tax.IsZero())
		assert.True(t, s.Commission.IsZero())
		assert.True(t, s.Payout.IsZero())
	}
	assert.Empty(t, Allocate(split, nil))
}
