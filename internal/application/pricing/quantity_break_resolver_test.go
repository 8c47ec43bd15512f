package pricing

import (
	"testing"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newTieredItem(t *testing.T) *pricing.PriceListItem {
	t.Helper()
	item, err := pricing.NewPriceListItem(uuid.New(), uuid.New(), "WIDGET-1", dec("50"), dec("50"))
	require.NoError(t, err)
	require.NoError(t, item.SetQuantityBreaks(pricing.QuantityBreaks{
		{MinQuantity: dec("10"), MaxQuantity: decPtr("49"), Price: decPtr("45")},
		{MinQuantity: dec("50"), MaxQuantity: decPtr("99"), Price: decPtr("40")},
		{MinQuantity: dec("100"), Price: decPtr("35")},
	}))
	return item
}

func TestQuantityBreakResolverAllUnits(t *testing.T) {
	resolver := NewQuantityBreakResolver(BreakModeAllUnits)

	t.Run("tier price applies to every unit", func(t *testing.T) {
		item := newTieredItem(t)
		res := resolver.Resolve(item, dec("12"))

		assert.True(t, res.UnitPrice.Equal(dec("45")))
		assert.True(t, res.ExtendedPrice.Equal(dec("540")))
		require.NotNil(t, res.AppliedBreak)
		assert.True(t, res.AppliedBreak.MinQuantity.Equal(dec("10")))
	})

	t.Run("deepest matching tier wins", func(t *testing.T) {
		item := newTieredItem(t)
		res := resolver.Resolve(item, dec("250"))

		assert.True(t, res.UnitPrice.Equal(dec("35")))
		assert.True(t, res.ExtendedPrice.Equal(dec("8750")))
	})

	t.Run("quantity below first tier uses list price", func(t *testing.T) {
		item := newTieredItem(t)
		res := resolver.Resolve(item, dec("5"))

		assert.True(t, res.UnitPrice.Equal(dec("50")))
		assert.True(t, res.ExtendedPrice.Equal(dec("250")))
		assert.Nil(t, res.AppliedBreak)
	})

	t.Run("no tiers falls back to list price", func(t *testing.T) {
		item, err := pricing.NewPriceListItem(uuid.New(), uuid.New(), "PLAIN-1", dec("20"), dec("25"))
		require.NoError(t, err)
		res := resolver.Resolve(item, dec("3"))

		assert.True(t, res.UnitPrice.Equal(dec("25")))
		assert.Nil(t, res.AppliedBreak)
	})

	t.Run("discount percent tier", func(t *testing.T) {
		item, err := pricing.NewPriceListItem(uuid.New(), uuid.New(), "WIDGET-2", dec("50"), dec("50"))
		require.NoError(t, err)
		require.NoError(t, item.SetQuantityBreaks(pricing.QuantityBreaks{
			{MinQuantity: dec("10"), DiscountPercent: decPtr("20")},
		}))

		res := resolver.Resolve(item, dec("10"))
		assert.True(t, res.UnitPrice.Equal(dec("40")))
		assert.True(t, res.ExtendedPrice.Equal(dec("400")))
	})
}

func TestQuantityBreakResolverIncremental(t *testing.T) {
	resolver := NewQuantityBreakResolver(BreakModeIncremental)

	t.Run("units are priced segment by segment", func(t *testing.T) {
		item := newTieredItem(t)
		// 10 units at list 50 before the first tier, 2 units at 45.
		res := resolver.Resolve(item, dec("12"))

		assert.True(t, res.ExtendedPrice.Equal(dec("590")), "got %s", res.ExtendedPrice)
		assert.True(t, res.UnitPrice.Round(2).Equal(dec("49.17")), "average across segments")
		require.NotNil(t, res.AppliedBreak)
	})

	t.Run("spans multiple tiers", func(t *testing.T) {
		item := newTieredItem(t)
		// Segments for 120 units: 10 at list 50, 39 at 45, a 1-unit gap at
		// list price between the 49 and 50 tier bounds, 49 at 40, another
		// 1-unit gap, then 20 at 35.
		res := resolver.Resolve(item, dec("120"))

		expected := dec("500").
			Add(dec("1755")).
			Add(dec("50")).
			Add(dec("1960")).
			Add(dec("50")).
			Add(dec("700"))
		assert.True(t, res.ExtendedPrice.Equal(expected), "got %s", res.ExtendedPrice)
	})

	t.Run("below first tier behaves like all units", func(t *testing.T) {
		item := newTieredItem(t)
		res := resolver.Resolve(item, dec("5"))

		assert.True(t, res.UnitPrice.Equal(dec("50")))
		assert.True(t, res.ExtendedPrice.Equal(dec("250")))
	})
}

func TestNewQuantityBreakResolverDefaultsMode(t *testing.T) {
	resolver := NewQuantityBreakResolver(BreakPricingMode("bogus"))
	item := newTieredItem(t)

	res := resolver.Resolve(item, dec("12"))
	assert.True(t, res.UnitPrice.Equal(dec("45")), "invalid mode falls back to all units")
}
