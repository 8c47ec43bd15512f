package pricing

import (
	"testing"

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

func TestQuantityBreakMatches(t *testing.T) {
	t.Run("matches quantity at min boundary", func(t *testing.T) {
		b := QuantityBreak{MinQuantity: dec("10")}
		assert.True(t, b.Matches(dec("10")))
	})

	t.Run("matches quantity above unbounded tier", func(t *testing.T) {
		b := QuantityBreak{MinQuantity: dec("10")}
		assert.True(t, b.Matches(dec("1000")))
	})

	t.Run("rejects quantity below min", func(t *testing.T) {
		b := QuantityBreak{MinQuantity: dec("10")}
		assert.False(t, b.Matches(dec("9")))
	})

	t.Run("matches quantity at max boundary", func(t *testing.T) {
		b := QuantityBreak{MinQuantity: dec("10"), MaxQuantity: decPtr("49")}
		assert.True(t, b.Matches(dec("49")))
	})

	t.Run("rejects quantity above max", func(t *testing.T) {
		b := QuantityBreak{MinQuantity: dec("10"), MaxQuantity: decPtr("49")}
		assert.False(t, b.Matches(dec("50")))
	})
}

func TestQuantityBreakUnitPrice(t *testing.T) {
	t.Run("explicit price wins over discount", func(t *testing.T) {
		b := QuantityBreak{MinQuantity: dec("10"), Price: decPtr("45"), DiscountPercent: decPtr("50")}
		assert.True(t, b.UnitPrice(dec("50")).Equal(dec("45")))
	})

	t.Run("discount percent applies against base price", func(t *testing.T) {
		b := QuantityBreak{MinQuantity: dec("10"), DiscountPercent: decPtr("10")}
		assert.True(t, b.UnitPrice(dec("50")).Equal(dec("45")))
	})

	t.Run("falls back to base price with neither set", func(t *testing.T) {
		b := QuantityBreak{MinQuantity: dec("10")}
		assert.True(t, b.UnitPrice(dec("50")).Equal(dec("50")))
	})
}

func TestQuantityBreaksValidate(t *testing.T) {
	t.Run("accepts sorted non-overlapping tiers", func(t *testing.T) {
		breaks := QuantityBreaks{
			{MinQuantity: dec("10"), MaxQuantity: decPtr("49"), Price: decPtr("45")},
			{MinQuantity: dec("50"), MaxQuantity: decPtr("99"), Price: decPtr("40")},
			{MinQuantity: dec("100"), Price: decPtr("35")},
		}
		require.NoError(t, breaks.Validate())
	})

	t.Run("rejects negative min quantity", func(t *testing.T) {
		breaks := QuantityBreaks{{MinQuantity: dec("-1")}}
		err := breaks.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "min quantity cannot be negative")
	})

	t.Run("rejects max below min", func(t *testing.T) {
		breaks := QuantityBreaks{{MinQuantity: dec("10"), MaxQuantity: decPtr("5")}}
		err := breaks.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max quantity below min quantity")
	})

	t.Run("rejects negative price", func(t *testing.T) {
		breaks := QuantityBreaks{{MinQuantity: dec("10"), Price: decPtr("-1")}}
		require.Error(t, breaks.Validate())
	})

	t.Run("rejects discount above 100", func(t *testing.T) {
		breaks := QuantityBreaks{{MinQuantity: dec("10"), DiscountPercent: decPtr("101")}}
		err := breaks.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "between 0 and 100")
	})

	t.Run("rejects unsorted tiers", func(t *testing.T) {
		breaks := QuantityBreaks{
			{MinQuantity: dec("50"), MaxQuantity: decPtr("99")},
			{MinQuantity: dec("10"), MaxQuantity: decPtr("49")},
		}
		err := breaks.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sorted ascending")
	})

	t.Run("rejects unbounded tier followed by another", func(t *testing.T) {
		breaks := QuantityBreaks{
			{MinQuantity: dec("10")},
			{MinQuantity: dec("50")},
		}
		err := breaks.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unbounded")
	})

	t.Run("rejects overlapping tiers", func(t *testing.T) {
		breaks := QuantityBreaks{
			{MinQuantity: dec("10"), MaxQuantity: decPtr("50")},
			{MinQuantity: dec("50"), MaxQuantity: decPtr("99")},
		}
		err := breaks.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "overlap")
	})

	t.Run("accepts empty set", func(t *testing.T) {
		require.NoError(t, QuantityBreaks{}.Validate())
	})
}

func TestQuantityBreaksSorted(t *testing.T) {
	breaks := QuantityBreaks{
		{MinQuantity: dec("100")},
		{MinQuantity: dec("10"), MaxQuantity: decPtr("49")},
		{MinQuantity: dec("50"), MaxQuantity: decPtr("99")},
	}
	sorted := breaks.Sorted()

	require.Len(t, sorted, 3)
	assert.True(t, sorted[0].MinQuantity.Equal(dec("10")))
	assert.True(t, sorted[1].MinQuantity.Equal(dec("50")))
	assert.True(t, sorted[2].MinQuantity.Equal(dec("100")))
	// Original is untouched.
	assert.True(t, breaks[0].MinQuantity.Equal(dec("100")))
}

func TestQuantityBreaksJSONRoundTrip(t *testing.T) {
	breaks := QuantityBreaks{
		{MinQuantity: dec("10"), MaxQuantity: decPtr("49"), Price: decPtr("45")},
		{MinQuantity: dec("50"), DiscountPercent: decPtr("15")},
	}

	value, err := breaks.Value()
	require.NoError(t, err)

	var restored QuantityBreaks
	require.NoError(t, restored.Scan(value))
	require.Len(t, restored, 2)
	assert.True(t, restored[0].Price.Equal(dec("45")))
	assert.Nil(t, restored[1].MaxQuantity)
	assert.True(t, restored[1].DiscountPercent.Equal(dec("15")))
}
