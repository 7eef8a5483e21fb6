package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuoteAppliesDiscount(t *testing.T) {
	table := DefaultDiscounts()
	quote, err := table.Quote([]Line{{CourseID: 1, Price: 150000}, {CourseID: 2, Price: 99999}}, " welcome10 ")
	require.NoError(t, err)
	require.Equal(t, int64(249999), quote.Subtotal)
	require.Equal(t, "WELCOME10", quote.Code)
	require.Equal(t, 10, quote.Percent)
	require.Equal(t, int64(24999), quote.Discount)
	require.Equal(t, int64(225000), quote.Total)
}

func TestQuoteWithoutCode(t *testing.T) {
	quote, err := DefaultDiscounts().Quote([]Line{{CourseID: 1, Price: 5000}}, "")
	require.NoError(t, err)
	require.Zero(t, quote.Discount)
	require.Equal(t, int64(5000), quote.Total)
}

func TestQuoteRejectsUnknownCode(t *testing.T) {
	_, err := DefaultDiscounts().Quote([]Line{{CourseID: 1, Price: 5000}}, "BOGUS")
	require.ErrorIs(t, err, ErrUnknownDiscountCode)
}

func TestParseDiscounts(t *testing.T) {
	table, err := ParseDiscounts("summer15:15, BLACKFRIDAY:70,")
	require.NoError(t, err)
	percent, ok := table.Lookup("Summer15")
	require.True(t, ok)
	require.Equal(t, 15, percent)
	require.Len(t, table, 2)

	_, err = ParseDiscounts("BROKEN")
	require.Error(t, err)
	_, err = ParseDiscounts("TOO_MUCH:150")
	require.Error(t, err)
}
