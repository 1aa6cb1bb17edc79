package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadmarket_backend/platform/apperr"
)

func TestParse_ValidTable(t *testing.T) {
	book, err := Parse([]byte(`
countries:
  no:
    amount: "490.00"
    currency: nok
  SE:
    amount: "520.50"
    currency: SEK
`))
	require.NoError(t, err)

	price, err := book.PriceFor("NO")
	require.NoError(t, err)
	assert.Equal(t, int64(49000), price.AmountCents())
	assert.Equal(t, "NOK", price.Currency, "country and currency codes are upper-cased on load")

	price, err = book.PriceFor("se")
	require.NoError(t, err)
	assert.Equal(t, int64(52050), price.AmountCents())
}

func TestParse_Rejections(t *testing.T) {
	cases := map[string]string{
		"empty table":     "countries: {}\n",
		"invalid amount":  "countries:\n  NO:\n    amount: \"many\"\n    currency: NOK\n",
		"zero amount":     "countries:\n  NO:\n    amount: \"0\"\n    currency: NOK\n",
		"negative amount": "countries:\n  NO:\n    amount: \"-10.00\"\n    currency: NOK\n",
		"no currency":     "countries:\n  NO:\n    amount: \"490.00\"\n",
		"not yaml":        "{{nope",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestPriceFor_UnknownCountry(t *testing.T) {
	book, err := Parse([]byte("countries:\n  NO:\n    amount: \"490.00\"\n    currency: NOK\n"))
	require.NoError(t, err)

	_, err = book.PriceFor("AU")
	require.Error(t, err)
	assert.Equal(t, apperr.KindPreconditionFailed, apperr.GetKind(err))
}
