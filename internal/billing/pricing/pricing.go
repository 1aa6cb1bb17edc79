// Package pricing loads the per-country lead price table. Prices are
// configuration, not data: the table is a YAML file read once at startup
// and passed to the billing module explicitly.
package pricing

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"leadmarket_backend/platform/apperr"
)

// Price is the charge for one lead in a given country.
type Price struct {
	Amount   decimal.Decimal
	Currency string
}

// AmountCents returns the amount in minor units, the representation the
// transaction store and the processor API use.
func (p Price) AmountCents() int64 {
	return p.Amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// Book holds the loaded price table keyed by upper-case ISO country code.
type Book struct {
	prices map[string]Price
}

type fileEntry struct {
	Amount   string `yaml:"amount"`
	Currency string `yaml:"currency"`
}

type fileFormat struct {
	Countries map[string]fileEntry `yaml:"countries"`
}

// LoadFile reads the price table from a YAML file:
//
//	countries:
//	  NO: {amount: "490.00", currency: NOK}
//	  SE: {amount: "450.00", currency: SEK}
func LoadFile(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a price table from YAML bytes.
func Parse(data []byte) (*Book, error) {
	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse pricing file: %w", err)
	}
	if len(raw.Countries) == 0 {
		return nil, fmt.Errorf("pricing file lists no countries")
	}

	prices := make(map[string]Price, len(raw.Countries))
	for iso, entry := range raw.Countries {
		amount, err := decimal.NewFromString(entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("pricing for %s: invalid amount %q: %w", iso, entry.Amount, err)
		}
		if amount.IsNegative() || amount.IsZero() {
			return nil, fmt.Errorf("pricing for %s: amount must be positive", iso)
		}
		if entry.Currency == "" {
			return nil, fmt.Errorf("pricing for %s: currency is required", iso)
		}
		prices[strings.ToUpper(strings.TrimSpace(iso))] = Price{
			Amount:   amount,
			Currency: strings.ToUpper(entry.Currency),
		}
	}
	return &Book{prices: prices}, nil
}

// PriceFor returns the lead price for a country. A country without a
// configured price cannot be charged; that is a precondition failure, not
// a lookup bug.
func (b *Book) PriceFor(countryISO string) (Price, error) {
	price, ok := b.prices[strings.ToUpper(strings.TrimSpace(countryISO))]
	if !ok {
		return Price{}, apperr.PreconditionFailed(
			fmt.Sprintf("no lead price configured for country %s", strings.ToUpper(countryISO)))
	}
	return price, nil
}

// Countries lists the configured country codes, for startup logging.
func (b *Book) Countries() []string {
	out := make([]string, 0, len(b.prices))
	for iso := range b.prices {
		out = append(out, iso)
	}
	return out
}
