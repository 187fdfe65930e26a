package models

import (
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a non-negative amount limited to five digits in total with two
// after the decimal point (0.00 .. 999.99). It is stored as NUMERIC(5,2).
type Price struct {
	decimal.Decimal
}

// Messages returned by ParsePrice.
var (
	ErrPriceInvalid   = errors.New("A valid number is required.")
	ErrPriceNegative  = errors.New("Ensure this value is greater than or equal to 0.")
	ErrPriceDigits    = errors.New("Ensure that there are no more than 5 digits in total.")
	ErrPriceDecimals  = errors.New("Ensure that there are no more than 2 decimal places.")
	ErrPriceWholePart = errors.New("Ensure that there are no more than 3 digits before the decimal point.")
)

const (
	priceDigits = 5
	pricePlaces = 2
)

// NewPrice returns a price of the given number of hundredths.
func NewPrice(cents int64) Price {
	return Price{decimal.New(cents, -pricePlaces)}
}

// ParsePrice parses decimal text such as "5", "5.5" or "12.00".
func ParsePrice(s string) (Price, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	if strings.Trim(s, ".") == "" {
		return Price{}, ErrPriceInvalid
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, ErrPriceInvalid
	}
	if d.IsNegative() {
		return Price{}, ErrPriceNegative
	}

	places := decimalPlaces(d)
	whole := 0
	if w := d.Truncate(0); !w.IsZero() {
		whole = len(w.BigInt().String())
	}

	switch {
	case whole+places > priceDigits:
		return Price{}, ErrPriceDigits
	case places > pricePlaces:
		return Price{}, ErrPriceDecimals
	case whole > priceDigits-pricePlaces:
		return Price{}, ErrPriceWholePart
	}
	return Price{d}, nil
}

// decimalPlaces counts the significant digits after the point.
func decimalPlaces(d decimal.Decimal) int {
	n := 0
	for !d.Equal(d.Truncate(int32(n))) {
		n++
	}
	return n
}

// String renders the price with exactly two decimals, e.g. "30.00".
func (p Price) String() string {
	return p.StringFixed(pricePlaces)
}

// MarshalJSON encodes the price as a JSON string.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// Value stores the price as NUMERIC text.
func (p Price) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan reads NUMERIC values; NULL scans as zero.
func (p *Price) Scan(src any) error {
	if src == nil {
		*p = Price{}
		return nil
	}
	return p.Decimal.Scan(src)
}
