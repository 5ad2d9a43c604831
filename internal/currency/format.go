package currency

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Round rounds amount to two decimals, half away from zero. It is meant for
// display only; stored amounts are never rounded.
func Round(amount float64) float64 {
	f, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return f
}

// Format renders amount with two decimals using the number conventions of tag,
// followed by the currency code.
func Format(tag language.Tag, amount float64, code string) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("%v %s", number.Decimal(Round(amount), number.Scale(2)), code)
}
