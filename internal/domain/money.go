package domain

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatAmount renders an amount of minor currency units as a localized
// string with the currency symbol, e.g. "KZT 5,000.00". Used in user-facing
// quote and billing-notification messages.
//
// Unknown currency codes fall back to a plain "CODE major.minor" rendering.
func FormatAmount(code string, minorUnits int64) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %d.%02d", code, minorUnits/100, minorUnits%100)
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v", currency.Symbol(unit.Amount(float64(minorUnits)/100)))
}
