// Package core provides money formatting utilities.
//
// Amounts are whole pesos; grouping separators follow the configured locale
// via golang.org/x/text so the UI never hand-rolls digit grouping.
package core

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySuffix is appended to formatted amounts.
const CurrencySuffix = "ARS"

// Formatter renders Money for display.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter creates a formatter for a BCP 47 locale such as "en" or "es-AR".
// Unparsable locales fall back to English.
func NewFormatter(locale string) Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return Formatter{printer: message.NewPrinter(tag)}
}

// Amount formats m as "$27,500".
func (f Formatter) Amount(m Money) string {
	p := f.printer
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	if m.Pesos < 0 {
		return p.Sprintf("-$%d", -m.Pesos)
	}
	return p.Sprintf("$%d", m.Pesos)
}

// WithCurrency formats m as "$27,500 ARS".
func (f Formatter) WithCurrency(m Money) string {
	return f.Amount(m) + " " + CurrencySuffix
}
