package sublib

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DisplayDateLayout is the date format used in notification text.
const DisplayDateLayout = "Jan 2, 2006"

const (
	DefaultLocale   = "en-IN"
	DefaultCurrency = "INR"
)

// Formatter renders money amounts and notification text for one locale and
// currency.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
	tag     language.Tag
}

// NewFormatter builds a Formatter for a BCP 47 locale such as "en-IN" and an
// ISO 4217 currency code such as "INR".
func NewFormatter(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", code, err)
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		unit:    unit,
		tag:     tag,
	}, nil
}

// DefaultFormatter formats amounts as Indian Rupees with en-IN grouping.
func DefaultFormatter() *Formatter {
	f, err := NewFormatter(DefaultLocale, DefaultCurrency)
	if err != nil {
		panic(err)
	}
	return f
}

// Money formats amount with the currency symbol and two fraction digits.
func (f *Formatter) Money(amount decimal.Decimal) string {
	v, _ := amount.Round(2).Float64()
	return f.printer.Sprintf("%v%v", currency.Symbol(f.unit), number.Decimal(v, number.Scale(2)))
}

// FrequencyLabel returns the capitalized frequency, e.g. "Monthly".
func (f *Formatter) FrequencyLabel(freq Frequency) string {
	return cases.Title(f.tag).String(string(freq))
}

// DisplayDate renders a YYYY-MM-DD date as "Jun 10, 2024". Malformed input is
// returned unchanged.
func DisplayDate(v string) string {
	t, err := ParseDate(v, nil)
	if err != nil {
		return v
	}
	return t.Format(DisplayDateLayout)
}

// ReminderTitle is the notification title for a due subscription.
func (f *Formatter) ReminderTitle(s *Subscription, test bool) string {
	if test {
		return "Test Notification: " + s.Name
	}
	return "Subscription coming due: " + s.Name
}

// ReminderMessage is the notification body for a due subscription.
func (f *Formatter) ReminderMessage(s *Subscription, test bool) string {
	price := fmt.Sprintf("%s %s", f.Money(s.Amount), f.FrequencyLabel(s.Frequency))
	date := DisplayDate(s.NextBilling)
	if test {
		return fmt.Sprintf("This is a test reminder for %s (%s).\nActual billing date: %s", s.Name, price, date)
	}
	return fmt.Sprintf("%s (%s) is due on %s", s.Name, price, date)
}
