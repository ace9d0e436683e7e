// Package sublib provides the subscription data model used across SubSleuth:
// validation, billing-date parsing, monthly spend arithmetic and the text
// rendered into reminder notifications.
package sublib

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format of Subscription.NextBilling.
const DateLayout = "2006-01-02"

// ReservedIDSuffix names the test timer of a subscription, so no id may end
// with it.
const ReservedIDSuffix = "_test"

var (
	ErrInvalidID          = errors.New("subscription id must be non-empty and must not end in " + ReservedIDSuffix)
	ErrMissingName        = errors.New("subscription name is required")
	ErrNegativeAmount     = errors.New("subscription amount must not be negative")
	ErrInvalidFrequency   = errors.New("frequency must be one of weekly, monthly or yearly")
	ErrInvalidUsage       = errors.New("usage must be frequently-used or rarely-used")
	ErrInvalidBillingDate = errors.New("next billing date is not a valid YYYY-MM-DD date")
)

// Frequency is the billing cadence of a subscription.
type Frequency string

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Usage marks how often the user actually uses a subscription.
type Usage string

const (
	FrequentlyUsed Usage = "frequently-used"
	RarelyUsed     Usage = "rarely-used"
)

// Subscription is a recurring charge tracked by the user.
type Subscription struct {
	// ID is the opaque identifier assigned at creation. It never changes.
	ID string `json:"id"`
	// Name is the display name shown in notifications.
	Name string `json:"name"`
	// Amount is the charge per billing period, currency agnostic.
	Amount decimal.Decimal `json:"amount"`
	// Frequency is the billing cadence.
	Frequency Frequency `json:"frequency"`
	// NextBilling is the next billing date as YYYY-MM-DD. It is kept as
	// entered and parsed on use so malformed values can be reported.
	NextBilling string `json:"nextBilling"`
	// Usage defaults to FrequentlyUsed when empty.
	Usage Usage `json:"usage,omitempty"`
}

// NewID returns a fresh subscription identifier.
func NewID() string {
	return uuid.NewString()
}

// Normalize trims the free-text fields, fills the default usage and assigns
// an ID when missing.
func (s *Subscription) Normalize() {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.NextBilling = strings.TrimSpace(s.NextBilling)
	s.Frequency = Frequency(strings.ToLower(strings.TrimSpace(string(s.Frequency))))
	if s.Usage == "" {
		s.Usage = FrequentlyUsed
	}
	if s.ID == "" {
		s.ID = NewID()
	}
}

// CheckID rejects ids that cannot own timers of their own.
func CheckID(id string) error {
	if id == "" || strings.HasSuffix(id, ReservedIDSuffix) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Validate checks the fields a subscription needs before it can be stored.
func (s *Subscription) Validate() error {
	if err := CheckID(s.ID); err != nil {
		return err
	}
	if s.Name == "" {
		return ErrMissingName
	}
	if s.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !s.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, s.Frequency)
	}
	switch s.Usage {
	case "", FrequentlyUsed, RarelyUsed:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidUsage, s.Usage)
	}
	if _, err := ParseDate(s.NextBilling, time.UTC); err != nil {
		return err
	}
	return nil
}

// IsRarelyUsed reports whether the subscription is flagged as a potential leak.
func (s *Subscription) IsRarelyUsed() bool {
	return s.Usage == RarelyUsed
}

// BillingDate returns midnight of NextBilling in loc.
func (s *Subscription) BillingDate(loc *time.Location) (time.Time, error) {
	return ParseDate(s.NextBilling, loc)
}

// ParseDate parses a YYYY-MM-DD calendar date at midnight in loc.
func ParseDate(v string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBillingDate, v)
	}
	return t, nil
}

// Find returns the subscription with the given id.
func Find(subs []Subscription, id string) (Subscription, bool) {
	for _, s := range subs {
		if s.ID == id {
			return s, true
		}
	}
	return Subscription{}, false
}

// Upsert replaces the subscription with the same ID or appends it,
// preserving insertion order.
func Upsert(subs []Subscription, sub Subscription) []Subscription {
	for i := range subs {
		if subs[i].ID == sub.ID {
			subs[i] = sub
			return subs
		}
	}
	return append(subs, sub)
}

// Remove drops the subscription with the given id. The second result is
// false when no subscription matched.
func Remove(subs []Subscription, id string) ([]Subscription, bool) {
	for i := range subs {
		if subs[i].ID == id {
			return append(subs[:i:i], subs[i+1:]...), true
		}
	}
	return subs, false
}
