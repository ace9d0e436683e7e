package sublib

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// UpcomingWindow is how far ahead Summary looks for renewals.
const UpcomingWindow = 30 * 24 * time.Hour

var (
	weeksPerYear  = decimal.NewFromInt(52)
	monthsPerYear = decimal.NewFromInt(12)
)

// MonthlyAmount normalizes the subscription amount to a per-month figure.
func (s *Subscription) MonthlyAmount() decimal.Decimal {
	switch s.Frequency {
	case Weekly:
		return s.Amount.Mul(weeksPerYear).Div(monthsPerYear)
	case Yearly:
		return s.Amount.Div(monthsPerYear)
	default:
		return s.Amount
	}
}

// Renewal is a subscription together with its parsed billing date.
type Renewal struct {
	Subscription Subscription `json:"subscription"`
	Date         time.Time    `json:"date"`
}

// Summary aggregates spend over a set of subscriptions.
type Summary struct {
	Count int `json:"count"`
	// MonthlyTotal is the sum of all subscriptions normalized per month.
	MonthlyTotal decimal.Decimal `json:"monthlyTotal"`
	// RarelyUsedTotal is the monthly spend on rarely used subscriptions.
	RarelyUsedTotal decimal.Decimal `json:"rarelyUsedTotal"`
	RarelyUsedCount int             `json:"rarelyUsedCount"`
	// Upcoming lists renewals within UpcomingWindow, earliest first.
	Upcoming []Renewal `json:"upcoming"`
}

// Summarize computes spend totals and upcoming renewals relative to now.
// Subscriptions with malformed billing dates count towards the totals but
// never appear in Upcoming.
func Summarize(subs []Subscription, now time.Time) Summary {
	sum := Summary{
		Count:           len(subs),
		MonthlyTotal:    decimal.Zero,
		RarelyUsedTotal: decimal.Zero,
		Upcoming:        []Renewal{},
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	horizon := now.Add(UpcomingWindow)
	for _, s := range subs {
		m := s.MonthlyAmount()
		sum.MonthlyTotal = sum.MonthlyTotal.Add(m)
		if s.IsRarelyUsed() {
			sum.RarelyUsedTotal = sum.RarelyUsedTotal.Add(m)
			sum.RarelyUsedCount++
		}
		d, err := s.BillingDate(now.Location())
		if err != nil {
			continue
		}
		if d.Before(today) || d.After(horizon) {
			continue
		}
		sum.Upcoming = append(sum.Upcoming, Renewal{Subscription: s, Date: d})
	}
	sort.SliceStable(sum.Upcoming, func(i, j int) bool {
		return sum.Upcoming[i].Date.Before(sum.Upcoming[j].Date)
	})
	return sum
}
