package common

import (
	"time"

	"github.com/subsleuth/subsleuth/pkg/sublib"
)

type SuccessResponse struct {
	Success bool `json:"success"`
}

type SubscriptionParams struct {
	Subscription *sublib.Subscription `json:"subscription"`
}

type SubscriptionIDParams struct {
	SubscriptionID string `json:"subscriptionId"`
}

type NotifyDaysParams struct {
	Days int `json:"days"`
}

// Alarm describes one pending timer.
type Alarm struct {
	Name   string    `json:"name"`
	FireAt time.Time `json:"fireAt"`
}

type AlarmsResponse struct {
	Alarms []Alarm `json:"alarms"`
}

type ConfigResponse struct {
	LeadDays int `json:"leadDays"`
}

type SubscriptionsResponse struct {
	Subscriptions []sublib.Subscription `json:"subscriptions"`
}

type SaveSubscriptionResponse struct {
	Subscription sublib.Subscription `json:"subscription"`
	// Scheduled is false when the reminder date already passed.
	Scheduled bool `json:"scheduled"`
}

type SummaryResponse struct {
	sublib.Summary
	// Formatted money strings for display clients.
	MonthlyTotalText    string `json:"monthlyTotalText"`
	RarelyUsedTotalText string `json:"rarelyUsedTotalText"`
}

type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
}

// Notification is emitted when a reminder or test timer fires.
type Notification struct {
	ID             string              `json:"id"`
	SubscriptionID string              `json:"subscriptionId"`
	Title          string              `json:"title"`
	Message        string              `json:"message"`
	Test           bool                `json:"test"`
	Subscription   sublib.Subscription `json:"subscription"`
	FiredAt        time.Time           `json:"firedAt"`
}
