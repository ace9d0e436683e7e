package subcli

import (
	"context"
	"fmt"

	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/pkg/sublib"
)

func invoke[T any](c *Client, method string, params any) (*T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	var res T
	if err := c.cli.CallResult(ctx, method, params, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return &res, nil
}

func invokeSuccess(c *Client, method string, params any) (bool, error) {
	res, err := invoke[common.SuccessResponse](c, method, params)
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

func (c *Client) SyncAlarms() (bool, error) {
	return invokeSuccess(c, "syncAlarms", nil)
}

// CreateAlarm reports false when the reminder date already passed.
func (c *Client) CreateAlarm(sub sublib.Subscription) (bool, error) {
	return invokeSuccess(c, "createAlarm", &common.SubscriptionParams{Subscription: &sub})
}

func (c *Client) TestAlarm(sub sublib.Subscription) (bool, error) {
	return invokeSuccess(c, "testAlarm", &common.SubscriptionParams{Subscription: &sub})
}

func (c *Client) DeleteAlarm(id string) (bool, error) {
	return invokeSuccess(c, "deleteAlarm", &common.SubscriptionIDParams{SubscriptionID: id})
}

func (c *Client) SetNotifyDays(days int) (bool, error) {
	return invokeSuccess(c, "setNotifyDays", &common.NotifyDaysParams{Days: days})
}

func (c *Client) GetAlarms() ([]common.Alarm, error) {
	res, err := invoke[common.AlarmsResponse](c, "getAlarms", nil)
	if err != nil {
		return nil, err
	}
	return res.Alarms, nil
}

func (c *Client) GetConfig() (*common.ConfigResponse, error) {
	return invoke[common.ConfigResponse](c, "getConfig", nil)
}

func (c *Client) ListSubscriptions() ([]sublib.Subscription, error) {
	res, err := invoke[common.SubscriptionsResponse](c, "listSubscriptions", nil)
	if err != nil {
		return nil, err
	}
	return res.Subscriptions, nil
}

// SaveSubscription creates or updates sub and returns the stored copy.
func (c *Client) SaveSubscription(sub sublib.Subscription) (*common.SaveSubscriptionResponse, error) {
	return invoke[common.SaveSubscriptionResponse](c, "saveSubscription", &common.SubscriptionParams{Subscription: &sub})
}

func (c *Client) DeleteSubscription(id string) (bool, error) {
	return invokeSuccess(c, "deleteSubscription", &common.SubscriptionIDParams{SubscriptionID: id})
}

func (c *Client) Summary() (*common.SummaryResponse, error) {
	return invoke[common.SummaryResponse](c, "summary", nil)
}

func (c *Client) GetDaemonVersion() (*common.VersionResponse, error) {
	return invoke[common.VersionResponse](c, "system.getVersion", nil)
}
