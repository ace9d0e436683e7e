package server

import (
	"context"
	"errors"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/internal/reminder"
	"github.com/subsleuth/subsleuth/internal/store"
	"github.com/subsleuth/subsleuth/pkg/sublib"
)

// JSON-RPC error codes for reminder operations.
const (
	codeSubscriptionNotFound = jrpc2.Code(common.CodeSubscriptionNotFound)
	codeLeadDaysOutOfRange   = jrpc2.Code(common.CodeLeadDaysOutOfRange)
	codeInvalidParams        = jrpc2.Code(common.CodeInvalidParams)
)

// RPCConfig holds configuration for the JSON-RPC endpoints.
type RPCConfig struct {
	Secret  string // Auth token (required -- empty means every call is rejected)
	Version string
	Commit  string
	// OriginPatterns are the WebSocket origins accepted besides same-host,
	// e.g. "chrome-extension://*" hosts.
	OriginPatterns []string
}

// Reminders is the reminder engine the RPC methods call into.
type Reminders interface {
	SyncAlarms(ctx context.Context) (bool, error)
	CreateAlarm(ctx context.Context, sub sublib.Subscription) (bool, error)
	TestAlarm(ctx context.Context, sub sublib.Subscription) (bool, error)
	DeleteAlarm(ctx context.Context, id string) (bool, error)
	SetNotifyDays(ctx context.Context, days int) (bool, error)
	GetAlarms(ctx context.Context) ([]common.Alarm, error)
	GetConfig(ctx context.Context) (store.Config, error)
	ListSubscriptions(ctx context.Context) ([]sublib.Subscription, error)
	SaveSubscription(ctx context.Context, sub sublib.Subscription) (sublib.Subscription, bool, error)
	DeleteSubscription(ctx context.Context, id string) (bool, error)
	Summary(ctx context.Context) (sublib.Summary, error)
	Formatter() *sublib.Formatter
}

var _ Reminders = (*reminder.Service)(nil)

// RPCServer manages the JSON-RPC 2.0 bridge and method handlers.
type RPCServer struct {
	bridge  jhttp.Bridge
	methods handler.Map
	cfg     RPCConfig
	rem     Reminders
}

// NewRPCServer creates a new RPCServer with method handlers and HTTP bridge.
func NewRPCServer(cfg *RPCConfig, rem Reminders) *RPCServer {
	rs := &RPCServer{
		cfg: *cfg,
		rem: rem,
	}

	rs.methods = handler.Map{
		"system.getVersion":  handler.New(rs.systemGetVersion),
		"syncAlarms":         handler.New(rs.syncAlarms),
		"createAlarm":        handler.New(rs.createAlarm),
		"testAlarm":          handler.New(rs.testAlarm),
		"deleteAlarm":        handler.New(rs.deleteAlarm),
		"setNotifyDays":      handler.New(rs.setNotifyDays),
		"getAlarms":          handler.New(rs.getAlarms),
		"getConfig":          handler.New(rs.getConfig),
		"listSubscriptions":  handler.New(rs.listSubscriptions),
		"saveSubscription":   handler.New(rs.saveSubscription),
		"deleteSubscription": handler.New(rs.deleteSubscription),
		"summary":            handler.New(rs.summary),
	}

	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

// rpcError maps engine errors onto JSON-RPC codes. Unknown errors pass
// through and surface as internal errors.
func rpcError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, reminder.ErrSubscriptionNotFound):
		return &jrpc2.Error{Code: codeSubscriptionNotFound, Message: err.Error()}
	case errors.Is(err, reminder.ErrLeadDaysOutOfRange):
		return &jrpc2.Error{Code: codeLeadDaysOutOfRange, Message: err.Error()}
	case errors.Is(err, reminder.ErrMissingID),
		errors.Is(err, sublib.ErrInvalidID),
		errors.Is(err, sublib.ErrMissingName),
		errors.Is(err, sublib.ErrNegativeAmount),
		errors.Is(err, sublib.ErrInvalidFrequency),
		errors.Is(err, sublib.ErrInvalidUsage),
		errors.Is(err, sublib.ErrInvalidBillingDate):
		return &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	}
	return err
}

func missingParam(name string) error {
	return &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: " + name}
}

func success(ok bool, err error) (*common.SuccessResponse, error) {
	if err != nil {
		return nil, rpcError(err)
	}
	return &common.SuccessResponse{Success: ok}, nil
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*common.VersionResponse, error) {
	return &common.VersionResponse{
		Version: rs.cfg.Version,
		Commit:  rs.cfg.Commit,
	}, nil
}

func (rs *RPCServer) syncAlarms(ctx context.Context) (*common.SuccessResponse, error) {
	return success(rs.rem.SyncAlarms(ctx))
}

// createAlarm reports success=false when the reminder date already passed.
func (rs *RPCServer) createAlarm(ctx context.Context, p *common.SubscriptionParams) (*common.SuccessResponse, error) {
	if p.Subscription == nil {
		return nil, missingParam("subscription")
	}
	return success(rs.rem.CreateAlarm(ctx, *p.Subscription))
}

func (rs *RPCServer) testAlarm(ctx context.Context, p *common.SubscriptionParams) (*common.SuccessResponse, error) {
	if p.Subscription == nil {
		return nil, missingParam("subscription")
	}
	return success(rs.rem.TestAlarm(ctx, *p.Subscription))
}

func (rs *RPCServer) deleteAlarm(ctx context.Context, p *common.SubscriptionIDParams) (*common.SuccessResponse, error) {
	if p.SubscriptionID == "" {
		return nil, missingParam("subscriptionId")
	}
	return success(rs.rem.DeleteAlarm(ctx, p.SubscriptionID))
}

func (rs *RPCServer) setNotifyDays(ctx context.Context, p *common.NotifyDaysParams) (*common.SuccessResponse, error) {
	return success(rs.rem.SetNotifyDays(ctx, p.Days))
}

func (rs *RPCServer) getAlarms(ctx context.Context) (*common.AlarmsResponse, error) {
	alarms, err := rs.rem.GetAlarms(ctx)
	if err != nil {
		return nil, rpcError(err)
	}
	return &common.AlarmsResponse{Alarms: alarms}, nil
}

func (rs *RPCServer) getConfig(ctx context.Context) (*common.ConfigResponse, error) {
	cfg, err := rs.rem.GetConfig(ctx)
	if err != nil {
		return nil, rpcError(err)
	}
	return &common.ConfigResponse{LeadDays: cfg.LeadDays}, nil
}

func (rs *RPCServer) listSubscriptions(ctx context.Context) (*common.SubscriptionsResponse, error) {
	subs, err := rs.rem.ListSubscriptions(ctx)
	if err != nil {
		return nil, rpcError(err)
	}
	if subs == nil {
		subs = []sublib.Subscription{}
	}
	return &common.SubscriptionsResponse{Subscriptions: subs}, nil
}

func (rs *RPCServer) saveSubscription(ctx context.Context, p *common.SubscriptionParams) (*common.SaveSubscriptionResponse, error) {
	if p.Subscription == nil {
		return nil, missingParam("subscription")
	}
	sub, scheduled, err := rs.rem.SaveSubscription(ctx, *p.Subscription)
	if err != nil {
		return nil, rpcError(err)
	}
	return &common.SaveSubscriptionResponse{Subscription: sub, Scheduled: scheduled}, nil
}

func (rs *RPCServer) deleteSubscription(ctx context.Context, p *common.SubscriptionIDParams) (*common.SuccessResponse, error) {
	if p.SubscriptionID == "" {
		return nil, missingParam("subscriptionId")
	}
	return success(rs.rem.DeleteSubscription(ctx, p.SubscriptionID))
}

func (rs *RPCServer) summary(ctx context.Context) (*common.SummaryResponse, error) {
	sum, err := rs.rem.Summary(ctx)
	if err != nil {
		return nil, rpcError(err)
	}
	f := rs.rem.Formatter()
	return &common.SummaryResponse{
		Summary:             sum,
		MonthlyTotalText:    f.Money(sum.MonthlyTotal),
		RarelyUsedTotalText: f.Money(sum.RarelyUsedTotal),
	}, nil
}

// Close shuts down the jrpc2 bridge, releasing internal goroutines.
func (rs *RPCServer) Close() {
	rs.bridge.Close()
}
