package nativehost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/pkg/logger"
	"github.com/subsleuth/subsleuth/pkg/sublib"
)

// Client is the subset of the daemon client used by the host.
type Client interface {
	SyncAlarms() (bool, error)
	CreateAlarm(sub sublib.Subscription) (bool, error)
	TestAlarm(sub sublib.Subscription) (bool, error)
	DeleteAlarm(id string) (bool, error)
	SetNotifyDays(days int) (bool, error)
	GetAlarms() ([]common.Alarm, error)
	GetConfig() (*common.ConfigResponse, error)
	ListSubscriptions() ([]sublib.Subscription, error)
	SaveSubscription(sub sublib.Subscription) (*common.SaveSubscriptionResponse, error)
	DeleteSubscription(id string) (bool, error)
	Summary() (*common.SummaryResponse, error)
	GetDaemonVersion() (*common.VersionResponse, error)
	Close() error
}

// Host bridges one browser extension port to the daemon.
type Host struct {
	client Client
	stdin  io.Reader
	stdout io.Writer
	log    logger.Logger
	// wmu keeps responses and pushes from interleaving on stdout.
	wmu sync.Mutex
}

// NewHost creates a host on os.Stdin and os.Stdout. Anything else written to
// stdout corrupts the stream, so logs must go elsewhere.
func NewHost(client Client, l logger.Logger) *Host {
	return newHost(client, os.Stdin, os.Stdout, l)
}

func newHost(client Client, stdin io.Reader, stdout io.Writer, l logger.Logger) *Host {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Host{
		client: client,
		stdin:  stdin,
		stdout: stdout,
		log:    l,
	}
}

// Run serves requests until stdin is closed. Notifications received on
// notes, if non-nil, are forwarded to the extension as push frames.
func (h *Host) Run(ctx context.Context, notes <-chan common.Notification) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if notes != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.forward(ctx, notes)
		}()
	}

	for {
		err := h.processOneMessage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (h *Host) forward(ctx context.Context, notes <-chan common.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notes:
			if !ok {
				return
			}
			if err := h.Push(common.NotifyEvent, n); err != nil {
				h.log.Warning("nativehost: push %s failed: %v", n.ID, err)
			}
		}
	}
}

// Push writes an unsolicited event frame.
func (h *Host) Push(event string, result any) error {
	b, err := MakeEvent(event, result)
	if err != nil {
		return err
	}
	return h.write(b)
}

func (h *Host) write(b []byte) error {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	return WriteMessage(h.stdout, b)
}

// processOneMessage reads and answers a single request.
func (h *Host) processOneMessage() error {
	data, err := ReadMessage(h.stdin)
	if err != nil {
		return err
	}

	req, err := ParseRequest(data)
	if err != nil {
		return h.write(MakeErrorResponse(0, fmt.Errorf("invalid request: %w", err)))
	}
	h.log.Debug("nativehost: request %d %s", req.ID, req.Method)
	return h.write(h.handleRequest(req))
}

type subscriptionMessage struct {
	Subscription *sublib.Subscription `json:"subscription"`
}

type idMessage struct {
	SubscriptionID string `json:"subscriptionId"`
}

type daysMessage struct {
	Days *int `json:"days"`
}

func decode(req *Request, v any) error {
	if len(req.Message) == 0 {
		return fmt.Errorf("missing params for %s", req.Method)
	}
	if err := json.Unmarshal(req.Message, v); err != nil {
		return fmt.Errorf("invalid %s params: %w", req.Method, err)
	}
	return nil
}

func decodeSubscription(req *Request) (sublib.Subscription, error) {
	var m subscriptionMessage
	if err := decode(req, &m); err != nil {
		return sublib.Subscription{}, err
	}
	if m.Subscription == nil {
		return sublib.Subscription{}, errors.New("subscription is required")
	}
	return *m.Subscription, nil
}

func decodeID(req *Request) (string, error) {
	var m idMessage
	if err := decode(req, &m); err != nil {
		return "", err
	}
	if m.SubscriptionID == "" {
		return "", errors.New("subscriptionId is required")
	}
	return m.SubscriptionID, nil
}

func successResult(ok bool, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return &common.SuccessResponse{Success: ok}, nil
}

// handleRequest runs req against the daemon and returns the encoded response.
func (h *Host) handleRequest(req *Request) []byte {
	result, err := h.dispatch(req)
	if err != nil {
		return MakeErrorResponse(req.ID, err)
	}
	return MakeSuccessResponse(req.ID, result)
}

func (h *Host) dispatch(req *Request) (any, error) {
	switch req.Method {
	case "version":
		return h.client.GetDaemonVersion()

	case "syncAlarms":
		return successResult(h.client.SyncAlarms())

	case "createAlarm", "testAlarm", "saveSubscription":
		sub, err := decodeSubscription(req)
		if err != nil {
			return nil, err
		}
		switch req.Method {
		case "createAlarm":
			return successResult(h.client.CreateAlarm(sub))
		case "testAlarm":
			return successResult(h.client.TestAlarm(sub))
		}
		return h.client.SaveSubscription(sub)

	case "deleteAlarm", "deleteSubscription":
		id, err := decodeID(req)
		if err != nil {
			return nil, err
		}
		if req.Method == "deleteAlarm" {
			return successResult(h.client.DeleteAlarm(id))
		}
		return successResult(h.client.DeleteSubscription(id))

	case "setNotifyDays":
		var m daysMessage
		if err := decode(req, &m); err != nil {
			return nil, err
		}
		if m.Days == nil {
			return nil, errors.New("days is required")
		}
		return successResult(h.client.SetNotifyDays(*m.Days))

	case "getAlarms":
		alarms, err := h.client.GetAlarms()
		if err != nil {
			return nil, err
		}
		return &common.AlarmsResponse{Alarms: alarms}, nil

	case "getConfig":
		return h.client.GetConfig()

	case "listSubscriptions":
		subs, err := h.client.ListSubscriptions()
		if err != nil {
			return nil, err
		}
		return &common.SubscriptionsResponse{Subscriptions: subs}, nil

	case "summary":
		return h.client.Summary()
	}
	return nil, fmt.Errorf("unknown method: %s", req.Method)
}
