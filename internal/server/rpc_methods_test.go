package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/internal/reminder"
	"github.com/subsleuth/subsleuth/internal/scheduler"
	"github.com/subsleuth/subsleuth/internal/store"
	"github.com/subsleuth/subsleuth/pkg/sublib"
)

const testSecret = "test-rpc-secret"

// testEnv is a running reminder service behind a WebServer.
type testEnv struct {
	web   *WebServer
	store store.Store
	svc   *reminder.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	st := store.New(store.NewMemoryKV())
	notifier := NewRPCNotifier(nil)
	var svc *reminder.Service
	timers := scheduler.New(ctx, func(name string) { svc.Fire(name) })
	svc = reminder.New(st, timers, notifier, reminder.Options{
		Location:  time.UTC,
		TestDelay: 200 * time.Millisecond,
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Run(ctx)
	}()

	rs := NewRPCServer(&RPCConfig{
		Secret:  testSecret,
		Version: "1.0.0",
		Commit:  "abc123",
	}, svc)
	t.Cleanup(func() {
		rs.Close()
		cancel()
		<-done
	})
	return &testEnv{web: NewWebServer(nil, rs, notifier), store: st, svc: svc}
}

func rpcCall(t *testing.T, handler http.Handler, method string, params any, authToken string) (int, map[string]any) {
	t.Helper()
	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		reqBody["params"] = params
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/jsonrpc", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	resp := rr.Result()
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var result map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			t.Fatalf("unmarshal response: %v (body: %s)", err, string(body))
		}
	}
	return rr.Code, result
}

func resultOf(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %v (error: %v)", resp["result"], resp["error"])
	}
	return result
}

func errorCode(t *testing.T, resp map[string]any) float64 {
	t.Helper()
	errObj, ok := resp["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %v", resp)
	}
	return errObj["code"].(float64)
}

func futureDate(months int) string {
	return time.Now().UTC().AddDate(0, months, 0).Format(sublib.DateLayout)
}

func subParams(id, name, date string) map[string]any {
	return map[string]any{
		"subscription": map[string]any{
			"id":          id,
			"name":        name,
			"amount":      "9.99",
			"frequency":   "monthly",
			"nextBilling": date,
		},
	}
}

func TestRPCSystemGetVersion(t *testing.T) {
	env := newTestEnv(t)

	code, resp := rpcCall(t, env.web.Handler(), "system.getVersion", nil, testSecret)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp["id"].(float64) != 1 {
		t.Fatalf("expected id 1, got %v", resp["id"])
	}
	result := resultOf(t, resp)
	if result["version"] != "1.0.0" || result["commit"] != "abc123" {
		t.Fatalf("unexpected version result %v", result)
	}
}

func TestRPCAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	code, resp := rpcCall(t, env.web.Handler(), "getAlarms", nil, "")
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if errorCode(t, resp) != -32600 {
		t.Fatalf("expected -32600, got %v", resp)
	}

	code, _ = rpcCall(t, env.web.Handler(), "getAlarms", nil, "wrong")
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token, got %d", code)
	}
}

func TestRPCMethodNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, resp := rpcCall(t, env.web.Handler(), "nonexistent.method", nil, testSecret)
	if got := errorCode(t, resp); got != -32601 {
		t.Fatalf("expected -32601, got %v", got)
	}
}

func TestRPCSaveAndListSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	h := env.web.Handler()

	_, resp := rpcCall(t, h, "saveSubscription", subParams("", "Music", futureDate(2)), testSecret)
	result := resultOf(t, resp)
	if result["scheduled"] != true {
		t.Fatalf("expected a scheduled reminder, got %v", result)
	}
	saved := result["subscription"].(map[string]any)
	id, _ := saved["id"].(string)
	if id == "" {
		t.Fatalf("expected an assigned id, got %v", saved)
	}

	_, resp = rpcCall(t, h, "listSubscriptions", nil, testSecret)
	subs := resultOf(t, resp)["subscriptions"].([]any)
	if len(subs) != 1 || subs[0].(map[string]any)["name"] != "Music" {
		t.Fatalf("unexpected subscriptions %v", subs)
	}

	_, resp = rpcCall(t, h, "getAlarms", nil, testSecret)
	alarms := resultOf(t, resp)["alarms"].([]any)
	if len(alarms) != 1 || alarms[0].(map[string]any)["name"] != common.ReminderTimerName(id) {
		t.Fatalf("unexpected alarms %v", alarms)
	}
}

func TestRPCSaveInvalidLeavesStoreUntouched(t *testing.T) {
	env := newTestEnv(t)

	_, resp := rpcCall(t, env.web.Handler(), "saveSubscription", subParams("x", "Bad", "not-a-date"), testSecret)
	if got := errorCode(t, resp); got != float64(codeInvalidParams) {
		t.Fatalf("expected %d, got %v", codeInvalidParams, got)
	}
	subs, err := env.store.Subscriptions(context.Background())
	if err != nil {
		t.Fatalf("Subscriptions: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("expected empty store, got %+v", subs)
	}
}

func TestRPCMissingParams(t *testing.T) {
	env := newTestEnv(t)
	h := env.web.Handler()

	for _, method := range []string{"createAlarm", "testAlarm", "saveSubscription", "deleteAlarm", "deleteSubscription"} {
		_, resp := rpcCall(t, h, method, map[string]any{}, testSecret)
		if got := errorCode(t, resp); got != float64(codeInvalidParams) {
			t.Errorf("%s: expected %d, got %v", method, codeInvalidParams, got)
		}
	}
}

func TestRPCRejectsTestSuffixID(t *testing.T) {
	env := newTestEnv(t)
	h := env.web.Handler()
	future := time.Now().UTC().AddDate(0, 1, 0).Format(sublib.DateLayout)

	calls := []struct {
		method string
		params map[string]any
	}{
		{"saveSubscription", subParams("a_test", "A", future)},
		{"createAlarm", subParams("a_test", "A", future)},
		{"testAlarm", subParams("a_test", "A", future)},
		{"deleteAlarm", map[string]any{"subscriptionId": "a_test"}},
	}
	for _, c := range calls {
		_, resp := rpcCall(t, h, c.method, c.params, testSecret)
		if got := errorCode(t, resp); got != float64(codeInvalidParams) {
			t.Errorf("%s: expected %d, got %v", c.method, codeInvalidParams, got)
		}
	}
}

func TestRPCSetNotifyDays(t *testing.T) {
	env := newTestEnv(t)
	h := env.web.Handler()

	for _, days := range []int{0, 31} {
		_, resp := rpcCall(t, h, "setNotifyDays", map[string]any{"days": days}, testSecret)
		if got := errorCode(t, resp); got != float64(codeLeadDaysOutOfRange) {
			t.Fatalf("days=%d: expected %d, got %v", days, codeLeadDaysOutOfRange, got)
		}
	}

	_, resp := rpcCall(t, h, "setNotifyDays", map[string]any{"days": 7}, testSecret)
	if resultOf(t, resp)["success"] != true {
		t.Fatalf("expected success, got %v", resp)
	}
	_, resp = rpcCall(t, h, "getConfig", nil, testSecret)
	if got := resultOf(t, resp)["leadDays"]; got != float64(7) {
		t.Fatalf("expected leadDays 7, got %v", got)
	}
}

func TestRPCDeleteUnknownSubscription(t *testing.T) {
	env := newTestEnv(t)

	_, resp := rpcCall(t, env.web.Handler(), "deleteSubscription", map[string]any{"subscriptionId": "nope"}, testSecret)
	if got := errorCode(t, resp); got != float64(codeSubscriptionNotFound) {
		t.Fatalf("expected %d, got %v", codeSubscriptionNotFound, got)
	}
}

func TestRPCCreateAlarmPastDate(t *testing.T) {
	env := newTestEnv(t)

	past := time.Now().UTC().AddDate(0, 0, -3).Format(sublib.DateLayout)
	_, resp := rpcCall(t, env.web.Handler(), "createAlarm", subParams("old", "Old", past), testSecret)
	if got := resultOf(t, resp)["success"]; got != false {
		t.Fatalf("expected success=false for a past reminder, got %v", got)
	}
}

func TestRPCSummary(t *testing.T) {
	env := newTestEnv(t)
	h := env.web.Handler()

	rpcCall(t, h, "saveSubscription", subParams("", "A", futureDate(1)), testSecret)
	_, resp := rpcCall(t, h, "summary", nil, testSecret)
	result := resultOf(t, resp)
	if result["count"] != float64(1) {
		t.Fatalf("expected count 1, got %v", result)
	}
	if text, _ := result["monthlyTotalText"].(string); text == "" {
		t.Fatalf("expected formatted monthly total, got %v", result)
	}
}

func TestRPCHealthz(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.web.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRPCBridgeLifecycle(t *testing.T) {
	rs := NewRPCServer(&RPCConfig{Secret: "test"}, nil)
	rs.Close()
	rs.Close()
}
