package reminder

import (
	"sync"

	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/internal/store"
	"github.com/subsleuth/subsleuth/pkg/sublib"
)

// CommandKind enumerates the work items the service goroutine executes.
type CommandKind int

const (
	CmdSyncAlarms CommandKind = iota
	CmdCreateAlarm
	CmdTestAlarm
	CmdDeleteAlarm
	CmdSetNotifyDays
	CmdGetAlarms
	CmdGetConfig
	CmdListSubscriptions
	CmdSaveSubscription
	CmdDeleteSubscription
	CmdSummary
	// CmdFire is posted by the timer facility when a timer elapses.
	CmdFire
)

var commandNames = [...]string{
	CmdSyncAlarms:         "syncAlarms",
	CmdCreateAlarm:        "createAlarm",
	CmdTestAlarm:          "testAlarm",
	CmdDeleteAlarm:        "deleteAlarm",
	CmdSetNotifyDays:      "setNotifyDays",
	CmdGetAlarms:          "getAlarms",
	CmdGetConfig:          "getConfig",
	CmdListSubscriptions:  "listSubscriptions",
	CmdSaveSubscription:   "saveSubscription",
	CmdDeleteSubscription: "deleteSubscription",
	CmdSummary:            "summary",
	CmdFire:               "fire",
}

func (k CommandKind) String() string {
	if k >= 0 && int(k) < len(commandNames) {
		return commandNames[k]
	}
	return "unknown"
}

type command struct {
	kind  CommandKind
	sub   sublib.Subscription
	id    string
	days  int
	timer string
	// reply is nil for fire-and-forget commands.
	reply chan result
}

type result struct {
	ok      bool
	alarms  []common.Alarm
	subs    []sublib.Subscription
	sub     sublib.Subscription
	summary sublib.Summary
	config  store.Config
	err     error
}

// queue is an unbounded FIFO. push never blocks so the timer goroutine can
// post fires while the service goroutine waits on the timer facility.
type queue struct {
	mu     sync.Mutex
	items  []command
	closed bool
	ready  chan struct{}
}

func newQueue() *queue {
	return &queue{ready: make(chan struct{}, 1)}
}

// push appends c and reports false when the queue was closed.
func (q *queue) push(c command) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, c)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

func (q *queue) pop() (command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return command{}, false
	}
	c := q.items[0]
	q.items[0] = command{}
	q.items = q.items[1:]
	return c, true
}

// close rejects further pushes and returns what was still pending.
func (q *queue) close() []command {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	rest := q.items
	q.items = nil
	return rest
}
