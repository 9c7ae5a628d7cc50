// internal/store/txn.go
package store

import (
	"github.com/sirupsen/logrus"

	"matchcurve/internal/dispatch"
)

// txnState is the engine's two-state machine: outside or inside a batch.
type txnState int

const (
	stateIdle txnState = iota
	stateBatching
)

// pendingEmit is one coalesced notification slot. The key identifies the
// (channel, scope) pair; send builds and delivers the payload. When a
// later emit lands on an occupied key, the slot keeps its queue position
// and the send closure is replaced, so payloads are last-write-wins while
// ordering stays first-occurrence.
type pendingEmit struct {
	key  string
	send func()
}

// engine wraps every store mutation with batching, coalescing, and
// delivery-reentrancy handling. Live state always mutates immediately;
// only the notifications are deferred, so derived reads stay correct
// mid-batch.
type engine struct {
	loop *dispatch.Loop
	log  *logrus.Entry

	state      txnState
	pending    []*pendingEmit
	pendingIdx map[string]*pendingEmit

	// delivering is set while a notification round runs. Emits raised by
	// handlers during that window collect in nextTurn and flush on the
	// following loop turn, which bounds any would-be cycle at one extra
	// deferred round.
	delivering  bool
	nextTurn    []*pendingEmit
	nextTurnIdx map[string]*pendingEmit
	nextPosted  bool
}

func newEngine(loop *dispatch.Loop, log *logrus.Entry) *engine {
	return &engine{
		loop:        loop,
		log:         log,
		pendingIdx:  make(map[string]*pendingEmit),
		nextTurnIdx: make(map[string]*pendingEmit),
	}
}

// begin opens a batch. Single-level only: a begin while batching is a
// logged no-op, not a nesting count.
func (e *engine) begin() {
	if e.state == stateBatching {
		e.log.Warn("begin called inside an open batch, ignoring")
		return
	}
	e.state = stateBatching
}

// end closes the batch and flushes the coalesced queue in first-occurrence
// order. An end without a matching begin is a logged no-op.
func (e *engine) end() {
	if e.state != stateBatching {
		e.log.Warn("end called without an open batch, ignoring")
		return
	}
	e.state = stateIdle

	queue := e.pending
	e.pending = nil
	e.pendingIdx = make(map[string]*pendingEmit)

	// Ending a batch from inside a notification handler must not start a
	// nested round; the flush moves to the next loop turn instead.
	if e.delivering {
		for _, p := range queue {
			enqueue(&e.nextTurn, e.nextTurnIdx, p.key, p.send)
		}
		if len(e.nextTurn) > 0 && !e.nextPosted {
			e.nextPosted = true
			e.loop.Post(e.flushNextTurn)
		}
		return
	}
	e.deliver(queue)
}

func (e *engine) batching() bool {
	return e.state == stateBatching
}

// emit routes one notification: delivered immediately when idle, coalesced
// into the batch queue when batching, pushed to the next loop turn when
// raised from inside a delivery round.
func (e *engine) emit(key string, send func()) {
	switch {
	case e.state == stateBatching:
		enqueue(&e.pending, e.pendingIdx, key, send)
	case e.delivering:
		enqueue(&e.nextTurn, e.nextTurnIdx, key, send)
		if !e.nextPosted {
			e.nextPosted = true
			e.loop.Post(e.flushNextTurn)
		}
	default:
		e.deliver([]*pendingEmit{{key: key, send: send}})
	}
}

// deferWhileDelivering re-posts a whole mutation onto the next loop turn
// when it was invoked from inside a notification handler. Returns true
// when the caller must bail out.
func (e *engine) deferWhileDelivering(op string, fn func()) bool {
	if !e.delivering {
		return false
	}
	e.log.WithField("op", op).Debug("mutation from notification handler, deferring to next turn")
	e.loop.Post(fn)
	return true
}

func (e *engine) deliver(queue []*pendingEmit) {
	if len(queue) == 0 {
		return
	}
	prev := e.delivering
	e.delivering = true
	defer func() { e.delivering = prev }()
	for _, p := range queue {
		p.send()
	}
}

func (e *engine) flushNextTurn() {
	e.nextPosted = false
	queue := e.nextTurn
	e.nextTurn = nil
	e.nextTurnIdx = make(map[string]*pendingEmit)
	e.deliver(queue)
}

// reset drops anything queued. Used by store teardown only; a normal flush
// always goes through end.
func (e *engine) reset() {
	e.state = stateIdle
	e.pending = nil
	e.pendingIdx = make(map[string]*pendingEmit)
	e.nextTurn = nil
	e.nextTurnIdx = make(map[string]*pendingEmit)
	e.nextPosted = false
	e.delivering = false
}

func enqueue(queue *[]*pendingEmit, index map[string]*pendingEmit, key string, send func()) {
	if existing, ok := index[key]; ok {
		existing.send = send
		return
	}
	p := &pendingEmit{key: key, send: send}
	index[key] = p
	*queue = append(*queue, p)
}
