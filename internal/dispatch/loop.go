// internal/dispatch/loop.go
package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// ConfinementError reports a store operation invoked off the owner goroutine.
// It is delivered by panic: crossing the confinement boundary is a
// programming error, not a runtime condition to recover from.
type ConfinementError struct {
	Op    string
	Owner uint64
	Got   uint64
}

func (e *ConfinementError) Error() string {
	return fmt.Sprintf("%s called from goroutine %d, owner context is goroutine %d", e.Op, e.Got, e.Owner)
}

// Loop is a single-goroutine cooperative task queue. One goroutine adopts
// the loop and becomes the owner execution context; every other goroutine
// may only Post work onto it. Tasks posted while a turn is running execute
// on the following turn, which is what gives deferred mutations their
// "next turn" semantics.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	owner atomic.Uint64
}

// NewLoop creates an unowned loop. A goroutine must Adopt (or Run) it
// before owner-confined work can execute.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Adopt claims the calling goroutine as the owner context.
func (l *Loop) Adopt() {
	l.owner.Store(goroutineID())
}

// Owned reports whether the calling goroutine is the owner context. An
// unowned loop belongs to nobody until Adopt or Run claims it.
func (l *Loop) Owned() bool {
	owner := l.owner.Load()
	return owner != 0 && owner == goroutineID()
}

// MustOwn panics with a ConfinementError if the calling goroutine is not
// the owner context. op names the operation for the failure message.
func (l *Loop) MustOwn(op string) {
	if !l.Owned() {
		panic(&ConfinementError{Op: op, Owner: l.owner.Load(), Got: goroutineID()})
	}
}

// Post queues fn for the next turn. Safe from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Drain runs every task queued before the call. Tasks posted by a running
// task land on the next turn and are not picked up by this drain. Must be
// called from the owner context.
func (l *Loop) Drain() int {
	l.MustOwn("dispatch.Drain")

	l.mu.Lock()
	turn := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range turn {
		fn()
	}
	return len(turn)
}

// DrainAll drains turns until the queue is empty.
func (l *Loop) DrainAll() int {
	total := 0
	for {
		n := l.Drain()
		total += n
		if n == 0 {
			return total
		}
	}
}

// Run adopts the calling goroutine and pumps the queue until ctx is done.
// This is the production entry point; tests usually Adopt and Drain
// explicitly instead so turn boundaries stay deterministic.
func (l *Loop) Run(ctx context.Context) {
	l.Adopt()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
			l.DrainAll()
		}
	}
}

// Call posts fn and blocks until it has run. When invoked from the owner
// context it runs fn inline, since waiting on the queue would deadlock.
func (l *Loop) Call(fn func()) {
	if l.Owned() {
		fn()
		return
	}
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	<-done
}

// goroutineID extracts the current goroutine id from the runtime.Stack
// header ("goroutine N [running]: ...").
func goroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
