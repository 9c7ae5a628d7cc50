// internal/dispatch/loop_test.go
package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdoptAndOwned(t *testing.T) {
	loop := NewLoop()
	assert.False(t, loop.Owned(), "unowned until adopted")

	loop.Adopt()
	assert.True(t, loop.Owned())

	owned := make(chan bool, 1)
	go func() { owned <- loop.Owned() }()
	assert.False(t, <-owned, "other goroutines never own the loop")
}

func TestMustOwnPanics(t *testing.T) {
	loop := NewLoop()
	loop.Adopt()

	recovered := make(chan interface{}, 1)
	go func() {
		defer func() { recovered <- recover() }()
		loop.MustOwn("test.Op")
	}()

	v := <-recovered
	require.NotNil(t, v)
	confErr, ok := v.(*ConfinementError)
	require.True(t, ok, "got %T", v)
	assert.Equal(t, "test.Op", confErr.Op)
	assert.Contains(t, confErr.Error(), "test.Op")
}

func TestDrainRunsOneTurn(t *testing.T) {
	loop := NewLoop()
	loop.Adopt()

	var order []int
	loop.Post(func() {
		order = append(order, 1)
		// Posted mid-turn: belongs to the next turn.
		loop.Post(func() { order = append(order, 3) })
	})
	loop.Post(func() { order = append(order, 2) })

	require.Equal(t, 2, loop.Drain())
	assert.Equal(t, []int{1, 2}, order)

	require.Equal(t, 1, loop.Drain())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, loop.Drain())
}

func TestDrainAll(t *testing.T) {
	loop := NewLoop()
	loop.Adopt()

	count := 0
	loop.Post(func() {
		count++
		loop.Post(func() { count++ })
	})

	assert.Equal(t, 2, loop.DrainAll())
	assert.Equal(t, 2, count)
}

func TestRunPumpsPostedTasks(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(stopped)
	}()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	for i := 1; i <= 3; i++ {
		i := i
		loop.Post(func() {
			mu.Lock()
			got = append(got, i)
			if len(got) == 3 {
				close(done)
			}
			mu.Unlock()
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("posted tasks never ran")
	}
	mu.Lock()
	assert.Equal(t, []int{1, 2, 3}, got)
	mu.Unlock()

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestCallBlocksUntilRun(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	ran := false
	loop.Call(func() { ran = true })
	assert.True(t, ran)
}

func TestCallInlineOnOwner(t *testing.T) {
	loop := NewLoop()
	loop.Adopt()

	ran := false
	loop.Call(func() { ran = true })
	assert.True(t, ran, "owner calls run inline, not through the queue")
	assert.Equal(t, 0, loop.Drain())
}
