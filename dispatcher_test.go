package goadsio

import (
	"sync"
	"testing"
	"time"
)

func TestDispatcherPreservesOrder(t *testing.T) {
	d := newDispatcher(DefaultLogger)
	defer d.close()

	const count = 50
	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	for i := 0; i < count; i++ {
		i := i
		if !d.enqueue(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == count-1 {
				close(done)
			}
		}) {
			t.Fatalf("Failed to enqueue delivery %d", i)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Deliveries did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		if v != i {
			t.Fatalf("Expected delivery %d at position %d, got %d", i, i, v)
		}
	}
}

func TestDispatcherPanicIsolation(t *testing.T) {
	d := newDispatcher(DefaultLogger)
	defer d.close()

	delivered := make(chan struct{})
	d.enqueue(func() { panic("callback blew up") })
	d.enqueue(func() { close(delivered) })

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("Delivery after a panicking callback never ran")
	}
}

func TestDispatcherDropsWhenSaturated(t *testing.T) {
	d := newDispatcher(DefaultLogger)
	defer d.close()

	// Park the worker so the queue fills up behind it.
	release := make(chan struct{})
	d.enqueue(func() { <-release })

	dropped := false
	for i := 0; i < dispatchQueueDepth+8; i++ {
		if !d.enqueue(func() {}) {
			dropped = true
			break
		}
	}
	close(release)

	if !dropped {
		t.Error("Expected a saturated queue to report a drop")
	}
}

func TestDispatcherEnqueueAfterClose(t *testing.T) {
	d := newDispatcher(DefaultLogger)
	if d.closed() {
		t.Error("Expected a fresh dispatcher to report open")
	}
	d.close()
	if !d.closed() {
		t.Error("Expected closed to report true after close")
	}
	if d.enqueue(func() {}) {
		t.Error("Expected enqueue after close to report failure")
	}
	// Closing twice must not panic.
	d.close()
}
