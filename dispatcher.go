package goadsio

import "sync"

// dispatcher runs callbacks for one subscription on a dedicated goroutine,
// preserving arrival order. A panicking callback is logged and does not
// affect later deliveries.
type dispatcher struct {
	log   Logger
	queue chan func()

	closeOnce sync.Once
	done      chan struct{}
}

const dispatchQueueDepth = 64

func newDispatcher(log Logger) *dispatcher {
	d := &dispatcher{
		log:   log,
		queue: make(chan func(), dispatchQueueDepth),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) run() {
	for {
		select {
		case fn := <-d.queue:
			d.call(fn)
		case <-d.done:
			// Drain what was enqueued before the close.
			for {
				select {
				case fn := <-d.queue:
					d.call(fn)
				default:
					return
				}
			}
		}
	}
}

func (d *dispatcher) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification callback panicked", "panic", r)
		}
	}()
	fn()
}

// enqueue schedules fn in FIFO order. When the queue is saturated the
// delivery is dropped rather than blocking the read loop; false reports the
// drop.
func (d *dispatcher) enqueue(fn func()) bool {
	select {
	case <-d.done:
		return false
	default:
	}
	select {
	case d.queue <- fn:
		return true
	default:
		return false
	}
}

func (d *dispatcher) close() {
	d.closeOnce.Do(func() { close(d.done) })
}

// closed reports whether close has been called. A closed dispatcher refuses
// every enqueue.
func (d *dispatcher) closed() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}
