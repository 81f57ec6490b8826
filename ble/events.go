package ble

import (
	"sync"

	"github.com/robertof/go-ble-central/central"
	"github.com/rs/zerolog/log"
)

const eventQueueSize = 128

type event func(central.EventSink)

// dispatcher delivers events to the sink one at a time, in the order they were
// emitted, from a single goroutine.
type dispatcher struct {
	sinkMu sync.Mutex
	sink   central.EventSink

	mu     sync.RWMutex
	closed bool

	queue chan event
	done  chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		queue: make(chan event, eventQueueSize),
		done:  make(chan struct{}),
	}

	go d.run()

	return d
}

func (d *dispatcher) setSink(sink central.EventSink) {
	d.sinkMu.Lock()
	defer d.sinkMu.Unlock()

	d.sink = sink
}

func (d *dispatcher) run() {
	defer close(d.done)

	for ev := range d.queue {
		d.sinkMu.Lock()
		sink := d.sink
		d.sinkMu.Unlock()

		if sink == nil {
			log.Trace().Msg("ble: no event sink attached, dropping event")
			continue
		}

		ev(sink)
	}
}

func (d *dispatcher) emit(ev event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return
	}

	d.queue <- ev
}

// close stops accepting events and waits until queued ones are delivered.
func (d *dispatcher) close() {
	d.mu.Lock()

	if d.closed {
		d.mu.Unlock()
		return
	}

	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}
