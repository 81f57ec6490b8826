package ble

import (
	"context"
	"errors"
	"sync"

	"github.com/go-ble/ble"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robertof/go-ble-central/central"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownPeripheral = errors.New("peripheral was not created by this adapter")
	ErrConnectionAborted = errors.New("connection attempt aborted")
	ErrLinkLost          = errors.New("link to peripheral lost")
)

var (
	successfulConnectionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ble_central_successful_connections_total",
	})
	failedConnectionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ble_central_failed_connections_total",
	})
	reusedConnectionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ble_central_reused_connections_total",
	})
	disconnectsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ble_central_disconnections_total",
	})
)

type link struct {
	peripheral *Peripheral
	cancel     context.CancelFunc

	// nil while dialing.
	client ble.Client
	// set when the disconnect was asked for rather than suffered.
	closing bool
}

type linkTable struct {
	mu    sync.Mutex
	links map[central.ID]*link
}

func newLinkTable() *linkTable {
	return &linkTable{
		links: make(map[central.ID]*link),
	}
}

func (t *linkTable) remove(id central.ID, l *link) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.links[id] == l {
		delete(t.links, id)
	}
}

func (t *linkTable) connected() (out []*Peripheral) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, l := range t.links {
		if l.client != nil {
			out = append(out, l.peripheral)
		}
	}

	return out
}

// Connect dials p in the background and reports the outcome as Connected or
// ConnectFailed.
func (h *Handle) Connect(cp central.Peripheral, opts central.ConnectOptions) {
	p, ok := cp.(*Peripheral)

	if !ok {
		h.events.emit(func(s central.EventSink) {
			s.ConnectFailed(cp, ErrUnknownPeripheral)
		})
		return
	}

	h.links.mu.Lock()

	if l := h.links.links[p.id]; l != nil {
		connected, closing := l.client != nil, l.closing
		h.links.mu.Unlock()

		switch {
		case closing:
			// the link is on its way down, its Disconnected follows shortly.
			log.Debug().Stringer("Peripheral", p).Msg("ble: refusing to connect to peripheral while disconnecting")

			h.events.emit(func(s central.EventSink) {
				s.ConnectFailed(p, ErrConnectionAborted)
			})
		case connected:
			reusedConnectionsCounter.Inc()
			log.Trace().Stringer("Peripheral", p).Msg("ble: already connected to peripheral")

			h.events.emit(func(s central.EventSink) {
				s.Connected(p)
			})
		default:
			// the dial in flight will report.
			log.Debug().Stringer("Peripheral", p).Msg("ble: connection attempt already running")
		}

		return
	}

	var ctx context.Context
	var cancel context.CancelFunc

	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), opts.Timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	l := &link{
		peripheral: p,
		cancel:     cancel,
	}

	h.links.links[p.id] = l
	h.links.mu.Unlock()

	p.setState(central.PeripheralConnecting)

	go h.dial(ctx, l)
}

func (h *Handle) dial(ctx context.Context, l *link) {
	p := l.peripheral
	client, err := h.dev.Dial(ctx, p.addr)
	l.cancel()

	if err != nil {
		failedConnectionsCounter.Inc()

		h.links.mu.Lock()
		aborted := l.closing
		h.links.mu.Unlock()

		h.links.remove(p.id, l)
		p.setState(central.PeripheralDisconnected)

		log.Debug().Stringer("Peripheral", p).Err(err).Msg("ble: failed to connect to peripheral")

		h.events.emit(func(s central.EventSink) {
			s.ConnectFailed(p, err)

			if aborted {
				s.Disconnected(p, nil)
			}
		})
		return
	}

	successfulConnectionsCounter.Inc()

	h.links.mu.Lock()
	l.client = client
	aborted := l.closing
	h.links.mu.Unlock()

	// spawn a watchdog reporting the disconnection when the connection breaks.
	go h.watch(l)

	if aborted {
		// a disconnect arrived while dialing: refuse the connection, the watchdog
		// reports the link as closed.
		log.Debug().Stringer("Peripheral", p).Msg("ble: connected after abort, closing connection")

		h.events.emit(func(s central.EventSink) {
			s.ConnectFailed(p, ErrConnectionAborted)
		})

		h.closeClient(p, client)
		return
	}

	p.setName(client.Name())
	p.setState(central.PeripheralConnected)

	log.Debug().Stringer("Peripheral", p).Msg("ble: successfully opened new connection to peripheral")

	h.events.emit(func(s central.EventSink) {
		s.Connected(p)
	})
}

func (h *Handle) watch(l *link) {
	p := l.peripheral
	<-l.client.Disconnected()

	disconnectsCounter.Inc()

	h.links.mu.Lock()
	requested := l.closing
	h.links.mu.Unlock()

	h.links.remove(p.id, l)
	p.setState(central.PeripheralDisconnected)

	var reason error
	if !requested {
		reason = ErrLinkLost
	}

	log.Debug().Stringer("Peripheral", p).AnErr("Reason", reason).Msg("ble: connection with peripheral closed, cleaning up")

	h.events.emit(func(s central.EventSink) {
		s.Disconnected(p, reason)
	})
}

// Disconnect closes the link to p or aborts the attempt to open it. The
// outcome is always reported as Disconnected.
func (h *Handle) Disconnect(cp central.Peripheral) {
	h.links.mu.Lock()
	l := h.links.links[cp.ID()]

	if l == nil {
		h.links.mu.Unlock()

		log.Debug().Stringer("Peripheral", cp).Msg("ble: no link to close")

		h.events.emit(func(s central.EventSink) {
			s.Disconnected(cp, nil)
		})
		return
	}

	l.closing = true
	client := l.client
	h.links.mu.Unlock()

	l.peripheral.setState(central.PeripheralDisconnecting)

	if client == nil {
		l.cancel()
		return
	}

	h.closeClient(l.peripheral, client)
}

func (h *Handle) closeClient(p *Peripheral, client ble.Client) {
	go func() {
		if err := client.CancelConnection(); err != nil {
			log.Warn().Stringer("Peripheral", p).Err(err).Msg("ble: failed to cancel connection")
		}
	}()
}

// DisconnectAll closes every link and aborts every connection attempt.
func (h *Handle) DisconnectAll() {
	h.links.mu.Lock()
	peripherals := make([]*Peripheral, 0, len(h.links.links))

	for _, l := range h.links.links {
		peripherals = append(peripherals, l.peripheral)
	}

	h.links.mu.Unlock()

	for _, p := range peripherals {
		h.Disconnect(p)
	}
}
