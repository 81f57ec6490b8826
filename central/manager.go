package central

import (
	"context"
	"errors"
	"sync"

	"github.com/go-ble/ble"
	pkgerrors "github.com/pkg/errors"
	"github.com/robertof/go-ble-central/pending"
	"github.com/rs/zerolog/log"
)

// Manager exposes a Controller as blocking calls. It is the EventSink of its
// controller: every event is routed to the one caller waiting for it.
type Manager struct {
	ctrl Controller

	mu        sync.Mutex
	state     State
	scanState ScanState
	scan      *Scan

	ready       *pending.Broadcast[struct{}]
	connects    *pending.Keyed[ID, struct{}]
	disconnects *pending.Keyed[ID, struct{}]
}

// Stats is a point-in-time snapshot of the manager.
type Stats struct {
	RadioState         State
	ScanState          ScanState
	PendingConnects    int
	PendingDisconnects int
	ReadyWaiters       int
}

// NewManager builds a manager over ctrl and registers it as ctrl's event sink.
func NewManager(ctrl Controller) *Manager {
	m := &Manager{
		ctrl:        ctrl,
		state:       StateUnknown,
		scanState:   ScanIdle,
		ready:       pending.NewBroadcast[struct{}](),
		connects:    pending.NewKeyed[ID, struct{}](),
		disconnects: pending.NewKeyed[ID, struct{}](),
	}

	ctrl.SetEventSink(m)

	return m
}

func (m *Manager) RadioState() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Readiness classifies the current radio state without waiting: nil when
// powered on, ErrNotReady while unresolved, or the error for the state.
func (m *Manager) Readiness() error {
	resolved, err := m.RadioState().readiness()

	if !resolved {
		return ErrNotReady
	}

	return err
}

// WaitUntilReady returns as soon as the radio state is resolved: nil when
// powered on, ErrPoweredOff, ErrUnauthorized or ErrUnsupported otherwise.
func (m *Manager) WaitUntilReady(ctx context.Context) error {
	state := m.RadioState()

	if resolved, err := state.readiness(); resolved {
		return err
	}

	log.Debug().
		Stringer("RadioState", state).
		Msg("central: waiting for bluetooth radio to settle")

	// the state may have settled between the check above and registration.
	_, err := m.ready.Wait(ctx, m.releaseReadyWaiters)

	return err
}

func (m *Manager) releaseReadyWaiters() {
	state := m.RadioState()
	resolved, err := state.readiness()

	if !resolved {
		return
	}

	if n := m.ready.Flush(pending.Result[struct{}]{Err: err}); n > 0 {
		log.Debug().
			Stringer("RadioState", state).
			Int("Waiters", n).
			Msg("central: released callers waiting for radio readiness")
	}
}

func (m *Manager) ScanState() ScanState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.scanState
}

func (m *Manager) IsScanning() bool {
	return m.ScanState() == ScanActive
}

// StartScan asks the radio to start discovering peripherals advertising any of
// services (all peripherals if empty). Only one scan may run at a time.
func (m *Manager) StartScan(services []ble.UUID, opts ScanOptions) (*Scan, error) {
	m.mu.Lock()

	if m.scanState != ScanIdle {
		state := m.scanState
		m.mu.Unlock()

		rejectedRequestsCounter.WithLabelValues("already_scanning").Inc()
		return nil, pkgerrors.Wrapf(ErrAlreadyScanning, "scan state is %v", state)
	}

	m.scanState = ScanPending
	m.mu.Unlock()

	log.Debug().
		Int("Services", len(services)).
		Bool("AllowDuplicates", opts.AllowDuplicates).
		Msg("central: starting scan")

	m.ctrl.StartScan(services, opts)

	var scan *Scan
	scan = newScan(func() {
		m.finishScan(scan)
	})

	m.mu.Lock()
	m.scan = scan
	m.scanState = ScanActive
	m.mu.Unlock()

	return scan, nil
}

// StopScan stops the active scan, if any.
func (m *Manager) StopScan() {
	m.mu.Lock()
	state, scan := m.scanState, m.scan
	m.mu.Unlock()

	if state != ScanActive {
		log.Warn().
			Stringer("ScanState", state).
			Msg("central: StopScan called without an active scan, ignoring")
		return
	}

	scan.Stop()
}

func (m *Manager) finishScan(scan *Scan) {
	m.ctrl.StopScan()

	m.mu.Lock()
	if m.scan == scan {
		m.scan = nil
		m.scanState = ScanIdle
	}
	m.mu.Unlock()

	log.Debug().Msg("central: scan stopped")
}

// Connect asks the radio to connect to p and waits for the outcome. A failed
// attempt is reported as a *ConnectError. If ctx is done first the attempt is
// aborted and ctx's error returned.
func (m *Manager) Connect(ctx context.Context, p Peripheral, opts ConnectOptions) error {
	_, err := m.connects.Enqueue(ctx, p.ID(), func() error {
		log.Debug().
			Stringer("Peripheral", p).
			Dur("Timeout", opts.Timeout).
			Msg("central: connecting to peripheral")

		m.ctrl.Connect(p, opts)
		return nil
	})

	if err == nil {
		log.Debug().Stringer("Peripheral", p).Msg("central: connected to peripheral")
		return nil
	}

	if errors.Is(err, pending.ErrDuplicateKey) {
		rejectedRequestsCounter.WithLabelValues("connect_in_progress").Inc()
		return pkgerrors.Wrapf(ErrConnectInProgress, "peripheral %v", p)
	}

	var connErr *ConnectError

	if !errors.As(err, &connErr) && ctx.Err() != nil {
		log.Debug().
			Stringer("Peripheral", p).
			Err(err).
			Msg("central: connect abandoned by caller, aborting attempt")

		m.ctrl.Disconnect(p)
	}

	return err
}

// CancelConnection disconnects p, or aborts a connection attempt in progress,
// and waits until the radio reports the link as closed.
func (m *Manager) CancelConnection(ctx context.Context, p Peripheral) error {
	id := p.ID()

	if m.disconnects.HasWork(id) {
		rejectedRequestsCounter.WithLabelValues("disconnect_in_progress").Inc()
		return pkgerrors.Wrapf(ErrDisconnectInProgress, "peripheral %v", p)
	}

	if state := p.State(); state != PeripheralConnecting && state != PeripheralConnected {
		rejectedRequestsCounter.WithLabelValues("no_connection").Inc()
		return pkgerrors.Wrapf(ErrNoConnection, "peripheral %v is %v", p, state)
	}

	_, err := m.disconnects.Enqueue(ctx, id, func() error {
		log.Debug().Stringer("Peripheral", p).Msg("central: disconnecting from peripheral")

		m.ctrl.Disconnect(p)
		return nil
	})

	if errors.Is(err, pending.ErrDuplicateKey) {
		rejectedRequestsCounter.WithLabelValues("disconnect_in_progress").Inc()
		return pkgerrors.Wrapf(ErrDisconnectInProgress, "peripheral %v", p)
	}

	return err
}

func (m *Manager) RetrievePeripherals(ids []ID) []Peripheral {
	return m.ctrl.RetrieveKnown(ids)
}

func (m *Manager) RetrieveConnectedPeripherals(services []ble.UUID) []Peripheral {
	return m.ctrl.RetrieveConnected(services)
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	s := Stats{
		RadioState: m.state,
		ScanState:  m.scanState,
	}
	m.mu.Unlock()

	s.PendingConnects = m.connects.Len()
	s.PendingDisconnects = m.disconnects.Len()
	s.ReadyWaiters = m.ready.Len()

	return s
}
