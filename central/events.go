package central

import (
	"github.com/go-ble/ble"
	pkgerrors "github.com/pkg/errors"
	"github.com/robertof/go-ble-central/pending"
	"github.com/rs/zerolog/log"
)

func (m *Manager) StateChanged(s State) {
	eventsCounter.WithLabelValues(eventStateChanged).Inc()

	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()

	log.Info().
		Stringer("From", prev).
		Stringer("To", s).
		Msg("central: bluetooth radio state changed")

	m.releaseReadyWaiters()

	// a radio that went away will not report outcomes for in-flight requests.
	if resolved, err := s.readiness(); resolved && err != nil {
		m.mu.Lock()
		scan := m.scan
		m.mu.Unlock()

		if scan != nil {
			scan.Stop()
		}

		failed := m.connects.CompleteAll(pending.Result[struct{}]{
			Err: pkgerrors.Wrap(err, "radio went down while connecting"),
		})
		closed := m.disconnects.CompleteAll(pending.Result[struct{}]{})

		if len(failed) > 0 || len(closed) > 0 {
			log.Warn().
				Stringer("RadioState", s).
				Int("FailedConnects", len(failed)).
				Int("CompletedDisconnects", len(closed)).
				Msg("central: radio went down, released pending requests")
		}
	}
}

func (m *Manager) Discovered(p Peripheral, adv ble.Advertisement, rssi int) {
	eventsCounter.WithLabelValues(eventDiscovered).Inc()

	m.mu.Lock()
	state, scan := m.scanState, m.scan
	m.mu.Unlock()

	// the radio may still report advertisements right after a stop.
	if state != ScanActive || !scan.push(ScanResult{Peripheral: p, Advertisement: adv, RSSI: rssi}) {
		unmatchedEventsCounter.WithLabelValues(eventDiscovered).Inc()

		log.Debug().
			Stringer("Peripheral", p).
			Stringer("ScanState", state).
			Msg("central: dropping discovery received outside of an active scan")
		return
	}

	log.Trace().
		Stringer("Peripheral", p).
		Int("RSSI", rssi).
		Msg("central: discovered peripheral")
}

func (m *Manager) Connected(p Peripheral) {
	eventsCounter.WithLabelValues(eventConnected).Inc()

	if err := m.connects.Complete(p.ID(), pending.Result[struct{}]{}); err != nil {
		m.unmatched(eventConnected, p, err)
	}
}

func (m *Manager) ConnectFailed(p Peripheral, reason error) {
	eventsCounter.WithLabelValues(eventConnectFailed).Inc()

	res := pending.Result[struct{}]{
		Err: &ConnectError{ID: p.ID(), Reason: reason},
	}

	if err := m.connects.Complete(p.ID(), res); err != nil {
		m.unmatched(eventConnectFailed, p, err)
	}
}

// Disconnected always completes a pending disconnect successfully: whatever the
// reason, the link is gone.
func (m *Manager) Disconnected(p Peripheral, reason error) {
	eventsCounter.WithLabelValues(eventDisconnected).Inc()

	if err := m.disconnects.Complete(p.ID(), pending.Result[struct{}]{}); err != nil {
		unmatchedEventsCounter.WithLabelValues(eventDisconnected).Inc()

		// nobody asked for it: the link dropped on its own.
		log.Info().
			Stringer("Peripheral", p).
			AnErr("Reason", reason).
			Msg("central: peripheral disconnected")
		return
	}

	log.Debug().
		Stringer("Peripheral", p).
		AnErr("Reason", reason).
		Msg("central: disconnected from peripheral")
}

func (m *Manager) unmatched(event string, p Peripheral, err error) {
	unmatchedEventsCounter.WithLabelValues(event).Inc()

	log.Warn().
		Str("Event", event).
		Stringer("Peripheral", p).
		Err(err).
		Msg("central: controller event does not match any pending request")
}
