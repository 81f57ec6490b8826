package ble

import (
	"context"

	"github.com/go-ble/ble"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robertof/go-ble-central/central"
	"github.com/robertof/go-ble-central/utils"
	"github.com/rs/zerolog/log"
)

var advertisementsCounter = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "ble_central_advertisements_total",
})

func WrapContextWithSigHandler(ctx context.Context, cancel func()) context.Context {
	return ble.WithSigHandler(ctx, cancel)
}

// StartScan starts a scan in the background. Each advertisement from a
// peripheral matching services (any, if empty) is reported as a discovery.
func (h *Handle) StartScan(services []ble.UUID, opts central.ScanOptions) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancelScan != nil {
		log.Warn().Msg("ble: scan requested while already scanning, ignoring")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	h.cancelScan = cancel
	h.scanDone = done

	go func() {
		defer close(done)

		err := h.dev.Scan(ctx, opts.AllowDuplicates, func(a ble.Advertisement) {
			// the BLE lib could send an advertisement even after `Scan()` returns.
			select {
			case <-ctx.Done():
				return
			default:
			}

			advertisementsCounter.Inc()

			p := h.peripherals.get(a.Addr())
			p.observe(a)

			if len(services) > 0 && !p.advertisesAny(services) {
				return
			}

			log.Trace().
				Stringer("Peripheral", p).
				Int("RSSI", a.RSSI()).
				Hex("ManufacturerData", a.ManufacturerData()).
				Msg("ble: received advertisement")

			rssi := a.RSSI()

			h.events.emit(func(s central.EventSink) {
				s.Discovered(p, a, rssi)
			})
		})

		// swallow context.Canceled errors which are caused by our explicit cancellations.
		if err != nil && !utils.ErrorIsAnyOf(err, context.Canceled, context.DeadlineExceeded) {
			log.Error().Err(err).Msg("ble: scan failed")
		}
	}()
}

// StopScan cancels the running scan, if any, and waits for it to wind down.
func (h *Handle) StopScan() {
	h.mu.Lock()
	cancel, done := h.cancelScan, h.scanDone
	h.cancelScan, h.scanDone = nil, nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}
