package collector

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-ble/ble"
	"github.com/robertof/go-ble-central/central"
	"github.com/robertof/go-ble-central/collector/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
)

const DefaultDiscoveryDuration = 5 * time.Second

type DiscoveryOptions struct {
	// Zero scans until ctx is done.
	Duration        time.Duration
	AllowDuplicates bool
}

// Discover scans for peripherals advertising any of services and returns one
// entry per peripheral, ordered by ID. The scan ends when opts.Duration
// elapses or ctx is done, which is not treated as an error.
func Discover(
	ctx context.Context,
	mgr *central.Manager,
	services []ble.UUID,
	opts DiscoveryOptions,
) ([]model.Discovery, error) {
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	scan, err := mgr.StartScan(services, central.ScanOptions{
		AllowDuplicates: opts.AllowDuplicates,
	})

	if err != nil {
		return nil, err
	}

	type discoveryContext struct {
		model.Discovery
		services map[string]bool
	}

	found := make(map[central.ID]*discoveryContext)

	for r := range scan.Results(ctx) {
		id := r.Peripheral.ID()
		dc, ok := found[id]

		if !ok {
			dc = &discoveryContext{
				Discovery: model.Discovery{Peripheral: r.Peripheral},
				services:  make(map[string]bool),
			}
			found[id] = dc
		}

		dc.Seen += 1
		dc.RSSI = r.RSSI

		if a := r.Advertisement; a != nil {
			// keep the first name we got, scan responses sometimes come without one.
			if dc.Name == "" {
				dc.Name = a.LocalName()
			}

			dc.Connectable = a.Connectable()

			for _, uuid := range a.Services() {
				dc.services[uuid.String()] = true
			}
		}

		log.Debug().
			Stringer("Peripheral", r.Peripheral).
			Int("RSSI", r.RSSI).
			Strs("Services", maps.Keys(dc.services)).
			Msg("Received peripheral advertisement")
	}

	out := make([]model.Discovery, 0, len(found))

	for _, dc := range found {
		dc.Services = maps.Keys(dc.services)
		slices.Sort(dc.Services)

		out = append(out, dc.Discovery)
	}

	slices.SortFunc(out, func(a, b model.Discovery) int {
		return strings.Compare(string(a.Peripheral.ID()), string(b.Peripheral.ID()))
	})

	return out, nil
}
