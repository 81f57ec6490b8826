package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/robertof/go-ble-central/central"
	"github.com/robertof/go-ble-central/collector/model"
	"github.com/robertof/go-ble-central/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func connect(
	ctx context.Context,
	mgr *central.Manager,
	p central.Peripheral,
	opts central.ConnectOptions,
) error {
	if err := mgr.Connect(ctx, p, opts); err != nil {
		return fmt.Errorf("failed to connect to peripheral: %w", err)
	}

	return nil
}

func disconnect(ctx context.Context, mgr *central.Manager, p central.Peripheral) error {
	err := mgr.CancelConnection(ctx, p)

	if errors.Is(err, central.ErrNoConnection) {
		log.Trace().Stringer("Peripheral", p).Msg("disconnect: peripheral already disconnected")
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to disconnect from peripheral: %w", err)
	}

	return nil
}

// DisconnectAll cancels the connection to every peripheral in parallel.
// Peripherals that were not connected count as successfully disconnected.
func DisconnectAll(
	ctx context.Context,
	mgr *central.Manager,
	peripherals []central.Peripheral,
) []model.Result {
	var eg errgroup.Group
	out := make([]model.Result, len(peripherals))

	log.Debug().
		Array("Peripherals", utils.ToZeroLogArray(peripherals)).
		Msg("Disconnecting from peripherals")

	for i, p := range peripherals {
		eg.Go(func() error {
			out[i] = model.Result{
				Peripheral: p,
				Error:      disconnect(ctx, mgr, p),
			}

			log.Trace().
				Stringer("Peripheral", p).
				Stringer("Result", out[i]).
				Msg("disconnect: worker finished")

			return nil
		})
	}

	_ = eg.Wait()

	return out
}
