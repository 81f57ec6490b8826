package collector

import (
	"context"
	"errors"
	"time"

	"github.com/robertof/go-ble-central/central"
	"github.com/robertof/go-ble-central/collector/model"
	"github.com/robertof/go-ble-central/device"
	"github.com/robertof/go-ble-central/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultReadyTimeout   = 10 * time.Second
	DefaultConnectTimeout = 15 * time.Second
)

var ErrUnknownTarget = errors.New("radio does not know the peripheral")

type ConnectionOptions struct {
	// Zero waits until ctx is done.
	ReadyTimeout time.Duration
	central.ConnectOptions
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}

	return context.WithCancel(ctx)
}

// ConnectAll waits for the radio to be ready, then connects to every target in
// parallel. The results follow the order of targets. The error is only set
// when the radio never became usable.
func ConnectAll(
	ctx context.Context,
	mgr *central.Manager,
	targets []device.Target,
	opts ConnectionOptions,
) ([]model.TargetResult, error) {
	log.Debug().
		Array("Targets", utils.ToZeroLogArray(targets)).
		Dur("ReadyTimeout", opts.ReadyTimeout).
		Msg("Connecting to targets")

	readyCtx, cancel := withOptionalTimeout(ctx, opts.ReadyTimeout)
	err := mgr.WaitUntilReady(readyCtx)
	cancel()

	if err != nil {
		return nil, err
	}

	ids := make([]central.ID, len(targets))

	for i, target := range targets {
		ids[i] = target.ID()
	}

	known := make(map[central.ID]central.Peripheral, len(targets))

	for _, p := range mgr.RetrievePeripherals(ids) {
		known[p.ID()] = p
	}

	var eg errgroup.Group
	out := make([]model.TargetResult, len(targets))

	for i, target := range targets {
		out[i].Target = target

		p, ok := known[target.ID()]

		if !ok {
			out[i].Error = ErrUnknownTarget
			continue
		}

		out[i].Peripheral = p

		eg.Go(func() error {
			log.Trace().
				Stringer("Target", target).
				Msg("connect: worker started")

			out[i].Error = connect(ctx, mgr, p, opts.ConnectOptions)

			log.Trace().
				Stringer("Target", target).
				Stringer("Result", out[i].Result).
				Msg("connect: worker finished")

			return nil
		})
	}

	_ = eg.Wait()

	return out, nil
}
