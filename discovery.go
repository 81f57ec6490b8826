package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/robertof/go-ble-central/ble"
	"github.com/robertof/go-ble-central/central"
	"github.com/robertof/go-ble-central/collector"
)

func doDeviceDiscovery(cfg config) {
	log.Info().
		Dur("Duration", cfg.DiscoverDuration).
		Msg("Starting in discovery mode - collecting peripherals...")

	handle, err := ble.InitWithConnParams(cfg.BluetoothDeviceId, cfg.BluetoothConnParams, ble.FlagScanTypeActive)

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
	}

	defer handle.Stop()

	mgr := central.NewManager(handle)

	ctx := ble.WrapContextWithSigHandler(context.WithCancel(context.Background()))

	if err := waitUntilReady(ctx, cfg, mgr); err != nil {
		log.Fatal().Err(err).Msg("Bluetooth radio is not usable")
	}

	found, err := collector.Discover(ctx, mgr, cfg.Services, collector.DiscoveryOptions{
		Duration: cfg.DiscoverDuration,
	})

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to run discovery")
	}

	log.Info().Int("Found", len(found)).Msg("Finished peripheral discovery")

	for _, d := range found {
		log.Info().
			Stringer("Addr", d.Peripheral.ID()).
			Str("Name", d.Name).
			Bool("Connectable", d.Connectable).
			Int("RSSI", d.RSSI).
			Int("Advertisements", d.Seen).
			Strs("Services", d.Services).
			Msg("Found peripheral")
	}
}
