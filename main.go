package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertof/go-ble-central/ble"
	"github.com/robertof/go-ble-central/central"
	"github.com/robertof/go-ble-central/collector"
	"github.com/robertof/go-ble-central/metrics"
	"github.com/robertof/go-ble-central/utils"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

func main() {
	zerolog.DurationFieldUnit = time.Second
	zerolog.TimeFieldFormat = time.RFC3339Nano

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000",
	})

	cfg := ParseArgs()

	if cfg.Trace || os.Getenv("TRACE") != "" {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	} else if cfg.Debug || os.Getenv("DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.DiscoverDevices {
		doDeviceDiscovery(cfg)
		return
	}

	log.Info().
		Str("BindAddr", cfg.BindAddress).
		Array("Peripherals", utils.ToZeroLogArray(cfg.Targets)).
		Int("BluetoothDeviceID", cfg.BluetoothDeviceId).
		Msg("Starting with the specified configuration")

	bleHandle := initBle(cfg)
	mgr := central.NewManager(bleHandle)

	registry := prometheus.NewRegistry()
	metrics.RegisterCollector(mgr.Stats, registry)

	if cfg.EnableMetamonitoring {
		ble.RegisterMetrics(registry)
		central.RegisterMetrics(registry)
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	ctx := ble.WrapContextWithSigHandler(context.WithCancel(context.Background()))

	connected := connectTargets(ctx, cfg, mgr)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: cfg.BindAddress, Handler: mux}

	log.Info().
		Str("ListenAddress", cfg.BindAddress).
		Msg("Starting Prometheus server")

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Unable to bind on requested address")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("Shutting down, closing connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, res := range collector.DisconnectAll(shutdownCtx, mgr, connected) {
		if res.Error != nil {
			log.Warn().Stringer("Peripheral", res.Peripheral).Err(res.Error).Msg("Failed to disconnect from peripheral")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Failed to shut down Prometheus server cleanly")
	}

	bleHandle.Stop()
}

func initBle(cfg config) *ble.Handle {
	var bleFlags ble.Flags = ble.FlagEnableDeviceAllowList
	addresses := make([]net.HardwareAddr, len(cfg.Targets))

	for i, target := range cfg.Targets {
		addresses[i] = target.Addr
	}

	bleHandle, err := ble.InitWithConnParams(cfg.BluetoothDeviceId, cfg.BluetoothConnParams, bleFlags)

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
	}

	err = bleHandle.SetAllowListedAddresses(addresses)

	if err != nil {
		log.Error().Err(err).Msg("Failed to set device allow list")
	}

	return bleHandle
}

func waitUntilReady(ctx context.Context, cfg config, mgr *central.Manager) error {
	if cfg.ReadyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ReadyTimeout)
		defer cancel()
	}

	return mgr.WaitUntilReady(ctx)
}

func connectTargets(ctx context.Context, cfg config, mgr *central.Manager) (connected []central.Peripheral) {
	log.Info().
		Dur("TimeoutSec", cfg.ConnectTimeout).
		Msg("Connecting to the provided peripherals")

	results, err := collector.ConnectAll(ctx, mgr, cfg.Targets, collector.ConnectionOptions{
		ReadyTimeout: cfg.ReadyTimeout,
		ConnectOptions: central.ConnectOptions{
			Timeout: cfg.ConnectTimeout,
		},
	})

	if err != nil {
		log.Fatal().Err(err).Msg("Bluetooth radio is not usable")
	}

	for _, res := range results {
		if res.Error != nil {
			log.Error().
				Stringer("Target", res.Target).
				Err(res.Error).
				Msg("Failed to connect to peripheral")
			continue
		}

		log.Info().
			Stringer("Target", res.Target).
			Stringer("Peripheral", res.Peripheral).
			Msg("Successfully connected to peripheral")

		connected = append(connected, res.Peripheral)
	}

	if len(connected) == 0 {
		log.Fatal().Msg("Connection failed for every peripheral, refusing to start")
	}

	return connected
}
