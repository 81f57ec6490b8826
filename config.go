package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robertof/go-ble-central/ble"
	"github.com/robertof/go-ble-central/collector"
	"github.com/robertof/go-ble-central/device"
)

type config struct {
	Debug, Trace         bool
	BindAddress          string
	EnableMetamonitoring bool
	DiscoverDevices      bool
	DiscoverDuration     time.Duration
	BluetoothDeviceId    int
	BluetoothConnParams  ble.ConnParams
	ReadyTimeout         time.Duration
	ConnectTimeout       time.Duration
	Services             serviceList
	Targets              targetList
}

type targetList []device.Target

func (t *targetList) String() string {
	if t == nil {
		return ""
	}

	names := make([]string, len(*t))

	for i, target := range *t {
		names[i] = target.String()
	}

	return strings.Join(names, ", ")
}

func (t *targetList) Set(v string) error {
	target, err := device.FromSpec(device.NewSpec(v))

	if err != nil {
		return fmt.Errorf("failed to parse peripheral: %w", err)
	}

	*t = append(*t, target)

	return nil
}

type serviceList []ble.UUID

func (s *serviceList) String() string {
	if s == nil {
		return ""
	}

	uuids := make([]string, len(*s))

	for i, uuid := range *s {
		uuids[i] = uuid.String()
	}

	return strings.Join(uuids, ", ")
}

func (s *serviceList) Set(v string) error {
	uuid, err := ble.ParseUUID(v)

	if err != nil {
		return err
	}

	*s = append(*s, uuid)

	return nil
}

func ParseArgs() config {
	var cfg config

	cfg.BluetoothConnParams = ble.ConnParamsDefault

	flag.StringVar(&cfg.BindAddress, "bind", "localhost:9102", "Where the metrics server will bind to")
	flag.IntVar(&cfg.BluetoothDeviceId, "bluetooth-device", 0, "Bluetooth (HCI) device ID")
	flag.Var(&cfg.BluetoothConnParams, "bluetooth-connection-params", "Bluetooth connection parameters (one of 'default' or 'power-saving')")
	flag.BoolVar(&cfg.DiscoverDevices, "discover", false, "Discover available BLE peripherals and quit")
	flag.DurationVar(&cfg.DiscoverDuration, "discover-duration", collector.DefaultDiscoveryDuration,
		"How long discovery scans for")
	flag.DurationVar(&cfg.ReadyTimeout, "ready-timeout", collector.DefaultReadyTimeout,
		"How long to wait for the Bluetooth radio to become ready")
	flag.DurationVar(&cfg.ConnectTimeout, "connect-timeout", collector.DefaultConnectTimeout,
		"Timeout for each connection attempt (0 waits forever)")
	flag.Var(&cfg.Services, "service", "Only consider peripherals advertising this service UUID (repeatable)")
	flag.BoolVar(&cfg.EnableMetamonitoring, "metamonitoring", true, "Enable metamonitoring metrics")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logs")
	flag.BoolVar(&cfg.Trace, "trace", false, "Enable trace logs")
	flag.Var(&cfg.Targets, "peripheral",
		"Peripheral to connect to in the form of `key=value,key=value` (repeatable).\n"+device.Help())

	flag.Parse()

	if !cfg.DiscoverDevices && len(cfg.Targets) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one peripheral is required!")
		flag.Usage()
		os.Exit(1)
	}

	return cfg
}
