package ble

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci/cmd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robertof/go-ble-central/central"
	"github.com/robertof/go-ble-central/utils"
	"github.com/rs/zerolog/log"
)

type Advertisement = ble.Advertisement
type UUID = ble.UUID

// Handle drives a local HCI device and implements central.Controller on top
// of it.
type Handle struct {
	dev *linux.Device

	events      *dispatcher
	peripherals *registry
	links       *linkTable

	mu         sync.Mutex
	state      central.State
	cancelScan context.CancelFunc
	scanDone   chan struct{}
}

var _ central.Controller = (*Handle)(nil)

func UUID16(i uint16) ble.UUID {
	return ble.UUID16(i)
}

func ParseUUID(s string) (ble.UUID, error) {
	u, err := ble.Parse(s)

	if err != nil {
		return nil, fmt.Errorf("invalid service UUID %q: %w", s, err)
	}

	return u, nil
}

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		successfulConnectionsCounter,
		failedConnectionsCounter,
		reusedConnectionsCounter,
		disconnectsCounter,
		advertisementsCounter,
	)
}

func Init(deviceId int, flags Flags) (*Handle, error) {
	return InitWithConnParams(
		deviceId,
		ConnParamsDefault,
		flags,
	)
}

func InitWithConnParams(deviceId int, connParams ConnParams, flags Flags) (*Handle, error) {
	var scanType scanType = scanTypePassive
	var filterPolicy filterPolicy = filterPolicyAcceptAll

	if flags&FlagScanTypeActive == FlagScanTypeActive {
		scanType = scanTypeActive
	}

	if flags&FlagEnableDeviceAllowList == FlagEnableDeviceAllowList {
		filterPolicy = filterPolicyAllowListedOnly
	}

	log.Debug().
		Stringer("ScanType", scanType).
		Stringer("FilterPolicy", filterPolicy).
		Stringer("ConnParams", &connParams).
		Stringer("Flags", flags).
		Int("DeviceID", deviceId).
		Msg("Initializing Bluetooth device")

	dev, err := linux.NewDevice(
		ble.OptDeviceID(deviceId),
		ble.OptScanParams(cmd.LESetScanParameters{
			LEScanType:           uint8(scanType),     // 0x00: passive, 0x01: active
			LEScanInterval:       0x0004,              // 0x0004 - 0x4000; N * 0.625msec
			LEScanWindow:         0x0004,              // 0x0004 - 0x4000; N * 0.625msec
			OwnAddressType:       0x00,                // 0x00: public, 0x01: random
			ScanningFilterPolicy: uint8(filterPolicy), // 0x00: accept all, 0x01: ignore non-allow-listed.
		}),
		ble.OptConnParams(connParams.AdapterOptions()),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to init bluetooth device: %w", err)
	}

	return &Handle{
		dev:         dev,
		events:      newDispatcher(),
		peripherals: newRegistry(),
		links:       newLinkTable(),
		// the HCI socket is up once NewDevice returns.
		state: central.StatePoweredOn,
	}, nil
}

// SetEventSink attaches sink and reports the current radio state to it, the
// same way a freshly created manager is told about the radio.
func (h *Handle) SetEventSink(sink central.EventSink) {
	h.events.setSink(sink)

	h.mu.Lock()
	state := h.state
	h.mu.Unlock()

	h.events.emit(func(s central.EventSink) {
		s.StateChanged(state)
	})
}

func (h *Handle) SetAllowListedAddresses(a []net.HardwareAddr) error {
	log.Debug().
		Array("DeviceAddresses", utils.ToZeroLogArray(a)).
		Msg("Allow-listing the requested Bluetooth devices")

	// clear the white list to make sure we're starting from an empty slate.
	var res cmd.LEClearWhiteListRP

	err := h.dev.HCI.Send(&cmd.LEClearWhiteList{}, &res)

	if err != nil {
		return fmt.Errorf("failed to clear allow-list: %w", err)
	}

	if res.Status != 0 {
		return fmt.Errorf("failed to clear allow-list: got status: %v", res.Status)
	}

	for _, addr := range a {
		if len(addr) != 6 {
			return fmt.Errorf("refusing to allow-list %q: not a 6 byte MAC address", addr.String())
		}

		var res cmd.LEAddDeviceToWhiteListRP
		var address [6]byte

		// HCI wants the address little-endian.
		copy(address[:], utils.Reverse([]byte(addr)))

		err := h.dev.HCI.Send(&cmd.LEAddDeviceToWhiteList{
			AddressType: 0x00, // public
			Address:     address,
		}, &res)

		if err != nil {
			return fmt.Errorf("failed to allow-list device %q: %w", addr.String(), err)
		}

		if res.Status != 0 {
			return fmt.Errorf("failed to allow-list device %q: got status: %v", addr.String(), res.Status)
		}
	}

	return nil
}

func (h *Handle) RetrieveKnown(ids []central.ID) []central.Peripheral {
	out := make([]central.Peripheral, 0, len(ids))

	for _, id := range ids {
		if p, ok := h.peripherals.lookup(id); ok {
			out = append(out, p)
		} else {
			log.Debug().Stringer("ID", id).Msg("ble: cannot retrieve unknown peripheral")
		}
	}

	return out
}

// RetrieveConnected returns the connected peripherals that advertised at
// least one of services, or all of them if services is empty.
func (h *Handle) RetrieveConnected(services []ble.UUID) []central.Peripheral {
	var out []central.Peripheral

	for _, p := range h.links.connected() {
		if len(services) == 0 || p.advertisesAny(services) {
			out = append(out, p)
		}
	}

	return out
}

// Stop tears everything down and reports the radio as powered off before the
// event sink is detached. The scan is stopped first, so the manager ending its
// open scan on PoweredOff finds nothing left to stop.
func (h *Handle) Stop() {
	h.StopScan()
	h.DisconnectAll()

	if err := h.dev.Stop(); err != nil {
		log.Warn().Err(err).Msg("ble: failed to stop bluetooth device cleanly")
	}

	h.mu.Lock()
	h.state = central.StatePoweredOff
	h.mu.Unlock()

	h.events.emit(func(s central.EventSink) {
		s.StateChanged(central.StatePoweredOff)
	})

	h.events.close()
}
