package ble

import (
	"fmt"
	"slices"

	"github.com/go-ble/ble/linux/hci/cmd"
)

// ConnParams selects the link-layer parameters used for every dial.
type ConnParams string

const (
	ConnParamsDefault     ConnParams = "default"
	ConnParamsPowerSaving ConnParams = "power-saving"
)

var AllConnParams = []ConnParams{ConnParamsDefault, ConnParamsPowerSaving}

// flag.Value
func (c *ConnParams) String() string {
	if c == nil {
		return string(ConnParamsDefault)
	}

	return string(*c)
}

func (c *ConnParams) Set(v string) error {
	if v == "" {
		*c = ConnParamsDefault
		return nil
	}

	p := ConnParams(v)

	if !slices.Contains(AllConnParams, p) {
		return fmt.Errorf("unknown connection param %v (must be one of %v)", p, AllConnParams)
	}

	*c = p
	return nil
}

func (c ConnParams) AdapterOptions() cmd.LECreateConnection {
	p := cmd.LECreateConnection{
		LEScanInterval:        0x0004,    // 0x0004 - 0x4000; N * 0.625 msec
		LEScanWindow:          0x0004,    // 0x0004 - 0x4000; N * 0.625 msec
		InitiatorFilterPolicy: 0x00,      // allow-list not used, the peer address is given
		PeerAddressType:       0x00,      // public
		PeerAddress:           [6]byte{}, // filled in by the dialer
		OwnAddressType:        0x00,      // public
		ConnIntervalMin:       0x0006,    // 0x0006 - 0x0C80; N * 1.25 msec
		ConnIntervalMax:       0x0006,    // 0x0006 - 0x0C80; N * 1.25 msec
		ConnLatency:           0x0000,    // 0x0000 - 0x01F3
		SupervisionTimeout:    0x0048,    // 0x000A - 0x0C80; N * 10 msec
		MinimumCELength:       0x0000,    // 0x0000 - 0xFFFF; N * 0.625 msec
		MaximumCELength:       0x0000,    // 0x0000 - 0xFFFF; N * 0.625 msec
	}

	switch c {
	case ConnParamsDefault:
	case ConnParamsPowerSaving:
		// long-lived idle links: slow interval with peripheral latency, kept
		// within interval max * (latency + 1) <= supervision timeout / 2.
		// see "Connection Parameters" in Apple's Accessory Design Guidelines.
		p.ConnIntervalMin = 0x00f0    // 300ms
		p.ConnIntervalMax = 0x00f0    // 300ms
		p.ConnLatency = 0x0014        // 20
		p.SupervisionTimeout = 0x0708 // 18s
	default:
		panic("unknown Bluetooth connection param: " + c)
	}

	return p
}
