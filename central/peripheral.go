package central

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-ble/ble"
)

// ID is the stable identity of a remote peripheral.
type ID string

func (id ID) String() string {
	return string(id)
}

type PeripheralState uint8

const (
	PeripheralDisconnected PeripheralState = iota
	PeripheralConnecting
	PeripheralConnected
	PeripheralDisconnecting
)

func (s PeripheralState) String() string {
	switch s {
	case PeripheralDisconnected:
		return "Disconnected"
	case PeripheralConnecting:
		return "Connecting"
	case PeripheralConnected:
		return "Connected"
	case PeripheralDisconnecting:
		return "Disconnecting"
	default:
		panic("unknown peripheral state: " + strconv.Itoa(int(s)))
	}
}

// Peripheral is a remote device as tracked by the controller. State reports the
// last physical link state the controller knows about.
type Peripheral interface {
	ID() ID
	Name() string
	State() PeripheralState
	String() string
}

// ScanResult is a single discovery, passed through from the controller as-is.
type ScanResult struct {
	Peripheral    Peripheral
	Advertisement ble.Advertisement
	RSSI          int
}

func (r ScanResult) String() string {
	return fmt.Sprintf("scan[%v, rssi=%d]", r.Peripheral, r.RSSI)
}

type ScanOptions struct {
	// Report every advertisement instead of the first one per peripheral.
	AllowDuplicates bool
}

type ConnectOptions struct {
	// Zero leaves the attempt open until it succeeds, fails or is cancelled.
	Timeout time.Duration
}
