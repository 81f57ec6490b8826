package central

import (
	"github.com/go-ble/ble"
)

// Controller is the radio stack. Commands return immediately; their outcome is
// reported later through the EventSink passed to SetEventSink.
type Controller interface {
	SetEventSink(sink EventSink)

	StartScan(services []ble.UUID, opts ScanOptions)
	StopScan()
	Connect(p Peripheral, opts ConnectOptions)
	Disconnect(p Peripheral)

	RetrieveKnown(ids []ID) []Peripheral
	RetrieveConnected(services []ble.UUID) []Peripheral
}

// EventSink receives one call per radio outcome. Calls may come from any
// goroutine.
type EventSink interface {
	StateChanged(s State)
	Discovered(p Peripheral, adv ble.Advertisement, rssi int)
	Connected(p Peripheral)
	ConnectFailed(p Peripheral, reason error)
	Disconnected(p Peripheral, reason error)
}
