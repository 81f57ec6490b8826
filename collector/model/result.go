package model

import (
	"fmt"

	"github.com/robertof/go-ble-central/central"
	"github.com/robertof/go-ble-central/device"
)

type Result struct {
	Peripheral central.Peripheral
	Error      error
}

func (c Result) String() string {
	if c.Error != nil {
		return fmt.Sprintf("result:error(%v)", c.Error)
	} else {
		return fmt.Sprintf("result:success(%v)", c.Peripheral)
	}
}

type TargetResult struct {
	device.Target
	Result
}

// Discovery aggregates every advertisement a peripheral sent during a scan.
type Discovery struct {
	Peripheral  central.Peripheral
	Name        string
	Connectable bool
	Services    []string
	RSSI        int
	Seen        int
}

func (d Discovery) String() string {
	return fmt.Sprintf("discovery[%v, seen=%d, rssi=%d]", d.Peripheral, d.Seen, d.RSSI)
}
