package central_test

import (
	"fmt"
	"strings"
	"sync"

	ble_mod "github.com/go-ble/ble"
	"github.com/robertof/go-ble-central/central"
)

type FakePeripheral struct {
	id central.ID

	mu    sync.Mutex
	state central.PeripheralState
}

func NewFakePeripheral(id string) *FakePeripheral {
	return &FakePeripheral{id: central.ID(id)}
}

func (p *FakePeripheral) ID() central.ID {
	return p.id
}

func (p *FakePeripheral) Name() string {
	return "fake-" + string(p.id)
}

func (p *FakePeripheral) State() central.PeripheralState {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

func (p *FakePeripheral) SetState(s central.PeripheralState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = s
}

func (p *FakePeripheral) String() string {
	return fmt.Sprintf("fake[id=%v]", p.id)
}

// FakeController records the commands it receives. Tests play the radio by
// calling the event sink directly.
type FakeController struct {
	mu       sync.Mutex
	sink     central.EventSink
	commands []string

	// scan state observed while the start command was being issued.
	scanStateAtStart []central.ScanState

	known []central.Peripheral
}

func (c *FakeController) SetEventSink(sink central.EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sink = sink
}

func (c *FakeController) Sink() central.EventSink {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sink
}

func (c *FakeController) record(cmd string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.commands = append(c.commands, cmd)
}

func (c *FakeController) StartScan(services []ble_mod.UUID, opts central.ScanOptions) {
	if m, ok := c.Sink().(*central.Manager); ok {
		state := m.ScanState()

		c.mu.Lock()
		c.scanStateAtStart = append(c.scanStateAtStart, state)
		c.mu.Unlock()
	}

	c.record("start-scan")
}

func (c *FakeController) StopScan() {
	c.record("stop-scan")
}

func (c *FakeController) Connect(p central.Peripheral, opts central.ConnectOptions) {
	if fp, ok := p.(*FakePeripheral); ok {
		fp.SetState(central.PeripheralConnecting)
	}

	c.record("connect:" + string(p.ID()))
}

func (c *FakeController) Disconnect(p central.Peripheral) {
	c.record("disconnect:" + string(p.ID()))
}

func (c *FakeController) RetrieveKnown(ids []central.ID) (out []central.Peripheral) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.known {
		for _, id := range ids {
			if p.ID() == id {
				out = append(out, p)
			}
		}
	}

	return out
}

func (c *FakeController) RetrieveConnected(services []ble_mod.UUID) (out []central.Peripheral) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.known {
		if p.State() == central.PeripheralConnected {
			out = append(out, p)
		}
	}

	return out
}

func (c *FakeController) Commands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.commands...)
}

func (c *FakeController) Count(cmd string) (n int) {
	for _, got := range c.Commands() {
		if got == cmd {
			n += 1
		}
	}

	return n
}

func (c *FakeController) ScanStatesAtStart() []central.ScanState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]central.ScanState(nil), c.scanStateAtStart...)
}

type FakeAdvertisement struct {
	name     string
	services []ble_mod.UUID
	rssi     int
	addr     ble_mod.Addr
}

func (f FakeAdvertisement) LocalName() string {
	return f.name
}

func (f FakeAdvertisement) ManufacturerData() []byte {
	return nil
}

func (f FakeAdvertisement) ServiceData() []ble_mod.ServiceData {
	return nil
}

func (f FakeAdvertisement) Services() []ble_mod.UUID {
	return f.services
}

func (f FakeAdvertisement) OverflowService() []ble_mod.UUID {
	return nil
}

func (f FakeAdvertisement) TxPowerLevel() int {
	return 0
}

func (f FakeAdvertisement) Connectable() bool {
	return true
}

func (f FakeAdvertisement) SolicitedService() []ble_mod.UUID {
	return nil
}

func (f FakeAdvertisement) RSSI() int {
	return f.rssi
}

func (f FakeAdvertisement) Addr() ble_mod.Addr {
	return f.addr
}

func newManager() (*central.Manager, *FakeController) {
	ctrl := &FakeController{}
	return central.NewManager(ctrl), ctrl
}

func hasPrefix(cmds []string, prefix string) (n int) {
	for _, cmd := range cmds {
		if strings.HasPrefix(cmd, prefix) {
			n += 1
		}
	}

	return n
}
