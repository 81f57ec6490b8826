package collector_test

import (
	"fmt"
	"sync"

	ble_mod "github.com/go-ble/ble"
	"github.com/robertof/go-ble-central/central"
)

type fakePeripheral struct {
	id central.ID

	mu    sync.Mutex
	state central.PeripheralState
}

func (p *fakePeripheral) ID() central.ID {
	return p.id
}

func (p *fakePeripheral) Name() string {
	return ""
}

func (p *fakePeripheral) State() central.PeripheralState {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

func (p *fakePeripheral) setState(s central.PeripheralState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = s
}

func (p *fakePeripheral) String() string {
	return fmt.Sprintf("fake[id=%v]", p.id)
}

// fakeRadio answers every command right away, like a radio with nothing in
// range that misbehaves.
type fakeRadio struct {
	mu          sync.Mutex
	sink        central.EventSink
	peripherals map[central.ID]*fakePeripheral
	failures    map[central.ID]error
	scans       int
}

func newFakeRadio(ids ...string) *fakeRadio {
	r := &fakeRadio{
		peripherals: make(map[central.ID]*fakePeripheral),
		failures:    make(map[central.ID]error),
	}

	for _, id := range ids {
		r.peripherals[central.ID(id)] = &fakePeripheral{id: central.ID(id)}
	}

	return r
}

func (r *fakeRadio) SetEventSink(sink central.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sink = sink
}

func (r *fakeRadio) getSink() central.EventSink {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sink
}

func (r *fakeRadio) peripheral(id string) *fakePeripheral {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.peripherals[central.ID(id)]
}

func (r *fakeRadio) failConnect(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures[central.ID(id)] = err
}

func (r *fakeRadio) advertise(id string, a FakeAdvertisement) {
	r.getSink().Discovered(r.peripheral(id), a, a.rssi)
}

func (r *fakeRadio) StartScan(services []ble_mod.UUID, opts central.ScanOptions) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scans += 1
}

func (r *fakeRadio) StopScan() {}

func (r *fakeRadio) Connect(cp central.Peripheral, opts central.ConnectOptions) {
	p := cp.(*fakePeripheral)

	r.mu.Lock()
	err := r.failures[p.id]
	r.mu.Unlock()

	if err != nil {
		r.getSink().ConnectFailed(p, err)
		return
	}

	p.setState(central.PeripheralConnected)
	r.getSink().Connected(p)
}

func (r *fakeRadio) Disconnect(cp central.Peripheral) {
	p := cp.(*fakePeripheral)

	p.setState(central.PeripheralDisconnected)
	r.getSink().Disconnected(p, nil)
}

func (r *fakeRadio) RetrieveKnown(ids []central.ID) (out []central.Peripheral) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if p, ok := r.peripherals[id]; ok {
			out = append(out, p)
		}
	}

	return out
}

func (r *fakeRadio) RetrieveConnected(services []ble_mod.UUID) []central.Peripheral {
	return nil
}

type FakeAdvertisement struct {
	name        string
	services    []ble_mod.UUID
	connectable bool
	rssi        int
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
	return f.connectable
}

func (f FakeAdvertisement) SolicitedService() []ble_mod.UUID {
	return nil
}

func (f FakeAdvertisement) RSSI() int {
	return f.rssi
}

func (f FakeAdvertisement) Addr() ble_mod.Addr {
	return nil
}
