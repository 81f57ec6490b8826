package ble

import (
	"fmt"
	"net"
	"slices"
	"strings"
	"sync"

	"github.com/go-ble/ble"
	"github.com/robertof/go-ble-central/central"
)

// Peripheral is a remote device seen by this adapter, either through an
// advertisement or because it was asked for by address.
type Peripheral struct {
	id   central.ID
	addr ble.Addr

	mu       sync.Mutex
	name     string
	services []ble.UUID
	state    central.PeripheralState
}

func IDFromAddr(addr ble.Addr) central.ID {
	return central.ID(strings.ToLower(addr.String()))
}

func newPeripheral(addr ble.Addr) *Peripheral {
	return &Peripheral{
		id:   IDFromAddr(addr),
		addr: addr,
	}
}

func (p *Peripheral) ID() central.ID {
	return p.id
}

func (p *Peripheral) Addr() ble.Addr {
	return p.addr
}

func (p *Peripheral) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.name
}

func (p *Peripheral) State() central.PeripheralState {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Services returns every service UUID the peripheral advertised so far.
func (p *Peripheral) Services() []ble.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]ble.UUID(nil), p.services...)
}

func (p *Peripheral) String() string {
	if name := p.Name(); name != "" {
		return fmt.Sprintf("peripheral[name=%q, addr=%v]", name, p.id)
	}

	return fmt.Sprintf("peripheral[addr=%v]", p.id)
}

func (p *Peripheral) setState(s central.PeripheralState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = s
}

func (p *Peripheral) setName(name string) {
	if name == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.name = name
}

func (p *Peripheral) observe(a ble.Advertisement) {
	p.setName(a.LocalName())

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, uuid := range a.Services() {
		if !slices.ContainsFunc(p.services, uuid.Equal) {
			p.services = append(p.services, uuid)
		}
	}
}

func (p *Peripheral) advertisesAny(services []ble.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, uuid := range services {
		if slices.ContainsFunc(p.services, uuid.Equal) {
			return true
		}
	}

	return false
}

type registry struct {
	mu          sync.Mutex
	peripherals map[central.ID]*Peripheral
}

func newRegistry() *registry {
	return &registry{
		peripherals: make(map[central.ID]*Peripheral),
	}
}

func (r *registry) get(addr ble.Addr) *Peripheral {
	id := IDFromAddr(addr)

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.peripherals[id]; ok {
		return p
	}

	p := newPeripheral(addr)
	r.peripherals[id] = p

	return p
}

// lookup returns the peripheral for id. Unknown ids that are valid MAC
// addresses are registered on the fly so they can be dialed directly.
func (r *registry) lookup(id central.ID) (*Peripheral, bool) {
	r.mu.Lock()
	p, ok := r.peripherals[id]
	r.mu.Unlock()

	if ok {
		return p, true
	}

	if _, err := net.ParseMAC(string(id)); err != nil {
		return nil, false
	}

	return r.get(ble.NewAddr(string(id))), true
}
