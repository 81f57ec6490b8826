package ble

import (
	"fmt"
	"sync"
	"testing"

	"github.com/go-ble/ble"
	"github.com/robertof/go-ble-central/central"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	events  []string
	reasons []error
}

func (s *recordingSink) record(ev string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
}

func (s *recordingSink) recordReason(ev string, reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
	s.reasons = append(s.reasons, reason)
}

func (s *recordingSink) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.events...)
}

func (s *recordingSink) Reasons() []error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]error(nil), s.reasons...)
}

func (s *recordingSink) StateChanged(st central.State) {
	s.record("state:" + st.String())
}

func (s *recordingSink) Discovered(p central.Peripheral, _ ble.Advertisement, _ int) {
	s.record("discovered:" + string(p.ID()))
}

func (s *recordingSink) Connected(p central.Peripheral) {
	s.record("connected:" + string(p.ID()))
}

func (s *recordingSink) ConnectFailed(p central.Peripheral, reason error) {
	s.recordReason("connect_failed:"+string(p.ID()), reason)
}

func (s *recordingSink) Disconnected(p central.Peripheral, reason error) {
	s.recordReason("disconnected:"+string(p.ID()), reason)
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	d := newDispatcher()
	sink := &recordingSink{}
	d.setSink(sink)

	var expected []string

	for i := 0; i < 2*eventQueueSize; i++ {
		p := newPeripheral(ble.NewAddr(fmt.Sprintf("00:00:00:00:%02x:%02x", i>>8, i&0xff)))
		expected = append(expected, "connected:"+string(p.ID()))

		d.emit(func(s central.EventSink) {
			s.Connected(p)
		})
	}

	d.close()

	require.Equal(t, expected, sink.events)
}

func TestDispatcher_DropsAfterClose(t *testing.T) {
	d := newDispatcher()
	sink := &recordingSink{}
	d.setSink(sink)

	d.emit(func(s central.EventSink) {
		s.StateChanged(central.StatePoweredOn)
	})
	d.close()
	d.close()

	d.emit(func(s central.EventSink) {
		s.StateChanged(central.StatePoweredOff)
	})

	require.Equal(t, []string{"state:PoweredOn"}, sink.events)
}
