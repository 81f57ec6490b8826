package central

import (
	"context"
	"testing"

	"github.com/go-ble/ble"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type nopController struct{}

func (nopController) SetEventSink(EventSink)                    {}
func (nopController) StartScan([]ble.UUID, ScanOptions)         {}
func (nopController) StopScan()                                 {}
func (nopController) Connect(Peripheral, ConnectOptions)        {}
func (nopController) Disconnect(Peripheral)                     {}
func (nopController) RetrieveKnown([]ID) []Peripheral           { return nil }
func (nopController) RetrieveConnected([]ble.UUID) []Peripheral { return nil }

type idPeripheral ID

func (p idPeripheral) ID() ID                 { return ID(p) }
func (p idPeripheral) Name() string           { return string(p) }
func (p idPeripheral) State() PeripheralState { return PeripheralDisconnected }
func (p idPeripheral) String() string         { return string(p) }

func TestUnmatchedEventsAreCounted(t *testing.T) {
	m := NewManager(nopController{})
	p := idPeripheral("x")

	before := map[string]float64{}
	for _, event := range []string{eventConnected, eventConnectFailed, eventDisconnected, eventDiscovered} {
		before[event] = testutil.ToFloat64(unmatchedEventsCounter.WithLabelValues(event))
	}

	m.Connected(p)
	m.ConnectFailed(p, context.DeadlineExceeded)
	m.Disconnected(p, nil)
	m.Discovered(p, nil, 0)

	for event, n := range before {
		require.Equal(t, n+1, testutil.ToFloat64(unmatchedEventsCounter.WithLabelValues(event)), event)
	}
}

func TestRejectedRequestsAreCounted(t *testing.T) {
	m := NewManager(nopController{})
	counter := rejectedRequestsCounter.WithLabelValues("no_connection")
	before := testutil.ToFloat64(counter)

	require.ErrorIs(t, m.CancelConnection(context.Background(), idPeripheral("x")), ErrNoConnection)
	require.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	require.NotPanics(t, func() { RegisterMetrics(reg) })
}
