package metrics_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/robertof/go-ble-central/central"
	"github.com/robertof/go-ble-central/metrics"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()

	metrics.RegisterCollector(func() central.Stats {
		return central.Stats{
			RadioState:         central.StatePoweredOn,
			ScanState:          central.ScanActive,
			PendingConnects:    2,
			PendingDisconnects: 1,
			ReadyWaiters:       3,
		}
	}, reg)

	expected := `
# HELP ble_central_pending_requests Requests waiting for the radio to report their outcome.
# TYPE ble_central_pending_requests gauge
ble_central_pending_requests{request="connect"} 2
ble_central_pending_requests{request="disconnect"} 1
# HELP ble_central_radio_state Radio state. 0 = unknown, 1 = resetting, 2 = unsupported, 3 = unauthorized, 4 = powered off, 5 = powered on.
# TYPE ble_central_radio_state gauge
ble_central_radio_state 5
# HELP ble_central_ready_waiters Callers waiting for the radio state to settle.
# TYPE ble_central_ready_waiters gauge
ble_central_ready_waiters 3
# HELP ble_central_scanning Whether a scan is active (1) or not (0).
# TYPE ble_central_scanning gauge
ble_central_scanning 1
`

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected)))
}
