package central

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	eventStateChanged  = "state_changed"
	eventDiscovered    = "discovered"
	eventConnected     = "connected"
	eventConnectFailed = "connect_failed"
	eventDisconnected  = "disconnected"
)

var (
	eventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ble_central_events_total",
		Help: "Events delivered by the bluetooth controller.",
	}, []string{"event"})
	unmatchedEventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ble_central_unmatched_events_total",
		Help: "Controller events that had no pending operation or active scan to go to.",
	}, []string{"event"})
	rejectedRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ble_central_rejected_requests_total",
		Help: "Requests refused before any command was issued.",
	}, []string{"reason"})
)

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		eventsCounter,
		unmatchedEventsCounter,
		rejectedRequestsCounter,
	)
}
