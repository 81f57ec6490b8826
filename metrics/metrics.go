package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robertof/go-ble-central/central"
)

var (
	descRadioState = prometheus.NewDesc(
		"ble_central_radio_state",
		"Radio state. 0 = unknown, 1 = resetting, 2 = unsupported, 3 = unauthorized, 4 = powered off, 5 = powered on.",
		nil,
		nil,
	)

	descScanning = prometheus.NewDesc(
		"ble_central_scanning",
		"Whether a scan is active (1) or not (0).",
		nil,
		nil,
	)

	descPendingRequests = prometheus.NewDesc(
		"ble_central_pending_requests",
		"Requests waiting for the radio to report their outcome.",
		[]string{"request"},
		nil,
	)

	descReadyWaiters = prometheus.NewDesc(
		"ble_central_ready_waiters",
		"Callers waiting for the radio state to settle.",
		nil,
		nil,
	)
)

type CollectFunc func() central.Stats

type collector struct {
	CollectFunc
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.CollectFunc()

	scanning := 0.0
	if stats.ScanState == central.ScanActive {
		scanning = 1
	}

	ch <- prometheus.MustNewConstMetric(descRadioState, prometheus.GaugeValue, float64(stats.RadioState))
	ch <- prometheus.MustNewConstMetric(descScanning, prometheus.GaugeValue, scanning)
	ch <- prometheus.MustNewConstMetric(
		descPendingRequests,
		prometheus.GaugeValue,
		float64(stats.PendingConnects),
		"connect",
	)
	ch <- prometheus.MustNewConstMetric(
		descPendingRequests,
		prometheus.GaugeValue,
		float64(stats.PendingDisconnects),
		"disconnect",
	)
	ch <- prometheus.MustNewConstMetric(descReadyWaiters, prometheus.GaugeValue, float64(stats.ReadyWaiters))
}

func RegisterCollector(f CollectFunc, reg prometheus.Registerer) {
	c := &collector{f}

	reg.MustRegister(c)
}
