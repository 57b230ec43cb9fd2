package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreCollector reports the number of records in the snapshot store at
// scrape time.
type StoreCollector struct {
	count func() (int, error)
	desc  *prometheus.Desc
}

// NewStoreCollector creates a collector that calls count on every scrape.
func NewStoreCollector(count func() (int, error)) *StoreCollector {
	return &StoreCollector{
		count: count,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "snapshot_store", "records"),
			"Number of snapshots held in the last-known-good store",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector. A failing count is reported as an
// invalid metric so the scrape shows the error.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	n, err := c.count()
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.desc, err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n))
}
