// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus exposition of pool accounting. Values are read from
// Pool.Stats at scrape time; the pool itself keeps only atomic counters.

package control

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "hcibuf"

// PoolCollector implements prometheus.Collector over a StatsSource.
type PoolCollector struct {
	src StatsSource

	buffers   *prometheus.Desc
	acquired  *prometheus.Desc
	released  *prometheus.Desc
	exhausted *prometheus.Desc
	timeouts  *prometheus.Desc
}

// NewPoolCollector describes the pool metrics for src.
func NewPoolCollector(src StatsSource) *PoolCollector {
	return &PoolCollector{
		src: src,
		buffers: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "pool", "buffers"),
			"Buffers per free-list by state (provisioned, free, in_use)",
			[]string{"list", "state"}, nil,
		),
		acquired: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "pool", "acquire_total"),
			"Total number of successful buffer acquisitions",
			nil, nil,
		),
		released: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "pool", "release_total"),
			"Total number of buffer releases",
			nil, nil,
		),
		exhausted: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "pool", "exhausted_total"),
			"Acquisitions that found the free-list empty",
			[]string{"list"}, nil,
		),
		timeouts: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "pool", "acquire_timeouts_total"),
			"Blocking acquisitions that timed out",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.buffers
	ch <- c.acquired
	ch <- c.released
	ch <- c.exhausted
	ch <- c.timeouts
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	for name, ls := range s.Lists {
		ch <- prometheus.MustNewConstMetric(c.buffers, prometheus.GaugeValue, float64(ls.Provisioned), name, "provisioned")
		ch <- prometheus.MustNewConstMetric(c.buffers, prometheus.GaugeValue, float64(ls.Free), name, "free")
		ch <- prometheus.MustNewConstMetric(c.buffers, prometheus.GaugeValue, float64(ls.InUse), name, "in_use")
		ch <- prometheus.MustNewConstMetric(c.exhausted, prometheus.CounterValue, float64(ls.Exhausted), name)
	}
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.CounterValue, float64(s.TotalAlloc))
	ch <- prometheus.MustNewConstMetric(c.released, prometheus.CounterValue, float64(s.TotalFree))
	ch <- prometheus.MustNewConstMetric(c.timeouts, prometheus.CounterValue, float64(s.Timeouts))
}

// NewRegistry returns a registry with the pool collector and the Go runtime collector.
func NewRegistry(src StatsSource) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewPoolCollector(src)); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	return reg, nil
}

// MetricsHandler serves reg in the Prometheus text format.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
