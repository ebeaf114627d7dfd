// Package metrics exposes two independent observability surfaces over
// the same Decision stream: Prometheus gauges/counters for live
// dashboards, and HDR-histogram percentile tracking for end-of-run
// reports. Neither is read by the ABR itself — these are host-side
// consumers of Decision, adapted from the teacher's metrics package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ceralive/ceracoder/internal/abr"
)

// Prometheus holds the gauges and counters derived from each Decision.
type Prometheus struct {
	bitrateBps     prometheus.Gauge
	throughputBps  prometheus.Gauge
	rtt            prometheus.Gauge
	rttThMin       prometheus.Gauge
	rttThMax       prometheus.Gauge
	bufferSize     prometheus.Gauge
	bufferTh1      prometheus.Gauge
	bufferTh2      prometheus.Gauge
	bufferTh3      prometheus.Gauge
	emergencyDrops prometheus.Counter

	minBitrateBps int64
}

// NewPrometheus registers the ABR metric family against reg and returns
// a Prometheus ready to observe Decisions.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		bitrateBps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ceracoder_abr_bitrate_bps",
			Help: "Current committed encoder bitrate in bits per second.",
		}),
		throughputBps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ceracoder_abr_throughput_bps",
			Help: "Smoothed throughput estimate in units of 1024 bits per second.",
		}),
		rtt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ceracoder_abr_rtt_ms",
			Help: "Current RTT sample in milliseconds.",
		}),
		rttThMin: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ceracoder_abr_rtt_threshold_min_ms",
			Help: "Lower RTT threshold below which the balancer grows the bitrate.",
		}),
		rttThMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ceracoder_abr_rtt_threshold_max_ms",
			Help: "Upper RTT threshold above which the balancer decreases the bitrate.",
		}),
		bufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ceracoder_abr_buffer_size_packets",
			Help: "Current send-buffer occupancy in packets.",
		}),
		bufferTh1: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ceracoder_abr_buffer_threshold_light_packets",
			Help: "Light-congestion buffer threshold in packets.",
		}),
		bufferTh2: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ceracoder_abr_buffer_threshold_heavy_packets",
			Help: "Heavy-congestion buffer threshold in packets.",
		}),
		bufferTh3: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ceracoder_abr_buffer_threshold_emergency_packets",
			Help: "Emergency buffer threshold in packets.",
		}),
		emergencyDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ceracoder_abr_emergency_drops_total",
			Help: "Count of decisions at the minimum bitrate with the buffer above the emergency threshold.",
		}),
	}

	reg.MustRegister(
		p.bitrateBps, p.throughputBps,
		p.rtt, p.rttThMin, p.rttThMax,
		p.bufferSize, p.bufferTh1, p.bufferTh2, p.bufferTh3,
		p.emergencyDrops,
	)
	return p
}

// SetMinBitrate records the configured floor so Observe can count
// emergency-style drops without the ABR itself exposing that signal: a
// Decision at the rounded min_bitrate whose BS exceeds BSTh3. Ticks that
// stay at the floor under that condition are counted again, and drops
// triggered by RTT alone are not counted.
func (p *Prometheus) SetMinBitrate(minBps int64) {
	p.minBitrateBps = minBps
}

// Observe records one Decision's fields into the registered gauges.
func (p *Prometheus) Observe(d abr.Decision) {
	p.bitrateBps.Set(float64(d.NewBitrateBps))
	p.throughputBps.Set(d.Throughput)
	p.rtt.Set(float64(d.RTT))
	p.rttThMin.Set(float64(d.RTTThMin))
	p.rttThMax.Set(float64(d.RTTThMax))
	p.bufferSize.Set(float64(d.BS))
	p.bufferTh1.Set(float64(d.BSTh1))
	p.bufferTh2.Set(float64(d.BSTh2))
	p.bufferTh3.Set(float64(d.BSTh3))

	if p.minBitrateBps > 0 && d.NewBitrateBps == abr.Round100k(p.minBitrateBps) && d.BS > d.BSTh3 {
		p.emergencyDrops.Inc()
	}
}
