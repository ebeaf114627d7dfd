package metrics

import (
	"sync"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/ceralive/ceracoder/internal/abr"
)

// HDR tracks the distribution of committed bitrate and RTT across a run
// using HDR histograms, surfaced as percentiles for the end-of-run report
// table. Safe for concurrent Observe/Snapshot calls.
type HDR struct {
	mu sync.Mutex

	bitrateHist    *hdrhistogram.Histogram
	throughputHist *hdrhistogram.Histogram
	rttHist        *hdrhistogram.Histogram
	bufferHist     *hdrhistogram.Histogram
}

// NewHDR builds histograms sized for the value ranges a live session can
// produce: bitrate up to 1Gbps in bps (throughput, in Decision.Throughput
// units, uses the same range), RTT up to 10s in ms,
// buffer occupancy up to 100000 packets.
func NewHDR() *HDR {
	return &HDR{
		bitrateHist:    hdrhistogram.New(1, 1_000_000_000, 3),
		throughputHist: hdrhistogram.New(1, 1_000_000_000, 3),
		rttHist:        hdrhistogram.New(1, 10_000, 3),
		bufferHist:     hdrhistogram.New(1, 100_000, 3),
	}
}

// Observe records one Decision's bitrate, throughput, RTT, and buffer
// size into the corresponding histogram. Zero and negative values are
// skipped and not recorded.
func (h *HDR) Observe(d abr.Decision) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if d.NewBitrateBps > 0 {
		h.bitrateHist.RecordValue(d.NewBitrateBps)
	}
	if d.Throughput > 0 {
		h.throughputHist.RecordValue(int64(d.Throughput))
	}
	if d.RTT > 0 {
		h.rttHist.RecordValue(int64(d.RTT))
	}
	if d.BS > 0 {
		h.bufferHist.RecordValue(int64(d.BS))
	}
}

// PercentileStats holds p50/p90/p99 plus count for a single tracked
// quantity.
type PercentileStats struct {
	P50   float64
	P90   float64
	P99   float64
	Min   float64
	Max   float64
	Mean  float64
	Count int64
}

func statsOf(hist *hdrhistogram.Histogram) PercentileStats {
	if hist.TotalCount() == 0 {
		return PercentileStats{}
	}
	return PercentileStats{
		P50:   float64(hist.ValueAtQuantile(50.0)),
		P90:   float64(hist.ValueAtQuantile(90.0)),
		P99:   float64(hist.ValueAtQuantile(99.0)),
		Min:   float64(hist.Min()),
		Max:   float64(hist.Max()),
		Mean:  hist.Mean(),
		Count: hist.TotalCount(),
	}
}

// Snapshot is the full set of percentile tables for one run, as printed
// in the end-of-run report.
type Snapshot struct {
	Bitrate    PercentileStats
	Throughput PercentileStats
	RTT        PercentileStats
	Buffer     PercentileStats
}

// Snapshot returns the current percentile tables across all quantities
// observed so far.
func (h *HDR) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	return Snapshot{
		Bitrate:    statsOf(h.bitrateHist),
		Throughput: statsOf(h.throughputHist),
		RTT:        statsOf(h.rttHist),
		Buffer:     statsOf(h.bufferHist),
	}
}
