package metrics

import (
	"sync"
	"testing"

	"github.com/ceralive/ceracoder/internal/abr"
)

func TestNewHDR(t *testing.T) {
	h := NewHDR()
	if h == nil {
		t.Fatal("NewHDR() returned nil")
	}
}

func TestHDRObserve(t *testing.T) {
	h := NewHDR()

	decisions := []abr.Decision{
		{NewBitrateBps: 1_000_000, Throughput: 900_000, RTT: 20, BS: 5},
		{NewBitrateBps: 2_000_000, Throughput: 1_800_000, RTT: 40, BS: 10},
		{NewBitrateBps: 3_000_000, Throughput: 2_700_000, RTT: 60, BS: 15},
		{NewBitrateBps: 5_000_000, Throughput: 4_500_000, RTT: 100, BS: 25},
	}
	for _, d := range decisions {
		h.Observe(d)
	}

	snap := h.Snapshot()

	if snap.Bitrate.Count != int64(len(decisions)) {
		t.Errorf("expected bitrate count %d, got %d", len(decisions), snap.Bitrate.Count)
	}
	if snap.Bitrate.P50 <= 0 {
		t.Error("bitrate P50 should be positive")
	}
	if snap.Bitrate.P99 < snap.Bitrate.P50 {
		t.Error("bitrate P99 should be >= P50")
	}

	if snap.RTT.Count != int64(len(decisions)) {
		t.Errorf("expected rtt count %d, got %d", len(decisions), snap.RTT.Count)
	}
	if snap.RTT.Max < snap.RTT.Min {
		t.Error("rtt Max should be >= Min")
	}

	if snap.Buffer.Count != int64(len(decisions)) {
		t.Errorf("expected buffer count %d, got %d", len(decisions), snap.Buffer.Count)
	}
	if snap.Throughput.Count != int64(len(decisions)) {
		t.Errorf("expected throughput count %d, got %d", len(decisions), snap.Throughput.Count)
	}
}

func TestHDRSkipsNonPositiveValues(t *testing.T) {
	h := NewHDR()

	h.Observe(abr.Decision{NewBitrateBps: 0, Throughput: 0, RTT: 0, BS: 0})
	h.Observe(abr.Decision{NewBitrateBps: -5, Throughput: -1, RTT: -1, BS: -1})

	snap := h.Snapshot()
	if snap.Bitrate.Count != 0 {
		t.Errorf("expected 0 bitrate samples recorded, got %d", snap.Bitrate.Count)
	}
	if snap.RTT.Count != 0 {
		t.Errorf("expected 0 rtt samples recorded, got %d", snap.RTT.Count)
	}
	if snap.Buffer.Count != 0 {
		t.Errorf("expected 0 buffer samples recorded, got %d", snap.Buffer.Count)
	}
}

func TestHDREmptySnapshot(t *testing.T) {
	h := NewHDR()
	snap := h.Snapshot()

	if snap.Bitrate.Count != 0 {
		t.Error("empty bitrate histogram should have count 0")
	}
	if snap.Throughput.Count != 0 {
		t.Error("empty throughput histogram should have count 0")
	}
	if snap.RTT.Count != 0 {
		t.Error("empty rtt histogram should have count 0")
	}
	if snap.Buffer.Count != 0 {
		t.Error("empty buffer histogram should have count 0")
	}
}

func TestHDRConcurrentAccess(t *testing.T) {
	h := NewHDR()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 1; j <= 100; j++ {
				h.Observe(abr.Decision{
					NewBitrateBps: int64(n*100 + j),
					Throughput:    float64(n*100 + j),
					RTT:           int64(j),
					BS:            int64(j),
				})
			}
		}(i)
	}
	wg.Wait()

	snap := h.Snapshot()
	if snap.Bitrate.Count != 1000 {
		t.Errorf("expected 1000 bitrate records, got %d", snap.Bitrate.Count)
	}
}
