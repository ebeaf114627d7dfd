package fixed

import (
	"testing"

	"github.com/ceralive/ceracoder/internal/abr"
)

func TestFixedAlwaysReturnsRoundedMaxBitrate(t *testing.T) {
	cfg := abr.Config{MinBitrateBps: 300_000, MaxBitrateBps: 6_050_000}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	want := abr.Round100k(cfg.MaxBitrateBps)
	samples := []abr.Sample{
		{RTTMs: 20, BufferSize: 0},
		{RTTMs: 500, BufferSize: 10_000, PktLossTotal: 1000},
		{RTTMs: 0, BufferSize: 0},
	}
	for _, s := range samples {
		d := a.Step(s)
		if d.NewBitrateBps != want {
			t.Errorf("expected constant bitrate %d regardless of network conditions, got %d", want, d.NewBitrateBps)
		}
	}
}

func TestFixedEchoesSampleDiagnostics(t *testing.T) {
	cfg := abr.Config{MinBitrateBps: 300_000, MaxBitrateBps: 6_000_000}
	a, _ := New(cfg)

	d := a.Step(abr.Sample{RTTMs: 123, BufferSize: 7})
	if d.RTT != 123 {
		t.Errorf("expected RTT to be echoed, got %d", d.RTT)
	}
	if d.BS != 7 {
		t.Errorf("expected BS to be echoed, got %d", d.BS)
	}
	if d.Throughput != 0 {
		t.Errorf("expected fixed to never report throughput, got %f", d.Throughput)
	}
}

func TestFixedCleanupIsNoop(t *testing.T) {
	cfg := abr.Config{MinBitrateBps: 300_000, MaxBitrateBps: 6_000_000}
	a, _ := New(cfg)
	a.Cleanup()
}
