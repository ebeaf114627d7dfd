package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/ceralive/ceracoder/internal/abr"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("failed to read gauge: %v", err)
	}
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestNewPrometheusRegistersAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)
	if p == nil {
		t.Fatal("NewPrometheus returned nil")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if len(families) != 10 {
		t.Errorf("expected 10 registered metric families, got %d", len(families))
	}
}

func TestObserveSetsGaugeValues(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	d := abr.Decision{
		NewBitrateBps: 3_000_000,
		Throughput:    2_800_000,
		RTT:           40,
		RTTThMin:      10,
		RTTThMax:      80,
		BS:            5,
		BSTh1:         20,
		BSTh2:         40,
		BSTh3:         60,
	}
	p.Observe(d)

	if gaugeValue(t, p.bitrateBps) != 3_000_000 {
		t.Errorf("expected bitrate gauge to be set, got %f", gaugeValue(t, p.bitrateBps))
	}
	if gaugeValue(t, p.rtt) != 40 {
		t.Errorf("expected rtt gauge to be set, got %f", gaugeValue(t, p.rtt))
	}
	if gaugeValue(t, p.bufferTh3) != 60 {
		t.Errorf("expected buffer th3 gauge to be set, got %f", gaugeValue(t, p.bufferTh3))
	}
}

func TestObserveIncrementsEmergencyDropsAtMinBitrate(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)
	p.SetMinBitrate(300_000)

	d := abr.Decision{
		NewBitrateBps: abr.Round100k(300_000),
		BS:            100,
		BSTh3:         50,
	}
	p.Observe(d)

	if counterValue(t, p.emergencyDrops) != 1 {
		t.Errorf("expected one emergency drop, got %f", counterValue(t, p.emergencyDrops))
	}
}

func TestObserveDoesNotCountNonEmergencyMinBitrate(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)
	p.SetMinBitrate(300_000)

	d := abr.Decision{
		NewBitrateBps: abr.Round100k(300_000),
		BS:            10,
		BSTh3:         50,
	}
	p.Observe(d)

	if counterValue(t, p.emergencyDrops) != 0 {
		t.Errorf("expected no emergency drop when buffer is under threshold, got %f", counterValue(t, p.emergencyDrops))
	}
}
