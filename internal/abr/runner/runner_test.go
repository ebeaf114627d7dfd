package runner

import (
	"errors"
	"testing"

	"github.com/ceralive/ceracoder/internal/abr"
)

func baseConfig() abr.Config {
	return abr.Config{
		MinBitrateBps: 300_000,
		MaxBitrateBps: 6_000_000,
		SRTLatencyMs:  2000,
	}
}

func TestInitDefaultsToAdaptive(t *testing.T) {
	r, err := Init(baseConfig(), "", "")
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if r.Name() != "adaptive" {
		t.Errorf("expected default algorithm to be adaptive, got %q", r.Name())
	}
}

func TestInitHonorsConfigFileBalancer(t *testing.T) {
	r, err := Init(baseConfig(), "fixed", "")
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if r.Name() != "fixed" {
		t.Errorf("expected config-selected fixed balancer, got %q", r.Name())
	}
}

func TestInitOverrideTakesPrecedence(t *testing.T) {
	r, err := Init(baseConfig(), "fixed", "aimd")
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if r.Name() != "aimd" {
		t.Errorf("expected override to win over config balancer, got %q", r.Name())
	}
}

func TestInitUnknownAlgorithmFails(t *testing.T) {
	_, err := Init(baseConfig(), "", "not-a-real-balancer")
	if err == nil {
		t.Fatal("expected an error for an unknown algorithm name")
	}
	if !errors.Is(err, abr.ErrUnknownAlgorithm) {
		t.Errorf("expected ErrUnknownAlgorithm, got %v", err)
	}
}

func TestInitUnknownConfigBalancerFallsBackToDefault(t *testing.T) {
	r, err := Init(baseConfig(), "not-a-real-balancer", "")
	if err != nil {
		t.Fatalf("expected an unknown config-sourced balancer to fall back, not error: %v", err)
	}
	if r.Name() != "adaptive" {
		t.Errorf("expected fallback to the default algorithm, got %q", r.Name())
	}
}

func TestStepDelegatesToAlgorithm(t *testing.T) {
	r, _ := Init(baseConfig(), "", "fixed")
	d := r.Step(abr.Sample{RTTMs: 30, BufferSize: 2})
	want := abr.Round100k(baseConfig().MaxBitrateBps)
	if d.NewBitrateBps != want {
		t.Errorf("expected fixed passthrough bitrate %d, got %d", want, d.NewBitrateBps)
	}
}

func TestUpdateBoundsRejectsInvertedRange(t *testing.T) {
	r, _ := Init(baseConfig(), "", "")
	err := r.UpdateBounds(6_000_000, 300_000)
	if !errors.Is(err, abr.ErrInvalidBounds) {
		t.Errorf("expected ErrInvalidBounds, got %v", err)
	}
}

func TestUpdateBoundsResetsAlgorithmState(t *testing.T) {
	r, _ := Init(baseConfig(), "", "aimd")

	// Drive the algorithm down from its optimistic start.
	for i := 0; i < 10; i++ {
		r.Step(abr.Sample{RTTMs: 1000, TimestampMs: int64(i) * 300})
	}
	lowered := r.Step(abr.Sample{RTTMs: 1000, TimestampMs: 3300}).NewBitrateBps

	newMax := int64(2_000_000)
	if err := r.UpdateBounds(300_000, newMax); err != nil {
		t.Fatalf("UpdateBounds returned error: %v", err)
	}

	// Immediately after a bounds update the algorithm is fresh and
	// optimistic again at the new max, not continuing from its lowered
	// pre-reset bitrate.
	d := r.Step(abr.Sample{RTTMs: 20, TimestampMs: 0})
	if d.NewBitrateBps != abr.Round100k(newMax) {
		t.Errorf("expected reset state to restart at new max %d, got %d (was %d before reset)",
			abr.Round100k(newMax), d.NewBitrateBps, lowered)
	}
}
