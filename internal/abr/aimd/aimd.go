// Package aimd implements the classical TCP-style additive-increase,
// multiplicative-decrease balancer, with RTT-baseline congestion
// detection, ported from belacoder's balancer_aimd.c.
package aimd

import "github.com/ceralive/ceracoder/internal/abr"

// Name is this algorithm's registry key.
const Name = "aimd"

// Description is the human-readable registry entry.
const Description = "Additive Increase Multiplicative Decrease (TCP-style)"

// Internal constants not exposed as config knobs, matching belacoder.
const (
	rttMult        = 1.5
	rttBaselineEMA = 0.95
	bsThreshold    = 100
)

// Defaults mirror belacoder's AIMD_DEF_* constants.
var Defaults = abr.AimdTunables{
	IncrStepBps:    50_000,
	DecrMult:       0.75,
	IncrIntervalMs: 500,
	DecrIntervalMs: 200,
}

func orDefaultInt(v, def int64) int64 {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultFloat(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func resolve(t abr.AimdTunables) abr.AimdTunables {
	return abr.AimdTunables{
		IncrStepBps:    orDefaultInt(t.IncrStepBps, Defaults.IncrStepBps),
		DecrMult:       orDefaultFloat(t.DecrMult, Defaults.DecrMult),
		IncrIntervalMs: orDefaultInt(t.IncrIntervalMs, Defaults.IncrIntervalMs),
		DecrIntervalMs: orDefaultInt(t.DecrIntervalMs, Defaults.DecrIntervalMs),
	}
}

// Algorithm owns all mutable state for one AIMD balancer instance.
type Algorithm struct {
	cfg abr.Config
	t   abr.AimdTunables

	curBitrate  int64
	rttBaseline float64
	baselineSet bool

	nextIncrTs int64
	nextDecrTs int64
}

// New constructs an AIMD Algorithm, starting optimistic at cfg.MaxBitrateBps.
func New(cfg abr.Config) (*Algorithm, error) {
	return &Algorithm{
		cfg:        cfg,
		t:          resolve(cfg.Aimd),
		curBitrate: cfg.MaxBitrateBps,
	}, nil
}

// Cleanup releases no resources; included to satisfy abr.Algorithm.
func (a *Algorithm) Cleanup() {}

// Step runs the per-tick procedure in spec section 4.2.
func (a *Algorithm) Step(s abr.Sample) abr.Decision {
	now := s.TimestampMs

	if !a.baselineSet {
		a.rttBaseline = s.RTTMs
		a.baselineSet = true
	} else if s.RTTMs < a.rttBaseline {
		a.rttBaseline = s.RTTMs
	} else {
		a.rttBaseline = a.rttBaseline*rttBaselineEMA + s.RTTMs*(1-rttBaselineEMA)
	}

	rttThreshold := a.rttBaseline * rttMult
	congested := false

	if s.RTTMs >= float64(a.cfg.SRTLatencyMs)/3 {
		a.curBitrate = a.cfg.MinBitrateBps
		a.nextDecrTs = now + a.t.DecrIntervalMs
		congested = true
	} else if s.RTTMs > rttThreshold || s.BufferSize > bsThreshold {
		congested = true
	}

	if congested && now > a.nextDecrTs {
		a.curBitrate = int64(float64(a.curBitrate) * a.t.DecrMult)
		a.nextDecrTs = now + a.t.DecrIntervalMs
	} else if !congested && now > a.nextIncrTs {
		a.curBitrate += a.t.IncrStepBps
		a.nextIncrTs = now + a.t.IncrIntervalMs
	}

	a.curBitrate = abr.Clamp(a.curBitrate, a.cfg.MinBitrateBps, a.cfg.MaxBitrateBps)

	return abr.Decision{
		NewBitrateBps: abr.Round100k(a.curBitrate),
		Throughput:    0,
		RTT:           int64(s.RTTMs),
		RTTThMin:      int64(a.rttBaseline),
		RTTThMax:      int64(rttThreshold),
		BS:            s.BufferSize,
		BSTh1:         bsThreshold,
		BSTh2:         bsThreshold,
		BSTh3:         bsThreshold,
	}
}
