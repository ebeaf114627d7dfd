// Package adaptive implements the default balancer: a multi-threshold
// buffer/RTT/loss heuristic with graduated responses (emergency, heavy,
// light, grow), ported from belacoder's bitrate_control.c.
package adaptive

import (
	"github.com/ceralive/ceracoder/internal/abr"
	"github.com/ceralive/ceracoder/internal/abr/filter"
)

// Name is this algorithm's registry key.
const Name = "adaptive"

// Description is the human-readable registry entry.
const Description = "RTT and buffer-based adaptive control (default)"

// Defaults mirror belacoder's BITRATE_* constants; any zero/negative
// Tunables field in the Config passed to New falls back to these.
var Defaults = abr.AdaptiveTunables{
	IncrStepBps:    30_000,
	IncrScale:      30,
	DecrStepBps:    100_000,
	DecrScale:      10,
	IncrIntervalMs: 500,
	DecrIntervalMs: 200,

	DecrFastIntervalMs: 250,
	EMASlow:             0.99,
	EMARTTDelta:          0.80,
	EMAThroughput:        0.97,
	EMALoss:              0.90,
	RTTMinDrift:          1.001,
	RTTIgnoreMs:          100,
	RTTInitialMs:         300,
	RTTMinInitial:        200,
	BSTh3Mult:            4,
	BSTh2JitterMul:       3.0,
	BSTh1JitterMul:       2.5,
	BSThMin:              50,
	RTTJitterMult:        4,
	RTTAvgPct:            15,
	RTTStableDelta:       0.01,
	RTTMinJitterMs:       1,
	LossThreshold:        0.5,
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

func resolve(t abr.AdaptiveTunables) abr.AdaptiveTunables {
	return abr.AdaptiveTunables{
		IncrStepBps:        orDefaultInt(t.IncrStepBps, Defaults.IncrStepBps),
		IncrScale:          orDefaultInt(t.IncrScale, Defaults.IncrScale),
		DecrStepBps:        orDefaultInt(t.DecrStepBps, Defaults.DecrStepBps),
		DecrScale:          orDefaultInt(t.DecrScale, Defaults.DecrScale),
		IncrIntervalMs:     orDefaultInt(t.IncrIntervalMs, Defaults.IncrIntervalMs),
		DecrIntervalMs:     orDefaultInt(t.DecrIntervalMs, Defaults.DecrIntervalMs),
		DecrFastIntervalMs: orDefaultInt(t.DecrFastIntervalMs, Defaults.DecrFastIntervalMs),
		EMASlow:            orDefaultFloat(t.EMASlow, Defaults.EMASlow),
		EMARTTDelta:        orDefaultFloat(t.EMARTTDelta, Defaults.EMARTTDelta),
		EMAThroughput:      orDefaultFloat(t.EMAThroughput, Defaults.EMAThroughput),
		EMALoss:            orDefaultFloat(t.EMALoss, Defaults.EMALoss),
		RTTMinDrift:        orDefaultFloat(t.RTTMinDrift, Defaults.RTTMinDrift),
		RTTIgnoreMs:        orDefaultInt(t.RTTIgnoreMs, Defaults.RTTIgnoreMs),
		RTTInitialMs:       orDefaultInt(t.RTTInitialMs, Defaults.RTTInitialMs),
		RTTMinInitial:      orDefaultInt(t.RTTMinInitial, Defaults.RTTMinInitial),
		BSTh3Mult:          orDefaultInt(t.BSTh3Mult, Defaults.BSTh3Mult),
		BSTh2JitterMul:     orDefaultFloat(t.BSTh2JitterMul, Defaults.BSTh2JitterMul),
		BSTh1JitterMul:     orDefaultFloat(t.BSTh1JitterMul, Defaults.BSTh1JitterMul),
		BSThMin:            orDefaultInt(t.BSThMin, Defaults.BSThMin),
		RTTJitterMult:      orDefaultInt(t.RTTJitterMult, Defaults.RTTJitterMult),
		RTTAvgPct:          orDefaultInt(t.RTTAvgPct, Defaults.RTTAvgPct),
		RTTStableDelta:     orDefaultFloat(t.RTTStableDelta, Defaults.RTTStableDelta),
		RTTMinJitterMs:     orDefaultInt(t.RTTMinJitterMs, Defaults.RTTMinJitterMs),
		LossThreshold:      orDefaultFloat(t.LossThreshold, Defaults.LossThreshold),
	}
}

// Algorithm owns all mutable state for one adaptive balancer instance.
// It is created with cur_bitrate optimistically at max_bitrate and is
// mutated only from Step.
type Algorithm struct {
	cfg abr.Config
	t   abr.AdaptiveTunables

	bsAvg   filter.EMA
	bsJit   filter.Jitter
	prevBS  int64

	rttAvg      filter.SeededEMA
	rttMin      filter.MinTracker
	rttJit      filter.Jitter
	rttAvgDelta filter.EMA
	prevRTT     int64

	throughput float64

	prevLoss    int64
	prevRetrans int64
	lossRate    float64

	curBitrate int64

	nextIncrTs int64
	nextDecrTs int64
}

// New constructs an adaptive Algorithm, applying defaults for any
// non-positive tunable and starting optimistic at cfg.MaxBitrateBps.
func New(cfg abr.Config) (*Algorithm, error) {
	t := resolve(cfg.Adaptive)
	a := &Algorithm{
		cfg:        cfg,
		t:          t,
		curBitrate: cfg.MaxBitrateBps,
		prevRTT:    t.RTTInitialMs,
	}
	a.bsAvg.Alpha = t.EMASlow
	a.bsJit.Alpha = t.EMASlow
	a.rttAvg.Alpha = t.EMASlow
	a.rttAvgDelta.Alpha = t.EMARTTDelta
	a.rttJit.Alpha = t.EMASlow
	a.rttMin.Drift = t.RTTMinDrift
	a.rttMin.Value = float64(t.RTTMinInitial)
	return a, nil
}

// Cleanup releases no resources; included to satisfy abr.Algorithm.
func (a *Algorithm) Cleanup() {}

// Step runs the full per-tick procedure in spec section 4.1: loss
// tracking, buffer/RTT/throughput filtering, threshold computation, and
// the four-branch emergency/heavy/light/grow decision ladder.
func (a *Algorithm) Step(s abr.Sample) abr.Decision {
	t := a.t
	now := s.TimestampMs

	// 1. Loss tracking.
	deltaLoss := s.PktLossTotal - a.prevLoss
	deltaRetrans := s.PktRetransTotal - a.prevRetrans
	a.prevLoss = s.PktLossTotal
	a.prevRetrans = s.PktRetransTotal
	if deltaLoss > 0 || deltaRetrans > 0 {
		a.lossRate = t.EMALoss*a.lossRate + (1-t.EMALoss)*float64(deltaLoss+deltaRetrans)
	} else {
		a.lossRate *= t.EMALoss
	}
	lossCongested := a.lossRate > t.LossThreshold

	// 2. Buffer filter.
	a.bsAvg.Update(float64(s.BufferSize))
	deltaBS := float64(s.BufferSize - a.prevBS)
	a.bsJit.Update(deltaBS)
	a.prevBS = s.BufferSize

	// 3. RTT filter.
	a.rttAvg.Update(s.RTTMs)
	deltaRTT := s.RTTMs - float64(a.prevRTT)
	a.rttAvgDelta.Update(deltaRTT)
	a.prevRTT = int64(s.RTTMs)
	rttIgnored := int64(s.RTTMs) == t.RTTIgnoreMs
	a.rttMin.Update(s.RTTMs, rttIgnored || a.rttAvgDelta.Value >= 1.0)
	a.rttJit.Update(deltaRTT)

	// 4. Throughput filter. Divisor 1024 (not 1000) is preserved verbatim
	// for overlay compatibility with existing viewers.
	a.throughput = t.EMAThroughput*a.throughput + (1-t.EMAThroughput)*(s.SendRateMbps*1_000_000/1024)

	// 5. Thresholds.
	bsTh3 := int64((a.bsAvg.Value + a.bsJit.Value) * float64(t.BSTh3Mult))
	bsTh2 := maxF(float64(t.BSThMin), a.bsAvg.Value+maxF(a.bsJit.Value*t.BSTh2JitterMul, a.bsAvg.Value))
	bsTh2Cap := (a.throughput / 8) * (float64(a.cfg.SRTLatencyMs) / 2) / float64(a.cfg.SRTPktSizeBytes)
	if bsTh2 > bsTh2Cap {
		bsTh2 = bsTh2Cap
	}
	bsTh1 := maxF(float64(t.BSThMin), a.bsAvg.Value+a.bsJit.Value*t.BSTh1JitterMul)
	rttThMax := a.rttAvg.Value + maxF(a.rttJit.Value*float64(t.RTTJitterMult), a.rttAvg.Value*float64(t.RTTAvgPct)/100)
	rttThMin := a.rttMin.Value + maxF(float64(t.RTTMinJitterMs), a.rttJit.Value*2)

	// 6. Decision ladder, first match wins.
	br := a.curBitrate
	rttInt := int64(s.RTTMs)
	bs := s.BufferSize

	switch {
	case br > a.cfg.MinBitrateBps && (rttInt >= a.cfg.SRTLatencyMs/3 || bs > int64(bsTh3)):
		br = a.cfg.MinBitrateBps
		a.nextDecrTs = now + t.DecrIntervalMs

	case now > a.nextDecrTs && (rttInt > a.cfg.SRTLatencyMs/5 || bs > int64(bsTh2) || lossCongested):
		br -= t.DecrStepBps + br/t.DecrScale
		a.nextDecrTs = now + t.DecrFastIntervalMs

	case now > a.nextDecrTs && (rttInt > int64(rttThMax) || bs > int64(bsTh1)):
		br -= t.DecrStepBps
		a.nextDecrTs = now + t.DecrIntervalMs

	case now > a.nextIncrTs && rttInt < int64(rttThMin) && a.rttAvgDelta.Value < t.RTTStableDelta && !lossCongested:
		br += t.IncrStepBps + br/t.IncrScale
		a.nextIncrTs = now + t.IncrIntervalMs
	}

	// 7. Commit.
	br = abr.Clamp(br, a.cfg.MinBitrateBps, a.cfg.MaxBitrateBps)
	a.curBitrate = br

	return abr.Decision{
		NewBitrateBps: abr.Round100k(br),
		Throughput:    a.throughput,
		RTT:           rttInt,
		RTTThMin:      int64(rttThMin),
		RTTThMax:      int64(rttThMax),
		BS:            bs,
		BSTh1:         int64(bsTh1),
		BSTh2:         int64(bsTh2),
		BSTh3:         bsTh3,
	}
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
