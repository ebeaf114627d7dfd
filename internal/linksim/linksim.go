// Package linksim is a deterministic stand-in for the SRT transport the
// ABR never talks to directly. It produces a scripted abr.Sample stream
// from a small declarative Profile, for the demo CLI and for integration
// tests that need to drive a Runner against something other than
// hand-written literal samples. It never touches a socket.
//
// The buffer-occupancy model is adapted from a token-bucket pacer: each
// tick, the encoder's requested bitrate demands bytes at its rate while
// the link drains bytes at its capacity; the difference accumulates (or
// drains) in a packet queue whose depth becomes Sample.BufferSize and
// whose queueing delay is folded into Sample.RTTMs. The throughput
// figure is produced the same way a delivery-rate sampler derives
// bandwidth from bytes-acked-over-interval.
package linksim

import "github.com/ceralive/ceracoder/internal/abr"

// tickDurationMs is the simulated interval between samples.
const tickDurationMs = 20

// maxQueuePackets is the depth at which the link starts dropping instead
// of queuing further, modeling a tail-drop bottleneck buffer.
const maxQueuePackets = 200

// StepChange mutates the link's characteristics starting at tick AtTick
// (inclusive), letting a Profile script a congestion event or recovery
// mid-run.
type StepChange struct {
	AtTick      int
	RTTMs       float64
	CapacityBps int64
	LossRate    float64
}

// Profile is a declarative description of a synthetic link: a steady
// baseline plus an ordered list of step changes.
type Profile struct {
	Name string

	BaseRTTMs   float64
	JitterMs    float64
	LossRate    float64
	CapacityBps int64

	Steps []StepChange
}

// GoodLink is a generous, stable profile: plenty of capacity, low RTT,
// no loss. Used to exercise the grow-to-max-bitrate property.
func GoodLink(capacityBps int64) Profile {
	return Profile{
		Name:        "good-link",
		BaseRTTMs:   20,
		JitterMs:    2,
		LossRate:    0,
		CapacityBps: capacityBps,
	}
}

// CongestedLink starts like GoodLink but collapses capacity and raises
// RTT/loss at tick atTick, modeling a sudden congestion event.
func CongestedLink(capacityBps, congestedCapacityBps int64, atTick int) Profile {
	return Profile{
		Name:        "congested-link",
		BaseRTTMs:   20,
		JitterMs:    2,
		LossRate:    0,
		CapacityBps: capacityBps,
		Steps: []StepChange{
			{AtTick: atTick, RTTMs: 150, CapacityBps: congestedCapacityBps, LossRate: 3.0},
		},
	}
}

// Generator drives a Profile forward one tick at a time. It is not
// safe for concurrent use, matching the Runner it typically feeds.
type Generator struct {
	profile Profile

	tick           int
	queuePackets   float64
	pktSizeBytes   int64
	lossTotal      int64
	retransTotal   int64
	lossAccum      float64
	curRTTMs       float64
	curCapacityBps int64
	curLossRatePct float64
}

// New builds a Generator over profile. pktSizeBytes is the nominal
// packet size used to convert byte deltas into a buffer depth in
// packets (mirrors Config.SRTPktSizeBytes).
func New(profile Profile, pktSizeBytes int64) *Generator {
	if pktSizeBytes <= 0 {
		pktSizeBytes = 1316
	}
	return &Generator{
		profile:        profile,
		pktSizeBytes:   pktSizeBytes,
		curRTTMs:       profile.BaseRTTMs,
		curCapacityBps: profile.CapacityBps,
		curLossRatePct: profile.LossRate,
	}
}

// applyStepChanges advances curRTTMs/curCapacityBps/curLossRatePct past
// any step whose AtTick has been reached.
func (g *Generator) applyStepChanges() {
	for _, s := range g.profile.Steps {
		if g.tick >= s.AtTick {
			g.curRTTMs = s.RTTMs
			g.curCapacityBps = s.CapacityBps
			g.curLossRatePct = s.LossRate
		}
	}
}

// jitterMs produces a small deterministic triangle-wave oscillation so
// RTT is not perfectly flat, without pulling in a random source.
func (g *Generator) jitterMs() float64 {
	if g.profile.JitterMs <= 0 {
		return 0
	}
	phase := g.tick % 10
	if phase > 5 {
		phase = 10 - phase
	}
	return g.profile.JitterMs * (float64(phase) / 5.0)
}

// Next advances the simulation one tick given the encoder's currently
// requested bitrate (the previous Decision's NewBitrateBps, or an
// initial guess on the first call) and returns the resulting Sample.
func (g *Generator) Next(requestedBitrateBps int64) abr.Sample {
	g.tick++
	g.applyStepChanges()

	tickSeconds := float64(tickDurationMs) / 1000.0
	demandBytes := float64(requestedBitrateBps) / 8.0 * tickSeconds
	capacityBytes := float64(g.curCapacityBps) / 8.0 * tickSeconds

	deliveredBytes := capacityBytes
	if demandBytes < capacityBytes {
		deliveredBytes = demandBytes
	}

	backlog := demandBytes - capacityBytes
	g.queuePackets += backlog / float64(g.pktSizeBytes)
	if g.queuePackets < 0 {
		g.queuePackets = 0
	}
	if g.queuePackets > maxQueuePackets {
		dropped := g.queuePackets - maxQueuePackets
		g.queuePackets = maxQueuePackets
		g.lossTotal += int64(dropped)
	}

	g.lossAccum += g.curLossRatePct
	if g.lossAccum >= 1 {
		events := int64(g.lossAccum)
		g.lossTotal += events
		g.retransTotal += events
		g.lossAccum -= float64(events)
	}

	queueingDelayMs := g.queuePackets * float64(g.pktSizeBytes) * 8.0 / float64(max64(g.curCapacityBps, 1)) * 1000.0
	rttMs := g.curRTTMs + g.jitterMs() + queueingDelayMs

	sendRateMbps := deliveredBytes * 8.0 / tickSeconds / 1_000_000.0

	return abr.Sample{
		BufferSize:      int64(g.queuePackets),
		RTTMs:           rttMs,
		SendRateMbps:    sendRateMbps,
		TimestampMs:     int64(g.tick * tickDurationMs),
		PktLossTotal:    g.lossTotal,
		PktRetransTotal: g.retransTotal,
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
