// Package fixed implements the constant-rate passthrough balancer: no
// adaptation, always emits the rounded max bitrate.
package fixed

import "github.com/ceralive/ceracoder/internal/abr"

// Name is this algorithm's registry key.
const Name = "fixed"

// Description is the human-readable registry entry.
const Description = "Constant bitrate, no adaptation"

// Algorithm always returns the bitrate computed once at construction.
type Algorithm struct {
	fixedBitrate int64
}

// New computes the fixed bitrate once, rounded down to 100kbps.
func New(cfg abr.Config) (*Algorithm, error) {
	return &Algorithm{fixedBitrate: abr.Round100k(cfg.MaxBitrateBps)}, nil
}

// Cleanup releases no resources; included to satisfy abr.Algorithm.
func (a *Algorithm) Cleanup() {}

// Step ignores network conditions and echoes the sample into the
// observability fields, per the preserved AIMD/fixed overlay contract.
func (a *Algorithm) Step(s abr.Sample) abr.Decision {
	return abr.Decision{
		NewBitrateBps: a.fixedBitrate,
		Throughput:    0,
		RTT:           int64(s.RTTMs),
		BS:            s.BufferSize,
	}
}
