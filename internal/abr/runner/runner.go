// Package runner implements the host-facing façade: it owns the selected
// algorithm's state, routes Samples to it, and supports bounds
// reconfiguration. This is the only part of the ABR core the host talks
// to directly.
package runner

import (
	"fmt"

	"github.com/ceralive/ceracoder/internal/abr"
	"github.com/ceralive/ceracoder/internal/abr/registry"
)

// Runner is strictly single-threaded and synchronous: it holds no locks
// and must be driven from one logical execution context.
type Runner struct {
	entry registry.Entry
	cfg   abr.Config
	algo  abr.Algorithm
}

// Init selects an algorithm. nameOverride (e.g. a CLI flag) is strict:
// an unknown override is a hard error. balancerName (the INI-sourced
// cfg.Balancer value, copied verbatim with no validation at load time)
// is lenient: an unknown config name falls back silently to the
// registry default rather than failing Init. An empty name from either
// source also falls back to the default. Init composes the algorithm
// Config and constructs its state; on error the Runner retains no
// half-built state.
func Init(cfg abr.Config, balancerName string, nameOverride string) (*Runner, error) {
	var entry registry.Entry
	switch {
	case nameOverride != "":
		e, ok := registry.Find(nameOverride)
		if !ok {
			return nil, fmt.Errorf("%w: %q\n\n%s", abr.ErrUnknownAlgorithm, nameOverride, registry.Listing())
		}
		entry = e
	case balancerName != "":
		e, ok := registry.Find(balancerName)
		if !ok {
			entry = registry.Default()
		} else {
			entry = e
		}
	default:
		entry = registry.Default()
	}

	algo, err := entry.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", abr.ErrInitFailed, err)
	}

	return &Runner{entry: entry, cfg: cfg, algo: algo}, nil
}

// Step delegates to the selected algorithm.
func (r *Runner) Step(s abr.Sample) abr.Decision {
	return r.algo.Step(s)
}

// UpdateBounds replaces the bitrate bounds and destroys/re-creates the
// algorithm state. This is an intentional contract: filter time-constants
// are calibrated against an expected bitrate range, so they are reset
// rather than rescaled. Must be called only between Step calls.
func (r *Runner) UpdateBounds(minBps, maxBps int64) error {
	if minBps > maxBps {
		return abr.ErrInvalidBounds
	}

	r.cfg.MinBitrateBps = minBps
	r.cfg.MaxBitrateBps = maxBps

	r.algo.Cleanup()
	algo, err := r.entry.New(r.cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", abr.ErrInitFailed, err)
	}
	r.algo = algo
	return nil
}

// Name returns the currently selected algorithm's registry name.
func (r *Runner) Name() string {
	return r.entry.Name
}

// Cleanup releases the held algorithm state.
func (r *Runner) Cleanup() {
	if r.algo != nil {
		r.algo.Cleanup()
	}
}
