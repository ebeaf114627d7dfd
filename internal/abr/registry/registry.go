// Package registry is the compile-time-known ordered list of available
// balancer algorithms: name -> constructor, with the first entry being
// the default.
package registry

import (
	"fmt"
	"strings"

	"github.com/ceralive/ceracoder/internal/abr"
	"github.com/ceralive/ceracoder/internal/abr/adaptive"
	"github.com/ceralive/ceracoder/internal/abr/aimd"
	"github.com/ceralive/ceracoder/internal/abr/fixed"
)

// Entry describes one registered algorithm.
type Entry struct {
	Name        string
	Description string
	New         func(cfg abr.Config) (abr.Algorithm, error)
}

// entries is ordered; the adaptive algorithm must stay first since it is
// the documented default (spec section 4.4).
var entries = []Entry{
	{Name: adaptive.Name, Description: adaptive.Description, New: func(cfg abr.Config) (abr.Algorithm, error) {
		return adaptive.New(cfg)
	}},
	{Name: aimd.Name, Description: aimd.Description, New: func(cfg abr.Config) (abr.Algorithm, error) {
		return aimd.New(cfg)
	}},
	{Name: fixed.Name, Description: fixed.Description, New: func(cfg abr.Config) (abr.Algorithm, error) {
		return fixed.New(cfg)
	}},
}

// Default returns the registry's first entry.
func Default() Entry {
	return entries[0]
}

// Find looks up an entry by exact, case-sensitive name match.
func Find(name string) (Entry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// List returns all registered entries in registration order.
func List() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Listing formats the registry for display alongside an unknown-algorithm
// error, one "name - description" line per entry.
func Listing() string {
	var b strings.Builder
	b.WriteString("Available balancer algorithms:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "  %-12s - %s\n", e.Name, e.Description)
	}
	return b.String()
}
