// Package overlay formats a Decision into the on-screen overlay text
// layout, reproduced byte-exactly for compatibility with existing
// viewers per spec section 6.
package overlay

import (
	"fmt"

	"github.com/ceralive/ceracoder/internal/abr"
)

// Format renders d as "  b: %5d/%5.0f rtt: %3d/%3d/%3d bs: %3d/%3d/%3d/%3d",
// with the committed bitrate expressed in kbps.
func Format(d abr.Decision) string {
	return fmt.Sprintf("  b: %5d/%5.0f rtt: %3d/%3d/%3d bs: %3d/%3d/%3d/%3d",
		d.NewBitrateBps/1000, d.Throughput,
		d.RTT, d.RTTThMin, d.RTTThMax,
		d.BS, d.BSTh1, d.BSTh2, d.BSTh3)
}
