package overlay

import (
	"testing"

	"github.com/ceralive/ceracoder/internal/abr"
)

func TestFormatGoldenString(t *testing.T) {
	d := abr.Decision{
		NewBitrateBps: 3_500_000,
		Throughput:    3400.0,
		RTT:           42,
		RTTThMin:      10,
		RTTThMax:      80,
		BS:            5,
		BSTh1:         20,
		BSTh2:         40,
		BSTh3:         60,
	}

	got := Format(d)
	want := "  b:  3500/ 3400 rtt:  42/ 10/ 80 bs:   5/ 20/ 40/ 60"
	if got != want {
		t.Errorf("overlay mismatch:\n got:  %q\n want: %q", got, want)
	}
}
