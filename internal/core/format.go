package core

import (
	"fmt"
	"math"
)

// FormatTime renders song seconds as m:ss.t.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	tenths := int(math.Floor(seconds*10 + 1e-6))
	m := tenths / 600
	s := (tenths % 600) / 10
	return fmt.Sprintf("%d:%02d.%d", m, s, tenths%10)
}

// String renders the region as "start–end".
func (r LoopRegion) String() string {
	return FormatTime(r.Start) + "–" + FormatTime(r.End)
}
