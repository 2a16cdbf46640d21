package backup

import (
	"fmt"
	"time"
)

// Suffix separates the original path from the timestamp
const Suffix = ".bak."

// TimestampLayout renders as YYYYMMDD_HHMMSS
const TimestampLayout = "20060102_150405"

// Clock abstracts time retrieval so backup names are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Namer produces backup paths for files about to be overwritten
type Namer struct {
	clock Clock
}

// NewNamer creates a Namer; a nil clock uses the wall clock
func NewNamer(clock Clock) *Namer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Namer{clock: clock}
}

// Name returns "<path>.bak.<timestamp>", appending ".1", ".2", ... when an
// earlier backup taken within the same second already holds the name.
// exists reports whether a candidate path is taken.
func (n *Namer) Name(path string, exists func(string) bool) string {
	base := path + Suffix + n.clock.Now().Format(TimestampLayout)
	if exists == nil || !exists(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%d", base, i)
		if !exists(candidate) {
			return candidate
		}
	}
}
