// Package synth turns shared entity pools into serialized telemetry records.
//
// Each synthesizer is a pure function of its immutable pools, its time
// window, and the random source passed to Next. Callers running synthesizers
// concurrently must give every goroutine its own *rand.Rand.
package synth

import (
	"math/rand/v2"
)

// Record is one synthesized event prior to serialization.
type Record interface {
	// Line renders the record in its line-oriented log layout.
	Line() string
	// Row renders the record as tabular fields matching Synthesizer.Header.
	Row() []string
}

// Synthesizer produces one record per call.
type Synthesizer interface {
	// Next draws a fresh record.
	Next(r *rand.Rand) Record
	// Header returns column names for tabular output.
	Header() []string
}

func between(r *rand.Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}
