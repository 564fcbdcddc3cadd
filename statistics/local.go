// Package statistics records how well and how fast a codec performed, both for
// a single operation ([Local]) and as running averages over a codec's lifetime
// ([Global]).
package statistics

import (
	"strconv"
	"time"
)

// MinimumSeconds is the smallest elapsed time a [Local] will report. It keeps
// speeds finite for operations faster than the clock's resolution.
const MinimumSeconds = 0.001

// Local describes the outcome of one compression or decompression.
type Local struct {
	DecompressedSize int
	CompressedSize   int
	Seconds          float64
}

// NewLocal creates a [Local], raising `seconds` to [MinimumSeconds] if needed.
func NewLocal(decompressedSize, compressedSize int, seconds float64) Local {
	if seconds < MinimumSeconds {
		seconds = MinimumSeconds
	}
	return Local{
		DecompressedSize: decompressedSize,
		CompressedSize:   compressedSize,
		Seconds:          seconds,
	}
}

// NewLocalFromDuration is a convenience wrapper around [NewLocal] for timings
// taken with [time.Since].
func NewLocalFromDuration(decompressedSize, compressedSize int, elapsed time.Duration) Local {
	return NewLocal(decompressedSize, compressedSize, elapsed.Seconds())
}

// Ratio returns the compression ratio. An empty compressed output has a ratio
// of 1.
func (s Local) Ratio() float64 {
	if s.CompressedSize == 0 {
		return 1.0
	}
	return float64(s.DecompressedSize) / float64(s.CompressedSize)
}

// Speed returns the number of uncompressed bytes processed per second.
func (s Local) Speed() float64 {
	return float64(s.DecompressedSize) / s.Seconds
}

// Add combines two operations into one, summing sizes and times. Folder
// archives use it to aggregate per-entry statistics.
func (s Local) Add(other Local) Local {
	return Local{
		DecompressedSize: s.DecompressedSize + other.DecompressedSize,
		CompressedSize:   s.CompressedSize + other.CompressedSize,
		Seconds:          s.Seconds + other.Seconds,
	}
}

// Strings renders the decompressed size, compressed size, seconds, ratio and
// speed, in that order.
func (s Local) Strings() []string {
	return []string{
		strconv.Itoa(s.DecompressedSize),
		strconv.Itoa(s.CompressedSize),
		formatFloat(s.Seconds),
		formatFloat(s.Ratio()),
		formatFloat(s.Speed()),
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}
