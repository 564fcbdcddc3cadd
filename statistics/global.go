package statistics

import (
	"fmt"
	"strconv"

	"github.com/dargueta/compactor"
)

// Global keeps running averages for every operation a codec has performed.
//
// A Global is not safe for concurrent use. Each codec holds exactly one, and
// callers must not run two operations on the same codec at the same time.
type Global struct {
	NumberCompressions        int
	NumberDecompressions      int
	AverageCompressionRatio   float64
	AverageCompressionSpeed   float64
	AverageDecompressionRatio float64
	AverageDecompressionSpeed float64
}

// NumberOfFields is the length of the slice returned by [Global.Strings].
const NumberOfFields = 6

// AddCompression folds the result of one compression into the averages.
func (g *Global) AddCompression(stat Local) {
	g.NumberCompressions++
	n := float64(g.NumberCompressions)
	g.AverageCompressionRatio += (stat.Ratio() - g.AverageCompressionRatio) / n
	g.AverageCompressionSpeed += (stat.Speed() - g.AverageCompressionSpeed) / n
}

// AddDecompression folds the result of one decompression into the averages.
func (g *Global) AddDecompression(stat Local) {
	g.NumberDecompressions++
	n := float64(g.NumberDecompressions)
	g.AverageDecompressionRatio += (stat.Ratio() - g.AverageDecompressionRatio) / n
	g.AverageDecompressionSpeed += (stat.Speed() - g.AverageDecompressionSpeed) / n
}

// Snapshot returns a copy of the current values.
func (g *Global) Snapshot() Global {
	return *g
}

// Reset zeroes every field.
func (g *Global) Reset() {
	*g = Global{}
}

// Restore overwrites every field with the values in `other`.
func (g *Global) Restore(other Global) {
	*g = other
}

// Strings renders the six fields in declaration order.
func (g *Global) Strings() []string {
	return []string{
		strconv.Itoa(g.NumberCompressions),
		strconv.Itoa(g.NumberDecompressions),
		formatFloat(g.AverageCompressionRatio),
		formatFloat(g.AverageCompressionSpeed),
		formatFloat(g.AverageDecompressionRatio),
		formatFloat(g.AverageDecompressionSpeed),
	}
}

// ParseGlobal is the inverse of [Global.Strings]. On failure it returns a
// zeroed Global along with an error matching [compactor.ErrStatisticsCorrupt].
func ParseGlobal(fields []string) (Global, error) {
	if len(fields) != NumberOfFields {
		return Global{}, compactor.ErrStatisticsCorrupt.WithMessage(
			fmt.Sprintf("expected %d fields, got %d", NumberOfFields, len(fields)))
	}

	var result Global
	var err error

	if result.NumberCompressions, err = strconv.Atoi(fields[0]); err != nil {
		return Global{}, compactor.ErrStatisticsCorrupt.Wrap(err)
	}
	if result.NumberDecompressions, err = strconv.Atoi(fields[1]); err != nil {
		return Global{}, compactor.ErrStatisticsCorrupt.Wrap(err)
	}

	floats := []*float64{
		&result.AverageCompressionRatio,
		&result.AverageCompressionSpeed,
		&result.AverageDecompressionRatio,
		&result.AverageDecompressionSpeed,
	}
	for i, target := range floats {
		if *target, err = strconv.ParseFloat(fields[i+2], 64); err != nil {
			return Global{}, compactor.ErrStatisticsCorrupt.Wrap(err)
		}
	}
	return result, nil
}
