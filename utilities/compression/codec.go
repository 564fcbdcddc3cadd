package compression

import (
	"fmt"
	"time"

	"github.com/dargueta/compactor"
	"github.com/dargueta/compactor/statistics"
)

// Codec is a named compressor/decompressor pair that tracks how well it
// performs across every call.
//
// A Codec is not safe for concurrent use: each successful call folds its
// result into the codec's [statistics.Global].
type Codec interface {
	Name() string
	// Compress transforms `input` and returns the compressed bytes along with
	// the statistics of this one operation.
	Compress(input []byte) ([]byte, statistics.Local, error)
	// Decompress inverts Compress. `originalSize` must be the length of the
	// data that was compressed; several codecs size their output with it.
	Decompress(input []byte, originalSize int) ([]byte, statistics.Local, error)
	Statistics() *statistics.Global
}

// Transformer holds the codec-specific part of a [Codec]. Implementations are
// free to return errors or panic; [NewCodec] converts both into
// [compactor.ErrCodecInternal].
type Transformer interface {
	Compress(input []byte) ([]byte, error)
	Decompress(input []byte, originalSize int) ([]byte, error)
}

type templateCodec struct {
	name        string
	stats       *statistics.Global
	transformer Transformer
}

// NewCodec wraps a [Transformer] with timing, error conversion and statistics
// tracking. If `stats` is nil the codec gets its own zeroed record.
func NewCodec(name string, stats *statistics.Global, transformer Transformer) Codec {
	if stats == nil {
		stats = &statistics.Global{}
	}
	return &templateCodec{
		name:        name,
		stats:       stats,
		transformer: transformer,
	}
}

func (codec *templateCodec) Name() string {
	return codec.name
}

func (codec *templateCodec) Statistics() *statistics.Global {
	return codec.stats
}

func (codec *templateCodec) Compress(input []byte) ([]byte, statistics.Local, error) {
	start := time.Now()
	output, err := runGuarded(func() ([]byte, error) {
		return codec.transformer.Compress(input)
	})
	if err != nil {
		return nil, statistics.Local{}, compactor.ErrCodecInternal.WithMessage(
			fmt.Sprintf("%s compression failed", codec.name)).Wrap(err)
	}

	stat := statistics.NewLocalFromDuration(len(input), len(output), time.Since(start))
	codec.stats.AddCompression(stat)
	return output, stat, nil
}

func (codec *templateCodec) Decompress(
	input []byte,
	originalSize int,
) ([]byte, statistics.Local, error) {
	if originalSize < 0 {
		return nil, statistics.Local{}, compactor.ErrCodecInternal.WithMessage(
			fmt.Sprintf("negative original size %d", originalSize))
	}

	start := time.Now()
	output, err := runGuarded(func() ([]byte, error) {
		return codec.transformer.Decompress(input, originalSize)
	})
	if err != nil {
		return nil, statistics.Local{}, compactor.ErrCodecInternal.WithMessage(
			fmt.Sprintf("%s decompression failed", codec.name)).Wrap(err)
	}

	stat := statistics.NewLocalFromDuration(len(output), len(input), time.Since(start))
	codec.stats.AddDecompression(stat)
	return output, stat, nil
}

// runGuarded calls `transform`, turning a panic into an ordinary error so that
// corrupt input can never crash the caller.
func runGuarded(transform func() ([]byte, error)) (output []byte, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			output = nil
			if recoveredErr, ok := recovered.(error); ok {
				err = fmt.Errorf("panic: %w", recoveredErr)
			} else {
				err = fmt.Errorf("panic: %v", recovered)
			}
		}
	}()
	return transform()
}
