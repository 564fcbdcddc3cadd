package compression

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/compactor"
	"github.com/dargueta/compactor/bytebuffer"
)

const (
	lzssWindowSize     = 4095
	lzssMinMatchLength = 3
	lzssMaxMatchLength = 18
	lzssTokensPerGroup = 8
)

// LZSS is a sliding-window codec.
//
// Output is a sequence of groups, each a control byte followed by up to eight
// tokens. Bits of the control byte are read most significant first; a 0 bit
// means the token is one literal byte, a 1 bit means it's a big-endian 16-bit
// pair holding a 12-bit backwards offset and a 4-bit length minus 3. A pair
// with offset 0 ends the stream.
type LZSS struct{}

// windowPositions keeps, for every byte value, the positions in the window at
// which it occurs, oldest first.
type windowPositions [256][]int

func (wp *windowPositions) add(b byte, position int) {
	wp[b] = append(wp[b], position)
}

// dropOldest forgets the oldest occurrence of `b`.
func (wp *windowPositions) dropOldest(b byte) {
	wp[b] = wp[b][1:]
}

// flagGroup accumulates the control bits of one token group.
type flagGroup struct {
	bits     bitmap.Bitmap
	used     int
	position int
}

func newFlagGroup(output *bytebuffer.ByteBuffer) *flagGroup {
	group := &flagGroup{
		bits:     bitmap.New(lzssTokensPerGroup),
		position: output.Position(),
	}
	// Placeholder, overwritten once the group is complete.
	output.Put(0)
	return group
}

func (group *flagGroup) push(isPair bool) {
	group.bits.Set(group.used, isPair)
	group.used++
}

func (group *flagGroup) full() bool {
	return group.used == lzssTokensPerGroup
}

// flush writes the control byte into its placeholder. Unused trailing bits
// are zero.
func (group *flagGroup) flush(output *bytebuffer.ByteBuffer) error {
	var flags byte
	for i := 0; i < lzssTokensPerGroup; i++ {
		flags <<= 1
		if group.bits.Get(i) {
			flags |= 1
		}
	}
	return output.PutAt(flags, group.position)
}

func (LZSS) Compress(input []byte) ([]byte, error) {
	output := bytebuffer.New()
	positions := &windowPositions{}
	group := newFlagGroup(output)

	position := 0
	// The first few bytes can't be part of a match worth encoding.
	for position < lzssMinMatchLength && position < len(input) {
		output.Put(input[position])
		positions.add(input[position], position)
		group.push(false)
		position++
	}

	for position < len(input) {
		if group.full() {
			if err := group.flush(output); err != nil {
				return nil, err
			}
			group = newFlagGroup(output)
		}

		maxLength := min(lzssMaxMatchLength, position)
		matchStart, matchLength := findLongestMatch(input, position, positions, maxLength)

		if matchLength >= lzssMinMatchLength {
			offset := position - matchStart
			output.PutShort(int16(offset<<4 | (matchLength-lzssMinMatchLength)&0xF))
			for i := 0; i < matchLength; i++ {
				slideWindow(input, positions, position)
				position++
			}
			group.push(true)
		} else {
			output.Put(input[position])
			slideWindow(input, positions, position)
			position++
			group.push(false)
		}
	}

	if group.full() {
		if err := group.flush(output); err != nil {
			return nil, err
		}
		group = newFlagGroup(output)
	}
	group.push(true)
	output.PutShort(0)
	if err := group.flush(output); err != nil {
		return nil, err
	}

	return output.Bytes(), nil
}

// slideWindow records the byte at `position` and evicts whatever just fell out
// of the window.
func slideWindow(input []byte, positions *windowPositions, position int) {
	positions.add(input[position], position)
	if evicted := position - lzssWindowSize; evicted >= 0 {
		positions.dropOldest(input[evicted])
	}
}

// findLongestMatch searches the window for the longest sequence equal to the
// one starting at `position`. Candidates are tried oldest first, and an older
// candidate wins ties. Matches never extend past `position`, so a match is
// never longer than its offset.
func findLongestMatch(
	input []byte,
	position int,
	positions *windowPositions,
	maxLength int,
) (int, int) {
	bestStart := 0
	bestLength := 0
	limit := min(maxLength, len(input)-position)

	for _, candidate := range positions[input[position]] {
		if position-candidate <= bestLength {
			break
		}

		j := candidate + 1
		length := 1
		for length < limit && j < position && input[j] == input[position+length] {
			j++
			length++
		}

		if length > bestLength {
			bestStart = candidate
			bestLength = length
			if bestLength == maxLength {
				break
			}
		}
	}
	return bestStart, bestLength
}

func (LZSS) Decompress(input []byte, originalSize int) ([]byte, error) {
	in := bytebuffer.NewFrom(input)
	output := bytebuffer.NewWithSize(originalSize)

	flags, err := in.Get()
	if err != nil {
		return nil, err
	}
	remainingFlags := lzssTokensPerGroup

	for {
		if flags&0x80 == 0 {
			b, err := in.Get()
			if err != nil {
				return nil, err
			}
			output.Put(b)
		} else {
			pair, err := in.GetShort()
			if err != nil {
				return nil, err
			}
			offset := int(pair>>4) & 0xFFF
			length := int(pair&0xF) + lzssMinMatchLength
			if offset == 0 {
				break
			}
			if offset > output.Position() {
				return nil, compactor.ErrBufferBounds.WithMessage(
					fmt.Sprintf(
						"offset %d reaches before the start of the output at %d",
						offset,
						output.Position()))
			}

			err = bytebuffer.Transfer(
				output,
				output.Position()-offset,
				output,
				bytebuffer.MovingCursor,
				length,
			)
			if err != nil {
				return nil, err
			}
		}

		flags <<= 1
		remainingFlags--
		if remainingFlags == 0 {
			flags, err = in.Get()
			if err != nil {
				return nil, err
			}
			remainingFlags = lzssTokensPerGroup
		}
	}

	return output.Bytes(), nil
}
