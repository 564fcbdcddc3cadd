package jpeg

import "fmt"

// maxZeroRun is the longest run of zeroes a single pair can carry.
const maxZeroRun = 15

// pair is a run of zero coefficients followed by one value.
type pair struct {
	run   int32
	value int32
}

var endOfBlock = pair{0, 0}

// runLengthEncode turns the 64 zig-zag coefficients of one block into pairs.
// A run that reaches [maxZeroRun] is flushed as `(15, 0)`, and a block ending in
// zeroes is terminated with [endOfBlock].
func runLengthEncode(coefficients []int32, pairs []pair) []pair {
	zeroes := int32(0)
	last := len(coefficients) - 1
	for i, value := range coefficients {
		switch {
		case value != 0:
			pairs = append(pairs, pair{zeroes, value})
			zeroes = 0
		case zeroes == maxZeroRun && i != last:
			pairs = append(pairs, pair{zeroes, 0})
			zeroes = 0
		case i != last:
			zeroes++
		default:
			pairs = append(pairs, endOfBlock)
		}
	}
	return pairs
}

// blockDecoder expands pairs back into the coefficients of one block.
type blockDecoder struct {
	coefficients [blockSize]int32
	position     int
	done         bool
}

func (decoder *blockDecoder) reset() {
	decoder.coefficients = [blockSize]int32{}
	decoder.position = 0
	decoder.done = false
}

// push applies one pair. The block is complete after an end-of-block marker or
// once all 64 coefficients are filled.
func (decoder *blockDecoder) push(p pair) error {
	if p == endOfBlock {
		decoder.done = true
		return nil
	}

	decoder.position += int(p.run)
	if p.run < 0 || decoder.position >= blockSize {
		return fmt.Errorf(
			"pair (%d, %d) overruns the block at coefficient %d",
			p.run,
			p.value,
			decoder.position)
	}
	decoder.coefficients[decoder.position] = p.value
	decoder.position++
	decoder.done = decoder.position == blockSize
	return nil
}
