package compression

import (
	"fmt"

	"github.com/dargueta/compactor/bytebuffer"
)

const lzwFirstFreeCode = 256

// LZW is a dictionary codec whose output is a sequence of big-endian 16-bit
// codes. The dictionary starts out holding every single byte under its own
// value. When it fills up, [MaxCode] is emitted and both sides go back to the
// initial 256 entries.
type LZW struct{}

func (LZW) Compress(input []byte) ([]byte, error) {
	output := bytebuffer.New()
	dictionary := NewByteTrie()
	nextCode := lzwFirstFreeCode
	position := 0

	for position < len(input) {
		var code int
		code, position = searchInsert(dictionary, input, position, nextCode)
		output.PutShort(int16(code))

		if nextCode < MaxCode {
			nextCode++
		} else {
			dictionary.ResetToBytes()
			output.PutShort(MaxCode)
			nextCode = lzwFirstFreeCode
		}
	}
	return output.Bytes(), nil
}

// searchInsert finds the longest sequence in the dictionary that starts at
// `position`. If the sequence is followed by a byte, that one-byte extension is
// added to the dictionary with `nextCode` (provided the code space isn't
// exhausted). It returns the code of the sequence found and the position right
// after it.
func searchInsert(dictionary *Trie, input []byte, position int, nextCode int) (int, int) {
	node := Root
	for position < len(input) {
		child, found := dictionary.Child(node, input[position])
		if !found {
			if nextCode < MaxCode {
				dictionary.AddChild(node, input[position], nextCode)
			}
			return dictionary.Code(node), position
		}
		node = child
		position++
	}
	return dictionary.Code(node), position
}

func (LZW) Decompress(input []byte, originalSize int) ([]byte, error) {
	output := bytebuffer.NewWithSize(originalSize)
	if len(input) == 0 {
		return output.Bytes(), nil
	}

	in := bytebuffer.NewFrom(input)
	table := newLZWTable()

	previous, err := readLZWCode(in)
	if err != nil {
		return nil, err
	}
	if previous >= len(table) {
		return nil, fmt.Errorf("first code %d isn't a single byte", previous)
	}
	if err := writeAll(output, table[previous]); err != nil {
		return nil, err
	}

	for in.Remaining() != 0 {
		code, err := readLZWCode(in)
		if err != nil {
			return nil, err
		}

		if code == MaxCode {
			table = newLZWTable()
			if in.Remaining() == 0 {
				break
			}
			previous, err = readLZWCode(in)
			if err != nil {
				return nil, err
			}
			if previous >= len(table) {
				return nil, fmt.Errorf("code %d after reset isn't a single byte", previous)
			}
			if err := writeAll(output, table[previous]); err != nil {
				return nil, err
			}
			continue
		}

		var current []byte
		switch {
		case code < len(table):
			current = table[code]
		case code == len(table):
			// The sequence being defined by this very step: the previous one
			// plus its own first byte.
			prefix := table[previous]
			current = make([]byte, len(prefix)+1)
			copy(current, prefix)
			current[len(prefix)] = prefix[0]
		default:
			return nil, fmt.Errorf("code %d is undefined, dictionary has %d entries", code, len(table))
		}

		if err := writeAll(output, current); err != nil {
			return nil, err
		}

		prefix := table[previous]
		entry := make([]byte, len(prefix)+1)
		copy(entry, prefix)
		entry[len(prefix)] = current[0]
		table = append(table, entry)
		previous = code
	}

	return output.Bytes(), nil
}

func newLZWTable() [][]byte {
	table := make([][]byte, lzwFirstFreeCode, MaxCode)
	for i := range table {
		table[i] = []byte{byte(i)}
	}
	return table
}

func readLZWCode(in *bytebuffer.ByteBuffer) (int, error) {
	code, err := in.GetShort()
	if err != nil {
		return 0, err
	}
	if code < 0 {
		return 0, fmt.Errorf("code 0x%04x out of range", uint16(code))
	}
	return int(code), nil
}
