package compression

import (
	"fmt"

	"github.com/dargueta/compactor/bytebuffer"
)

// LZ78 is a dictionary codec that emits `(prefix code, next byte)` records.
//
// Each record is a big-endian 16-bit code followed by one literal byte. Code 0
// stands for the empty prefix. If the input ends in the middle of a known
// sequence, the final record is just the 2-byte code of that sequence. When the
// dictionary fills up, [MaxCode] is emitted by itself and both sides start over
// with an empty dictionary.
type LZ78 struct{}

func (LZ78) Compress(input []byte) ([]byte, error) {
	output := bytebuffer.New()
	dictionary := NewTrie()
	nextCode := 1
	current := Root
	prefixCode := 0

	for i, b := range input {
		child, found := dictionary.Child(current, b)
		if !found {
			dictionary.AddChild(current, b, nextCode)
			output.PutShort(int16(prefixCode))
			output.Put(b)

			if nextCode < MaxCode {
				nextCode++
			} else {
				nextCode = 1
				dictionary.Reset()
				output.PutShort(MaxCode)
			}
			current = Root
			prefixCode = 0
		} else if i == len(input)-1 {
			output.PutShort(int16(dictionary.Code(child)))
		} else {
			prefixCode = dictionary.Code(child)
			current = child
		}
	}
	return output.Bytes(), nil
}

func (LZ78) Decompress(input []byte, originalSize int) ([]byte, error) {
	in := bytebuffer.NewFrom(input)
	output := bytebuffer.NewWithSize(originalSize)
	var dictionary [][]byte

	for in.Remaining() > 0 {
		rawCode, err := in.GetShort()
		if err != nil {
			return nil, err
		}
		code := int(uint16(rawCode))

		if code >= MaxCode {
			dictionary = dictionary[:0]
			continue
		}
		if code > len(dictionary) {
			return nil, fmt.Errorf(
				"code %d refers past the end of the dictionary (%d entries)", code, len(dictionary))
		}

		if in.Remaining() == 0 {
			// Final record: a bare code with no literal after it.
			if code != 0 {
				if err := writeAll(output, dictionary[code-1]); err != nil {
					return nil, err
				}
			}
			break
		}

		literal, err := in.Get()
		if err != nil {
			return nil, err
		}

		var entry []byte
		if code == 0 {
			entry = []byte{literal}
		} else {
			prefix := dictionary[code-1]
			entry = make([]byte, len(prefix)+1)
			copy(entry, prefix)
			entry[len(prefix)] = literal
		}
		dictionary = append(dictionary, entry)
		if err := writeAll(output, entry); err != nil {
			return nil, err
		}
	}
	return output.Bytes(), nil
}

// writeAll writes `data` at the buffer's cursor.
func writeAll(output *bytebuffer.ByteBuffer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return bytebuffer.Transfer(
		bytebuffer.NewFrom(data), 0, output, bytebuffer.MovingCursor, len(data))
}
