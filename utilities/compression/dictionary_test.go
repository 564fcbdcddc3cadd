package compression_test

import (
	"encoding/binary"
	"testing"

	ct "github.com/dargueta/compactor/testing"
	c "github.com/dargueta/compactor/utilities/compression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLZ78Encoding(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
	}{
		{"empty", "", []byte{}},
		{"repeat", "aaa", []byte{0, 0, 'a', 0, 1, 'a'}},
		{"ends on known prefix", "aba", []byte{0, 0, 'a', 0, 0, 'b', 0, 1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			output, err := c.LZ78{}.Compress([]byte(test.input))
			require.NoError(t, err)
			assert.Equal(t, test.expected, output)

			decompressed, err := c.LZ78{}.Decompress(output, len(test.input))
			require.NoError(t, err)
			assert.Equal(t, []byte(test.input), decompressed)
		})
	}
}

func TestLZWEncoding(t *testing.T) {
	output, err := c.LZW{}.Compress([]byte("abab"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 'a', 0, 'b', 1, 0}, output)

	decompressed, err := c.LZW{}.Decompress(output, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("abab"), decompressed)
}

func TestLZWCodeDefinedByItsOwnStep(t *testing.T) {
	// "aaaa" makes the encoder emit 256 in the same step the decoder learns it.
	output, err := c.LZW{}.Compress([]byte("aaaa"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 'a', 1, 0, 0, 'a'}, output)

	decompressed, err := c.LZW{}.Decompress(output, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("aaaa"), decompressed)
}

// countLZ78Resets walks the records of LZ78 output and counts reset markers.
func countLZ78Resets(t *testing.T, data []byte) int {
	resets := 0
	for position := 0; position < len(data); {
		require.LessOrEqual(t, position+2, len(data), "truncated record at %d", position)
		code := binary.BigEndian.Uint16(data[position:])
		switch {
		case code == c.MaxCode:
			resets++
			position += 2
		case position+2 == len(data):
			position += 2
		default:
			position += 3
		}
	}
	return resets
}

func countLZWResets(data []byte) int {
	resets := 0
	for position := 0; position+1 < len(data); position += 2 {
		if binary.BigEndian.Uint16(data[position:]) == c.MaxCode {
			resets++
		}
	}
	return resets
}

func TestDictionaryCodecsResetWhenFull(t *testing.T) {
	input := ct.RandomBytes(t, 1, 200000)

	tests := []struct {
		name        string
		codec       c.Transformer
		countResets func([]byte) int
	}{
		{"LZ78", c.LZ78{}, func(data []byte) int { return countLZ78Resets(t, data) }},
		{"LZW", c.LZW{}, countLZWResets},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			output, err := test.codec.Compress(input)
			require.NoError(t, err)
			assert.Greater(t, test.countResets(output), 0, "dictionary never reset")

			decompressed, err := test.codec.Decompress(output, len(input))
			require.NoError(t, err)
			assert.Equal(t, input, decompressed)
		})
	}
}

func TestDictionaryCodecsRejectUndefinedCodes(t *testing.T) {
	tests := []struct {
		name  string
		codec c.Transformer
		input []byte
	}{
		{"LZ78 code with empty dictionary", c.LZ78{}, []byte{0, 5, 'a'}},
		{"LZ78 truncated code", c.LZ78{}, []byte{0}},
		{"LZW first code not a byte", c.LZW{}, []byte{1, 0x2c}},
		{"LZW code too far ahead", c.LZW{}, []byte{0, 'a', 1, 5}},
		{"LZW negative code", c.LZW{}, []byte{0x80, 0}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.codec.Decompress(test.input, 10)
			assert.Error(t, err)
		})
	}
}

func TestTrie(t *testing.T) {
	trie := c.NewTrie()
	assert.Equal(t, 1, trie.Len())

	_, found := trie.Child(c.Root, 'x')
	assert.False(t, found)

	x := trie.AddChild(c.Root, 'x', 7)
	y := trie.AddChild(x, 'y', 8)

	child, found := trie.Child(c.Root, 'x')
	require.True(t, found)
	assert.Equal(t, x, child)
	assert.Equal(t, 7, trie.Code(x))
	assert.EqualValues(t, 'y', trie.Symbol(y))

	_, found = trie.Child(c.Root, 'y')
	assert.False(t, found, "grandchild visible from the root")

	trie.Reset()
	assert.Equal(t, 1, trie.Len())
	_, found = trie.Child(c.Root, 'x')
	assert.False(t, found)
}

func TestByteTrie(t *testing.T) {
	trie := c.NewByteTrie()
	assert.Equal(t, 257, trie.Len())
	for _, b := range []byte{0, 'a', 255} {
		child, found := trie.Child(c.Root, b)
		require.True(t, found)
		assert.Equal(t, int(b), trie.Code(child))
	}
}
