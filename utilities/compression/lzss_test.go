package compression_test

import (
	"testing"

	"github.com/dargueta/compactor"
	c "github.com/dargueta/compactor/utilities/compression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLZSSEncoding(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
	}{
		{"empty", "", []byte{0x80, 0, 0}},
		{"too short to match", "abab", []byte{0x08, 'a', 'b', 'a', 'b', 0, 0}},
		{"one pair", "abcabc", []byte{0x18, 'a', 'b', 'c', 0x00, 0x30, 0, 0}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			output, err := c.LZSS{}.Compress([]byte(test.input))
			require.NoError(t, err)
			assert.Equal(t, test.expected, output)

			decompressed, err := c.LZSS{}.Decompress(output, len(test.input))
			require.NoError(t, err)
			assert.Equal(t, []byte(test.input), decompressed)
		})
	}
}

func TestLZSSFillsMultipleFlagGroups(t *testing.T) {
	// Literals only, so every group holds eight tokens.
	input := permutation()[:20]
	output, err := c.LZSS{}.Compress(input)
	require.NoError(t, err)

	// Three flag bytes, twenty literals and the terminating pair.
	assert.Len(t, output, 3+20+2)
	assert.EqualValues(t, 0x00, output[0])
	assert.EqualValues(t, 0x00, output[9])
	assert.EqualValues(t, 0x08, output[18])
}

func TestLZSSLongRunUsesMaximumMatch(t *testing.T) {
	input := []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	output, err := c.LZSS{}.Compress(input)
	require.NoError(t, err)
	assert.Less(t, len(output), len(input)/2)

	decompressed, err := c.LZSS{}.Decompress(output, len(input))
	require.NoError(t, err)
	assert.Equal(t, input, decompressed)
}

func TestLZSSRejectsBadReference(t *testing.T) {
	// A pair pointing 5 bytes back before anything has been written.
	_, err := c.LZSS{}.Decompress([]byte{0x80, 0x00, 0x50}, 10)
	assert.ErrorIs(t, err, compactor.ErrBufferBounds)

	_, err = c.LZSS{}.Decompress([]byte{0x00, 'a'}, 10)
	assert.ErrorIs(t, err, compactor.ErrBufferBounds, "missing terminator not detected")
}
