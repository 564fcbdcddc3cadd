package jpeg

import (
	"bytes"
	"testing"

	"github.com/icza/bitio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZigZagOrder(t *testing.T) {
	assert.Equal(t, []int{0, 1, 8, 16, 9, 2, 3, 10}, zigZagOrder[:8])
	assert.Equal(t, 63, zigZagOrder[63])

	seen := make(map[int]bool)
	for _, index := range zigZagOrder {
		seen[index] = true
	}
	assert.Len(t, seen, blockSize, "zig-zag order isn't a permutation")
}

func TestZigZagRoundTrip(t *testing.T) {
	source := newPlane(8, 8)
	for i := range source.values {
		source.values[i] = int32(i * 3)
	}

	sequence := zigZag(source, 0, 0, nil)
	require.Len(t, sequence, blockSize)
	assert.EqualValues(t, 8*3, sequence[2])

	target := newPlane(8, 8)
	unZigZag(sequence, target, 0, 0)
	assert.Equal(t, source.values, target.values)
}

func TestMidGrayBlockIsDCOnly(t *testing.T) {
	y, u, v := rgbToCenteredYUV(128, 128, 128)
	assert.EqualValues(t, -2, y)
	assert.EqualValues(t, 0, u)
	assert.EqualValues(t, 0, v)

	source := newPlane(8, 8)
	for i := range source.values {
		source.values[i] = y
	}

	coefficients := newPlane(8, 8)
	forwardBlock(source, coefficients, 0, 0)
	assert.EqualValues(t, -1, coefficients.at(0, 0))
	for i, value := range coefficients.values[1:] {
		assert.EqualValuesf(t, 0, value, "AC coefficient %d isn't zero", i+1)
	}

	pixels := newPlane(8, 8)
	inverseBlock(coefficients, pixels, 0, 0)
	for i, value := range pixels.values {
		assert.EqualValuesf(t, 126, value, "pixel %d", i)
	}

	r, g, b := yuvToRGB(126, 128, 128)
	assert.Equal(t, []byte{128, 128, 128}, []byte{r, g, b})
}

func TestYUVToRGBClamps(t *testing.T) {
	r, g, b := yuvToRGB(255, 255, 255)
	assert.EqualValues(t, 255, r)
	assert.EqualValues(t, 255, b)
	assert.Less(t, g, byte(255))

	r, _, b = yuvToRGB(0, 0, 0)
	assert.EqualValues(t, 0, r)
	assert.EqualValues(t, 0, b)
}

func TestRunLengthEncode(t *testing.T) {
	dcOnly := make([]int32, blockSize)
	dcOnly[0] = 5

	lastOnly := make([]int32, blockSize)
	lastOnly[63] = 7

	dense := make([]int32, blockSize)
	for i := range dense {
		dense[i] = int32(i + 1)
	}

	tests := []struct {
		name     string
		input    []int32
		expected []pair
	}{
		{
			"all zero",
			make([]int32, blockSize),
			[]pair{{15, 0}, {15, 0}, {15, 0}, endOfBlock},
		},
		{
			"dc only",
			dcOnly,
			[]pair{{0, 5}, {15, 0}, {15, 0}, {15, 0}, endOfBlock},
		},
		{
			"last coefficient set",
			lastOnly,
			[]pair{{15, 0}, {15, 0}, {15, 0}, {15, 7}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pairs := runLengthEncode(test.input, nil)
			assert.Equal(t, test.expected, pairs)

			var decoder blockDecoder
			for _, p := range pairs {
				require.False(t, decoder.done, "block finished before all pairs were used")
				require.NoError(t, decoder.push(p))
			}
			assert.True(t, decoder.done)
			assert.Equal(t, test.input, decoder.coefficients[:])
		})
	}

	t.Run("no zeroes", func(t *testing.T) {
		pairs := runLengthEncode(dense, nil)
		require.Len(t, pairs, blockSize)
		for i, p := range pairs {
			assert.Equal(t, pair{0, int32(i + 1)}, p)
		}
	})
}

func TestBlockDecoderRejectsOverrun(t *testing.T) {
	var decoder blockDecoder
	require.NoError(t, decoder.push(pair{0, 1}))
	assert.Error(t, decoder.push(pair{63, 1}))

	decoder.reset()
	assert.Error(t, decoder.push(pair{-1, 1}))
}

func TestHuffmanSingleSymbol(t *testing.T) {
	entries := buildDictionary(map[pair]int{{0, 4}: 10})
	assert.Equal(t, []dictionaryEntry{{symbol: pair{0, 4}, code: "0"}}, entries)
	assert.Empty(t, buildDictionary(map[pair]int{}))
}

func TestHuffmanFrequentSymbolsGetShortCodes(t *testing.T) {
	frequencies := map[pair]int{
		{0, 1}:  50,
		{0, 2}:  20,
		{1, 3}:  20,
		{2, -1}: 5,
		{15, 0}: 5,
	}
	entries := buildDictionary(frequencies)
	require.Len(t, entries, len(frequencies))

	codes := make(map[pair]string)
	for _, entry := range entries {
		codes[entry.symbol] = entry.code
	}
	assert.Len(t, codes[pair{0, 1}], 1)
	assert.LessOrEqual(t, len(codes[pair{0, 2}]), len(codes[pair{2, -1}]))

	for i, a := range entries {
		for j, b := range entries {
			if i != j {
				assert.Falsef(
					t,
					len(a.code) <= len(b.code) && b.code[:len(a.code)] == a.code,
					"code %q is a prefix of %q",
					a.code,
					b.code)
			}
		}
	}

	// Map iteration order must not affect the result.
	assert.Equal(t, entries, buildDictionary(frequencies))
}

func TestHuffmanBitstreamRoundTrip(t *testing.T) {
	message := []pair{{0, 1}, {0, 1}, {3, -7}, {0, 1}, {15, 0}, endOfBlock, {3, -7}}
	frequencies := make(map[pair]int)
	for _, symbol := range message {
		frequencies[symbol]++
	}
	entries := buildDictionary(frequencies)

	codes := make(map[pair]string)
	for _, entry := range entries {
		codes[entry.symbol] = entry.code
	}

	var stream bytes.Buffer
	writer := bitio.NewWriter(&stream)
	totalBits := 0
	for _, symbol := range message {
		require.NoError(t, writeCode(writer, codes[symbol]))
		totalBits += len(codes[symbol])
	}
	require.NoError(t, writer.Close())
	assert.Equal(t, (totalBits+7)/8, stream.Len())

	tree, err := newDecodingTree(entries)
	require.NoError(t, err)

	reader := bitio.NewReader(bytes.NewReader(stream.Bytes()))
	bitsRead := 0
	for i, expected := range message {
		symbol, err := tree.decode(reader, &bitsRead)
		require.NoErrorf(t, err, "symbol %d", i)
		assert.Equalf(t, expected, symbol, "symbol %d", i)
	}
	assert.Equal(t, totalBits, bitsRead)
}

func TestDecodingTreeRejectsBadDictionaries(t *testing.T) {
	tests := []struct {
		name    string
		entries []dictionaryEntry
	}{
		{"empty code", []dictionaryEntry{{pair{0, 1}, ""}}},
		{"duplicate code", []dictionaryEntry{{pair{0, 1}, "10"}, {pair{0, 2}, "10"}}},
		{"prefix first", []dictionaryEntry{{pair{0, 1}, "1"}, {pair{0, 2}, "10"}}},
		{"prefix last", []dictionaryEntry{{pair{0, 1}, "10"}, {pair{0, 2}, "1"}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := newDecodingTree(test.entries)
			assert.Error(t, err)
		})
	}
}
