package jpeg_test

import (
	"testing"

	ct "github.com/dargueta/compactor/testing"
	"github.com/dargueta/compactor/utilities/compression/jpeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, input []byte) (jpeg.Image, []byte) {
	compressed, err := jpeg.Transformer{}.Compress(input)
	require.NoError(t, err, "compression failed")

	output, err := jpeg.Transformer{}.Decompress(compressed, len(input))
	require.NoError(t, err, "decompression failed")

	img, err := jpeg.ParsePPM(output)
	require.NoError(t, err, "decompressed data isn't a valid PPM")
	return img, compressed
}

func assertPixelsClose(t *testing.T, expected, actual jpeg.Image, tolerance int) {
	require.Equal(t, expected.Width, actual.Width, "width changed")
	require.Equal(t, expected.Height, actual.Height, "height changed")
	require.Len(t, actual.Pixels, len(expected.Pixels))

	for i := range expected.Pixels {
		difference := int(expected.Pixels[i]) - int(actual.Pixels[i])
		if difference < -tolerance || difference > tolerance {
			t.Fatalf(
				"sample %d of pixel %d: expected %d +/- %d, got %d",
				i%3,
				i/3,
				expected.Pixels[i],
				tolerance,
				actual.Pixels[i])
		}
	}
}

func TestMidGrayRoundTripIsExact(t *testing.T) {
	input := ct.MakePPM(8, 8, ct.SolidColor(128, 128, 128))
	img, _ := roundTrip(t, input)

	assert.Equal(t, input, img.EncodePPM())
}

func TestSolidColorRoundTrip(t *testing.T) {
	original := ct.MakeImage(16, 16, ct.SolidColor(200, 100, 50))
	img, compressed := roundTrip(t, original.EncodePPM())

	assert.Equal(t, 255, img.MaxValue)
	assertPixelsClose(t, original, img, 8)
	assert.Less(t, len(compressed), len(original.Pixels), "solid image didn't shrink")
}

func TestPaddedDimensionsArePreserved(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{"10x3", 10, 3},
		{"1x1", 1, 1},
		{"8x9", 8, 9},
		{"17x8", 17, 8},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			original := ct.MakeImage(test.width, test.height, ct.SolidColor(128, 128, 128))
			img, _ := roundTrip(t, original.EncodePPM())
			assertPixelsClose(t, original, img, 4)
		})
	}
}

func TestGradientRoundTripKeepsShape(t *testing.T) {
	original := ct.MakeImage(40, 24, ct.Gradient(40, 24))
	img, _ := roundTrip(t, original.EncodePPM())

	assert.Equal(t, original.Width, img.Width)
	assert.Equal(t, original.Height, img.Height)
	assert.Equal(t, original.MaxValue, img.MaxValue)
}

func TestMaxValueIsKept(t *testing.T) {
	original := ct.MakeImage(8, 8, ct.SolidColor(10, 10, 10))
	original.MaxValue = 15

	img, _ := roundTrip(t, original.EncodePPM())
	assert.Equal(t, 15, img.MaxValue)
}

func TestCompressRejectsNonPPM(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"text", "hello world"},
		{"ascii ppm", "P3\n1 1\n255\n0 0 0\n"},
		{"max value zero", "P6\n1 1\n0\n\x00\x00\x00"},
		{"max value too big", "P6\n1 1\n65535\n\x00\x00\x00\x00\x00\x00"},
		{"truncated pixels", "P6\n2 2\n255\n\x00\x00\x00"},
		{"missing dimension", "P6\n2\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := jpeg.Transformer{}.Compress([]byte(test.input))
			assert.Error(t, err)
		})
	}
}

func TestParsePPMSkipsComments(t *testing.T) {
	img, err := jpeg.ParsePPM([]byte("P6\n# made by hand\n2 1 # trailing\n255\n\x01\x02\x03\x04\x05\x06"))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 1, img.Height)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, img.Pixels)
}

func TestDecompressRejectsCorruptInput(t *testing.T) {
	compressed, err := jpeg.Transformer{}.Compress(ct.MakePPM(32, 32, ct.Gradient(32, 32)))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", []byte{}},
		{"wrong magic", []byte("P5\n8\n8\n255\n0\n0\n0\n0\n0\n")},
		{"width not a block multiple", []byte("P6\n9\n8\n255\n1\n0\n0\n0\n0\n")},
		{"padding too large", []byte("P6\n16\n8\n255\n0\n8\n0\n0\n0\n")},
		{"header missing fields", []byte("P6\n8\n8\n255\n")},
		{"dictionary past end", []byte("P6\n8\n8\n255\n0\n0\n500\n0\n0\n")},
		{"truncated", compressed[:len(compressed)/2]},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := jpeg.Transformer{}.Decompress(test.input, 0)
			assert.Error(t, err)
		})
	}
}
