package testing

import (
	"math/rand"
	"testing"

	"github.com/dargueta/compactor/utilities/compression/jpeg"
	"github.com/stretchr/testify/require"
)

// RandomBytes returns `size` pseudorandom bytes. The same seed always produces
// the same data, so failures can be reproduced.
func RandomBytes(t *testing.T, seed int64, size int) []byte {
	data := make([]byte, size)
	_, err := rand.New(rand.NewSource(seed)).Read(data)
	require.NoErrorf(t, err, "failed to generate %d random bytes", size)
	return data
}

// PixelFunc returns the RGB value of the pixel at the given coordinates.
type PixelFunc func(row, column int) (r, g, b byte)

// SolidColor returns a [PixelFunc] painting every pixel the same colour.
func SolidColor(r, g, b byte) PixelFunc {
	return func(int, int) (byte, byte, byte) {
		return r, g, b
	}
}

// Gradient returns a [PixelFunc] that brightens smoothly toward the bottom
// right corner of a `width` x `height` image.
func Gradient(width, height int) PixelFunc {
	return func(row, column int) (byte, byte, byte) {
		r := byte(255 * column / max(width, 1))
		g := byte(255 * row / max(height, 1))
		b := byte(255 * (row + column) / max(width+height, 1))
		return r, g, b
	}
}

// MakeImage renders an 8-bit image using `pixel`.
func MakeImage(width, height int, pixel PixelFunc) jpeg.Image {
	img := jpeg.Image{
		Width:    width,
		Height:   height,
		MaxValue: 255,
		Pixels:   make([]byte, 0, width*height*3),
	}
	for row := 0; row < height; row++ {
		for column := 0; column < width; column++ {
			r, g, b := pixel(row, column)
			img.Pixels = append(img.Pixels, r, g, b)
		}
	}
	return img
}

// MakePPM renders an 8-bit image using `pixel` and serializes it as a binary
// PPM file.
func MakePPM(width, height int, pixel PixelFunc) []byte {
	return MakeImage(width, height, pixel).EncodePPM()
}
