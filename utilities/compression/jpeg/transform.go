package jpeg

import "math"

const (
	blockSide = 8
	blockSize = blockSide * blockSide
	// dctScale is 1/sqrt(2N) for N = 8.
	dctScale = float32(0.25)
)

var quantizationTable = [blockSide][blockSide]int32{
	{16, 11, 10, 16, 24, 40, 51, 61},
	{12, 12, 14, 19, 26, 58, 60, 55},
	{14, 13, 16, 24, 40, 57, 69, 56},
	{14, 17, 22, 29, 51, 87, 80, 62},
	{18, 22, 37, 56, 68, 109, 103, 77},
	{24, 35, 55, 64, 81, 104, 113, 92},
	{49, 64, 78, 87, 103, 121, 120, 101},
	{72, 92, 95, 98, 112, 100, 103, 99},
}

// cosineTable[x][f] is cos((2x + 1) * f * pi / 16).
var cosineTable [blockSide][blockSide]float32

// normalizationTable[u][v] is C(u) * C(v), where C(0) = 1/sqrt(2) and C(k) = 1
// otherwise.
var normalizationTable [blockSide][blockSide]float32

// zigZagOrder[k] is the index (row * 8 + column) within a block of the k-th
// coefficient in zig-zag order.
var zigZagOrder [blockSize]int

func init() {
	for x := 0; x < blockSide; x++ {
		for f := 0; f < blockSide; f++ {
			cosineTable[x][f] = float32(math.Cos(float64((2*x+1)*f) * math.Pi / 16))
		}
	}

	invSqrt2 := 1 / float32(math.Sqrt2)
	for u := 0; u < blockSide; u++ {
		for v := 0; v < blockSide; v++ {
			cu, cv := float32(1), float32(1)
			if u == 0 {
				cu = invSqrt2
			}
			if v == 0 {
				cv = invSqrt2
			}
			normalizationTable[u][v] = cu * cv
		}
	}

	k := 0
	for diagonal := 0; diagonal < 2*blockSide-1; diagonal++ {
		low := max(0, diagonal-(blockSide-1))
		high := min(diagonal, blockSide-1)
		if diagonal%2 == 0 {
			// Even diagonals run from bottom-left to top-right.
			for row := high; row >= low; row-- {
				zigZagOrder[k] = row*blockSide + (diagonal - row)
				k++
			}
		} else {
			for row := low; row <= high; row++ {
				zigZagOrder[k] = row*blockSide + (diagonal - row)
				k++
			}
		}
	}
}

// plane is one channel of a padded image, stored row-major.
type plane struct {
	width  int
	height int
	values []int32
}

func newPlane(width, height int) plane {
	return plane{width: width, height: height, values: make([]int32, width*height)}
}

func (p plane) at(row, column int) int32 {
	return p.values[row*p.width+column]
}

func (p plane) set(row, column int, value int32) {
	p.values[row*p.width+column] = value
}

func (p plane) blockCount() int {
	return (p.width / blockSide) * (p.height / blockSide)
}

// blockOrigin returns the top-left pixel of block number `index`, counting
// blocks left to right and then top to bottom.
func (p plane) blockOrigin(index int) (int, int) {
	blocksPerRow := p.width / blockSide
	return (index / blocksPerRow) * blockSide, (index % blocksPerRow) * blockSide
}

// roundHalfAway rounds to the nearest integer, with halves going away from
// zero.
func roundHalfAway(value float64) int32 {
	return int32(math.Round(value))
}

// rgbToCenteredYUV converts one pixel and subtracts 128 from each channel.
func rgbToCenteredYUV(r, g, b byte) (int32, int32, int32) {
	rf, gf, bf := float32(r), float32(g), float32(b)
	y := float32(0.257)*rf + float32(0.504)*gf + float32(0.098)*bf + 16
	u := float32(-0.148)*rf - float32(0.291)*gf + float32(0.439)*bf + 128
	v := float32(0.439)*rf - float32(0.368)*gf - float32(0.071)*bf + 128
	return roundHalfAway(float64(y)) - 128,
		roundHalfAway(float64(u)) - 128,
		roundHalfAway(float64(v)) - 128
}

// yuvToRGB inverts the colour transform. Its inputs are not centered. Results
// are truncated toward zero and clamped to a byte.
func yuvToRGB(y, u, v int32) (byte, byte, byte) {
	yf := 1.164 * (float64(y) - 16)
	uf := float64(u) - 128
	vf := float64(v) - 128

	r := int32(yf + 1.596*vf)
	g := int32(yf - 0.813*vf - 0.391*uf)
	b := int32(yf + 2.018*uf)
	return clampByte(r), clampByte(g), clampByte(b)
}

func clampByte(value int32) byte {
	if value < 0 {
		return 0
	} else if value > 255 {
		return 255
	}
	return byte(value)
}

// forwardBlock applies the DCT to the block at (top, left) of `source` and
// writes the quantized coefficients to the same place in `target`.
func forwardBlock(source, target plane, top, left int) {
	for u := 0; u < blockSide; u++ {
		for v := 0; v < blockSide; v++ {
			var sum float32
			for i := 0; i < blockSide; i++ {
				for j := 0; j < blockSide; j++ {
					pixel := float32(source.at(top+i, left+j))
					sum += float32(cosineTable[i][u] * cosineTable[j][v] * pixel)
				}
			}
			scaled := roundHalfAway(float64(float32(dctScale * normalizationTable[u][v] * sum)))
			quantized := float64(scaled) / float64(quantizationTable[u][v])
			target.set(top+u, left+v, roundHalfAway(quantized))
		}
	}
}

// inverseBlock dequantizes the block at (top, left) of `source`, applies the
// inverse DCT and writes the pixels, no longer centered, to `target`.
func inverseBlock(source, target plane, top, left int) {
	var dequantized [blockSide][blockSide]float32
	for i := 0; i < blockSide; i++ {
		for j := 0; j < blockSide; j++ {
			dequantized[i][j] = float32(source.at(top+i, left+j) * quantizationTable[i][j])
		}
	}

	for x := 0; x < blockSide; x++ {
		for y := 0; y < blockSide; y++ {
			var sum float32
			for i := 0; i < blockSide; i++ {
				for j := 0; j < blockSide; j++ {
					sum += float32(
						cosineTable[x][i] * cosineTable[y][j] * dequantized[i][j] * normalizationTable[i][j])
				}
			}
			target.set(top+x, left+y, roundHalfAway(float64(float32(dctScale*sum)))+128)
		}
	}
}

// zigZag appends the coefficients of the block at (top, left) to `sequence`
// in zig-zag order.
func zigZag(source plane, top, left int, sequence []int32) []int32 {
	for _, index := range zigZagOrder {
		sequence = append(sequence, source.at(top+index/blockSide, left+index%blockSide))
	}
	return sequence
}

// unZigZag places 64 coefficients given in zig-zag order into the block at
// (top, left).
func unZigZag(coefficients []int32, target plane, top, left int) {
	for k, index := range zigZagOrder {
		target.set(top+index/blockSide, left+index%blockSide, coefficients[k])
	}
}
