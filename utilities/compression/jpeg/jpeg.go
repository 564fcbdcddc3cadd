package jpeg

import (
	"bytes"
	"fmt"

	"github.com/dargueta/compactor/bytebuffer"
	"github.com/icza/bitio"
)

const channelCount = 3

// Transformer compresses PPM images. It satisfies the transformer interface
// expected by the compression package.
type Transformer struct{}

// containerHeader holds the fields of the text header at the start of a
// compressed image.
type containerHeader struct {
	width           int
	height          int
	maxValue        int
	paddingRows     int
	paddingColumns  int
	dictionarySizes [channelCount]int
}

func (header containerHeader) encode() string {
	return fmt.Sprintf(
		"%s\n%d\n%d\n%d\n%d\n%d\n%d\n%d\n%d\n",
		ppmMagic,
		header.width,
		header.height,
		header.maxValue,
		header.paddingRows,
		header.paddingColumns,
		header.dictionarySizes[0],
		header.dictionarySizes[1],
		header.dictionarySizes[2],
	)
}

func (Transformer) Compress(input []byte) ([]byte, error) {
	img, err := ParsePPM(input)
	if err != nil {
		return nil, err
	}

	header := containerHeader{
		maxValue:       img.MaxValue,
		paddingRows:    (blockSide - img.Height%blockSide) % blockSide,
		paddingColumns: (blockSide - img.Width%blockSide) % blockSide,
	}
	header.width = img.Width + header.paddingColumns
	header.height = img.Height + header.paddingRows

	// Padding pixels are left at 0, the centered value of a neutral pixel.
	var yuv [channelCount]plane
	for c := range yuv {
		yuv[c] = newPlane(header.width, header.height)
	}
	for row := 0; row < img.Height; row++ {
		for column := 0; column < img.Width; column++ {
			offset := (row*img.Width + column) * 3
			y, u, v := rgbToCenteredYUV(img.Pixels[offset], img.Pixels[offset+1], img.Pixels[offset+2])
			yuv[0].set(row, column, y)
			yuv[1].set(row, column, u)
			yuv[2].set(row, column, v)
		}
	}

	var dictionaries [channelCount][]dictionaryEntry
	var streams [channelCount][]pair
	for c := range yuv {
		streams[c] = encodeChannel(yuv[c])

		frequencies := make(map[pair]int)
		for _, symbol := range streams[c] {
			frequencies[symbol]++
		}
		dictionaries[c] = buildDictionary(frequencies)

		for _, entry := range dictionaries[c] {
			header.dictionarySizes[c] += dictionaryRecordSize(entry)
		}
	}

	output := bytebuffer.New()
	output.Write([]byte(header.encode()))
	for c := range dictionaries {
		if err := writeDictionary(output, dictionaries[c]); err != nil {
			return nil, err
		}
	}
	for c := range streams {
		if err := writeBitstream(output, dictionaries[c], streams[c]); err != nil {
			return nil, err
		}
	}
	return output.Bytes(), nil
}

// encodeChannel transforms, quantizes and run-length encodes every block of a
// centered channel.
func encodeChannel(channel plane) []pair {
	coefficients := newPlane(channel.width, channel.height)
	var pairs []pair
	sequence := make([]int32, 0, blockSize)

	for block := 0; block < channel.blockCount(); block++ {
		top, left := channel.blockOrigin(block)
		forwardBlock(channel, coefficients, top, left)
		sequence = zigZag(coefficients, top, left, sequence[:0])
		pairs = runLengthEncode(sequence, pairs)
	}
	return pairs
}

func dictionaryRecordSize(entry dictionaryEntry) int {
	// run, 2-byte value, space, code, space
	return 1 + 2 + 1 + len(entry.code) + 1
}

func writeDictionary(output *bytebuffer.ByteBuffer, entries []dictionaryEntry) error {
	for _, entry := range entries {
		if entry.symbol.value < -32768 || entry.symbol.value > 32767 {
			return fmt.Errorf("coefficient %d doesn't fit in 16 bits", entry.symbol.value)
		}
		output.Put(byte(entry.symbol.run))
		output.PutShort(int16(entry.symbol.value))
		output.Put(' ')
		output.Write([]byte(entry.code))
		output.Put(' ')
	}
	return nil
}

func writeBitstream(output *bytebuffer.ByteBuffer, entries []dictionaryEntry, symbols []pair) error {
	codes := make(map[pair]string, len(entries))
	for _, entry := range entries {
		codes[entry.symbol] = entry.code
	}

	writer := bitio.NewWriter(output)
	for _, symbol := range symbols {
		if err := writeCode(writer, codes[symbol]); err != nil {
			return err
		}
	}
	// Pads the final byte with zero bits.
	return writer.Close()
}

////////////////////////////////////////////////////////////////////////////////

func (Transformer) Decompress(input []byte, originalSize int) ([]byte, error) {
	in := bytebuffer.NewFrom(input)
	header, err := readContainerHeader(input, in)
	if err != nil {
		return nil, err
	}

	var trees [channelCount]*decodingTree
	for c := range trees {
		entries, err := readDictionary(in, header.dictionarySizes[c])
		if err != nil {
			return nil, fmt.Errorf("dictionary %d: %w", c, err)
		}
		if trees[c], err = newDecodingTree(entries); err != nil {
			return nil, fmt.Errorf("dictionary %d: %w", c, err)
		}
	}

	blocks := (header.width / blockSide) * (header.height / blockSide)
	// Every block needs at least one bit per channel.
	if blocks*channelCount > in.Remaining()*8 {
		return nil, fmt.Errorf(
			"%dx%d image can't fit in %d bytes", header.width, header.height, in.Remaining())
	}

	var yuv [channelCount]plane
	for c := range yuv {
		coefficients := newPlane(header.width, header.height)
		consumed, err := decodeChannel(input[in.Position():], trees[c], coefficients)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", c, err)
		}
		if err := in.SetPosition(in.Position() + consumed); err != nil {
			return nil, err
		}

		yuv[c] = newPlane(header.width, header.height)
		for block := 0; block < blocks; block++ {
			top, left := coefficients.blockOrigin(block)
			inverseBlock(coefficients, yuv[c], top, left)
		}
	}

	img := Image{
		Width:    header.width - header.paddingColumns,
		Height:   header.height - header.paddingRows,
		MaxValue: header.maxValue,
	}
	img.Pixels = make([]byte, 0, img.Width*img.Height*3)
	for row := 0; row < img.Height; row++ {
		for column := 0; column < img.Width; column++ {
			r, g, b := yuvToRGB(yuv[0].at(row, column), yuv[1].at(row, column), yuv[2].at(row, column))
			img.Pixels = append(img.Pixels, r, g, b)
		}
	}
	return img.EncodePPM(), nil
}

func readContainerHeader(input []byte, in *bytebuffer.ByteBuffer) (containerHeader, error) {
	magic := ppmMagic + "\n"
	if !bytes.HasPrefix(input, []byte(magic)) {
		return containerHeader{}, fmt.Errorf("compressed image doesn't start with %q", magic)
	}

	scanner := headerScanner{data: input, position: len(magic)}
	var fields [8]int
	for i := range fields {
		value, err := scanner.nextLine()
		if err != nil {
			return containerHeader{}, fmt.Errorf("bad header field %d: %w", i+1, err)
		}
		fields[i] = value
	}

	header := containerHeader{
		width:           fields[0],
		height:          fields[1],
		maxValue:        fields[2],
		paddingRows:     fields[3],
		paddingColumns:  fields[4],
		dictionarySizes: [channelCount]int{fields[5], fields[6], fields[7]},
	}
	switch {
	case header.width%blockSide != 0 || header.height%blockSide != 0:
		return containerHeader{}, fmt.Errorf(
			"dimensions %dx%d aren't multiples of %d", header.width, header.height, blockSide)
	case header.paddingRows >= blockSide || header.paddingColumns >= blockSide:
		return containerHeader{}, fmt.Errorf(
			"padding (%d, %d) must be less than %d",
			header.paddingRows,
			header.paddingColumns,
			blockSide)
	case header.paddingRows > header.height || header.paddingColumns > header.width:
		return containerHeader{}, fmt.Errorf("padding exceeds the image")
	case header.maxValue < 1 || header.maxValue > 255:
		return containerHeader{}, fmt.Errorf("unsupported max value %d", header.maxValue)
	}

	if err := in.SetPosition(scanner.position); err != nil {
		return containerHeader{}, err
	}
	return header, nil
}

func readDictionary(in *bytebuffer.ByteBuffer, size int) ([]dictionaryEntry, error) {
	end := in.Position() + size
	if size < 0 || end > in.Size() {
		return nil, fmt.Errorf("dictionary size %d exceeds the remaining %d bytes", size, in.Remaining())
	}

	var entries []dictionaryEntry
	for in.Position() < end {
		run, err := in.Get()
		if err != nil {
			return nil, err
		}
		value, err := in.GetShort()
		if err != nil {
			return nil, err
		}
		if err := expectByte(in, ' '); err != nil {
			return nil, err
		}

		var code []byte
		for {
			b, err := in.Get()
			if err != nil {
				return nil, err
			}
			if b == ' ' {
				break
			}
			if b != '0' && b != '1' {
				return nil, fmt.Errorf("invalid character %q in code", b)
			}
			code = append(code, b)
		}

		entries = append(entries, dictionaryEntry{
			symbol: pair{run: int32(run), value: int32(value)},
			code:   string(code),
		})
	}

	if in.Position() != end {
		return nil, fmt.Errorf("last record overruns the dictionary by %d bytes", in.Position()-end)
	}
	return entries, nil
}

func expectByte(in *bytebuffer.ByteBuffer, expected byte) error {
	b, err := in.Get()
	if err != nil {
		return err
	}
	if b != expected {
		return fmt.Errorf("expected %q at offset %d, got %q", expected, in.Position()-1, b)
	}
	return nil
}

// decodeChannel walks one channel's bitstream, filling `coefficients` block by
// block. It returns the number of whole bytes the bitstream occupied.
func decodeChannel(stream []byte, tree *decodingTree, coefficients plane) (int, error) {
	reader := bitio.NewReader(bytes.NewReader(stream))
	bitsRead := 0
	var block blockDecoder

	for index := 0; index < coefficients.blockCount(); index++ {
		block.reset()
		for !block.done {
			symbol, err := tree.decode(reader, &bitsRead)
			if err != nil {
				return 0, fmt.Errorf("block %d: %w", index, err)
			}
			if err := block.push(symbol); err != nil {
				return 0, fmt.Errorf("block %d: %w", index, err)
			}
		}

		top, left := coefficients.blockOrigin(index)
		unZigZag(block.coefficients[:], coefficients, top, left)
	}
	return (bitsRead + 7) / 8, nil
}
