package jpeg

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/noxer/bytewriter"
)

// Image is a decoded binary PPM image. Pixels holds Width*Height RGB triples
// in row-major order.
type Image struct {
	Width    int
	Height   int
	MaxValue int
	Pixels   []byte
}

const ppmMagic = "P6"

// ParsePPM decodes a binary ("P6") PPM image with at most 8 bits per sample.
// Comments in the header are skipped. Bytes after the pixel data are ignored.
func ParsePPM(data []byte) (Image, error) {
	if len(data) < len(ppmMagic) || string(data[:len(ppmMagic)]) != ppmMagic {
		return Image{}, errors.New("not a binary PPM image: bad magic number")
	}

	scanner := headerScanner{data: data, position: len(ppmMagic)}
	fields := [3]int{}
	for i, name := range []string{"width", "height", "max value"} {
		value, err := scanner.nextInt()
		if err != nil {
			return Image{}, fmt.Errorf("can't read %s: %w", name, err)
		}
		fields[i] = value
	}

	img := Image{Width: fields[0], Height: fields[1], MaxValue: fields[2]}
	if img.MaxValue < 1 || img.MaxValue > 255 {
		return Image{}, fmt.Errorf("unsupported max value %d, must be in [1, 255]", img.MaxValue)
	}

	// Exactly one whitespace byte separates the header from the pixels.
	if scanner.position >= len(data) || !isSpace(data[scanner.position]) {
		return Image{}, errors.New("missing whitespace after PPM header")
	}
	pixelStart := scanner.position + 1

	pixelBytes := img.Width * img.Height * 3
	if len(data)-pixelStart < pixelBytes {
		return Image{}, fmt.Errorf(
			"truncated pixel data: need %d bytes, got %d", pixelBytes, len(data)-pixelStart)
	}
	img.Pixels = data[pixelStart : pixelStart+pixelBytes]
	return img, nil
}

// EncodePPM serializes the image as a binary PPM.
func (img Image) EncodePPM() []byte {
	header := fmt.Sprintf("%s\n%d %d\n%d\n", ppmMagic, img.Width, img.Height, img.MaxValue)
	output := make([]byte, len(header)+len(img.Pixels))

	writer := bytewriter.New(output)
	writer.Write([]byte(header))
	writer.Write(img.Pixels)
	return output
}

////////////////////////////////////////////////////////////////////////////////

// headerScanner reads whitespace-separated ASCII integers from a text header,
// skipping `#` comments.
type headerScanner struct {
	data     []byte
	position int
}

func (scanner *headerScanner) skipSpaceAndComments() {
	for scanner.position < len(scanner.data) {
		b := scanner.data[scanner.position]
		if b == '#' {
			for scanner.position < len(scanner.data) && scanner.data[scanner.position] != '\n' {
				scanner.position++
			}
		} else if isSpace(b) {
			scanner.position++
		} else {
			return
		}
	}
}

func (scanner *headerScanner) nextInt() (int, error) {
	scanner.skipSpaceAndComments()
	start := scanner.position
	for scanner.position < len(scanner.data) && isDigit(scanner.data[scanner.position]) {
		scanner.position++
	}
	if start == scanner.position {
		return 0, errors.New("expected a decimal number")
	}
	return strconv.Atoi(string(scanner.data[start:scanner.position]))
}

// nextLine reads a decimal integer terminated by exactly one newline.
func (scanner *headerScanner) nextLine() (int, error) {
	start := scanner.position
	for scanner.position < len(scanner.data) && isDigit(scanner.data[scanner.position]) {
		scanner.position++
	}
	if start == scanner.position {
		return 0, fmt.Errorf("expected a decimal number at offset %d", start)
	}
	value, err := strconv.Atoi(string(scanner.data[start:scanner.position]))
	if err != nil {
		return 0, err
	}
	if scanner.position >= len(scanner.data) || scanner.data[scanner.position] != '\n' {
		return 0, fmt.Errorf("expected a newline at offset %d", scanner.position)
	}
	scanner.position++
	return value, nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
