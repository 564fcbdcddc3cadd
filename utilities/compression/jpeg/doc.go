// Package jpeg implements a lossy, JPEG-like codec for binary PPM images.
//
// Compression pads the image to a multiple of 8 pixels in each direction,
// converts it to YUV, and splits every channel into 8x8 blocks. Each block
// goes through a discrete cosine transform and is quantized with the standard
// JPEG luminance table. The coefficients are then read in zig-zag order and
// run-length encoded as `(zero run, value)` pairs, and each channel's pairs
// are Huffman coded with their own dictionary.
//
// The compressed form is a text header followed by the three dictionaries
// and then the three bitstreams:
//
//	P6\n<width>\n<height>\n<max>\n<pad rows>\n<pad columns>\n<dict Y>\n<dict U>\n<dict V>\n
//
// Width and height are the padded dimensions; the dictionary sizes are in
// bytes. A dictionary is a list of records, each made of the run (1 byte),
// the value (2 bytes, big-endian, signed), a space, the code as ASCII '0' and
// '1' characters, and another space. Bitstreams are packed most significant
// bit first and each one is padded to a whole byte.
//
// Within a block, a `(0, 0)` pair marks the end of the block. A block whose
// last coefficient is non-zero has no such marker; it ends when all 64
// coefficients have been accounted for.
package jpeg
