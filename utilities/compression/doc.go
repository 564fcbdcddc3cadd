// Package compression provides the codecs used to build archives.
//
// Every codec is a [Transformer] wrapped by [NewCodec], which times each call,
// converts any failure into [compactor.ErrCodecInternal] and folds the result
// into the codec's running statistics. Three codecs work on arbitrary bytes:
//
//   - [LZ78] builds a dictionary of every prefix seen so far and emits
//     `(prefix code, next byte)` records.
//   - [LZSS] replaces repeats within the last 4095 bytes with
//     `(offset, length)` pairs.
//   - [LZW] starts with every single byte in its dictionary and emits one code
//     per longest known sequence.
//
// The fourth, JPEG, is a lossy codec for PPM images and lives in the jpeg
// subpackage.
//
// Both dictionary codecs use 16-bit codes. When the code space runs out they
// emit [MaxCode] and start over with a fresh dictionary, so memory use stays
// bounded no matter how large the input is.
//
// A [Registry] holds one instance of each codec and knows which codecs suit a
// file based on its extension. That mapping is kept in an embedded table.
package compression
