// Package bytebuffer implements a growable, position-tracked byte container
// that all codecs build on.
//
// A ByteBuffer keeps three quantities:
//
//   - the backing array, whose length is the capacity (always at least 4,
//     doubled whenever a write would overflow it);
//   - the limit, the number of valid bytes;
//   - the position, a cursor used by sequential reads and writes.
//
// The invariant `0 <= position <= limit <= capacity` holds after every call.
// Sequential accessors move the position; random accessors never do.
package bytebuffer

import (
	"fmt"

	"github.com/dargueta/compactor"
)

const minimumCapacity = 4

// MovingCursor can be passed to [Transfer] in place of a position to read from
// or write to the buffer's current position, advancing it afterwards.
const MovingCursor = -1

type ByteBuffer struct {
	data     []byte
	position int
	limit    int
}

// New creates an empty buffer with the minimum capacity.
func New() *ByteBuffer {
	return &ByteBuffer{data: make([]byte, minimumCapacity)}
}

// NewFrom creates a buffer backed by `data`. All of `data` is considered
// valid and the position starts at 0. The slice is not copied unless it's
// shorter than the minimum capacity.
func NewFrom(data []byte) *ByteBuffer {
	if len(data) == 0 {
		return New()
	}

	buffer := &ByteBuffer{data: data, limit: len(data)}
	for len(buffer.data) < minimumCapacity {
		buffer.doubleCapacity()
	}
	return buffer
}

// NewWithSize creates a buffer with `size` zeroed valid bytes. Codecs use it to
// preallocate their output when the final size is known up front; sequential
// writes then overwrite the zeroes.
func NewWithSize(size int) *ByteBuffer {
	return NewFrom(make([]byte, size))
}

// Size returns the number of valid bytes in the buffer.
func (buf *ByteBuffer) Size() int {
	return buf.limit
}

// Position returns the current cursor position.
func (buf *ByteBuffer) Position() int {
	return buf.position
}

// SetPosition moves the cursor. `pos` may point one past the last valid byte.
func (buf *ByteBuffer) SetPosition(pos int) error {
	if pos < 0 || pos > buf.limit {
		return outOfBounds("SetPosition", "pos %d not in [0, %d]", pos, buf.limit)
	}
	buf.position = pos
	return nil
}

// Remaining returns the number of valid bytes after the cursor.
func (buf *ByteBuffer) Remaining() int {
	return buf.limit - buf.position
}

// Get returns the byte at the cursor and advances it.
func (buf *ByteBuffer) Get() (byte, error) {
	if buf.position == buf.limit {
		return 0, outOfBounds("Get", "no bytes left to read")
	}
	b := buf.data[buf.position]
	buf.position++
	return b, nil
}

// GetAt returns the byte at `pos` without moving the cursor.
func (buf *ByteBuffer) GetAt(pos int) (byte, error) {
	if pos < 0 || pos >= buf.limit {
		return 0, outOfBounds("GetAt", "pos %d not in [0, %d)", pos, buf.limit)
	}
	return buf.data[pos], nil
}

// Put writes a byte at the cursor and advances it, growing the buffer if
// needed.
func (buf *ByteBuffer) Put(b byte) {
	buf.ensureCapacity(buf.position + 1)
	buf.data[buf.position] = b
	buf.position++
	if buf.position > buf.limit {
		buf.limit = buf.position
	}
}

// PutAt writes a byte at `pos` without moving the cursor. `pos` may point one
// past the last valid byte, in which case the buffer grows by one.
func (buf *ByteBuffer) PutAt(b byte, pos int) error {
	if pos < 0 || pos > buf.limit {
		return outOfBounds("PutAt", "pos %d not in [0, %d]", pos, buf.limit)
	}
	buf.ensureCapacity(pos + 1)
	buf.data[pos] = b
	if pos == buf.limit {
		buf.limit++
	}
	return nil
}

// Write implements [io.Writer] on top of [ByteBuffer.Put]. It never fails.
func (buf *ByteBuffer) Write(p []byte) (int, error) {
	buf.ensureCapacity(buf.position + len(p))
	copy(buf.data[buf.position:], p)
	buf.advanceWrite(len(p))
	return len(p), nil
}

// WriteByte implements [io.ByteWriter]. It never fails.
func (buf *ByteBuffer) WriteByte(b byte) error {
	buf.Put(b)
	return nil
}

// GetShort reads a big-endian 16-bit integer at the cursor and advances it by
// two bytes.
func (buf *ByteBuffer) GetShort() (int16, error) {
	if buf.position+2 > buf.limit {
		return 0, outOfBounds("GetShort", "insufficient bytes to read")
	}
	value := int16(uint16(buf.data[buf.position])<<8 | uint16(buf.data[buf.position+1]))
	buf.position += 2
	return value, nil
}

// PutShort writes a big-endian 16-bit integer at the cursor and advances it by
// two bytes.
func (buf *ByteBuffer) PutShort(value int16) {
	buf.ensureCapacity(buf.position + 2)
	buf.data[buf.position] = byte(uint16(value) >> 8)
	buf.data[buf.position+1] = byte(value)
	buf.advanceWrite(2)
}

// GetInt reads a big-endian 32-bit integer at the cursor and advances it by
// four bytes.
func (buf *ByteBuffer) GetInt() (int32, error) {
	value, err := buf.GetIntAt(buf.position)
	if err != nil {
		return 0, outOfBounds("GetInt", "insufficient bytes to read")
	}
	buf.position += 4
	return value, nil
}

// GetIntAt reads a big-endian 32-bit integer at `pos` without moving the
// cursor.
func (buf *ByteBuffer) GetIntAt(pos int) (int32, error) {
	if pos < 0 || pos+4 > buf.limit {
		return 0, outOfBounds("GetIntAt", "can't read 4 bytes at %d, limit is %d", pos, buf.limit)
	}
	d := buf.data[pos : pos+4]
	return int32(uint32(d[0])<<24 | uint32(d[1])<<16 | uint32(d[2])<<8 | uint32(d[3])), nil
}

// PutInt writes a big-endian 32-bit integer at the cursor and advances it by
// four bytes.
func (buf *ByteBuffer) PutInt(value int32) {
	buf.ensureCapacity(buf.position + 4)
	putInt32(buf.data[buf.position:], value)
	buf.advanceWrite(4)
}

// PutIntAt writes a big-endian 32-bit integer at `pos` without moving the
// cursor. Either all four bytes are written or none are.
func (buf *ByteBuffer) PutIntAt(value int32, pos int) error {
	if pos < 0 || pos > buf.limit {
		return outOfBounds("PutIntAt", "pos %d not in [0, %d]", pos, buf.limit)
	}
	buf.ensureCapacity(pos + 4)
	putInt32(buf.data[pos:], value)
	if pos+4 > buf.limit {
		buf.limit = pos + 4
	}
	return nil
}

// Bytes returns exactly the valid bytes of the buffer. The backing array is
// returned as-is when it holds no spare capacity; otherwise a trimmed copy is
// made.
func (buf *ByteBuffer) Bytes() []byte {
	if buf.limit == len(buf.data) {
		return buf.data
	}
	result := make([]byte, buf.limit)
	copy(result, buf.data[:buf.limit])
	return result
}

// Transfer copies `length` bytes from `src` to `dst`. Either position can be
// [MovingCursor], meaning the respective buffer's cursor is used and then
// advanced by `length`.
//
// `src` and `dst` may be the same buffer. When the destination range starts
// inside the source range the copy proceeds one byte at a time, so bytes
// written early in the transfer are read again later in it. This is what lets
// a back-reference shorter than its length expand into a repeated run.
func Transfer(src *ByteBuffer, srcPos int, dst *ByteBuffer, dstPos int, length int) error {
	moveSrc := srcPos == MovingCursor
	moveDst := dstPos == MovingCursor
	if moveSrc {
		srcPos = src.position
	}
	if moveDst {
		dstPos = dst.position
	}

	if length < 0 {
		return outOfBounds("Transfer", "negative length %d", length)
	}
	if length == 0 {
		return nil
	}
	if srcPos < 0 || srcPos >= src.limit {
		return outOfBounds("Transfer", "source pos %d not in [0, %d)", srcPos, src.limit)
	}
	if dstPos < 0 || dstPos > dst.limit {
		return outOfBounds("Transfer", "destination pos %d not in [0, %d]", dstPos, dst.limit)
	}
	if srcPos+length > src.limit {
		return outOfBounds(
			"Transfer",
			"insufficient bytes to read: %d from %d, limit is %d",
			length,
			srcPos,
			src.limit,
		)
	}

	dst.ensureCapacity(dstPos + length)
	if dstPos+length > dst.limit {
		dst.limit = dstPos + length
	}

	if src == dst && srcPos < dstPos && dstPos < srcPos+length {
		for i := 0; i < length; i++ {
			dst.data[dstPos+i] = src.data[srcPos+i]
		}
	} else {
		copy(dst.data[dstPos:dstPos+length], src.data[srcPos:srcPos+length])
	}

	if moveSrc {
		src.position += length
	}
	if moveDst {
		dst.position += length
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////

func (buf *ByteBuffer) ensureCapacity(required int) {
	for required > len(buf.data) {
		buf.doubleCapacity()
	}
}

func (buf *ByteBuffer) doubleCapacity() {
	newCapacity := len(buf.data) * 2
	if newCapacity < minimumCapacity {
		newCapacity = minimumCapacity
	}
	newData := make([]byte, newCapacity)
	copy(newData, buf.data)
	buf.data = newData
}

func (buf *ByteBuffer) advanceWrite(n int) {
	buf.position += n
	if buf.position > buf.limit {
		buf.limit = buf.position
	}
}

func putInt32(target []byte, value int32) {
	u := uint32(value)
	target[0] = byte(u >> 24)
	target[1] = byte(u >> 16)
	target[2] = byte(u >> 8)
	target[3] = byte(u)
}

func outOfBounds(operation string, format string, args ...any) error {
	return compactor.ErrBufferBounds.WithMessage(
		fmt.Sprintf("%s(): %s", operation, fmt.Sprintf(format, args...)))
}
