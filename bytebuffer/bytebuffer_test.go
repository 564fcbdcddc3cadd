package bytebuffer_test

import (
	"testing"

	"github.com/dargueta/compactor"
	"github.com/dargueta/compactor/bytebuffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsEmpty(t *testing.T) {
	buf := bytebuffer.New()
	assert.Equal(t, 0, buf.Size())
	assert.Equal(t, 0, buf.Position())
	assert.Equal(t, 0, buf.Remaining())
	assert.Empty(t, buf.Bytes())

	_, err := buf.Get()
	assert.ErrorIs(t, err, compactor.ErrBufferBounds)
}

func TestNewFromSlice(t *testing.T) {
	buf := bytebuffer.NewFrom([]byte{1, 2, 3})
	assert.Equal(t, 3, buf.Size())
	assert.Equal(t, 0, buf.Position())
	assert.Equal(t, []byte{1, 2, 3}, buf.Bytes())
}

func TestPutGrowsPastInitialCapacity(t *testing.T) {
	buf := bytebuffer.New()
	for i := 0; i < 100; i++ {
		buf.Put(byte(i))
	}
	require.Equal(t, 100, buf.Size())
	require.Equal(t, 100, buf.Position())

	data := buf.Bytes()
	require.Len(t, data, 100)
	for i, b := range data {
		assert.EqualValues(t, i, b, "wrong byte at %d", i)
	}
}

func TestSetPosition(t *testing.T) {
	buf := bytebuffer.NewFrom([]byte{1, 2, 3})

	require.NoError(t, buf.SetPosition(3), "position at the limit must be allowed")
	assert.ErrorIs(t, buf.SetPosition(4), compactor.ErrBufferBounds)
	assert.ErrorIs(t, buf.SetPosition(-1), compactor.ErrBufferBounds)
	assert.Equal(t, 3, buf.Position(), "failed SetPosition moved the cursor")
}

func TestGetAtDoesNotMoveCursor(t *testing.T) {
	buf := bytebuffer.NewFrom([]byte{10, 20, 30})

	b, err := buf.GetAt(2)
	require.NoError(t, err)
	assert.EqualValues(t, 30, b)
	assert.Equal(t, 0, buf.Position())

	_, err = buf.GetAt(3)
	assert.ErrorIs(t, err, compactor.ErrBufferBounds)
}

func TestPutAtAppendsAtLimit(t *testing.T) {
	buf := bytebuffer.NewFrom([]byte{1, 2})

	require.NoError(t, buf.PutAt(9, 0))
	require.NoError(t, buf.PutAt(3, 2))
	assert.Equal(t, []byte{9, 2, 3}, buf.Bytes())
	assert.ErrorIs(t, buf.PutAt(0, 5), compactor.ErrBufferBounds)
}

func TestShortsAreBigEndian(t *testing.T) {
	buf := bytebuffer.New()
	buf.PutShort(0x1234)
	buf.PutShort(-1)
	assert.Equal(t, []byte{0x12, 0x34, 0xff, 0xff}, buf.Bytes())

	require.NoError(t, buf.SetPosition(0))
	value, err := buf.GetShort()
	require.NoError(t, err)
	assert.EqualValues(t, 0x1234, value)

	value, err = buf.GetShort()
	require.NoError(t, err)
	assert.EqualValues(t, -1, value)
}

func TestIntsAreBigEndian(t *testing.T) {
	buf := bytebuffer.New()
	buf.PutInt(0x01020304)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf.Bytes())

	require.NoError(t, buf.SetPosition(0))
	value, err := buf.GetInt()
	require.NoError(t, err)
	assert.EqualValues(t, 0x01020304, value)
}

func TestPartialMultiByteReadIsAtomic(t *testing.T) {
	buf := bytebuffer.NewFrom([]byte{1, 2, 3})

	_, err := buf.GetInt()
	assert.ErrorIs(t, err, compactor.ErrBufferBounds)
	assert.Equal(t, 0, buf.Position(), "failed read moved the cursor")

	require.NoError(t, buf.SetPosition(2))
	_, err = buf.GetShort()
	assert.ErrorIs(t, err, compactor.ErrBufferBounds)
	assert.Equal(t, 2, buf.Position(), "failed read moved the cursor")
}

func TestPutIntAtOverwritesAndExtends(t *testing.T) {
	buf := bytebuffer.NewFrom([]byte{0, 0, 0, 0, 0, 0})

	require.NoError(t, buf.PutIntAt(-2, 1))
	assert.Equal(t, []byte{0, 0xff, 0xff, 0xff, 0xfe, 0}, buf.Bytes())

	require.NoError(t, buf.PutIntAt(7, 6))
	assert.Equal(t, 10, buf.Size())

	value, err := buf.GetIntAt(6)
	require.NoError(t, err)
	assert.EqualValues(t, 7, value)
}

func TestTransferBetweenBuffers(t *testing.T) {
	src := bytebuffer.NewFrom([]byte("abcdef"))
	dst := bytebuffer.New()

	require.NoError(t, bytebuffer.Transfer(src, 1, dst, bytebuffer.MovingCursor, 3))
	assert.Equal(t, []byte("bcd"), dst.Bytes())
	assert.Equal(t, 3, dst.Position())
	assert.Equal(t, 0, src.Position(), "explicit source position moved the cursor")

	require.NoError(t, bytebuffer.Transfer(src, bytebuffer.MovingCursor, dst, bytebuffer.MovingCursor, 2))
	assert.Equal(t, []byte("bcdab"), dst.Bytes())
	assert.Equal(t, 2, src.Position())
}

func TestTransferOverlappingRepeatsRun(t *testing.T) {
	// Preallocated the way decoders size their output.
	buf := bytebuffer.NewWithSize(9)
	buf.Put('x')
	buf.Put('y')

	// Copy 7 bytes starting 2 back from the cursor: "xy" repeats.
	require.NoError(t, bytebuffer.Transfer(buf, buf.Position()-2, buf, bytebuffer.MovingCursor, 7))
	assert.Equal(t, []byte("xyxyxyxyx"), buf.Bytes())
	assert.Equal(t, 9, buf.Position())
	assert.Equal(t, 9, buf.Size())
}

func TestTransferBounds(t *testing.T) {
	tests := []struct {
		name   string
		srcPos int
		dstPos int
		length int
	}{
		{"source past limit", 5, 0, 1},
		{"read past source limit", 3, 0, 4},
		{"destination past limit", 0, 3, 1},
		{"negative length", 0, 0, -1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			src := bytebuffer.NewFrom([]byte{1, 2, 3, 4, 5})
			dst := bytebuffer.NewFrom([]byte{9, 9})
			err := bytebuffer.Transfer(src, test.srcPos, dst, test.dstPos, test.length)
			assert.ErrorIs(t, err, compactor.ErrBufferBounds)
			assert.Equal(t, []byte{9, 9}, dst.Bytes(), "failed transfer modified destination")
		})
	}
}

func TestWriteOverwritesThenExtends(t *testing.T) {
	buf := bytebuffer.NewFrom([]byte("abcdef"))
	require.NoError(t, buf.SetPosition(4))

	n, err := buf.Write([]byte("XYZ"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("abcdXYZ"), buf.Bytes())
	assert.Equal(t, 7, buf.Position())

	require.NoError(t, buf.WriteByte('!'))
	assert.Equal(t, []byte("abcdXYZ!"), buf.Bytes())
}
