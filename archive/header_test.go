package archive_test

import (
	"math"
	"testing"

	"github.com/dargueta/compactor"
	"github.com/dargueta/compactor/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHeaderLayout(t *testing.T) {
	header := archive.NewFileHeader(3, "a.txt", 10, "LZSS")
	encoded, err := header.Encode()
	require.NoError(t, err)

	expected := []byte{
		0x00,
		0, 0, 0, 3,
		'a', '.', 't', 'x', 't', 0,
		0, 0, 0, 10,
		'L', 'Z', 'S', 'S', 0,
	}
	assert.Equal(t, expected, encoded)
	assert.Equal(t, len(expected), header.EncodedSize())
	assert.Equal(t, "HEADER |FILE|3|a.txt|10|LZSS|", header.String())
}

func TestFolderHeaderLayout(t *testing.T) {
	header := archive.NewFolderHeader(300, "docs")
	encoded, err := header.Encode()
	require.NoError(t, err)

	expected := []byte{0xFF, 0, 0, 1, 0x2C, 'd', 'o', 'c', 's', 0}
	assert.Equal(t, expected, encoded)
	assert.Equal(t, len(expected), header.EncodedSize())
	assert.True(t, header.IsFolder())
	assert.Equal(t, "HEADER |FOLDER|300|docs|", header.String())
}

func TestHeaderDecodeAtOffset(t *testing.T) {
	headers := []archive.Header{
		archive.NewFileHeader(0, "empty.txt", 0, "LZW"),
		archive.NewFileHeader(math.MaxInt32, "big.ppm", math.MaxInt32, "JPEG"),
		archive.NewFolderHeader(0, "x"),
		archive.NewFolderHeader(12345, "nested folder"),
	}

	for _, header := range headers {
		t.Run(header.String(), func(t *testing.T) {
			encoded, err := header.Encode()
			require.NoError(t, err)

			data := append([]byte{0xAA, 0xBB, 0xCC}, encoded...)
			data = append(data, "trailing payload"...)

			decoded, err := archive.Decode(data, 3)
			require.NoError(t, err)
			assert.Equal(t, header, decoded)
		})
	}
}

func TestHeaderNamesAreLatin1(t *testing.T) {
	header := archive.NewFolderHeader(0, "café")
	encoded, err := header.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0, 0, 0, 0, 'c', 'a', 'f', 0xE9, 0}, encoded)

	decoded, err := archive.Probe(encoded)
	require.NoError(t, err)
	assert.Equal(t, "café", decoded.Name)

	encoded, err = archive.NewFolderHeader(0, "日本").Encode()
	require.NoError(t, err)
	decoded, err = archive.Probe(encoded)
	require.NoError(t, err)
	assert.Equal(t, "??", decoded.Name)
}

func TestEncodeRejectsInvalidHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header archive.Header
	}{
		{"empty name", archive.NewFolderHeader(0, "")},
		{"NUL in name", archive.NewFolderHeader(0, "a\x00b")},
		{"NUL in codec", archive.NewFileHeader(0, "a", 0, "LZ\x00W")},
		{"negative size", archive.NewFolderHeader(-1, "a")},
		{"size too big", archive.NewFolderHeader(math.MaxInt32+1, "a")},
		{"negative original size", archive.NewFileHeader(0, "a", -5, "LZW")},
		{"unknown type", archive.Header{Type: 0x7F, Name: "a"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.header.Encode()
			assert.ErrorIs(t, err, compactor.ErrHeaderInvalid)
		})
	}
}

func TestDecodeRejectsInvalidHeaders(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"too short", []byte{0xFF, 0, 0, 0, 0}},
		{"name not terminated", []byte{0xFF, 0, 0, 0, 0, 'a', 'b'}},
		{"negative size", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 'a', 0}},
		{"empty name", []byte{0xFF, 0, 0, 0, 0, 0, 'a', 0}},
		{"unknown type", []byte{0x01, 0, 0, 0, 0, 'a', 0}},
		{"file trailer missing", []byte{0x00, 0, 0, 0, 0, 'a', 0}},
		{"file trailer truncated", []byte{0x00, 0, 0, 0, 0, 'a', 0, 0, 0, 0, 1}},
		{"codec not terminated", []byte{0x00, 0, 0, 0, 0, 'a', 0, 0, 0, 0, 1, 'L', 'Z'}},
		{
			"negative original size",
			[]byte{0x00, 0, 0, 0, 0, 'a', 0, 0x80, 0, 0, 0, 'L', 'Z', 'W', 0},
		},
		{"placeholder", archive.DummyFolderHeader("some folder")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := archive.Probe(test.data)
			assert.ErrorIs(t, err, compactor.ErrHeaderInvalid)
		})
	}
}

func TestDummyHeaderMatchesRealLength(t *testing.T) {
	for _, name := range []string{"a", "folder", "café"} {
		placeholder := archive.DummyFolderHeader(name)
		assert.Len(t, placeholder, archive.NewFolderHeader(0, name).EncodedSize(), name)
		assert.Equal(t, make([]byte, len(placeholder)), placeholder, name)
	}
}
