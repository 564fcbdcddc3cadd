package archive

import (
	"fmt"
	"math"
	"strings"

	"github.com/dargueta/compactor"
	"github.com/dargueta/compactor/bytebuffer"
)

// EntryType is the first byte of every header.
type EntryType byte

const (
	TypeFile   = EntryType(0x00)
	TypeFolder = EntryType(0xFF)
)

func (t EntryType) String() string {
	switch t {
	case TypeFile:
		return "FILE"
	case TypeFolder:
		return "FOLDER"
	default:
		return fmt.Sprintf("EntryType(0x%02x)", byte(t))
	}
}

// minimumHeaderSize is the type byte, the size field, a one-character name
// and its terminator.
const minimumHeaderSize = 6

// fileTrailerMinimumSize is the original size field plus the codec name's
// terminator.
const fileTrailerMinimumSize = 5

// Header describes one entry of an archive. The binary layout, with all
// integers big-endian and all text in ISO-8859-1, is:
//
//	type (1) | size (4) | name | 0x00 | [originalSize (4) | codec | 0x00]
//
// The bracketed part is only present for files. Size is the number of bytes
// following the header that belong to the entry: the compressed payload of a
// file, or every encoded entry inside a folder.
type Header struct {
	Type         EntryType
	Size         int
	Name         string
	OriginalSize int
	Codec        string
}

func NewFileHeader(size int, name string, originalSize int, codec string) Header {
	return Header{
		Type:         TypeFile,
		Size:         size,
		Name:         name,
		OriginalSize: originalSize,
		Codec:        codec,
	}
}

func NewFolderHeader(size int, name string) Header {
	return Header{Type: TypeFolder, Size: size, Name: name}
}

// IsFolder returns true if the header describes a folder.
func (h Header) IsFolder() bool {
	return h.Type == TypeFolder
}

// EncodedSize returns the number of bytes [Header.Encode] produces.
func (h Header) EncodedSize() int {
	size := 1 + 4 + len(encodeLatin1(h.Name)) + 1
	if h.Type == TypeFile {
		size += 4 + len(encodeLatin1(h.Codec)) + 1
	}
	return size
}

// Encode serializes the header. It fails if a size doesn't fit in the 32-bit
// field or the name is empty.
func (h Header) Encode() ([]byte, error) {
	if h.Type != TypeFile && h.Type != TypeFolder {
		return nil, compactor.ErrHeaderInvalid.WithMessage(fmt.Sprintf("unknown type %s", h.Type))
	}
	if h.Name == "" {
		return nil, compactor.ErrHeaderInvalid.WithMessage("entry name is empty")
	}
	if strings.ContainsRune(h.Name, 0) || strings.ContainsRune(h.Codec, 0) {
		return nil, compactor.ErrHeaderInvalid.WithMessage("names can't contain NUL")
	}
	if err := checkSizeField("size", h.Size); err != nil {
		return nil, err
	}

	buffer := bytebuffer.New()
	buffer.Put(byte(h.Type))
	buffer.PutInt(int32(h.Size))
	putString(buffer, h.Name)

	if h.Type == TypeFile {
		if err := checkSizeField("original size", h.OriginalSize); err != nil {
			return nil, err
		}
		buffer.PutInt(int32(h.OriginalSize))
		putString(buffer, h.Codec)
	}
	return buffer.Bytes(), nil
}

func (h Header) String() string {
	if h.Type == TypeFile {
		return fmt.Sprintf("HEADER |%s|%d|%s|%d|%s|", h.Type, h.Size, h.Name, h.OriginalSize, h.Codec)
	}
	return fmt.Sprintf("HEADER |%s|%d|%s|", h.Type, h.Size, h.Name)
}

// DummyFolderHeader returns a placeholder with the same length as the folder
// header for `name` but every byte zero. It's written before a folder's
// content and overwritten once the content's size is known. A placeholder
// left in place has an empty name and so never decodes.
func DummyFolderHeader(name string) []byte {
	return make([]byte, NewFolderHeader(0, name).EncodedSize())
}

// Decode reads the header starting at `offset` in `data`. Every failure
// matches [compactor.ErrHeaderInvalid].
func Decode(data []byte, offset int) (Header, error) {
	if offset < 0 || len(data)-offset < minimumHeaderSize {
		return Header{}, invalidHeader(offset, "fewer than %d bytes left", minimumHeaderSize)
	}

	buffer := bytebuffer.NewFrom(data)
	if err := buffer.SetPosition(offset); err != nil {
		return Header{}, compactor.ErrHeaderInvalid.Wrap(err)
	}

	typeByte, _ := buffer.Get()
	size, err := buffer.GetInt()
	if err != nil {
		return Header{}, compactor.ErrHeaderInvalid.Wrap(err)
	}
	name, err := getString(buffer)
	if err != nil {
		return Header{}, invalidHeader(offset, "name has no terminator")
	}

	if size < 0 {
		return Header{}, invalidHeader(offset, "negative size %d", size)
	}
	if name == "" {
		return Header{}, invalidHeader(offset, "entry name is empty")
	}

	switch EntryType(typeByte) {
	case TypeFolder:
		return NewFolderHeader(int(size), name), nil
	case TypeFile:
		if buffer.Remaining() < fileTrailerMinimumSize {
			return Header{}, invalidHeader(offset, "file header for %q is truncated", name)
		}
		originalSize, _ := buffer.GetInt()
		if originalSize < 0 {
			return Header{}, invalidHeader(offset, "negative original size %d", originalSize)
		}
		codec, err := getString(buffer)
		if err != nil {
			return Header{}, invalidHeader(offset, "codec name has no terminator")
		}
		return NewFileHeader(int(size), name, int(originalSize), codec), nil
	default:
		return Header{}, invalidHeader(offset, "unknown type byte 0x%02x", typeByte)
	}
}

////////////////////////////////////////////////////////////////////////////////

func checkSizeField(field string, value int) error {
	if value < 0 || value > math.MaxInt32 {
		return compactor.ErrHeaderInvalid.WithMessage(
			fmt.Sprintf("%s %d doesn't fit in a 32-bit field", field, value))
	}
	return nil
}

func invalidHeader(offset int, format string, args ...any) error {
	return compactor.ErrHeaderInvalid.WithMessage(
		fmt.Sprintf("at offset %d: %s", offset, fmt.Sprintf(format, args...)))
}

// putString writes a NUL-terminated ISO-8859-1 string.
func putString(buffer *bytebuffer.ByteBuffer, s string) {
	buffer.Write(encodeLatin1(s))
	buffer.Put(0)
}

// getString reads a NUL-terminated ISO-8859-1 string, consuming the
// terminator.
func getString(buffer *bytebuffer.ByteBuffer) (string, error) {
	var raw []byte
	for {
		b, err := buffer.Get()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return decodeLatin1(raw), nil
		}
		raw = append(raw, b)
	}
}

// encodeLatin1 converts a string to ISO-8859-1. Characters outside the
// character set become '?'.
func encodeLatin1(s string) []byte {
	result := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			r = '?'
		}
		result = append(result, byte(r))
	}
	return result
}

func decodeLatin1(raw []byte) string {
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}
