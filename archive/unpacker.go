package archive

import (
	"fmt"
	"strings"

	"github.com/dargueta/compactor"
	"github.com/dargueta/compactor/statistics"
	"github.com/dargueta/compactor/utilities/compression"
	"github.com/pkg/errors"
)

// Unpacker extracts archives from a [compactor.Storage].
type Unpacker struct {
	storage  compactor.Storage
	registry *compression.Registry
	// OnEntry, if set, is called once for every file and folder extracted.
	OnEntry EntryFunc
}

func NewUnpacker(storage compactor.Storage, registry *compression.Registry) *Unpacker {
	return &Unpacker{storage: storage, registry: registry}
}

// Probe decodes the header at the start of an archive.
func Probe(data []byte) (Header, error) {
	return Decode(data, 0)
}

// Unpack extracts the archive at `archivePath` into the existing directory
// `destination`, returning the archive's root header.
//
// For a single-file archive the statistics are those of the one decompression.
// For a folder archive they sum the decompressed sizes and codec time of every
// file; the compressed size is that of the whole archive.
func (u *Unpacker) Unpack(
	archivePath, destination string,
) (Header, statistics.Local, error) {
	data, err := u.storage.ReadFile(archivePath)
	if err != nil {
		return Header{}, statistics.Local{}, errors.Wrapf(err, "reading %q", archivePath)
	}

	root, err := Probe(data)
	if err != nil {
		return Header{}, statistics.Local{}, errors.Wrapf(err, "reading %q", archivePath)
	}

	if !root.IsFolder() {
		stat, err := u.extractFile(data, root, root.EncodedSize(), len(data), destination)
		return root, stat, err
	}

	folder, err := u.createFolder(root, root.EncodedSize(), len(data), destination)
	if err != nil {
		return Header{}, statistics.Local{}, err
	}

	total, err := u.extractContents(data, root.EncodedSize(), root.Size, folder)
	if err != nil {
		return Header{}, statistics.Local{}, err
	}
	return root, statistics.NewLocal(total.DecompressedSize, len(data), total.Seconds), nil
}

// extractContents extracts the `size` bytes of entries starting at `offset`
// into the directory `base`.
func (u *Unpacker) extractContents(
	data []byte, offset, size int, base string,
) (statistics.Local, error) {
	var total statistics.Local
	limit := offset + size

	for offset < limit {
		header, err := Decode(data[:limit], offset)
		if err != nil {
			return statistics.Local{}, err
		}
		offset += header.EncodedSize()

		var stat statistics.Local
		if header.IsFolder() {
			var folder string
			folder, err = u.createFolder(header, offset, limit, base)
			if err == nil {
				stat, err = u.extractContents(data, offset, header.Size, folder)
			}
		} else {
			stat, err = u.extractFile(data, header, offset, limit, base)
		}
		if err != nil {
			return statistics.Local{}, err
		}

		total = total.Add(stat)
		offset += header.Size
	}
	return total, nil
}

// extractFile decompresses the payload of `header`, which starts at `offset`
// and must end by `limit`, into a new file in `base`.
func (u *Unpacker) extractFile(
	data []byte, header Header, offset, limit int, base string,
) (statistics.Local, error) {
	if err := checkEntry(header, offset, limit); err != nil {
		return statistics.Local{}, err
	}

	codec, err := u.registry.Lookup(header.Codec)
	if err != nil {
		return statistics.Local{}, errors.Wrapf(err, "extracting %q", header.Name)
	}

	payload := data[offset : offset+header.Size]
	output, stat, err := codec.Decompress(payload, header.OriginalSize)
	if err != nil {
		return statistics.Local{}, errors.Wrapf(err, "decompressing %q", header.Name)
	}

	path := u.storage.Join(base, header.Name)
	if err = u.storage.WriteFile(path, output); err != nil {
		return statistics.Local{}, errors.Wrapf(err, "writing %q", path)
	}
	u.notify(path, header)
	return stat, nil
}

func (u *Unpacker) createFolder(header Header, offset, limit int, base string) (string, error) {
	if err := checkEntry(header, offset, limit); err != nil {
		return "", err
	}

	path := u.storage.Join(base, header.Name)
	if err := u.storage.Mkdir(path); err != nil {
		return "", errors.Wrapf(err, "creating %q", path)
	}
	u.notify(path, header)
	return path, nil
}

func (u *Unpacker) notify(path string, header Header) {
	if u.OnEntry != nil {
		u.OnEntry(path, header)
	}
}

// checkEntry makes sure an entry stays inside its parent's region and that its
// name can't escape the destination directory.
func checkEntry(header Header, offset, limit int) error {
	if header.Size > limit-offset {
		return compactor.ErrHeaderInvalid.WithMessage(
			fmt.Sprintf(
				"%q claims %d bytes but only %d are left in its folder",
				header.Name,
				header.Size,
				limit-offset))
	}
	if header.Name == "." || header.Name == ".." || strings.ContainsAny(header.Name, `/\`) {
		return compactor.ErrHeaderInvalid.WithMessage(
			fmt.Sprintf("%q isn't a valid entry name", header.Name))
	}
	return nil
}
