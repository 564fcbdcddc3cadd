package archive

import (
	"fmt"

	"github.com/dargueta/compactor"
	"github.com/dargueta/compactor/statistics"
	"github.com/dargueta/compactor/utilities/compression"
	"github.com/pkg/errors"
)

// EntryFunc is called after every entry is written to or extracted from an
// archive. `path` is the entry's location in storage.
type EntryFunc func(path string, header Header)

// Packer writes archives into a [compactor.Storage].
type Packer struct {
	storage  compactor.Storage
	registry *compression.Registry
	// OnEntry, if set, is called once for every file and folder packed.
	OnEntry EntryFunc
}

func NewPacker(storage compactor.Storage, registry *compression.Registry) *Packer {
	return &Packer{storage: storage, registry: registry}
}

// PackFile compresses the file at `source` with the named codec and writes a
// single-file archive to `destination`.
func (p *Packer) PackFile(source, destination, codecName string) (statistics.Local, error) {
	codec, err := p.registry.Lookup(codecName)
	if err != nil {
		return statistics.Local{}, err
	}

	input, err := p.storage.ReadFile(source)
	if err != nil {
		return statistics.Local{}, errors.Wrapf(err, "reading %q", source)
	}

	compressed, stat, err := codec.Compress(input)
	if err != nil {
		return statistics.Local{}, errors.Wrapf(err, "compressing %q", source)
	}

	header := NewFileHeader(len(compressed), p.storage.Base(source), len(input), codec.Name())
	encoded, err := header.Encode()
	if err != nil {
		return statistics.Local{}, errors.Wrapf(err, "encoding header for %q", source)
	}

	if err = p.storage.WriteFile(destination, encoded); err != nil {
		return statistics.Local{}, errors.Wrapf(err, "writing header to %q", destination)
	}
	if err = p.storage.AppendFile(destination, compressed); err != nil {
		return statistics.Local{}, errors.Wrapf(err, "writing payload to %q", destination)
	}

	p.notify(source, header)
	return stat, nil
}

// PackFolder writes the whole tree rooted at `source` to `destination` as a
// folder archive. Files ending in `.txt` are compressed with `textCodec`,
// files ending in `.ppm` with `imageCodec`. Any other file aborts packing with
// [compactor.ErrUnsupportedInput].
//
// Every folder header is first written as a placeholder and patched in place
// once the folder's content has been written and its size is known.
//
// The returned statistics sum the original size and codec time of every file.
// The compressed size is that of the entire archive.
func (p *Packer) PackFolder(
	source, destination, textCodec, imageCodec string,
) (statistics.Local, error) {
	job := folderJob{packer: p, destination: destination}

	var err error
	if job.textCodec, err = p.registry.Lookup(textCodec); err != nil {
		return statistics.Local{}, err
	}
	if job.imageCodec, err = p.registry.Lookup(imageCodec); err != nil {
		return statistics.Local{}, err
	}

	name := p.storage.Base(source)
	placeholder := DummyFolderHeader(name)
	if err = p.storage.WriteFile(destination, placeholder); err != nil {
		return statistics.Local{}, errors.Wrapf(err, "writing header to %q", destination)
	}

	content, err := job.packContents(source, int64(len(placeholder)))
	if err != nil {
		return statistics.Local{}, err
	}

	header := NewFolderHeader(content.CompressedSize, name)
	if err = job.patchHeader(0, header); err != nil {
		return statistics.Local{}, err
	}

	p.notify(source, header)
	return statistics.NewLocal(
		content.DecompressedSize,
		content.CompressedSize+len(placeholder),
		content.Seconds,
	), nil
}

func (p *Packer) notify(path string, header Header) {
	if p.OnEntry != nil {
		p.OnEntry(path, header)
	}
}

////////////////////////////////////////////////////////////////////////////////

type folderJob struct {
	packer      *Packer
	destination string
	textCodec   compression.Codec
	imageCodec  compression.Codec
}

// codecFor picks the codec for a file inside a folder by its extension.
func (job *folderJob) codecFor(filename string) (compression.Codec, error) {
	switch compression.Extension(filename) {
	case "txt":
		return job.textCodec, nil
	case "ppm":
		return job.imageCodec, nil
	default:
		return nil, compactor.ErrUnsupportedInput.WithMessage(
			fmt.Sprintf("%q: only .txt and .ppm files can be put in a folder archive", filename))
	}
}

// packContents appends every entry of `folder` to the archive. `start` is the
// archive offset at which the first entry will be written. The returned
// compressed size is the number of bytes appended.
func (job *folderJob) packContents(folder string, start int64) (statistics.Local, error) {
	storage := job.packer.storage
	entries, err := storage.ReadDir(folder)
	if err != nil {
		return statistics.Local{}, errors.Wrapf(err, "listing %q", folder)
	}

	var total statistics.Local
	for _, entry := range entries {
		path := storage.Join(folder, entry.Name)
		offset := start + int64(total.CompressedSize)

		var written statistics.Local
		if entry.IsDir {
			written, err = job.packFolder(path, entry.Name, offset)
		} else {
			written, err = job.packFile(path, entry.Name)
		}
		if err != nil {
			return statistics.Local{}, err
		}
		total = total.Add(written)
	}
	return total, nil
}

func (job *folderJob) packFolder(path, name string, offset int64) (statistics.Local, error) {
	placeholder := DummyFolderHeader(name)
	if err := job.packer.storage.AppendFile(job.destination, placeholder); err != nil {
		return statistics.Local{}, errors.Wrapf(err, "writing header for %q", path)
	}

	content, err := job.packContents(path, offset+int64(len(placeholder)))
	if err != nil {
		return statistics.Local{}, err
	}

	header := NewFolderHeader(content.CompressedSize, name)
	if err = job.patchHeader(offset, header); err != nil {
		return statistics.Local{}, err
	}
	job.packer.notify(path, header)

	content.CompressedSize += len(placeholder)
	return content, nil
}

func (job *folderJob) packFile(path, name string) (statistics.Local, error) {
	codec, err := job.codecFor(name)
	if err != nil {
		return statistics.Local{}, err
	}

	storage := job.packer.storage
	input, err := storage.ReadFile(path)
	if err != nil {
		return statistics.Local{}, errors.Wrapf(err, "reading %q", path)
	}

	compressed, stat, err := codec.Compress(input)
	if err != nil {
		return statistics.Local{}, errors.Wrapf(err, "compressing %q", path)
	}

	header := NewFileHeader(len(compressed), name, len(input), codec.Name())
	encoded, err := header.Encode()
	if err != nil {
		return statistics.Local{}, errors.Wrapf(err, "encoding header for %q", path)
	}
	if err = storage.AppendFile(job.destination, encoded); err != nil {
		return statistics.Local{}, errors.Wrapf(err, "writing header for %q", path)
	}
	if err = storage.AppendFile(job.destination, compressed); err != nil {
		return statistics.Local{}, errors.Wrapf(err, "writing payload for %q", path)
	}
	job.packer.notify(path, header)

	return statistics.Local{
		DecompressedSize: len(input),
		CompressedSize:   len(encoded) + len(compressed),
		Seconds:          stat.Seconds,
	}, nil
}

// patchHeader overwrites the placeholder at `offset` with the real header.
func (job *folderJob) patchHeader(offset int64, header Header) error {
	encoded, err := header.Encode()
	if err != nil {
		return errors.Wrapf(err, "encoding header for %q", header.Name)
	}
	err = job.packer.storage.WriteAt(job.destination, offset, encoded)
	return errors.Wrapf(err, "patching header for %q at offset %d", header.Name, offset)
}
