package compression

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/dargueta/compactor"
	"github.com/dargueta/compactor/statistics"
	"github.com/dargueta/compactor/utilities/compression/jpeg"
	"github.com/gocarina/gocsv"
)

const (
	NameLZ78 = "LZ78"
	NameLZSS = "LZSS"
	NameLZW  = "LZW"
	NameJPEG = "JPEG"
)

// defaultExtension is the row of the extension table used for any extension
// not listed explicitly.
const defaultExtension = "*"

// Names returns the names of every available codec in registration order.
func Names() []string {
	return []string{NameLZ78, NameLZSS, NameLZW, NameJPEG}
}

// Registry owns one instance of every codec.
type Registry struct {
	codecs map[string]Codec
}

// NewRegistry creates every codec, attaching the statistics record with the
// matching name from `stats`. Codecs with no record in `stats` get a fresh one.
// The map may be nil.
func NewRegistry(stats map[string]*statistics.Global) *Registry {
	transformers := map[string]Transformer{
		NameLZ78: LZ78{},
		NameLZSS: LZSS{},
		NameLZW:  LZW{},
		NameJPEG: jpeg.Transformer{},
	}

	registry := &Registry{codecs: make(map[string]Codec, len(transformers))}
	for _, name := range Names() {
		registry.codecs[name] = NewCodec(name, stats[name], transformers[name])
	}
	return registry
}

// Lookup returns the codec with the given name.
func (registry *Registry) Lookup(name string) (Codec, error) {
	codec, ok := registry.codecs[name]
	if !ok {
		return nil, compactor.ErrCodecNotFound.WithMessage(fmt.Sprintf("%q", name))
	}
	return codec, nil
}

// Codecs returns every codec in registration order.
func (registry *Registry) Codecs() []Codec {
	names := Names()
	result := make([]Codec, len(names))
	for i, name := range names {
		result[i] = registry.codecs[name]
	}
	return result
}

// Statistics returns the statistics record of every codec, keyed by name.
func (registry *Registry) Statistics() map[string]*statistics.Global {
	result := make(map[string]*statistics.Global, len(registry.codecs))
	for name, codec := range registry.codecs {
		result[name] = codec.Statistics()
	}
	return result
}

// CodecsFor returns the names of the codecs permitted for a file, determined by
// its extension, most suitable first.
func (registry *Registry) CodecsFor(filename string) []string {
	return CodecsForExtension(Extension(filename))
}

// CodecsForExtension returns the names of the codecs permitted for files with
// the given extension, most suitable first.
func CodecsForExtension(extension string) []string {
	codecs, ok := extensionTable[extension]
	if !ok {
		codecs = extensionTable[defaultExtension]
	}
	result := make([]string, len(codecs))
	copy(result, codecs)
	return result
}

// Extension returns everything after the last period in `filename`, or the
// whole name if it has no period.
func Extension(filename string) string {
	return filename[strings.LastIndexByte(filename, '.')+1:]
}

////////////////////////////////////////////////////////////////////////////////

type extensionRow struct {
	Extension string `csv:"extension"`
	Codecs    string `csv:"codecs"`
}

//go:embed extensions.csv
var extensionsRawCSV string
var extensionTable map[string][]string

func init() {
	csvReader := csv.NewReader(strings.NewReader(extensionsRawCSV))
	csvReader.Comma = '|'

	var rows []extensionRow
	if err := gocsv.UnmarshalCSV(csvReader, &rows); err != nil {
		panic(fmt.Errorf("failed to decode extension table: %w", err))
	}

	known := make(map[string]bool)
	for _, name := range Names() {
		known[name] = true
	}

	extensionTable = make(map[string][]string, len(rows))
	for i, row := range rows {
		if _, exists := extensionTable[row.Extension]; exists {
			panic(fmt.Errorf("duplicate extension %q found on row %d", row.Extension, i+1))
		}

		codecs := strings.Fields(row.Codecs)
		for _, codec := range codecs {
			if !known[codec] {
				panic(fmt.Errorf("unknown codec %q for extension %q", codec, row.Extension))
			}
		}
		extensionTable[row.Extension] = codecs
	}

	if _, ok := extensionTable[defaultExtension]; !ok {
		panic("extension table has no default row")
	}
}
