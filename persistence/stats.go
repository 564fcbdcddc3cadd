package persistence

import (
	"fmt"

	"github.com/dargueta/compactor"
	"github.com/dargueta/compactor/statistics"
	"github.com/hashicorp/go-multierror"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// statisticsRecord is how one codec's statistics are stored. Every value is a
// string, formatted by [statistics.Global.Strings].
type statisticsRecord struct {
	NumberCompressions   string `json:"numberCompressions"`
	NumberDecompressions string `json:"numberDecompressions"`
	CompressionRatio     string `json:"compressionRatio"`
	CompressionSpeed     string `json:"compressionSpeed"`
	DecompressionRatio   string `json:"decompressionRatio"`
	DecompressionSpeed   string `json:"decompressionSpeed"`
}

func newStatisticsRecord(g *statistics.Global) statisticsRecord {
	fields := g.Strings()
	return statisticsRecord{
		NumberCompressions:   fields[0],
		NumberDecompressions: fields[1],
		CompressionRatio:     fields[2],
		CompressionSpeed:     fields[3],
		DecompressionRatio:   fields[4],
		DecompressionSpeed:   fields[5],
	}
}

func (r statisticsRecord) fields() []string {
	return []string{
		r.NumberCompressions,
		r.NumberDecompressions,
		r.CompressionRatio,
		r.CompressionSpeed,
		r.DecompressionRatio,
		r.DecompressionSpeed,
	}
}

// StatisticsStore keeps the global statistics of every codec in a JSON object
// keyed by codec name.
type StatisticsStore struct {
	storage compactor.Storage
	path    string
}

func NewStatisticsStore(storage compactor.Storage, path string) *StatisticsStore {
	return &StatisticsStore{storage: storage, path: path}
}

// Load returns a statistics record for every name in `names`. It never returns
// a nil map, even on failure.
//
// A missing file, or a codec absent from it, yields zeroed statistics. A codec
// whose record can't be parsed is zeroed too; every such problem is collected
// into the returned error, which matches [compactor.ErrStatisticsCorrupt]. The
// other codecs are loaded normally.
func (s *StatisticsStore) Load(names []string) (map[string]*statistics.Global, error) {
	result := make(map[string]*statistics.Global, len(names))
	for _, name := range names {
		result[name] = &statistics.Global{}
	}

	if !s.storage.Exists(s.path) {
		return result, nil
	}

	data, err := s.storage.ReadFile(s.path)
	if err != nil {
		return result, errors.Wrapf(err, "loading statistics from %q", s.path)
	}

	var records map[string]statisticsRecord
	if err = json.Unmarshal(data, &records); err != nil {
		return result, compactor.ErrStatisticsCorrupt.WithMessage(
			fmt.Sprintf("%q isn't a valid statistics file", s.path)).Wrap(err)
	}

	var problems *multierror.Error
	for _, name := range names {
		record, ok := records[name]
		if !ok {
			continue
		}

		global, err := statistics.ParseGlobal(record.fields())
		if err != nil {
			problems = multierror.Append(problems, errors.Wrapf(err, "codec %s", name))
			continue
		}
		result[name].Restore(global)
	}
	return result, problems.ErrorOrNil()
}

// Save replaces the file with the given statistics.
func (s *StatisticsStore) Save(stats map[string]*statistics.Global) error {
	records := make(map[string]statisticsRecord, len(stats))
	for name, global := range stats {
		records[name] = newStatisticsRecord(global)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return compactor.ErrStatisticsCorrupt.Wrap(err)
	}
	return errors.Wrapf(s.storage.WriteFile(s.path, data), "saving statistics to %q", s.path)
}
