package persistence

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dargueta/compactor"
	"github.com/dargueta/compactor/statistics"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// TimestampLayout formats the time of a history entry as a 12-hour clock time
// followed by the date, e.g. "03:04 - 02/01/2006".
const TimestampLayout = "03:04 - 02/01/2006"

// FieldSeparator separates the fields of a history record. Records end with a
// newline.
const FieldSeparator = '\x00'

// entryFieldCount is the number of fields in a well-formed record.
const entryFieldCount = 8

// Entry is one operation recorded in the history. The last five fields are
// those of [statistics.Local.Strings].
type Entry struct {
	Action           string  `csv:"action"`
	Codecs           string  `csv:"codecs"`
	Timestamp        string  `csv:"timestamp"`
	DecompressedSize int     `csv:"decompressed_size"`
	CompressedSize   int     `csv:"compressed_size"`
	Seconds          float64 `csv:"seconds"`
	Ratio            float64 `csv:"ratio"`
	Speed            float64 `csv:"speed"`
}

func NewEntry(action, codecs string, when time.Time, stat statistics.Local) Entry {
	return Entry{
		Action:           action,
		Codecs:           codecs,
		Timestamp:        when.Format(TimestampLayout),
		DecompressedSize: stat.DecompressedSize,
		CompressedSize:   stat.CompressedSize,
		Seconds:          stat.Seconds,
		Ratio:            stat.Ratio(),
		Speed:            stat.Speed(),
	}
}

// Fields renders the entry as it's stored.
func (e Entry) Fields() []string {
	return []string{
		e.Action,
		e.Codecs,
		e.Timestamp,
		strconv.Itoa(e.DecompressedSize),
		strconv.Itoa(e.CompressedSize),
		strconv.FormatFloat(e.Seconds, 'g', -1, 64),
		strconv.FormatFloat(e.Ratio, 'g', -1, 64),
		strconv.FormatFloat(e.Speed, 'g', -1, 64),
	}
}

// HistoryLog is an append-only list of [Entry] records.
type HistoryLog struct {
	storage compactor.Storage
	path    string
}

func NewHistoryLog(storage compactor.Storage, path string) *HistoryLog {
	return &HistoryLog{storage: storage, path: path}
}

// Append adds one record to the end of the log, creating it if needed.
func (h *HistoryLog) Append(entry Entry) error {
	fields := entry.Fields()
	for i, field := range fields {
		if strings.ContainsAny(field, "\x00\n") {
			return errors.Errorf("field %d of history entry contains a separator: %q", i, field)
		}
	}
	record := []byte(strings.Join(fields, string(FieldSeparator)) + "\n")

	var err error
	if h.storage.Exists(h.path) {
		err = h.storage.AppendFile(h.path, record)
	} else {
		err = h.storage.WriteFile(h.path, record)
	}
	return errors.Wrapf(err, "appending to history %q", h.path)
}

// Entries returns every record in the log, oldest first. A missing log is
// empty.
//
// If any record is malformed the whole log is deleted and the error matches
// [compactor.ErrHistoryCorrupt].
func (h *HistoryLog) Entries() ([]Entry, error) {
	if !h.storage.Exists(h.path) {
		return []Entry{}, nil
	}

	data, err := h.storage.ReadFile(h.path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading history %q", h.path)
	}

	entries := []Entry{}
	if len(data) == 0 {
		return entries, nil
	}

	reader, err := newRecordReader(data)
	if err == nil {
		err = gocsv.UnmarshalCSVWithoutHeaders(reader, &entries)
	}
	if err != nil {
		corruption := compactor.ErrHistoryCorrupt.WithMessage(
			fmt.Sprintf("%q was deleted", h.path)).Wrap(err)
		if removeErr := h.storage.Remove(h.path); removeErr != nil {
			return nil, corruption.Wrap(removeErr)
		}
		return nil, corruption
	}
	return entries, nil
}

////////////////////////////////////////////////////////////////////////////////

// recordReader feeds NUL-separated records to gocsv, which otherwise only
// reads from encoding/csv. That package can't use NUL as a delimiter.
type recordReader struct {
	records [][]string
	next    int
}

// newRecordReader splits `data` into records, failing if any record doesn't
// have exactly the expected number of fields.
func newRecordReader(data []byte) (*recordReader, error) {
	lines := bytes.Split(bytes.TrimSuffix(data, []byte{'\n'}), []byte{'\n'})

	reader := &recordReader{records: make([][]string, 0, len(lines))}
	for i, line := range lines {
		fields := strings.Split(string(line), string(FieldSeparator))
		if len(fields) != entryFieldCount {
			return nil, fmt.Errorf(
				"record %d has %d fields, expected %d", i+1, len(fields), entryFieldCount)
		}
		reader.records = append(reader.records, fields)
	}
	return reader, nil
}

func (r *recordReader) Read() ([]string, error) {
	if r.next >= len(r.records) {
		return nil, io.EOF
	}
	record := r.records[r.next]
	r.next++
	return record, nil
}

func (r *recordReader) ReadAll() ([][]string, error) {
	remaining := r.records[r.next:]
	r.next = len(r.records)
	return remaining, nil
}
