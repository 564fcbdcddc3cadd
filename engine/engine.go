// Package engine runs the operations offered to users: compressing files and
// folders, extracting archives, comparing codecs, and reporting statistics and
// history. It owns the codec registry and keeps the persisted statistics and
// history log up to date.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dargueta/compactor"
	"github.com/dargueta/compactor/archive"
	"github.com/dargueta/compactor/config"
	"github.com/dargueta/compactor/persistence"
	"github.com/dargueta/compactor/statistics"
	"github.com/dargueta/compactor/utilities/compression"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"
)

// History actions.
const (
	ActionFileCompression     = "File compression"
	ActionFolderCompression   = "Folder compression"
	ActionFileDecompression   = "File decompression"
	ActionFolderDecompression = "Folder decompression"
)

// Engine serializes every operation with a mutex, as codecs and their
// statistics aren't safe for concurrent use.
type Engine struct {
	lock       sync.Mutex
	cfg        *config.Config
	storage    compactor.Storage
	statsStore *persistence.StatisticsStore
	history    *persistence.HistoryLog
	registry   *compression.Registry
	logger     zerolog.Logger
	now        func() time.Time
}

type Option func(*Engine)

// WithLogger sets the logger operations are reported to. By default nothing is
// logged.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock replaces the function used to timestamp history entries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(
	cfg *config.Config,
	storage compactor.Storage,
	statsStore *persistence.StatisticsStore,
	history *persistence.HistoryLog,
	options ...Option,
) *Engine {
	e := &Engine{
		cfg:        cfg,
		storage:    storage,
		statsStore: statsStore,
		history:    history,
		registry:   compression.NewRegistry(nil),
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Initialize loads the persisted statistics of every codec. If some of them
// are corrupt the affected codecs start from zero and the returned error
// matches [compactor.ErrStatisticsCorrupt]; the engine is still usable.
func (e *Engine) Initialize() error {
	e.lock.Lock()
	defer e.lock.Unlock()

	loaded, err := e.statsStore.Load(compression.Names())
	current := e.registry.Statistics()
	for name, global := range loaded {
		current[name].Restore(*global)
	}

	if err != nil {
		e.logger.Warn().Err(err).Msg("some codec statistics were reset")
	}
	return err
}

// Shutdown saves the statistics of every codec.
func (e *Engine) Shutdown() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.statsStore.Save(e.registry.Statistics())
}

// CompressFile packs the file at `source` into a single-file archive at
// `destination` using the named codec.
func (e *Engine) CompressFile(source, destination, codec string) (statistics.Local, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	logger := e.operationLogger(ActionFileCompression)
	if err := e.checkWritable(e.storage.Dir(destination)); err != nil {
		return statistics.Local{}, err
	}

	existed := e.storage.Exists(destination)
	packer := archive.NewPacker(e.storage, e.registry)
	packer.OnEntry = entryLogger(logger)

	stat, err := packer.PackFile(source, destination, codec)
	if err != nil {
		if !existed {
			e.discard(logger, destination)
		}
		return statistics.Local{}, err
	}

	e.record(logger, ActionFileCompression, codec, stat)
	return stat, nil
}

// CompressFolder packs the tree rooted at `source` into a folder archive at
// `destination`. Empty codec names fall back to the configured defaults.
func (e *Engine) CompressFolder(
	source, destination, textCodec, imageCodec string,
) (statistics.Local, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if textCodec == "" {
		textCodec = e.cfg.TextCodec
	}
	if imageCodec == "" {
		imageCodec = e.cfg.ImageCodec
	}

	logger := e.operationLogger(ActionFolderCompression)
	if err := e.checkWritable(e.storage.Dir(destination)); err != nil {
		return statistics.Local{}, err
	}

	existed := e.storage.Exists(destination)
	packer := archive.NewPacker(e.storage, e.registry)
	packer.OnEntry = entryLogger(logger)

	stat, err := packer.PackFolder(source, destination, textCodec, imageCodec)
	if err != nil {
		if !existed {
			e.discard(logger, destination)
		}
		return statistics.Local{}, err
	}

	e.record(logger, ActionFolderCompression, textCodec+"/"+imageCodec, stat)
	return stat, nil
}

// Decompress extracts the archive at `source` into the existing directory
// `destination`, returning the archive's root header.
func (e *Engine) Decompress(source, destination string) (archive.Header, statistics.Local, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	logger := e.operationLogger("Decompression")
	if err := e.checkWritable(destination); err != nil {
		return archive.Header{}, statistics.Local{}, err
	}

	codecs := map[string]bool{}
	logEntry := entryLogger(logger)

	unpacker := archive.NewUnpacker(e.storage, e.registry)
	unpacker.OnEntry = func(path string, header archive.Header) {
		if !header.IsFolder() {
			codecs[header.Codec] = true
		}
		logEntry(path, header)
	}

	root, stat, err := unpacker.Unpack(source, destination)
	if err != nil {
		return archive.Header{}, statistics.Local{}, err
	}

	if root.IsFolder() {
		e.record(logger, ActionFolderDecompression, joinCodecNames(codecs), stat)
	} else {
		e.record(logger, ActionFileDecompression, root.Codec, stat)
	}
	return root, stat, nil
}

// Comparison is the outcome of compressing a file with one codec and then
// decompressing the result.
type Comparison struct {
	Codec         string
	Original      []byte
	Decompressed  []byte
	Compression   statistics.Local
	Decompression statistics.Local
}

// Compare runs the named codec over the file at `path` in both directions.
// Nothing is written to storage and no history is recorded, though the
// codec's statistics are updated.
func (e *Engine) Compare(path, codec string) (Comparison, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	input, err := e.storage.ReadFile(path)
	if err != nil {
		return Comparison{}, errors.Wrapf(err, "reading %q", path)
	}

	c, err := e.registry.Lookup(codec)
	if err != nil {
		return Comparison{}, err
	}

	result, err := compare(c, input)
	if err != nil {
		return Comparison{}, errors.Wrapf(err, "comparing %q", path)
	}
	e.logComparison(result)
	return result, nil
}

// CompareAll runs [Engine.Compare] for every codec allowed for the file at
// `path`. Codecs run concurrently; results are in the order given by
// [Engine.CodecsFor].
func (e *Engine) CompareAll(ctx context.Context, path string) ([]Comparison, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	input, err := e.storage.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}

	names := e.registry.CodecsFor(e.storage.Base(path))
	results := make([]Comparison, len(names))

	// Every goroutine owns a distinct codec, and thus a distinct statistics
	// record.
	group, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			codec, err := e.registry.Lookup(name)
			if err != nil {
				return err
			}
			results[i], err = compare(codec, input)
			return errors.Wrapf(err, "comparing %q with %s", path, name)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	for _, result := range results {
		e.logComparison(result)
	}
	return results, nil
}

func compare(codec compression.Codec, input []byte) (Comparison, error) {
	compressed, compressStat, err := codec.Compress(input)
	if err != nil {
		return Comparison{}, err
	}
	decompressed, decompressStat, err := codec.Decompress(compressed, len(input))
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{
		Codec:         codec.Name(),
		Original:      input,
		Decompressed:  decompressed,
		Compression:   compressStat,
		Decompression: decompressStat,
	}, nil
}

// Statistics returns a snapshot of every codec's statistics, keyed by name.
func (e *Engine) Statistics() map[string]statistics.Global {
	e.lock.Lock()
	defer e.lock.Unlock()

	result := make(map[string]statistics.Global)
	for name, global := range e.registry.Statistics() {
		result[name] = global.Snapshot()
	}
	return result
}

// History returns every recorded operation, oldest first. A corrupt log is
// deleted, see [persistence.HistoryLog.Entries].
func (e *Engine) History() ([]persistence.Entry, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.history.Entries()
}

// CodecsFor returns the names of the codecs permitted for a file, most
// suitable first.
func (e *Engine) CodecsFor(filename string) []string {
	return e.registry.CodecsFor(filename)
}

////////////////////////////////////////////////////////////////////////////////

func (e *Engine) operationLogger(action string) zerolog.Logger {
	return e.logger.With().
		Str("op", ksuid.New().String()).
		Str("action", action).
		Logger()
}

func (e *Engine) checkWritable(dir string) error {
	if !e.storage.IsWritable(dir) {
		return compactor.ErrDestinationNotWritable.WithMessage(fmt.Sprintf("%q", dir))
	}
	return nil
}

// discard removes a partially written archive. Archives that replaced an
// existing file are left alone.
func (e *Engine) discard(logger zerolog.Logger, path string) {
	if !e.storage.Exists(path) {
		return
	}
	if err := e.storage.Remove(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to remove partial archive")
	}
}

// record logs a completed operation and appends it to the history. Failing to
// write the history doesn't fail the operation.
func (e *Engine) record(logger zerolog.Logger, action, codecs string, stat statistics.Local) {
	logger.Info().
		Str("codecs", codecs).
		Int("decompressed_size", stat.DecompressedSize).
		Int("compressed_size", stat.CompressedSize).
		Float64("ratio", stat.Ratio()).
		Float64("seconds", stat.Seconds).
		Msg(action)

	entry := persistence.NewEntry(action, codecs, e.now(), stat)
	if err := e.history.Append(entry); err != nil {
		logger.Warn().Err(err).Msg("failed to update history")
	}
}

func (e *Engine) logComparison(result Comparison) {
	e.logger.Info().
		Str("codec", result.Codec).
		Int("size", result.Compression.DecompressedSize).
		Float64("ratio", result.Compression.Ratio()).
		Float64("compression_seconds", result.Compression.Seconds).
		Float64("decompression_seconds", result.Decompression.Seconds).
		Msg("Comparison")
}

func entryLogger(logger zerolog.Logger) archive.EntryFunc {
	return func(path string, header archive.Header) {
		logger.Debug().
			Str("path", path).
			Stringer("type", header.Type).
			Int("size", header.Size).
			Str("codec", header.Codec).
			Msg("entry")
	}
}

// joinCodecNames lists the codecs used inside a folder archive.
func joinCodecNames(codecs map[string]bool) string {
	if len(codecs) == 0 {
		return "none"
	}
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "/")
}
