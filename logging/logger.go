package logging

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

type Options struct {
	LogLevel   string
	LogJSON    bool
	LogCaller  bool
	LogNoColor bool
}

// NewLogger builds a logger writing to `w`. Unless JSON output is requested
// the output is formatted for a terminal.
func NewLogger(w io.Writer, opts Options) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(opts.LogLevel)
	if err != nil {
		return zerolog.Nop(), errors.Wrapf(err, "unknown log level %q", opts.LogLevel)
	}

	// Adds support for NO_COLOR. More info https://no-color.org/
	_, noColor := os.LookupEnv("NO_COLOR")

	if !opts.LogJSON {
		w = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    noColor || opts.LogNoColor,
			TimeFormat: time.RFC1123,
		}
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if opts.LogCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger(), nil
}

// Configure replaces the global logger with one writing to standard error.
func Configure(opts Options) error {
	logger, err := NewLogger(os.Stderr, opts)
	if err != nil {
		return err
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	log.Logger = logger
	zerolog.SetGlobalLevel(logger.GetLevel())
	return nil
}
