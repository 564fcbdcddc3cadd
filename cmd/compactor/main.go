package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dargueta/compactor"
	"github.com/dargueta/compactor/config"
	"github.com/dargueta/compactor/engine"
	"github.com/dargueta/compactor/logging"
	"github.com/dargueta/compactor/persistence"
	"github.com/dargueta/compactor/statistics"
	"github.com/dargueta/compactor/storage"
	"github.com/dargueta/compactor/utilities/compression"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// application holds what the commands share. The engine is created before any
// command runs and shut down after the last one.
type application struct {
	engine *engine.Engine
}

func main() {
	app := &application{}

	cli := cli.App{
		Name:  "compactor",
		Usage: "Compress files and folders, and compare compression algorithms",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the configuration file",
				Value: config.DefaultConfigPath(),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override the configured log level",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "log JSON instead of human-readable text",
			},
		},
		Before: app.start,
		After:  app.stop,
		Commands: []*cli.Command{
			{
				Name:      "compress",
				Usage:     "Compress a file or a folder into an archive",
				Action:    app.compress,
				ArgsUsage: "FILE|FOLDER  OUTPUT",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "codec",
						Usage: "codec for a single file; defaults to the most suitable one",
					},
					&cli.StringFlag{
						Name:  "text-codec",
						Usage: "codec for .txt files inside a folder",
					},
					&cli.StringFlag{
						Name:  "image-codec",
						Usage: "codec for .ppm files inside a folder",
					},
				},
			},
			{
				Name:      "decompress",
				Usage:     "Extract an archive into a folder",
				Action:    app.decompress,
				ArgsUsage: "ARCHIVE  FOLDER",
			},
			{
				Name:      "compare",
				Usage:     "Compress and decompress a file without saving anything",
				Action:    app.compare,
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "codec",
						Usage: "codec to compare; defaults to the most suitable one",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "compare every codec allowed for the file",
					},
				},
			},
			{
				Name:      "codecs",
				Usage:     "List the codecs allowed for a file, most suitable first",
				Action:    app.listCodecs,
				ArgsUsage: "FILE",
			},
			{
				Name:   "stats",
				Usage:  "Show the statistics of every codec",
				Action: app.showStatistics,
			},
			{
				Name:   "history",
				Usage:  "Show every operation performed so far",
				Action: app.showHistory,
			},
		},
	}

	err := cli.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Msg("fatal error")
	}
}

func (app *application) start(context *cli.Context) error {
	cfg, err := config.LoadOrDefault(context.String("config"))
	if err != nil {
		return err
	}
	if context.IsSet("log-level") {
		cfg.Logging.Level = context.String("log-level")
	}
	if context.IsSet("log-json") {
		cfg.Logging.JSON = context.Bool("log-json")
	}

	err = logging.Configure(logging.Options{
		LogLevel: cfg.Logging.Level,
		LogJSON:  cfg.Logging.JSON,
	})
	if err != nil {
		return err
	}

	if err = os.MkdirAll(cfg.DataDir, compactor.DirectoryMode); err != nil {
		return fmt.Errorf("can't create data directory %q: %w", cfg.DataDir, err)
	}

	fs := storage.NewFileSystem()
	app.engine = engine.New(
		cfg,
		fs,
		persistence.NewStatisticsStore(fs, cfg.StatisticsPath()),
		persistence.NewHistoryLog(fs, cfg.HistoryPath()),
		engine.WithLogger(log.Logger),
	)

	// Corrupt statistics were reset and already logged by the engine.
	err = app.engine.Initialize()
	if err != nil && !errors.Is(err, compactor.ErrStatisticsCorrupt) {
		return err
	}
	return nil
}

func (app *application) stop(context *cli.Context) error {
	if app.engine == nil {
		return nil
	}
	return app.engine.Shutdown()
}

func requireArgs(context *cli.Context, count int) error {
	if context.NArg() != count {
		return fmt.Errorf(
			"%s: expected %d argument(s), got %d; usage: %s",
			context.Command.Name,
			count,
			context.NArg(),
			context.Command.ArgsUsage)
	}
	return nil
}

func (app *application) compress(context *cli.Context) error {
	if err := requireArgs(context, 2); err != nil {
		return err
	}
	source := context.Args().Get(0)
	output := context.Args().Get(1)

	info, err := os.Stat(source)
	if err != nil {
		return err
	}

	var stat statistics.Local
	if info.IsDir() {
		stat, err = app.engine.CompressFolder(
			source, output, context.String("text-codec"), context.String("image-codec"))
	} else {
		codec := context.String("codec")
		if codec == "" {
			codec = app.engine.CodecsFor(source)[0]
		}
		stat, err = app.engine.CompressFile(source, output, codec)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(context.App.Writer, "Compressed %s: %s\n", source, formatLocal(stat))
	return nil
}

func (app *application) decompress(context *cli.Context) error {
	if err := requireArgs(context, 2); err != nil {
		return err
	}

	root, stat, err := app.engine.Decompress(context.Args().Get(0), context.Args().Get(1))
	if err != nil {
		return err
	}
	fmt.Fprintf(context.App.Writer, "Extracted %s: %s\n", root.Name, formatLocal(stat))
	return nil
}

func (app *application) compare(context *cli.Context) error {
	if err := requireArgs(context, 1); err != nil {
		return err
	}
	path := context.Args().Get(0)

	var results []engine.Comparison
	if context.Bool("all") {
		var err error
		results, err = app.engine.CompareAll(context.Context, path)
		if err != nil {
			return err
		}
	} else {
		codec := context.String("codec")
		if codec == "" {
			codec = app.engine.CodecsFor(path)[0]
		}
		result, err := app.engine.Compare(path, codec)
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	for _, result := range results {
		fmt.Fprintf(
			context.App.Writer,
			"%-5s compression:   %s\n      decompression: %s\n",
			result.Codec,
			formatLocal(result.Compression),
			formatLocal(result.Decompression))
	}
	return nil
}

func (app *application) listCodecs(context *cli.Context) error {
	if err := requireArgs(context, 1); err != nil {
		return err
	}
	for _, name := range app.engine.CodecsFor(context.Args().Get(0)) {
		fmt.Fprintln(context.App.Writer, name)
	}
	return nil
}

func (app *application) showStatistics(context *cli.Context) error {
	stats := app.engine.Statistics()
	for _, name := range compression.Names() {
		global := stats[name]
		fmt.Fprintf(
			context.App.Writer,
			"%-5s  compressions: %d (ratio %.3f, %.0f B/s)  decompressions: %d (ratio %.3f, %.0f B/s)\n",
			name,
			global.NumberCompressions,
			global.AverageCompressionRatio,
			global.AverageCompressionSpeed,
			global.NumberDecompressions,
			global.AverageDecompressionRatio,
			global.AverageDecompressionSpeed)
	}
	return nil
}

func (app *application) showHistory(context *cli.Context) error {
	entries, err := app.engine.History()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		fmt.Fprintf(
			context.App.Writer,
			"%s  %-20s %-10s %d -> %d bytes, ratio %.3f, %.3fs\n",
			entry.Timestamp,
			entry.Action,
			entry.Codecs,
			entry.DecompressedSize,
			entry.CompressedSize,
			entry.Ratio,
			entry.Seconds)
	}
	return nil
}

func formatLocal(stat statistics.Local) string {
	return fmt.Sprintf(
		"%d -> %d bytes, ratio %.3f, %.3fs, %.0f B/s",
		stat.DecompressedSize,
		stat.CompressedSize,
		stat.Ratio(),
		stat.Seconds,
		stat.Speed())
}
