package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labi-le/zzz/internal/config"
	"github.com/labi-le/zzz/internal/history"
	"github.com/labi-le/zzz/internal/metadata"
	"github.com/labi-le/zzz/internal/selection"
	"github.com/labi-le/zzz/internal/session"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitUsage   = 2
)

type action struct {
	verbose     bool
	showVersion bool
	showHelp    bool
	stateDir    string
}

func parseFlags() action {
	var act action

	flag.Usage = func() {
		out := flag.CommandLine.Output()
		_, _ = fmt.Fprintf(out, "usage: zzz-get [options] SEQ\n\n"+
			"Makes history entry SEQ the selection until another client takes it.\n\n")
		flag.PrintDefaults()
	}

	flag.BoolVar(&act.verbose, "verbose", false, "Verbose logs")
	flag.BoolVarP(&act.showVersion, "version", "v", false, "Show version")
	flag.BoolVarP(&act.showHelp, "help", "h", false, "Show help")
	flag.StringVar(&act.stateDir, "state-dir", "", "History directory (default $XDG_STATE_HOME/zzz_clip)")

	flag.Parse()

	return act
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := parseFlags()

	if cfg.showHelp {
		flag.CommandLine.SetOutput(os.Stdout)
		flag.Usage()
		return exitOK
	}
	if cfg.showVersion {
		fmt.Println(metadata.String("zzz-get"))
		return exitOK
	}

	if flag.NArg() != 1 {
		_, _ = fmt.Fprintf(os.Stderr, "expected 1 argument (history entry number), got %d\n", flag.NArg())
		flag.Usage()
		return exitUsage
	}
	seq, err := strconv.ParseUint(flag.Arg(0), 10, 64)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid history entry number %q\n", flag.Arg(0))
		flag.Usage()
		return exitUsage
	}

	logger := initLogger(cfg.verbose)

	dir := cfg.stateDir
	if dir == "" {
		if dir, err = config.ResolveHistory(); err != nil {
			logger.Error().Err(err).Msg("cannot resolve history directory")
			return exitUsage
		}
	}

	entry, err := history.Read(dir, seq)
	if err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("cannot read history entry")
		return exitRuntime
	}
	logger.Debug().EmbedObject(entry).Msg("entry loaded")

	clip := &selection.Clip{Items: []selection.Item{{Mime: entry.Mime, Data: entry.Data}}}

	var (
		sess      *session.Session
		published bool
	)
	sess, err = session.Dial(session.Options{
		Logger: logger,
		Ready: func(dev selection.Device) {
			if published {
				return
			}
			published = true

			replayer := selection.NewReplayer(clip, logger)
			replayer.OnCancel = func() {
				logger.Info().Msg("selection taken by another client, exiting")
				sess.Stop(session.ErrDone)
			}
			replayer.Bind(dev.Publish(clip.Mimes(), replayer))
			logger.Info().EmbedObject(entry).Msg("serving history entry")
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to Wayland display")
		return exitRuntime
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn().Err(err).Msg("close display connection")
		}
	}()

	if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("session failed")
		return exitRuntime
	}
	return exitOK
}

func initLogger(verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.TraceLevel
	}
	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}
