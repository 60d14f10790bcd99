package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labi-le/zzz/internal/config"
	"github.com/labi-le/zzz/internal/history"
	"github.com/labi-le/zzz/internal/lock"
	"github.com/labi-le/zzz/internal/metadata"
	"github.com/labi-le/zzz/internal/notification"
	"github.com/labi-le/zzz/internal/selection"
	"github.com/labi-le/zzz/internal/service"
	"github.com/labi-le/zzz/internal/session"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitEnv     = 2
	exitConfig  = 3
)

type action struct {
	replace        bool
	legacy         bool
	verbose        bool
	notify         bool
	showVersion    bool
	showHelp       bool
	installService bool

	configPath string
	stateDir   string
}

func parseFlags() action {
	var act action

	flag.Usage = func() {
		out := flag.CommandLine.Output()
		_, _ = fmt.Fprintf(out, "usage: zzz [options]\n\n")
		flag.PrintDefaults()
	}

	flag.BoolVarP(&act.replace, "replace", "r", false, "Replace the selection when it is cleared, such as when the source application exits")
	flag.BoolVar(&act.legacy, "legacy", false, "Capture only the best ranked MIME type and keep it in the history directory")
	flag.BoolVar(&act.notify, "notify", false, "Show a desktop notification when the selection is restored")
	flag.BoolVar(&act.verbose, "verbose", false, "Verbose logs")
	flag.BoolVarP(&act.showVersion, "version", "v", false, "Show version")
	flag.BoolVarP(&act.showHelp, "help", "h", false, "Show help")
	flag.BoolVar(&act.installService, "install-service", false, "Install systemd-unit and start the service")
	flag.StringVar(&act.configPath, "config", "", "Preference file (default $XDG_CONFIG_HOME/zzzclip, or zzz_mimes with --legacy)")
	flag.StringVar(&act.stateDir, "state-dir", "", "History directory (default $XDG_STATE_HOME/zzz_clip)")

	flag.Parse()

	return act
}

// serviceArgs are the flags the installed unit starts the daemon with.
func (a action) serviceArgs() []string {
	args := []string{"-r"}
	if a.legacy {
		args = append(args, "--legacy")
	}
	if a.notify {
		args = append(args, "--notify")
	}
	if a.configPath != "" {
		args = append(args, "--config", a.configPath)
	}
	if a.stateDir != "" {
		args = append(args, "--state-dir", a.stateDir)
	}
	return args
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
	if flag.NArg() > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "unexpected argument %q\n", flag.Arg(0))
		flag.Usage()
		return exitEnv
	}

	applyTagsOverrides(&cfg)
	logger := initLogger(cfg.verbose)

	if cfg.showVersion {
		fmt.Println(metadata.String("zzz"))
		return exitOK
	}

	logger.Debug().
		Str("v", metadata.Version).
		Str("commit_hash", metadata.CommitHash).
		Str("build_time", metadata.BuildTime).
		Send()

	if cfg.installService {
		if err := service.InstallService(cfg.serviceArgs(), logger); err != nil {
			logger.Error().Err(err).Msg("failed install service")
			return exitRuntime
		}
		return exitOK
	}

	paths, err := config.Resolve()
	if err != nil {
		logger.Error().Err(err).Msg("cannot resolve configuration paths")
		return exitEnv
	}
	if cfg.stateDir != "" {
		paths.History = cfg.stateDir
	}

	opts, err := selectionOptions(cfg, paths, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load configuration")
		if errors.Is(err, config.ErrMalformed) {
			return exitConfig
		}
		return exitEnv
	}

	unlock := lock.Must(paths.History, logger)
	defer unlock()

	sess, err := session.Dial(session.Options{Selection: &opts, Logger: logger})
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to Wayland display")
		return exitRuntime
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn().Err(err).Msg("close display connection")
		}
	}()

	if cfg.replace {
		logger.Info().Msg("replacing the selection when it is cleared")
	}

	if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("session failed")
		return exitRuntime
	}
	return exitOK
}

func selectionOptions(cfg action, paths config.Paths, logger zerolog.Logger) (selection.Options, error) {
	opts := selection.Options{
		Replace:  cfg.replace,
		Notifier: notification.New(cfg.notify, logger),
		Logger:   logger,
	}

	if cfg.legacy {
		path := paths.Precedence
		if cfg.configPath != "" {
			path = cfg.configPath
		}
		precedence, found, err := config.LoadPrecedence(path)
		if err != nil {
			return opts, err
		}
		logger.Debug().Str("path", path).Bool("found", found).Msg("precedence loaded")

		opts.Precedence = precedence
		opts.Store = history.Open(paths.History, logger)
		return opts, nil
	}

	path := paths.Tree
	if cfg.configPath != "" {
		path = cfg.configPath
	}
	tree, found, err := config.LoadTree(path)
	if err != nil {
		return opts, err
	}
	logger.Debug().
		Str("path", path).
		Bool("found", found).
		Stringer("tree", tree).
		Msg("preference tree loaded")

	opts.Tree = tree
	return opts, nil
}

func initLogger(verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	if verbose {
		zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
			short := file
			for i := len(file) - 1; i > 0; i-- {
				if file[i] == '/' {
					short = file[i+1:]
					break
				}
			}
			file = short
			return fmt.Sprintf("%s:%d", file, line)
		}
		return zerolog.New(output).
			Level(zerolog.TraceLevel).
			With().
			Timestamp().
			Caller().
			Logger()
	}

	return zerolog.New(output).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}
