package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/linkdesu/dwd"
	"golang.org/x/term"
)

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }

func (v *verbosity) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*v++
	}
	return nil
}

func newLogger(conf dwd.LogConfig, verbose int) (*slog.Logger, error) {
	var level slog.Level
	switch conf.Level {
	case dwd.LogLevelInfo, dwd.LogLevelDefault:
		level = slog.LevelInfo
	case dwd.LogLevelDebug:
		level = slog.LevelDebug
	case dwd.LogLevelWarn:
		level = slog.LevelWarn
	case dwd.LogLevelError:
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", conf.Level)
	}
	if verbose > 0 {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose > 1,
	}

	format := conf.Format
	if format == dwd.LogFormatDefault {
		format = dwd.LogFormatJSON
		if term.IsTerminal(int(os.Stderr.Fd())) {
			format = dwd.LogFormatConsole
		}
	}

	var output slog.Handler
	switch format {
	case dwd.LogFormatJSON:
		output = slog.NewJSONHandler(os.Stderr, opts)
	case dwd.LogFormatConsole:
		output = slog.NewTextHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", conf.Format)
	}
	return slog.New(output), nil
}
