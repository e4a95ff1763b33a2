// Package logging configures the global zerolog logger for the dispatcher.
//
// Console format is used when stderr is a terminal, JSON lines otherwise
// or when forced. Hook invocations run inside git, so everything goes to
// stderr and stays out of the hook's stdout contract.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Options controls global logger behavior.
type Options struct {
	Debug bool
	Quiet bool

	// JSON forces JSON lines even on a terminal.
	JSON bool

	// File appends a copy of all output to the given path when non-empty.
	File string
}

// Setup configures the global zerolog logger. Safe to call once at
// process start, before any package logs.
func Setup(opts Options) {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stderr
	if !opts.JSON && term.IsTerminal(int(os.Stderr.Fd())) {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err == nil {
			out = io.MultiWriter(out, f)
		}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	switch {
	case opts.Quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case opts.Debug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
