// Package telemetry configures the global zerolog logger and the OpenTelemetry
// providers.
package telemetry

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

type LogOptions struct {
	Level  string
	Format string // console or json
	// File, when set, receives JSON logs through a rotating writer in
	// addition to stderr.
	File string
}

// SetupLogging replaces the global logger. The returned closer releases the
// log file, if any.
func SetupLogging(opts LogOptions) (io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var console io.Writer = os.Stderr
	if opts.Format != "json" {
		console = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	var closer io.Closer = nopCloser{}
	out := console
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		file := rotatingFile(opts.File)
		out = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closer, nil
}

func rotatingFile(name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   name,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
