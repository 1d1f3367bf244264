// Package logging configures the global zerolog logger for the tftlcd tools.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Setup sets the global log level and routes output to a console writer on
// console, plus a rotating file at file when it is not empty.
//
// The returned function closes the log file.
func Setup(level, file string, console io.Writer) (func() error, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	if level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly}}
	closeFn := func() error { return nil }

	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    1,
			MaxBackups: 2,
		}
		writers = append(writers, lj)
		closeFn = lj.Close
	}

	log.Logger = log.Output(io.MultiWriter(writers...)).With().Timestamp().Logger()
	return closeFn, nil
}
