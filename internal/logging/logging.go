// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation settings of the log file
const (
	MaxSizeMB  = 10
	MaxBackups = 3
	MaxAgeDays = 28
)

// Options configures Setup
type Options struct {
	Verbose bool
	// File, when set, receives every log entry in addition to the console
	File string
	// Console defaults to os.Stderr
	Console io.Writer
}

// Setup configures the standard logger. The returned function closes the
// log file and must be called before exit.
func Setup(opts Options) (func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	level := logrus.InfoLevel
	if opts.Verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: !opts.Verbose,
	})

	if opts.File == "" {
		logrus.SetOutput(console)
		return func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, err
	}
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    MaxSizeMB,
		MaxBackups: MaxBackups,
		MaxAge:     MaxAgeDays,
		LocalTime:  true,
	}
	logrus.SetOutput(io.MultiWriter(console, file))
	logrus.Debugf("Logging to %s", opts.File)

	return file.Close, nil
}
