// Package log provides structured logging for cashubot.
package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers.
var (
	Bot     zerolog.Logger
	Wallet  zerolog.Logger
	Mint    zerolog.Logger
	Storage zerolog.Logger
	API     zerolog.Logger
)

var (
	fileMu  sync.Mutex
	logFile *os.File
)

func init() {
	Logger = NewConsoleLogger(os.Stdout, "info")
	initComponentLoggers()
}

// Init configures the global logger. When file is non-empty, output is tee'd
// to the file as JSON regardless of jsonOutput. A file opened by an earlier
// Init is closed.
func Init(level string, jsonOutput bool, file string) error {
	var w io.Writer = os.Stdout
	if !jsonOutput {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	var f *os.File
	if file != "" {
		var err error
		f, err = os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		w = zerolog.MultiLevelWriter(w, f)
	}

	fileMu.Lock()
	prev := logFile
	logFile = f
	fileMu.Unlock()

	Logger = zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()

	initComponentLoggers()
	if prev != nil {
		return prev.Close()
	}
	return nil
}

// Close releases the log file opened by Init, if any. Stdout is written
// first, so later events still reach it.
func Close() error {
	fileMu.Lock()
	f := logFile
	logFile = nil
	fileMu.Unlock()

	if f == nil {
		return nil
	}
	return f.Close()
}

// NewConsoleLogger creates a human-readable console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
	return zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func initComponentLoggers() {
	Bot = WithComponent("bot")
	Wallet = WithComponent("wallet")
	Mint = WithComponent("mint")
	Storage = WithComponent("storage")
	API = WithComponent("api")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Info logs an info message on the global logger.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Fatal logs a fatal message and exits.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}
