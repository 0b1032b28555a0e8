// Package logging provides the console and diagnostic loggers shared by all
// commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Verbosity controls how much a command prints.
type Verbosity int

const (
	Silent Verbosity = iota
	Errors
	Warnings
	Normal
	Obnoxious
	Debug
)

// LevelObnoxious sits between info and debug for chatty progress output.
const LevelObnoxious = slog.Level(-2)

var verbosityNames = []string{"silent", "errors", "warnings", "normal", "obnoxious", "debug"}

func (v Verbosity) String() string {
	if v < Silent || v > Debug {
		return "Verbosity(" + strconv.Itoa(int(v)) + ")"
	}
	return verbosityNames[v]
}

// Level maps v to the minimum slog level that is emitted.
func (v Verbosity) Level() slog.Level {
	switch v {
	case Silent:
		return slog.LevelError + 4
	case Errors:
		return slog.LevelError
	case Warnings:
		return slog.LevelWarn
	case Normal:
		return slog.LevelInfo
	case Obnoxious:
		return LevelObnoxious
	default:
		return slog.LevelDebug
	}
}

// ParseVerbosity accepts a level name or its number (0-5). An empty string
// means Normal.
func ParseVerbosity(s string) (Verbosity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Normal, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < int(Silent) || n > int(Debug) {
			return 0, fmt.Errorf("verbosity %d out of range 0-%d", n, Debug)
		}
		return Verbosity(n), nil
	}
	for i, name := range verbosityNames {
		if name == s {
			return Verbosity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown verbosity %q (want one of %s)", s, strings.Join(verbosityNames, ", "))
}

// Logger writes user-facing messages to a console writer and diagnostics
// through slog. Both are gated by the same verbosity.
type Logger struct {
	*slog.Logger
	level     *slog.LevelVar
	out       io.Writer
	verbosity Verbosity
}

// Diagnostic formats accepted by New.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// ValidFormat reports whether format is accepted by New.
func ValidFormat(format string) bool {
	switch format {
	case FormatAuto, FormatText, FormatJSON:
		return true
	}
	return false
}

// New creates a Logger at Normal verbosity. Console messages go to out and
// diagnostics to diag, formatted as text or JSON. FormatAuto picks text when
// diag is a terminal and JSON otherwise.
func New(out, diag io.Writer, format string) *Logger {
	level := new(slog.LevelVar)
	level.Set(Normal.Level())

	if format == FormatAuto {
		format = FormatJSON
		if isTerminal(diag) {
			format = FormatText
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(diag, opts)
	} else {
		handler = slog.NewTextHandler(diag, opts)
	}

	return &Logger{
		Logger:    slog.New(handler),
		level:     level,
		out:       out,
		verbosity: Normal,
	}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	l := New(io.Discard, io.Discard, FormatText)
	l.SetVerbosity(Silent)
	return l
}

// SetVerbosity adjusts console and diagnostic output.
func (l *Logger) SetVerbosity(v Verbosity) {
	l.verbosity = v
	l.level.Set(v.Level())
}

// Verbosity returns the current verbosity.
func (l *Logger) Verbosity() Verbosity {
	return l.verbosity
}

// Log prints msg on its own line to the console at Normal verbosity or above.
func (l *Logger) Log(msg string) {
	if l.verbosity < Normal {
		return
	}
	fmt.Fprintln(l.out, msg)
}

// Logf is Log with formatting.
func (l *Logger) Logf(format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
