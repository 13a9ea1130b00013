// Package logging builds the scraper's structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Level  string
	Format string
	// File, when set, receives a copy of every line and is rotated by size.
	File string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Styles for the level badges
var (
	errorLevelStyle = lipgloss.NewStyle().
			SetString("ERROR").
			Bold(true).
			MaxWidth(5).
			Foreground(lipgloss.Color("196"))

	warnLevelStyle = lipgloss.NewStyle().
			SetString("WARN").
			Bold(true).
			MaxWidth(4).
			Foreground(lipgloss.Color("214"))
)

// New returns a logger and a closer for any file it opened. The closer is
// never nil.
func New(opts Options) (*log.Logger, io.Closer, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Level))
	if name == "" {
		name = "info"
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	formatter, err := parseFormat(opts.Format)
	if err != nil {
		return nil, nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	var closer io.Closer = nopCloser{}
	// The terminal's colour profile, detected before out is wrapped and no
	// longer looks like a TTY.
	profile := termenv.NewOutput(out).EnvColorProfile()
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = io.MultiWriter(out, plainWriter{rotator})
		closer = rotator
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	logger.SetColorProfile(profile)

	styles := log.DefaultStyles()
	styles.Levels[log.ErrorLevel] = errorLevelStyle
	styles.Levels[log.WarnLevel] = warnLevelStyle
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	logger.SetStyles(styles)

	return logger, closer, nil
}

func parseFormat(format string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("invalid log format %q (must be text, json or logfmt)", format)
	}
}

// plainWriter drops ANSI styling so log files stay greppable.
type plainWriter struct {
	w io.Writer
}

func (p plainWriter) Write(b []byte) (int, error) {
	if _, err := io.WriteString(p.w, ansi.Strip(string(b))); err != nil {
		return 0, err
	}
	return len(b), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
