// Package ui provides the leveled, colored terminal output used by the
// gridctl CLI. Every deployment step boundary is reported through a Logger
// so operators can follow the workflow without parsing raw kubectl output.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Level identifies the severity of a log line.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelSuccess Level = "SUCCESS"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorWhite  = lipgloss.Color("#f9fafb")

	infoStyle    = lipgloss.NewStyle().Foreground(colorBlue)
	successStyle = lipgloss.NewStyle().Foreground(colorGreen)
	warningStyle = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
)

func levelStyle(level Level) lipgloss.Style {
	switch level {
	case LevelSuccess:
		return successStyle
	case LevelWarning:
		return warningStyle
	case LevelError:
		return errorStyle
	default:
		return infoStyle
	}
}

// Logger writes leveled log lines to a single destination.
// The zero value is not usable; construct with New.
type Logger struct {
	out io.Writer
}

// New returns a Logger writing to w.
func New(w io.Writer) *Logger {
	return &Logger{out: w}
}

// Default returns a Logger writing to stdout.
func Default() *Logger {
	return New(os.Stdout)
}

// Log writes a single prefixed line at the given level.
func (l *Logger) Log(level Level, format string, args ...any) {
	prefix := levelStyle(level).Render(fmt.Sprintf("[%s]", level))
	fmt.Fprintf(l.out, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// Infof logs at INFO level.
func (l *Logger) Infof(format string, args ...any) { l.Log(LevelInfo, format, args...) }

// Successf logs at SUCCESS level.
func (l *Logger) Successf(format string, args ...any) { l.Log(LevelSuccess, format, args...) }

// Warningf logs at WARNING level.
func (l *Logger) Warningf(format string, args ...any) { l.Log(LevelWarning, format, args...) }

// Errorf logs at ERROR level.
func (l *Logger) Errorf(format string, args ...any) { l.Log(LevelError, format, args...) }

// Banner writes a bold title between two separator rules.
func (l *Logger) Banner(title string) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(l.out, rule)
	fmt.Fprintln(l.out, bannerStyle.Render(title))
	fmt.Fprintln(l.out, rule)
}

// Rule writes a single separator line.
func (l *Logger) Rule() {
	fmt.Fprintln(l.out, strings.Repeat("=", 60))
}
