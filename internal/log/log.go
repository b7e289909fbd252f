// Package log is the CLI's leveled logger. It keeps the slog level scale,
// adds a "success" level between info and warn, and writes colored
// single-line records to stderr so child process output stays readable.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

// Level constants on the slog scale.
const (
	LevelVerbose = slog.LevelDebug
	LevelInfo    = slog.LevelInfo
	LevelSuccess = slog.Level(2)
	LevelWarn    = slog.LevelWarn
	LevelError   = slog.LevelError
)

var (
	level   atomic.Int64
	heading atomic.Value

	mu     sync.Mutex
	out    io.Writer = os.Stderr
	styles           = newStyles(lipgloss.NewRenderer(os.Stderr))
)

func init() {
	level.Store(int64(LevelInfo))
	heading.Store("hcli")
}

type labelStyles struct {
	heading lipgloss.Style
	prefix  lipgloss.Style
	levels  map[slog.Level]lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) labelStyles {
	return labelStyles{
		heading: r.NewStyle().Foreground(lipgloss.Color("7")),
		prefix:  r.NewStyle().Foreground(lipgloss.Color("5")),
		levels: map[slog.Level]lipgloss.Style{
			LevelVerbose: r.NewStyle().Foreground(lipgloss.Color("4")),
			LevelInfo:    r.NewStyle().Foreground(lipgloss.Color("2")),
			LevelSuccess: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
			LevelWarn:    r.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3")),
			LevelError:   r.NewStyle().Foreground(lipgloss.Color("1")).Background(lipgloss.Color("0")),
		},
	}
}

// SetLevel sets the global log level.
func SetLevel(l slog.Level) {
	level.Store(int64(l))
}

// GetLevel returns the current log level.
func GetLevel() slog.Level {
	return slog.Level(level.Load())
}

// ParseLevel maps a LOG_LEVEL value to a level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "verbose", "debug", "silly":
		return LevelVerbose
	case "success":
		return LevelSuccess
	case "warn", "warning":
		return LevelWarn
	case "error", "silent":
		return LevelError
	default:
		return LevelInfo
	}
}

// LevelName returns the LOG_LEVEL spelling for l.
func LevelName(l slog.Level) string {
	switch {
	case l <= LevelVerbose:
		return "verbose"
	case l < LevelSuccess:
		return "info"
	case l < LevelWarn:
		return "success"
	case l < LevelError:
		return "warn"
	default:
		return "error"
	}
}

// SetHeading sets the leading word of every record.
func SetHeading(h string) {
	heading.Store(h)
}

// SetOutput redirects records to w. Colors follow w's terminal profile.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	styles = newStyles(lipgloss.NewRenderer(w))
}

// Verbose logs a verbose message. prefix is a short topic tag.
func Verbose(prefix, format string, args ...any) { logf(LevelVerbose, "verb", prefix, format, args...) }

// Info logs an info message.
func Info(prefix, format string, args ...any) { logf(LevelInfo, "info", prefix, format, args...) }

// Success logs a success message.
func Success(prefix, format string, args ...any) {
	logf(LevelSuccess, "success", prefix, format, args...)
}

// Warn logs a warning.
func Warn(prefix, format string, args ...any) { logf(LevelWarn, "WARN", prefix, format, args...) }

// Error logs an error; always emitted.
func Error(prefix, format string, args ...any) { logf(LevelError, "ERR!", prefix, format, args...) }

func logf(l slog.Level, label, prefix, format string, args ...any) {
	if l < LevelError && l < GetLevel() {
		return
	}
	msg := fmt.Sprintf(format, args...)

	mu.Lock()
	defer mu.Unlock()

	var b strings.Builder
	b.WriteString(styles.heading.Render(heading.Load().(string)))
	b.WriteByte(' ')
	b.WriteString(styles.levels[l].Render(label))
	if prefix != "" {
		b.WriteByte(' ')
		b.WriteString(styles.prefix.Render(prefix))
	}
	b.WriteByte(' ')
	b.WriteString(msg)
	b.WriteByte('\n')
	io.WriteString(out, b.String())
}
