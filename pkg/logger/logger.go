package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the leveled, module-scoped logger passed down to every component.
type Logger interface {
	Sub(module string) Logger
	Debugf(msg string, args ...any)
	Infof(msg string, args ...any)
	Warnf(msg string, args ...any)
	Errorf(msg string, args ...any)
}

// Set groups the process loggers.
type Set struct {
	App  Logger
	HTTP Logger
}

// Options controls output format and destination.
type Options struct {
	Level  string
	Format string
	Writer io.Writer
}

// New builds console loggers at the given level.
func New(level string) *Set {
	return NewWithOptions(Options{Level: level, Format: "console"})
}

func NewWithOptions(opt Options) *Set {
	if opt.Level == "" {
		opt.Level = "INFO"
	}
	var w io.Writer = os.Stdout
	if opt.Writer != nil {
		w = opt.Writer
	}
	if !strings.EqualFold(opt.Format, "json") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: os.Getenv("NO_COLOR") != ""}
	}
	root := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp().Logger()
	app := &zeroLogger{zl: root, module: "App"}
	return &Set{
		App:  app,
		HTTP: app.Sub("HTTP"),
	}
}

// Stdout mirrors the constructor shape used by callers that only need one logger.
func Stdout(module, level string) Logger {
	root := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(parseLevel(level)).With().Timestamp().Logger()
	return &zeroLogger{zl: root, module: module}
}

func InitForTests() *Set {
	return &Set{App: Stdout("Test", "DEBUG"), HTTP: Noop}
}

func DisableColor() {
	os.Setenv("NO_COLOR", "1")
}

type zeroLogger struct {
	zl     zerolog.Logger
	module string
}

func (l *zeroLogger) Sub(module string) Logger {
	return &zeroLogger{zl: l.zl, module: l.module + "/" + module}
}

func (l *zeroLogger) Debugf(msg string, args ...any) { l.emit(l.zl.Debug(), msg, args) }
func (l *zeroLogger) Infof(msg string, args ...any)  { l.emit(l.zl.Info(), msg, args) }
func (l *zeroLogger) Warnf(msg string, args ...any)  { l.emit(l.zl.Warn(), msg, args) }
func (l *zeroLogger) Errorf(msg string, args ...any) { l.emit(l.zl.Error(), msg, args) }

func (l *zeroLogger) emit(evt *zerolog.Event, msg string, args []any) {
	if evt == nil {
		return
	}
	evt.Str("module", l.module).Msg(fmt.Sprintf(msg, args...))
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type noopLogger struct{}

// Noop discards everything.
var Noop Logger = noopLogger{}

func (noopLogger) Sub(string) Logger     { return Noop }
func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}
