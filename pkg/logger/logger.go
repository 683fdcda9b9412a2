// Package logger wraps zerolog with typed fields and an optional collector
// that aggregates error logs and ships them through a Publisher.
package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// modulePrefix is stripped from caller paths reported to the collector.
const modulePrefix = "GanttGen"

type Logger struct {
	zl   zerolog.Logger
	sink *sink
}

// sink is shared by a logger and every child made with With.
type sink struct {
	mu        sync.RWMutex
	collector *LogCollector
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string // time format for log messages
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	output, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
	}

	zl := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(4).
		Logger()

	return &Logger{zl: zl, sink: &sink{}}, nil
}

func openOutput(out string) (io.Writer, error) {
	switch out {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		return f, nil
	}
}

// Nop returns a logger that discards everything (tests, CLI one-shots).
// A collector added to it still receives errors.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), sink: &sink{}}
}

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = f.context(ctx)
	}
	return &Logger{zl: ctx.Logger(), sink: l.sink}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.write(l.zl.Debug(), msg, fields) }

func (l *Logger) Info(msg string, fields ...Field) { l.write(l.zl.Info(), msg, fields) }

func (l *Logger) Warn(msg string, fields ...Field) { l.write(l.zl.Warn(), msg, fields) }

func (l *Logger) Error(msg string, fields ...Field) {
	l.write(l.zl.Error(), msg, fields)
	l.collect("error", msg, fields)
}

func (l *Logger) write(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		f.add(e)
	}
	e.Msg(msg)
}

func (l *Logger) collect(level, msg string, fields []Field) {
	l.sink.mu.RLock()
	c := l.sink.collector
	l.sink.mu.RUnlock()
	if c == nil {
		return
	}

	// skip collect and Error
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(2); ok {
		parts := strings.Split(file, modulePrefix)
		caller = fmt.Sprintf("%s:%d", parts[len(parts)-1], line)
	}

	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	c.AddLog(level, msg, m, caller)
}

// AddCollector starts shipping aggregated error logs, replacing any
// previous collector.
func (l *Logger) AddCollector(config *CollectionConfig) {
	c := NewLogCollector(config)

	l.sink.mu.Lock()
	prev := l.sink.collector
	l.sink.collector = c
	l.sink.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
}

// RemoveCollector flushes and stops the collector, if any.
func (l *Logger) RemoveCollector() {
	l.sink.mu.Lock()
	c := l.sink.collector
	l.sink.collector = nil
	l.sink.mu.Unlock()

	if c != nil {
		c.Close()
	}
}

// Field is a typed key/value pair. Value is what the collector sees.
type Field struct {
	Key   string
	Value interface{}

	add     func(e *zerolog.Event)
	context func(c zerolog.Context) zerolog.Context
}

func String(key, value string) Field {
	return Field{
		Key:     key,
		Value:   value,
		add:     func(e *zerolog.Event) { e.Str(key, value) },
		context: func(c zerolog.Context) zerolog.Context { return c.Str(key, value) },
	}
}

func Int(key string, value int) Field {
	return Field{
		Key:     key,
		Value:   value,
		add:     func(e *zerolog.Event) { e.Int(key, value) },
		context: func(c zerolog.Context) zerolog.Context { return c.Int(key, value) },
	}
}

func Int64(key string, value int64) Field {
	return Field{
		Key:     key,
		Value:   value,
		add:     func(e *zerolog.Event) { e.Int64(key, value) },
		context: func(c zerolog.Context) zerolog.Context { return c.Int64(key, value) },
	}
}

func Float64(key string, value float64) Field {
	return Field{
		Key:     key,
		Value:   value,
		add:     func(e *zerolog.Event) { e.Float64(key, value) },
		context: func(c zerolog.Context) zerolog.Context { return c.Float64(key, value) },
	}
}

func Bool(key string, value bool) Field {
	return Field{
		Key:     key,
		Value:   value,
		add:     func(e *zerolog.Event) { e.Bool(key, value) },
		context: func(c zerolog.Context) zerolog.Context { return c.Bool(key, value) },
	}
}

// Duration logs d in whole milliseconds.
func Duration(key string, d time.Duration) Field {
	return Int(key, int(d/time.Millisecond))
}

func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ", "))
}

func Any(key string, value interface{}) Field {
	return Field{
		Key:     key,
		Value:   value,
		add:     func(e *zerolog.Event) { e.Interface(key, value) },
		context: func(c zerolog.Context) zerolog.Context { return c.Interface(key, value) },
	}
}

// Error logs err under "error". A nil err is allowed.
func Error(err error) Field {
	var msg interface{}
	if err != nil {
		msg = err.Error()
	}
	return Field{
		Key:     zerolog.ErrorFieldName,
		Value:   msg,
		add:     func(e *zerolog.Event) { e.Err(err) },
		context: func(c zerolog.Context) zerolog.Context { return c.AnErr(zerolog.ErrorFieldName, err) },
	}
}
