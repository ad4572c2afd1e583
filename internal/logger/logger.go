package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type key int

const loggerKey key = iota

func NewContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok && l != nil {
		return l
	}

	return NewNoOpLogger()
}

type LogLevel int8

const (
	DebugLevel LogLevel = iota - 1
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "LEVEL(" + strconv.Itoa(int(l)) + ")"
	}
}

const (
	defaultBufferSize    = 4096
	defaultFlushInterval = 100 * time.Millisecond
)

type Config struct {
	Level LogLevel
	// Output defaults to os.Stdout.
	Output io.Writer
}

type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	Fatal(msg string, fields ...any)
	With(fields ...any) Logger
	Close()
}

// sink owns the background writer shared by a logger and all of its With children.
type sink struct {
	out           io.Writer
	logChan       chan []byte
	done          chan struct{}
	closeOnce     sync.Once
	wg            sync.WaitGroup
	bufferSize    int
	flushInterval time.Duration
}

type asyncLogger struct {
	cfg           Config
	sink          *sink
	contextFields []any
}

type Option func(*sink)

func WithBufferSize(size int) Option {
	return func(s *sink) {
		if size > 0 {
			s.bufferSize = size
		}
	}
}

func WithFlushInterval(interval time.Duration) Option {
	return func(s *sink) {
		if interval > 0 {
			s.flushInterval = interval
		}
	}
}

// NewAsyncLogger starts the writer goroutine. It stops when ctx is cancelled
// or Close is called, flushing whatever is still queued.
func NewAsyncLogger(ctx context.Context, cfg Config, opts ...Option) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	s := &sink{
		out:           out,
		done:          make(chan struct{}),
		bufferSize:    defaultBufferSize,
		flushInterval: defaultFlushInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logChan = make(chan []byte, s.bufferSize+1)

	s.wg.Add(1)
	go s.run(ctx)

	return &asyncLogger{cfg: cfg, sink: s}
}

func (s *sink) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	var batch bytes.Buffer
	flush := func() {
		if batch.Len() > 0 {
			_, _ = s.out.Write(batch.Bytes())
			batch.Reset()
		}
	}
	drain := func() {
		for {
			select {
			case msg := <-s.logChan:
				batch.Write(msg)
			default:
				flush()
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			drain()
			return

		case <-s.done:
			drain()
			return

		case <-ticker.C:
			flush()

		case msg := <-s.logChan:
			batch.Write(msg)
			if batch.Len() >= s.bufferSize {
				flush()
			}
		}
	}
}

func (l *asyncLogger) Debug(msg string, fields ...any) {
	l.log(DebugLevel, msg, fields...)
}

func (l *asyncLogger) Info(msg string, fields ...any) {
	l.log(InfoLevel, msg, fields...)
}

func (l *asyncLogger) Warn(msg string, fields ...any) {
	l.log(WarnLevel, msg, fields...)
}

func (l *asyncLogger) Error(msg string, fields ...any) {
	l.log(ErrorLevel, msg, fields...)
}

// Fatal logs, flushes and exits the process.
func (l *asyncLogger) Fatal(msg string, fields ...any) {
	l.log(FatalLevel, msg, fields...)
	l.Close()
	os.Exit(1)
}

func (l *asyncLogger) With(fields ...any) Logger {
	merged := make([]any, 0, len(l.contextFields)+len(fields))
	merged = append(merged, l.contextFields...)
	merged = append(merged, fields...)
	return &asyncLogger{cfg: l.cfg, sink: l.sink, contextFields: merged}
}

func (l *asyncLogger) log(level LogLevel, msg string, fields ...any) {
	if level < l.cfg.Level {
		return
	}

	var sb strings.Builder
	sb.WriteString(time.Now().Format(time.RFC3339Nano))
	sb.WriteString(" ")
	sb.WriteString(level.String())
	sb.WriteString(" ")
	sb.WriteString(msg)

	writeFields(&sb, l.contextFields)
	writeFields(&sb, fields)
	sb.WriteString("\n")

	line := sb.String()
	select {
	case l.sink.logChan <- []byte(line):
	default:
		fmt.Fprintf(os.Stderr, "WARNING: Logger channel is full. Log message dropped: %s", line)
	}
}

// Close stops the writer and blocks until queued lines are flushed.
func (l *asyncLogger) Close() {
	l.sink.closeOnce.Do(func() { close(l.sink.done) })
	l.sink.wg.Wait()
}

func writeFields(sb *strings.Builder, fields []any) {
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(key)
		sb.WriteString("=")
		if i+1 < len(fields) {
			appendValue(sb, fields[i+1])
		}
	}
}

func appendValue(sb *strings.Builder, value any) {
	switch val := value.(type) {
	case string:
		if strings.ContainsAny(val, " \t\n\"=") {
			sb.WriteString(strconv.Quote(val))
			return
		}
		sb.WriteString(val)
	case int:
		sb.WriteString(strconv.Itoa(val))
	case int64:
		sb.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		sb.WriteString(strconv.FormatUint(val, 10))
	case float64:
		sb.WriteString(strconv.FormatFloat(val, 'f', -1, 64))
	case bool:
		sb.WriteString(strconv.FormatBool(val))
	case time.Duration:
		sb.WriteString(val.String())
	case error:
		sb.WriteString(strconv.Quote(val.Error()))
	default:
		sb.WriteString(fmt.Sprintf("%v", val))
	}
}

func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

type noOpLogger struct{}

func (n *noOpLogger) Debug(msg string, fields ...any) {}
func (n *noOpLogger) Info(msg string, fields ...any)  {}
func (n *noOpLogger) Warn(msg string, fields ...any)  {}
func (n *noOpLogger) Error(msg string, fields ...any) {}
func (n *noOpLogger) Fatal(msg string, fields ...any) {}

func (n *noOpLogger) With(fields ...any) Logger {
	return n
}
func (n *noOpLogger) Close() {}

func NewNoOpLogger() Logger {
	return &noOpLogger{}
}
