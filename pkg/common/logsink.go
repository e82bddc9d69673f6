package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
)

// Verbosity levels understood by ConsoleSink
const (
	LevelInfo  = 0
	LevelDebug = 1
	LevelTrace = 2
)

// severityKey marks an Info call that should be rendered as a warning.
const severityKey = "severity"

// ConsoleSink implements logr.LogSink with bracketed, optionally coloured labels.
type ConsoleSink struct {
	writer       io.Writer
	minVerbosity int
	name         string
	keyValues    []interface{}
	mutex        *sync.Mutex
	useColor     bool
}

// NewConsoleSink creates a ConsoleSink writing to writer (os.Stderr when nil).
// Messages above minVerbosity are dropped.
func NewConsoleSink(writer io.Writer, minVerbosity int, useColor bool) *ConsoleSink {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleSink{
		writer:       writer,
		minVerbosity: minVerbosity,
		mutex:        &sync.Mutex{},
		useColor:     useColor,
	}
}

// NewConsoleLogger wraps a ConsoleSink in a logr.Logger.
func NewConsoleLogger(writer io.Writer, minVerbosity int, useColor bool) logr.Logger {
	return logr.New(NewConsoleSink(writer, minVerbosity, useColor))
}

// Init implements logr.LogSink.
func (s *ConsoleSink) Init(logr.RuntimeInfo) {}

// Enabled implements logr.LogSink.
func (s *ConsoleSink) Enabled(level int) bool {
	return level <= s.minVerbosity
}

// Info implements logr.LogSink.
func (s *ConsoleSink) Info(level int, msg string, keysAndValues ...interface{}) {
	if !s.Enabled(level) {
		return
	}
	label := s.levelLabel(level)
	kvs := make([]interface{}, 0, len(keysAndValues))
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok && key == severityKey {
			if keysAndValues[i+1] == "warning" {
				label = s.paint(color.FgYellow, "[WARN]")
			}
			continue
		}
		kvs = append(kvs, keysAndValues[i], keysAndValues[i+1])
	}
	s.write(label, msg, kvs)
}

// Error implements logr.LogSink.
func (s *ConsoleSink) Error(err error, msg string, keysAndValues ...interface{}) {
	kvs := append([]interface{}{}, keysAndValues...)
	if err != nil {
		kvs = append(kvs, "error", err)
	}
	s.write(s.paint(color.FgRed, "[ERROR]"), msg, kvs)
}

// WithValues implements logr.LogSink.
func (s *ConsoleSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	clone := *s
	clone.keyValues = append(append([]interface{}{}, s.keyValues...), keysAndValues...)
	return &clone
}

// WithName implements logr.LogSink.
func (s *ConsoleSink) WithName(name string) logr.LogSink {
	clone := *s
	if s.name != "" {
		clone.name = s.name + "." + name
	} else {
		clone.name = name
	}
	clone.keyValues = append([]interface{}{}, s.keyValues...)
	return &clone
}

func (s *ConsoleSink) levelLabel(level int) string {
	switch level {
	case LevelInfo:
		return s.paint(color.FgGreen, "[INFO]")
	case LevelDebug:
		return s.paint(color.FgCyan, "[DEBUG]")
	case LevelTrace:
		return s.paint(color.FgMagenta, "[TRACE]")
	default:
		return fmt.Sprintf("[LEVEL %d]", level)
	}
}

func (s *ConsoleSink) paint(attr color.Attribute, label string) string {
	if !s.useColor {
		return label
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(label)
}

func (s *ConsoleSink) write(label, msg string, keysAndValues []interface{}) {
	var b strings.Builder
	b.WriteString(label)
	b.WriteByte(' ')
	if s.name != "" {
		fmt.Fprintf(&b, "[%s] ", s.name)
	}
	b.WriteString(msg)

	all := append(append([]interface{}{}, s.keyValues...), keysAndValues...)
	for i := 0; i+1 < len(all); i += 2 {
		key, ok := all[i].(string)
		if !ok {
			key = fmt.Sprintf("key%d", i/2)
		}
		fmt.Fprintf(&b, " %s=%v", key, all[i+1])
	}
	b.WriteByte('\n')

	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, _ = io.WriteString(s.writer, b.String())
}
