package nodegl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

// LogLevel is the severity of a log message, from least to most severe.
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogVerbose
	LogInfo
	LogWarning
	LogError
)

var logLevelNames = [...]string{"DEBUG", "VERBOSE", "INFO", "WARNING", "ERROR"}

func (l LogLevel) String() string {
	if l < LogDebug || l > LogError {
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
	return logLevelNames[l]
}

// ParseLogLevel converts a level name (case-insensitive) to a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	for i, name := range logLevelNames {
		if strings.EqualFold(s, name) {
			return LogLevel(i), nil
		}
	}
	return LogInfo, errorf(ErrInvalidArgument, "unknown log level %q", s)
}

// LogFunc receives every message at or above the minimum level when
// installed with Context.SetLogFunc.
type LogFunc func(level LogLevel, module, message string)

// Levels are spread over go-logging's range so that the five severities stay
// distinct under its filter.
func (l LogLevel) backendLevel() logging.Level {
	switch l {
	case LogDebug:
		return logging.DEBUG
	case LogVerbose:
		return logging.INFO
	case LogInfo:
		return logging.NOTICE
	case LogWarning:
		return logging.WARNING
	default:
		return logging.ERROR
	}
}

func levelFromBackend(l logging.Level) LogLevel {
	switch l {
	case logging.DEBUG:
		return LogDebug
	case logging.INFO:
		return LogVerbose
	case logging.NOTICE:
		return LogInfo
	case logging.WARNING:
		return LogWarning
	default:
		return LogError
	}
}

var logFormat = logging.MustStringFormatter(
	`%{module} @ %{shortfile} %{shortfunc}: %{message}`,
)

// logCalldepth skips logSink.log and the logf wrapper that calls it, so
// file and function name the code that logged.
const logCalldepth = 2

// levelBackend prefixes each line with the nodegl level name, which differs
// from the go-logging name the level is mapped onto.
type levelBackend struct {
	w    io.Writer
	next logging.Backend
}

func (b levelBackend) Log(level logging.Level, calldepth int, rec *logging.Record) error {
	fmt.Fprintf(b.w, "[%s] ", levelFromBackend(level))
	return b.next.Log(level, calldepth+1, rec)
}

// funcBackend adapts a LogFunc to a go-logging backend.
type funcBackend struct {
	fn LogFunc
}

func (b funcBackend) Log(level logging.Level, _ int, rec *logging.Record) error {
	b.fn(levelFromBackend(level), rec.Module, rec.Message())
	return nil
}

// logSink is the per-Context logging state: one leveled backend shared by
// a logger per module.
type logSink struct {
	level   LogLevel
	backend logging.LeveledBackend
	loggers map[string]*logging.Logger
}

func newLogSink(w io.Writer, fn LogFunc, level LogLevel) *logSink {
	s := &logSink{level: level, loggers: make(map[string]*logging.Logger)}
	s.install(w, fn)
	return s
}

// install replaces the backend. A non-nil fn wins over w; with neither,
// messages go to stderr.
func (s *logSink) install(w io.Writer, fn LogFunc) {
	var b logging.Backend
	if fn != nil {
		b = funcBackend{fn: fn}
	} else {
		if w == nil {
			w = os.Stderr
		}
		b = levelBackend{w: w, next: logging.NewBackendFormatter(logging.NewLogBackend(w, "", 0), logFormat)}
	}
	s.backend = logging.AddModuleLevel(b)
	s.backend.SetLevel(s.level.backendLevel(), "")
	for _, l := range s.loggers {
		l.SetBackend(s.backend)
	}
}

func (s *logSink) setLevel(level LogLevel) {
	s.level = level
	s.backend.SetLevel(level.backendLevel(), "")
}

func (s *logSink) enabled(level LogLevel) bool {
	return level >= s.level
}

// module returns the logger for a module name, creating it on first use.
func (s *logSink) module(name string) *logging.Logger {
	if l, ok := s.loggers[name]; ok {
		return l
	}
	l := logging.MustGetLogger(name)
	l.ExtraCalldepth = logCalldepth
	l.SetBackend(s.backend)
	s.loggers[name] = l
	return l
}

func (s *logSink) log(module string, level LogLevel, format string, args ...any) {
	if !s.enabled(level) {
		return
	}
	l := s.module(module)
	switch level {
	case LogDebug:
		l.Debugf(format, args...)
	case LogVerbose:
		l.Infof(format, args...)
	case LogInfo:
		l.Noticef(format, args...)
	case LogWarning:
		l.Warningf(format, args...)
	default:
		l.Errorf(format, args...)
	}
}

// fallbackSink serves nodes that log before being attached to a context.
var fallbackSink = newLogSink(os.Stderr, nil, LogWarning)

// logf logs on behalf of a node, using its class name as the module.
func (n *Node) logf(level LogLevel, format string, args ...any) {
	sink := fallbackSink
	if c := n.ctx; c != nil {
		sink = c.logs
	} else if c := n.owner; c != nil {
		sink = c.logs
	}
	sink.log(n.class.name, level, "%s: "+format, append([]any{n.name}, args...)...)
}
