// Package logging provides the structured logger shared by the proof
// store, WoT engine, verification engine, and sync adapter.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.SugaredLogger so call sites never import zap
// directly.
type Logger struct {
	zLogger *zap.SugaredLogger
}

// Config selects the running environment ("development" or "production"),
// an optional file to additionally write output to, and whether
// stacktraces should be attached to Error/Panic/Fatal entries.
type Config struct {
	EnableStacktrace bool   `toml:"enable_stacktrace,omitempty"`
	Environment      string `toml:"env"`
	Path             string `toml:"path,omitempty"`
}

// New builds a Logger from conf. Development logs Debug and above in a
// human-friendly console format; production logs Info and above.
func New(conf *Config) (*Logger, error) {
	zLevel := zap.NewAtomicLevel()
	switch {
	case strings.EqualFold("development", conf.Environment):
		zLevel.SetLevel(zap.DebugLevel)
	case strings.EqualFold("production", conf.Environment), conf.Environment == "":
		zLevel.SetLevel(zap.InfoLevel)
	default:
		return nil, &UnknownEnvironment{Environment: conf.Environment}
	}

	outputPaths := []string{"stderr"}
	if conf.Path != "" {
		outputPaths = append(outputPaths, conf.Path)
	}

	zConfig := &zap.Config{
		Level:             zLevel,
		Development:       false,
		Encoding:          "console",
		DisableStacktrace: !conf.EnableStacktrace,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "path",
			MessageKey:     "msg",
			StacktraceKey:  "stack",
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		OutputPaths: outputPaths,
	}

	built, err := zConfig.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{zLogger: built.Sugar()}, nil
}

// UnknownEnvironment is returned by New when conf.Environment is neither
// "development" nor "production" nor empty.
type UnknownEnvironment struct {
	Environment string
}

func (e *UnknownEnvironment) Error() string {
	return "logging: unknown environment " + e.Environment + ", want \"development\" or \"production\""
}

// Nop returns a Logger that discards everything. Packages that accept an
// optional *Logger (store, wot, verify, repo) default to it so they never
// need a nil check at every call site.
func Nop() *Logger {
	return &Logger{zLogger: zap.NewNop().Sugar()}
}

// Named returns a Logger that prefixes every entry with name, for
// distinguishing the WoT engine's log lines from the sync adapter's.
func (l *Logger) Named(name string) *Logger {
	return &Logger{zLogger: l.zLogger.Named(name)}
}

// Sync flushes any buffered log entries. Call before process exit.
func (l *Logger) Sync() error {
	return l.zLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.zLogger.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.zLogger.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.zLogger.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.zLogger.Errorw(msg, keysAndValues...)
}

func (l *Logger) Panic(msg string, keysAndValues ...interface{}) {
	l.zLogger.Panicw(msg, keysAndValues...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.zLogger.Fatalw(msg, keysAndValues...)
}
