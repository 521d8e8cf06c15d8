// Package canvaslog provides structured logging for the canvas engine using zap.
package canvaslog

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger to provide structured logging throughout the engine.
type Logger struct {
	*zap.SugaredLogger
	config *Config
}

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum log level to output (debug, info, warn, error).
	Level string

	// Format determines output format: "console" (human-readable) or "json" (machine-parseable).
	Format string

	// OutputPath is the file path for log output (empty = stdout only).
	OutputPath string

	// EnableCaller adds caller information to log entries.
	EnableCaller bool

	// EnableStacktrace adds stack traces to error-level logs.
	EnableStacktrace bool
}

var defaultLogger *Logger

// New creates a new logger instance with the provided configuration.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = &Config{
			Level:            "info",
			Format:           "console",
			EnableCaller:     false,
			EnableStacktrace: true,
		}
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "json" {
		encoderConfig = zap.NewProductionEncoderConfig()
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var writeSyncs []zapcore.WriteSyncer
	writeSyncs = append(writeSyncs, zapcore.AddSync(os.Stdout))

	if cfg.OutputPath != "" {
		file, err := os.OpenFile(cfg.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.OutputPath, err)
		}
		writeSyncs = append(writeSyncs, zapcore.AddSync(file))
	}

	writer := zapcore.NewMultiWriteSyncer(writeSyncs...)
	core := zapcore.NewCore(encoder, writer, level)

	opts := []zap.Option{}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zapLogger := zap.New(core, opts...)

	return &Logger{
		SugaredLogger: zapLogger.Sugar(),
		config:        cfg,
	}, nil
}

// Init initializes the global logger instance.
func Init(cfg *Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

// Get returns the global logger instance, creating a default one if needed.
func Get() *Logger {
	if defaultLogger == nil {
		logger, _ := New(nil)
		defaultLogger = logger
	}
	return defaultLogger
}

// WithFields returns a logger with the given fields attached for structured logging.
func (l *Logger) WithFields(fields ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.With(fields...),
		config:        l.config,
	}
}

// WithDocument returns a logger with document_id field attached.
func (l *Logger) WithDocument(docID string) *Logger {
	return l.WithFields("document_id", docID)
}

// WithPage returns a logger with page_index field attached.
func (l *Logger) WithPage(index int) *Logger {
	return l.WithFields("page_index", index)
}

// WithError returns a logger with error field attached.
func (l *Logger) WithError(err error) *Logger {
	return l.WithFields("error", err)
}

func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", level)
	}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.SugaredLogger.Sync()
}

// WithFields returns a logger with the given fields attached, using the global logger.
func WithFields(fields ...interface{}) *Logger {
	return Get().WithFields(fields...)
}

// WithError returns a logger with error field attached, using the global logger.
func WithError(err error) *Logger {
	return Get().WithError(err)
}
