package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents logging level
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
	LevelFatal LogLevel = "fatal"
)

// Logger wraps zerolog with service-scoped fields and context extraction.
type Logger struct {
	logger  zerolog.Logger
	service string
}

// Config holds logger configuration
type Config struct {
	Level       LogLevel
	Service     string
	Environment string
	Output      io.Writer
	PrettyLog   bool
	AddCaller   bool
}

// DefaultConfig returns default logger configuration
func DefaultConfig(service string) *Config {
	env := getEnv("ENVIRONMENT", "development")
	return &Config{
		Level:       LogLevel(getEnv("LOG_LEVEL", string(LevelInfo))),
		Service:     service,
		Environment: env,
		Output:      os.Stdout,
		PrettyLog:   env == "development",
		AddCaller:   true,
	}
}

// NewLogger creates a new structured logger
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig("unknown")
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(parseLevel(config.Level))

	var output io.Writer = config.Output
	if output == nil {
		output = os.Stdout
	}
	if config.PrettyLog {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05.000",
		}
	}

	logger := zerolog.New(output).
		With().
		Timestamp().
		Str("service", config.Service).
		Str("environment", config.Environment).
		Logger()

	if config.AddCaller {
		logger = logger.With().Caller().Logger()
	}

	return &Logger{logger: logger, service: config.Service}
}

// WithContext returns a logger carrying the correlation identifiers
// stored in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	logger := l.logger

	if correlationID := GetCorrelationID(ctx); correlationID != "" {
		logger = logger.With().Str("correlation_id", correlationID).Logger()
	}
	if userID := GetUserID(ctx); userID != "" {
		logger = logger.With().Str("user_id", userID).Logger()
	}
	if eventID := GetEventID(ctx); eventID != "" {
		logger = logger.With().Str("event_id", eventID).Logger()
	}

	return &Logger{logger: logger, service: l.service}
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		logger:  l.logger.With().Interface(key, value).Logger(),
		service: l.service,
	}
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{
		logger:  l.logger.With().Fields(fields).Logger(),
		service: l.service,
	}
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{
		logger:  l.logger.With().Err(err).Logger(),
		service: l.service,
	}
}

func (l *Logger) Debug(msg string) { l.logger.Debug().Msg(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l *Logger) Info(msg string) { l.logger.Info().Msg(msg) }

func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

func (l *Logger) Warn(msg string) { l.logger.Warn().Msg(msg) }

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l *Logger) Error(msg string) { l.logger.Error().Msg(msg) }

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l *Logger) Fatal(msg string) { l.logger.Fatal().Msg(msg) }

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.logger.Fatal().Msgf(format, args...)
}

func parseLevel(level LogLevel) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
