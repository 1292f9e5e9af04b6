package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with a component name attached to every entry.
type Logger struct {
	*zap.Logger
	component string
}

// Config holds logger configuration
type Config struct {
	// Env selects the encoder: "dev" for console output, "prod" for JSON.
	Env       string
	Level     string
	Component string
}

// DefaultConfig returns sensible defaults for logging
func DefaultConfig() Config {
	return Config{
		Env:       "dev",
		Level:     "info",
		Component: ComponentApp,
	}
}

// New creates a new logger with the given configuration
func New(config Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(config.Level))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zc zap.Config
	switch config.Env {
	case "prod":
		zc = zap.NewProductionConfig()
	case "dev", "":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log env %q", config.Env)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	base, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	return Wrap(base, component), nil
}

// Wrap attaches a component to an existing zap logger.
func Wrap(base *zap.Logger, component string) *Logger {
	return &Logger{
		Logger:    base.With(zap.String(FieldComponent, component)),
		component: component,
	}
}

// Nop returns a logger that discards everything, for tests.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop(), component: ComponentApp}
}

// With returns a new logger with the given fields
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{
		Logger:    l.Logger.With(fields...),
		component: l.component,
	}
}

// WithComponent returns a new logger with a specific component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(zap.String(FieldComponent, component)),
		component: component,
	}
}

// Component returns the logger's component name
func (l *Logger) Component() string {
	return l.component
}
