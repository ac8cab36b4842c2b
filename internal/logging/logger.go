package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "LMSADMIN_LOG_LEVEL"

// LogFormatEnvVar selects the encoder ("console" or "json").
const LogFormatEnvVar = "LMSADMIN_LOG_FORMAT"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks LMSADMIN_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoding := "console"
	if os.Getenv(LogFormatEnvVar) == "json" {
		encoding = "json"
	}

	// Logs go to stderr so command output on stdout stays pipeable.
	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	if encoding == "console" {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// current returns the global logger, a no-op one before Initialize.
func current() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Named returns a child logger scoped to a component (e.g. "apiclient").
func Named(component string) *zap.Logger {
	return current().Named(component)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	current().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	current().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	current().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	current().Error(msg, fields...)
}

// LogAPIRequest logs an outgoing API request
func LogAPIRequest(method, path string, authenticated bool, csrf bool) {
	Debug("API request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Bool("authenticated", authenticated),
		zap.Bool("csrf", csrf),
	)
}

// LogAPIResponse logs the outcome of an API request
func LogAPIResponse(method, path string, statusCode int, duration time.Duration, size int) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", statusCode),
		zap.Duration("duration", duration),
		zap.Int("size", size),
	}

	if statusCode >= 400 {
		Warn("API response", fields...)
		return
	}
	Debug("API response", fields...)
}

// LogTokenRefresh logs a token refresh attempt and its outcome
func LogTokenRefresh(trigger string, err error) {
	if err != nil {
		Warn("Token refresh failed",
			zap.String("trigger", trigger),
			zap.Error(err),
		)
		return
	}
	Info("Token refreshed", zap.String("trigger", trigger))
}

// LogSessionEvent logs a session lifecycle event (login, logout, expired)
func LogSessionEvent(event string, user string) {
	Info("Session event",
		zap.String("event", event),
		zap.String("user", user),
	)
}

// LogWizardTransition logs a step wizard transition
func LogWizardTransition(wizard, from, to, action string) {
	Debug("Wizard transition",
		zap.String("wizard", wizard),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("action", action),
	)
}

// LogFeedMessage logs a live activity feed frame
func LogFeedMessage(direction string, messageType int, data []byte) {
	fields := []zap.Field{
		zap.String("direction", direction),
		zap.String("message_type", wsMessageTypeName(messageType)),
		zap.Int("length", len(data)),
	}

	if current().Core().Enabled(zapcore.DebugLevel) && messageType == 1 {
		fields = append(fields, zap.String("content", truncate(string(data), 256)))
	}

	Debug("Feed message", fields...)
}

func wsMessageTypeName(msgType int) string {
	switch msgType {
	case 1:
		return "text"
	case 2:
		return "binary"
	case 8:
		return "close"
	case 9:
		return "ping"
	case 10:
		return "pong"
	default:
		return fmt.Sprintf("unknown(%d)", msgType)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
