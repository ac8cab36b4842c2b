// Package logging provides structured logging for lmsadmin.
//
// This package wraps a zap logger with package-level helpers so that every
// component logs the same way without threading a logger through each
// constructor. It also provides specialized helpers for the events the
// client cares about: API requests and responses, token refreshes, session
// lifecycle, wizard transitions and live feed frames.
//
// # Log Levels
//
//   - Debug: request/response traces, wizard transitions, feed frames
//   - Info: session events, successful token refreshes
//   - Warn: 4xx/5xx responses, failed refreshes
//   - Error: unexpected failures
//
// # Structured Logging
//
//	logging.Info("Course created",
//	    zap.Int64("course_id", 42),
//	    zap.String("code", "CS101"),
//	)
//
// # Configuration
//
// Logging is silent unless a level is passed to Initialize or
// LMSADMIN_LOG_LEVEL is set, so CLI output is not interleaved with log lines
// by default:
//
//	if err := logging.Initialize(levelFlag); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr. Set LMSADMIN_LOG_FORMAT=json for JSON lines.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
