// Package logger provides leveled logging for the windprep batch application.
// It wraps the standard `log` package and filters messages by a global level
// that is set once at startup from configuration.
package logger

import (
	"fmt"
	"log"
	"strings"
)

// LogLevel represents a logging severity level.
type LogLevel int

const (
	// LevelDebug emits detailed diagnostic output, including per-stage
	// row counts and column bookkeeping.
	LevelDebug LogLevel = iota
	// LevelInfo emits general progress messages.
	LevelInfo
	// LevelWarn emits messages about suspicious but non-fatal input,
	// such as non-hourly timestamp gaps.
	LevelWarn
	// LevelError emits messages about failed operations.
	LevelError
	// LevelFatal emits a message and terminates the process.
	LevelFatal
)

// logLevel is the currently active global level. Messages below it are dropped.
var logLevel = LevelInfo

// SetLogLevel sets the global log level from its string form
// ("DEBUG", "INFO", "WARN", "ERROR", "FATAL", case-insensitive).
// Unknown values fall back to INFO.
func SetLogLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		logLevel = LevelDebug
	case "INFO":
		logLevel = LevelInfo
	case "WARN":
		logLevel = LevelWarn
	case "ERROR":
		logLevel = LevelError
	case "FATAL":
		logLevel = LevelFatal
	default:
		fmt.Printf("Unknown log level '%s' specified. Defaulting to INFO level.\n", level)
		logLevel = LevelInfo
	}
}

// Debugf formats and outputs a DEBUG level log message.
func Debugf(format string, v ...interface{}) {
	if logLevel <= LevelDebug {
		log.Printf("[DEBUG] "+format, v...)
	}
}

// Infof formats and outputs an INFO level log message.
func Infof(format string, v ...interface{}) {
	if logLevel <= LevelInfo {
		log.Printf("[INFO] "+format, v...)
	}
}

// Warnf formats and outputs a WARN level log message.
func Warnf(format string, v ...interface{}) {
	if logLevel <= LevelWarn {
		log.Printf("[WARN] "+format, v...)
	}
}

// Errorf formats and outputs an ERROR level log message.
func Errorf(format string, v ...interface{}) {
	if logLevel <= LevelError {
		log.Printf("[ERROR] "+format, v...)
	}
}

// Fatalf formats and outputs a FATAL level log message, then exits
// the process with status 1.
func Fatalf(format string, v ...interface{}) {
	log.Fatalf("[FATAL] "+format, v...)
}
