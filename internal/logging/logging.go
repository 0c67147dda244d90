package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger is a simple key-value logger that writes to the console.
type Logger struct {
	*log.Logger
}

// NewLogger creates a new Logger.
func NewLogger() *Logger {
	return &Logger{
		Logger: log.New(os.Stdout, "", log.LstdFlags),
	}
}

// Info logs an informational message with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.Printf("INFO: %s%s", msg, formatArgs(args))
}

// Warn logs a warning message with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.Printf("WARN: %s%s", msg, formatArgs(args))
}

// Error logs an error message with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.Printf("ERROR: %s%s", msg, formatArgs(args))
}

// Debug logs a debug message with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.Printf("DEBUG: %s%s", msg, formatArgs(args))
}

// formatArgs renders alternating key-value arguments as " k=v k=v". A
// trailing odd argument is rendered on its own.
func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	if len(args)%2 != 0 {
		fmt.Fprintf(&b, " %v", args[len(args)-1])
	}
	return b.String()
}
