package logging

import (
	"fmt"
	"os"
	"time"
)

// Logger provides run-level output for the command itself; per-item
// progress goes through pkg/logger instead.
type Logger struct {
	quiet bool
}

// NewLogger creates a new logger
func NewLogger(quiet bool) *Logger {
	return &Logger{quiet: quiet}
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if !l.quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
}

// PrintSummary prints a summary of the migration run
func (l *Logger) PrintSummary(migrated, alreadyDone, skipped, failed int, bytesDuplicated int64, duration time.Duration) {
	if l.quiet && failed == 0 {
		return
	}

	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Migrated: %d items\n", migrated)
	if alreadyDone > 0 {
		fmt.Printf("Already migrated: %d items\n", alreadyDone)
	}
	if skipped > 0 {
		fmt.Printf("Skipped: %d items\n", skipped)
	}
	if failed > 0 {
		fmt.Printf("Failed: %d items\n", failed)
	}
	if bytesDuplicated > 0 {
		fmt.Printf("Re-uploaded via fallback: %s\n", formatBytes(bytesDuplicated))
	}
	fmt.Printf("Duration: %s\n", duration.Round(time.Millisecond))
}

// formatBytes formats bytes in human readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
