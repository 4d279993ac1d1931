// Package logger defines the progress logging contract of the migration
// engine. Output is human-readable, not a machine-parseable format.
package logger

import (
	"fmt"
	"time"
)

// Logger receives one call per notable event while a tree is migrated.
type Logger interface {
	Process(kind, name, id string)
	Copy(name, srcID, dstID string)
	Duplicate(name, srcID, dstID string)
	Relocate(name, id, parentID string)
	Skip(name, id, reason string)
	Retry(op string, attempt int, wait time.Duration, err error)
	Error(op, id string, err error)
}

// MigrateLogger prints progress lines to stdout.
type MigrateLogger struct {
	IsQuiet bool
}

func (l *MigrateLogger) Process(kind, name, id string) {
	if !l.IsQuiet {
		fmt.Printf("processing %s: %s (%s)\n", kind, name, id)
	}
}

func (l *MigrateLogger) Copy(name, srcID, dstID string) {
	if !l.IsQuiet {
		fmt.Printf("  copied: %s (%s -> %s)\n", name, srcID, dstID)
	}
}

func (l *MigrateLogger) Duplicate(name, srcID, dstID string) {
	if !l.IsQuiet {
		fmt.Printf("  duplicated via download: %s (%s -> %s)\n", name, srcID, dstID)
	}
}

func (l *MigrateLogger) Relocate(name, id, parentID string) {
	if !l.IsQuiet {
		fmt.Printf("  relocated: %s (%s) into %s\n", name, id, parentID)
	}
}

func (l *MigrateLogger) Skip(name, id, reason string) {
	if !l.IsQuiet {
		fmt.Printf("  skipping %s (%s): %s\n", name, id, reason)
	}
}

func (l *MigrateLogger) Retry(op string, attempt int, wait time.Duration, err error) {
	fmt.Printf("  retrying %s in %.2fs (attempt %d): %v\n", op, wait.Seconds(), attempt, err)
}

func (l *MigrateLogger) Error(op, id string, err error) {
	fmt.Printf("  error during %s (%s): %v\n", op, id, err)
}

// NullLogger discards everything.
type NullLogger struct{}

func (NullLogger) Process(kind, name, id string) {}

func (NullLogger) Copy(name, srcID, dstID string) {}

func (NullLogger) Duplicate(name, srcID, dstID string) {}

func (NullLogger) Relocate(name, id, parentID string) {}

func (NullLogger) Skip(name, id, reason string) {}

func (NullLogger) Retry(op string, attempt int, wait time.Duration, err error) {}

func (NullLogger) Error(op, id string, err error) {}
