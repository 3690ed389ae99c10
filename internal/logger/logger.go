// Package logger is the process-wide log sink for policyqa.
//
// Debug, Info and Section lines trace ingestion, retrieval and synthesis
// and only appear with --verbose. Warnings and errors always appear.
// Long-running commands such as serve switch on timestamps and mirror the
// stream into a log file with Tee.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARN"
	levelError level = "ERROR"
)

const stampLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	mu         sync.RWMutex
	verbose    bool
	timestamps bool
	output     io.Writer = os.Stderr
	clock                = time.Now
)

// SetVerbose toggles the verbose-only levels.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetTimestamps prefixes every line with an RFC 3339 time when on.
func SetTimestamps(on bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = on
}

// SetOutput replaces the destination writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Tee adds w as a second destination and returns a function restoring the
// previous writer.
func Tee(w io.Writer) func() {
	mu.Lock()
	defer mu.Unlock()
	prev := output
	output = io.MultiWriter(prev, w)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		output = prev
	}
}

// write holds the exclusive lock so lines from concurrent callers never
// interleave on the shared writer.
func write(lvl level, gated bool, format string, args []any) {
	mu.Lock()
	defer mu.Unlock()
	if gated && !verbose {
		return
	}
	prefix := "[" + string(lvl) + "] "
	if timestamps {
		prefix = clock().Format(stampLayout) + " " + prefix
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

// Debug traces pipeline internals.
func Debug(format string, args ...any) { write(levelDebug, true, format, args) }

// Info reports progress.
func Info(format string, args ...any) { write(levelInfo, true, format, args) }

// Warn reports a recoverable problem, such as a skipped file.
func Warn(format string, args ...any) { write(levelWarn, false, format, args) }

// Error reports a failure.
func Error(format string, args ...any) { write(levelError, false, format, args) }

// Section marks the start of a pipeline stage in verbose output.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Stage opens a Section and returns a function that logs how long the
// stage took. Typical use is defer logger.Stage("Retrieval")().
func Stage(name string) func() {
	Section(name)
	mu.RLock()
	start := clock()
	mu.RUnlock()
	return func() {
		mu.RLock()
		elapsed := clock().Sub(start)
		mu.RUnlock()
		Debug("%s took %s", name, elapsed.Round(time.Millisecond))
	}
}
