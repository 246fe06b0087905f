// Package monitoring holds the process-wide progress logger shared by the
// registration engine and the command-line tools.
package monitoring

import (
	"io"
	"log"
)

// Logf is the package-level progress logger. It defaults to log.Printf and
// may be replaced with SetLogger; tests usually mute or capture it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// NewWriterLogger returns a Logf-compatible function that writes
// timestamped lines with prefix to w.
func NewWriterLogger(w io.Writer, prefix string) func(format string, v ...interface{}) {
	return log.New(w, prefix, log.LstdFlags).Printf
}
