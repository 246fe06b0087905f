// Package testutil provides shared test helpers and fixtures.
//
// The canonical five-scanner sample report lives in testdata/sample.txt
// and is embedded so packages at any depth can load it.
package testutil

import (
	_ "embed"
	"io"
	"strings"
	"testing"
)

//go:embed testdata/sample.txt
var sampleReport string

// Known results for the sample report.
const (
	SampleScannerCount = 5
	SampleBeaconCount  = 79
	SampleMaxManhattan = 3621
)

// SampleReport returns the sample scanner report text.
func SampleReport() string {
	return sampleReport
}

// SampleReader returns a fresh reader over the sample report.
func SampleReader() io.Reader {
	return strings.NewReader(sampleReport)
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
