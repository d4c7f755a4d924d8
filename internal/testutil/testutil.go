// Package testutil provides shared test helpers for the viewer packages.
package testutil

import (
	"testing"

	"github.com/banshee-data/pointcloud.viewer/internal/monitoring"
)

// CaptureLogs routes pipeline logging through t.Logf for the duration of the
// test, so diagnostic output lands in the test log instead of stderr. The
// previous logger is restored when the test finishes.
func CaptureLogs(t *testing.T) {
	t.Helper()
	orig := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		t.Logf(format, v...)
	})
	t.Cleanup(func() { monitoring.Logf = orig })
}
