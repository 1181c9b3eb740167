// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"os"
	"testing"
)

// RequireIntegration skips container backed tests unless INTEGRATION_TESTS=1
// is set and the run is not -short.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("skipping integration test (set INTEGRATION_TESTS=1 to run)")
	}
}
