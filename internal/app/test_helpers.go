package app

import (
	"os"
	"testing"

	"github.com/specialistvlad/sagagrid/internal/registry"
	"github.com/specialistvlad/sagagrid/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. Logs go to the
// returned buffer and are printed when SAGAGRID_TEST_LOGS is true.
func SetupAppTest(t *testing.T, cfg *Config, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp := NewApp(logBuffer, cfg, modules...)

	t.Cleanup(func() {
		if os.Getenv("SAGAGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
