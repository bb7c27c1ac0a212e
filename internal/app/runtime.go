package app

import (
	"os"
	"sync"
	"sync/atomic"
)

const (
	testModeEnv    = "ODYSSEY_TEST_MODE"
	integrationEnv = "ODYSSEY_INTEGRATION"
)

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether binaries should exit before touching
// infrastructure.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode updates the cached flag after environment changes.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}

// IntegrationEnabled reports whether suites needing Docker should run.
func IntegrationEnabled() bool {
	return os.Getenv(integrationEnv) == "1"
}
