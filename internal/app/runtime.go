package app

import (
	"os"
	"sync"
	"sync/atomic"
)

const testModeEnv = "ACCESSGATE_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// InTestMode reports whether the application should skip runtime side effects
// such as starting the worker.
func InTestMode() bool {
	testModeOnce.Do(func() {
		testModeFlag.Store(os.Getenv(testModeEnv) == "1")
	})
	return testModeFlag.Load()
}
