package factory

import "sync"

var (
	global     *Factory
	globalOnce sync.Once
)

// Global returns the process-wide factory, creating it on first use.
func Global() *Factory {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}
