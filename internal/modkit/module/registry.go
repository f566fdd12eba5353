package module

import (
	"fmt"
	"sync"
)

// simple global registry for cross wiring ports during bootstrap in main
// safe for tests and single process composition
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register stores the port set of m under its name
func Register(m Module) {
	mu.Lock()
	reg[m.Name()] = m.Ports()
	mu.Unlock()
}

// PortsAs fetches and type asserts a port set for name
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	v, ok := reg[name]
	mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}

// MustPortsAs is PortsAs that panics when name is unregistered or of another type
func MustPortsAs[T any](name string) T {
	v, ok := PortsAs[T](name)
	if !ok {
		panic(fmt.Sprintf("module: no ports of type %T registered as %q", v, name))
	}
	return v
}

// Reset clears the registry for tests
func Reset() {
	mu.Lock()
	reg = map[string]any{}
	mu.Unlock()
}
