package filesystem

import (
	"sort"
	"sync"

	"github.com/timemore/bucket/errors"
)

// Module contains attributes which describe a storage driver.
type Module struct {
	// NewAdapter creates the client for one bucket. It must not do any
	// network I/O; credentials are checked on first use.
	NewAdapter func(config Config) (Adapter, error)
}

var (
	modules   = map[string]Module{}
	modulesMu sync.RWMutex
)

func ModuleNames() []string {
	modulesMu.RLock()
	defer modulesMu.RUnlock()

	var names []string
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// NewAdapter creates an adapter using the driver registered as driverName.
func NewAdapter(driverName string, config Config) (Adapter, error) {
	if driverName == "" {
		return nil, errors.ArgMsg("driverName", "empty")
	}

	modulesMu.RLock()
	module, ok := modules[driverName]
	modulesMu.RUnlock()
	if !ok || module.NewAdapter == nil {
		return nil, errors.ArgMsg("driverName", driverName+" not registered")
	}

	return module.NewAdapter(config)
}

func RegisterModule(driverName string, module Module) {
	modulesMu.Lock()
	defer modulesMu.Unlock()

	if _, dup := modules[driverName]; dup {
		panic("called twice for driver " + driverName)
	}

	modules[driverName] = module
}
