package vehicle

import (
	"fmt"
	"sort"

	"github.com/treadsim/treads/config"
)

// Factory builds a fully validated vehicle of one dynamics class from its
// description.
type Factory func(cfg config.VehicleConfig) (Vehicle, error)

var dynamicsRegistry = map[string]Factory{}

// RegisterDynamics makes a dynamics class available to New. It panics on a
// duplicate name; registration happens from init functions.
func RegisterDynamics(name string, f Factory) {
	if _, dup := dynamicsRegistry[name]; dup {
		panic("vehicle: duplicate dynamics class " + name)
	}
	dynamicsRegistry[name] = f
}

// New instantiates a vehicle from its description, dispatching on the
// dynamics class name.
func New(cfg config.VehicleConfig) (Vehicle, error) {
	f, ok := dynamicsRegistry[cfg.Class]
	if !ok {
		return nil, fmt.Errorf("vehicle: unknown dynamics class %q (have %v)", cfg.Class, Classes())
	}
	return f(cfg)
}

// Classes lists the registered dynamics class names, sorted.
func Classes() []string {
	names := make([]string, 0, len(dynamicsRegistry))
	for n := range dynamicsRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
