package core

import "sync"

// Processor implements the manifest rules for one package type.
// A fresh instance backs every build; implementations may keep per-build
// state but must not share it across builds.
type Processor interface {
	// Type returns the package type the processor handles.
	Type() PackageType

	// Seed records a top-level package in the assembly before any edges
	// are applied.
	Seed(a *Assembly, pkg Package) error

	// Edge applies one resolved dependency of a seeded package.
	Edge(a *Assembly, pkg Package, dep Dependency) error
}

// Factory creates a processor instance for one build.
type Factory func() Processor

var (
	factories = make(map[PackageType]Factory)
	mu        sync.RWMutex
)

// Register adds a processor factory for a package type.
// Ecosystem packages call it from init; importing the all package registers
// the full set.
func Register(t PackageType, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[t] = factory
}

// NewProcessor creates a processor for the given package type.
func NewProcessor(t PackageType) (Processor, error) {
	mu.RLock()
	factory, ok := factories[t]
	mu.RUnlock()

	if !ok {
		return nil, &UnknownTypeError{Type: t}
	}
	return factory(), nil
}

// Supported returns all registered package types.
func Supported() []PackageType {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]PackageType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	return types
}

// newProcessors instantiates one processor of every registered type for a
// single build.
func newProcessors() map[PackageType]Processor {
	mu.RLock()
	defer mu.RUnlock()

	procs := make(map[PackageType]Processor, len(factories))
	for t, factory := range factories {
		procs[t] = factory()
	}
	return procs
}
