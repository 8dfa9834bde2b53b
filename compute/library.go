package compute

import (
	"sort"
	"sync"
)

// Library maps kernel names to kernels.
type Library[T any] struct {
	mu      sync.RWMutex
	kernels map[string]Kernel[T]
}

// NewLibrary creates a library holding the given kernels.
func NewLibrary[T any](kernels ...Kernel[T]) *Library[T] {
	l := &Library[T]{kernels: make(map[string]Kernel[T], len(kernels))}
	for _, k := range kernels {
		l.Register(k)
	}
	return l
}

// Register adds k under its name, replacing any kernel of the same name.
func (l *Library[T]) Register(k Kernel[T]) {
	l.mu.Lock()
	l.kernels[k.Name()] = k
	l.mu.Unlock()
}

// Find returns the kernel registered under name.
func (l *Library[T]) Find(name string) (Kernel[T], error) {
	l.mu.RLock()
	k, ok := l.kernels[name]
	l.mu.RUnlock()
	if !ok {
		return nil, &DeviceError{Op: "find_kernel", Kernel: name, Err: ErrKernelNotFound}
	}
	return k, nil
}

// Names returns the registered kernel names in sorted order.
func (l *Library[T]) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.kernels))
	for name := range l.kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
