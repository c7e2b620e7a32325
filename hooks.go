package jrblog

import (
	"context"
	"slices"
	"sync"
)

// DefaultPriority is the priority handlers are usually registered at.
// Handlers that need to see the value before the usual handlers do should
// use a lower number, handlers that need to see it after should use a
// higher one.
const DefaultPriority = 10

// FilterFunc receives a value and returns it, possibly changed.
type FilterFunc[T any] func(ctx context.Context, value T) T

type filterHandler[T any] struct {
	name     string
	priority int
	fn       FilterFunc[T]
}

// Filter is a named extension point: an ordered chain of handlers that each
// get a chance to change a value before it's used. Handlers with a lower
// priority run first; handlers with the same priority run in the order they
// were added. Each handler receives the output of the one before it.
//
// The zero value is an empty Filter, ready to use. A Filter can safely be
// used by multiple goroutines.
type Filter[T any] struct {
	mu       sync.RWMutex
	handlers []filterHandler[T]
}

// Add registers fn under name at the passed priority. Registering a name
// that's already registered replaces the earlier handler.
func (f *Filter[T]) Add(name string, priority int, fn FilterFunc[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = slices.DeleteFunc(f.handlers, func(h filterHandler[T]) bool {
		return h.name == name
	})
	f.handlers = append(f.handlers, filterHandler[T]{name: name, priority: priority, fn: fn})
	slices.SortStableFunc(f.handlers, func(a, b filterHandler[T]) int {
		return a.priority - b.priority
	})
}

// Remove unregisters the handler registered under name, reporting whether
// there was one.
func (f *Filter[T]) Remove(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	before := len(f.handlers)
	f.handlers = slices.DeleteFunc(f.handlers, func(h filterHandler[T]) bool {
		return h.name == name
	})
	return len(f.handlers) != before
}

// Names returns the names of the registered handlers, in the order they run.
func (f *Filter[T]) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.handlers))
	for _, h := range f.handlers {
		names = append(names, h.name)
	}
	return names
}

// Apply runs value through every registered handler and returns the result.
func (f *Filter[T]) Apply(ctx context.Context, value T) T {
	f.mu.RLock()
	handlers := slices.Clone(f.handlers)
	f.mu.RUnlock()
	for _, h := range handlers {
		value = h.fn(ctx, value)
	}
	return value
}
