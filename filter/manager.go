package filter

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Manager holds named filters, typically loaded from configuration.
type Manager struct {
	compiler *Compiler
	filters  map[string]*Filter
	mu       sync.RWMutex
}

// ManagerOption configures a filter manager
type ManagerOption func(*Manager)

// WithCompiler sets a custom compiler
func WithCompiler(compiler *Compiler) ManagerOption {
	return func(m *Manager) {
		m.compiler = compiler
	}
}

// NewManager creates a new filter manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		filters: make(map[string]*Filter),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.compiler == nil {
		m.compiler = NewCompiler(WithCache(100))
	}
	return m
}

// Compiler returns the compiler used for registered and ad-hoc filters.
func (m *Manager) Compiler() *Compiler {
	return m.compiler
}

// RegisterFilter registers a new filter or updates an existing one
func (m *Manager) RegisterFilter(name, expression string) error {
	f, err := m.compiler.Compile(expression)
	if err != nil {
		return fmt.Errorf("failed to compile filter '%s': %w", name, err)
	}

	m.mu.Lock()
	m.filters[name] = f
	m.mu.Unlock()

	return nil
}

// RegisterFilters registers multiple filters at once. Nothing is registered
// unless every expression compiles.
func (m *Manager) RegisterFilters(filters map[string]string) error {
	compiled := make(map[string]*Filter, len(filters))

	for _, name := range slices.Sorted(maps.Keys(filters)) {
		f, err := m.compiler.Compile(filters[name])
		if err != nil {
			return fmt.Errorf("failed to compile filter '%s': %w", name, err)
		}
		compiled[name] = f
	}

	m.mu.Lock()
	maps.Copy(m.filters, compiled)
	m.mu.Unlock()

	return nil
}

// UnregisterFilter removes a filter
func (m *Manager) UnregisterFilter(name string) {
	m.mu.Lock()
	delete(m.filters, name)
	m.mu.Unlock()
}

// GetFilter returns a compiled filter by name
func (m *Manager) GetFilter(name string) (*Filter, bool) {
	m.mu.RLock()
	f, exists := m.filters[name]
	m.mu.RUnlock()
	return f, exists
}

// ListFilters returns all registered filter names, sorted
func (m *Manager) ListFilters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.filters))
}

// Resolve returns the registered filter called nameOrExpr, or compiles
// nameOrExpr as an expression when no such filter exists.
func (m *Manager) Resolve(nameOrExpr string) (*Filter, string, error) {
	if f, ok := m.GetFilter(nameOrExpr); ok {
		return f, nameOrExpr, nil
	}
	f, err := m.compiler.Compile(nameOrExpr)
	if err != nil {
		return nil, "", err
	}
	return f, f.Expression(), nil
}

// SelectNamed applies the registered filter name to items.
func SelectNamed[T any](m *Manager, name string, items []T, env Env[T]) ([]T, error) {
	f, exists := m.GetFilter(name)
	if !exists {
		return nil, fmt.Errorf("filter '%s' not found", name)
	}
	return Select(f, name, items, env)
}
