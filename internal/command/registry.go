package command

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry maps command names to descriptors, preserving registration order.
type Registry struct {
	mu          sync.RWMutex
	order       []string
	descriptors map[string]Descriptor
	logger      *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		descriptors: make(map[string]Descriptor),
		logger:      logger,
	}
}

// Register adds a descriptor. Names must be non-empty and unique.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return ErrNameRequired
	}
	if d.syntax == nil || d.newPlan == nil {
		return fmt.Errorf("command %s: descriptor must be built with Define, DefineQuery or DefineSnapshot", d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, d.Name)
	}
	r.descriptors[d.Name] = d
	r.order = append(r.order, d.Name)

	r.logger.Debug("registered command",
		"command", d.Name,
		"variant", d.Variant,
		"flags", d.syntax.Len(),
	)
	return nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[name]
	return d, ok
}

// List returns every descriptor in registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, len(r.order))
	for i, name := range r.order {
		out[i] = r.descriptors[name]
	}
	return out
}

// Syntax returns the flags accepted by the command registered under name.
func (r *Registry) Syntax(name string) (*Syntax, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return d.syntax, nil
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// NewAdapter creates an adapter for one invocation of name. An unknown name
// is an ArgumentError, since it comes from the caller's input.
func (r *Registry) NewAdapter(name string, opts ...AdapterOption) (*Adapter, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return nil, &ArgumentError{Command: name, Reason: ReasonUnknown, Err: ErrUnknownCommand}
	}
	return NewAdapter(d, opts...), nil
}

// Reset removes every registration.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.descriptors = make(map[string]Descriptor)
}

var global struct {
	mu  sync.Mutex
	reg *Registry
}

// Init builds the process-wide registry. populate registers the commands; if
// it fails, no registry is installed. Init may succeed only once until Teardown.
func Init(logger *slog.Logger, populate func(*Registry) error) (*Registry, error) {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.reg != nil {
		return nil, ErrAlreadyInitialized
	}
	reg := NewRegistry(logger)
	if err := populate(reg); err != nil {
		return nil, err
	}
	global.reg = reg
	reg.logger.Info("command registry initialized", "commands", reg.Len())
	return reg, nil
}

// Global returns the process-wide registry.
func Global() (*Registry, error) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.reg == nil {
		return nil, ErrNotInitialized
	}
	return global.reg, nil
}

// Teardown discards the process-wide registry.
func Teardown() {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.reg != nil {
		global.reg.Reset()
		global.reg = nil
	}
}
