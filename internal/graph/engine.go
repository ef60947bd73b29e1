package graph

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strconv"

	"github.com/google/uuid"
)

// DefaultBindingName is used when a binding is created without a name.
const DefaultBindingName = "canvasNode"

// Engine owns every binding of a document and the preset library.
//
// Engine is not safe for concurrent use. Hosts serialize command dispatch,
// and every entry point that reaches the engine runs under that serialization.
type Engine struct {
	contextID string
	bindings  []*Binding
	nextID    int
	presets   map[string]*Exec
	logger    *slog.Logger
}

// NewEngine creates an engine with an empty document.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		contextID: uuid.New().String(),
		nextID:    1,
		presets:   make(map[string]*Exec),
		logger:    logger.With("component", "graph"),
	}
}

// ContextID identifies this engine instance.
func (e *Engine) ContextID() string {
	return e.contextID
}

// CreateBinding adds a new binding with an empty root graph.
func (e *Engine) CreateBinding(name string) *Binding {
	b := &Binding{
		Name: e.uniqueBindingName(name),
		Root: NewGraphExec(""),
	}
	e.attach(b)
	return b
}

func (e *Engine) attach(b *Binding) {
	b.ID = strconv.Itoa(e.nextID)
	e.nextID++
	e.bindings = append(e.bindings, b)
	e.logger.Debug("binding attached", "binding_id", b.ID, "name", b.Name)
}

func (e *Engine) uniqueBindingName(desired string) string {
	return uniqueName(cleanName(desired, DefaultBindingName), func(name string) bool {
		_, err := e.BindingByName(name)
		return err == nil
	})
}

// Binding returns the binding with the given id.
func (e *Engine) Binding(id string) (*Binding, error) {
	for _, b := range e.bindings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, notFound(ErrBindingNotFound, id)
}

// BindingByName returns the binding with the given host name.
func (e *Engine) BindingByName(name string) (*Binding, error) {
	for _, b := range e.bindings {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, notFound(ErrBindingNotFound, name)
}

// Bindings returns the bindings in creation order.
func (e *Engine) Bindings() []*Binding {
	return slices.Clone(e.bindings)
}

// RemoveBinding detaches a binding from the document.
func (e *Engine) RemoveBinding(id string) error {
	i := slices.IndexFunc(e.bindings, func(b *Binding) bool { return b.ID == id })
	if i < 0 {
		return notFound(ErrBindingNotFound, id)
	}
	e.bindings = slices.Delete(e.bindings, i, i+1)
	return nil
}

// RegisterPreset stores a copy of exec in the preset library under path.
func (e *Engine) RegisterPreset(path string, exec *Exec) error {
	if path == "" || exec == nil {
		return fmt.Errorf("%w: empty preset", ErrInvalidValue)
	}
	if _, ok := e.presets[path]; ok {
		return notFound(ErrPresetExists, path)
	}
	stored := exec.Clone()
	stored.PresetPath = path
	e.presets[path] = stored
	return nil
}

// Preset returns a copy of the preset stored under path.
func (e *Engine) Preset(path string) (*Exec, error) {
	p, ok := e.presets[path]
	if !ok {
		return nil, notFound(ErrPresetNotFound, path)
	}
	return p.Clone(), nil
}

// PresetPaths returns the library paths in sorted order.
func (e *Engine) PresetPaths() []string {
	paths := make([]string, 0, len(e.presets))
	for p := range e.presets {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// snapshot is the state an edit restores on undo and redo.
type snapshot struct {
	binding *Binding
	presets map[string]*Exec
}

func (e *Engine) capture(b *Binding) snapshot {
	return snapshot{binding: b.Clone(), presets: maps.Clone(e.presets)}
}

// restore writes a copy of the snapshot back into b, keeping b's identity so
// that the engine and any resolved handles still point at the live binding.
func (e *Engine) restore(b *Binding, s snapshot) {
	*b = *s.binding.Clone()
	e.presets = maps.Clone(s.presets)
}
