// Package graph implements the dataflow graph document edited by canvas commands.
//
// A document is a set of bindings. Each binding owns a root exec, and every
// instance node nested inside a graph exec owns its own exec, so an exec is
// addressed by the dot-separated path of instance node names leading to it.
// All mutations go through Edit values, which snapshot the binding so that
// they can be undone and redone exactly.
package graph

import (
	"maps"
	"slices"
)

// Binding is a top-level graph bound into the host scene.
type Binding struct {
	// ID is the engine-assigned identifier used by commands.
	ID string `json:"id"`

	// Name is the host-facing name of the binding.
	Name string `json:"name"`

	// Root is the top-level exec. Its ports are the binding arguments.
	Root *Exec `json:"root"`

	// ArgValues holds JSON-encoded argument values keyed by root port name.
	ArgValues map[string]string `json:"argValues,omitempty"`

	// Metadata holds binding-level settings such as executeShared.
	Metadata map[string]string `json:"metadata,omitempty"`

	// LoadDiags holds diagnostics produced when the binding was loaded.
	LoadDiags []string `json:"loadDiags,omitempty"`
}

// MetadataValue returns the binding metadata value for key.
func (b *Binding) MetadataValue(key string) string {
	return b.Metadata[key]
}

// SetMetadataValue stores a binding metadata value. An empty value removes the key.
func (b *Binding) SetMetadataValue(key, value string) error {
	if value == "" {
		delete(b.Metadata, key)
		return nil
	}
	if b.Metadata == nil {
		b.Metadata = make(map[string]string)
	}
	b.Metadata[key] = value
	return nil
}

// Clone returns a deep copy of the binding.
func (b *Binding) Clone() *Binding {
	if b == nil {
		return nil
	}
	return &Binding{
		ID:        b.ID,
		Name:      b.Name,
		Root:      b.Root.Clone(),
		ArgValues: maps.Clone(b.ArgValues),
		Metadata:  maps.Clone(b.Metadata),
		LoadDiags: slices.Clone(b.LoadDiags),
	}
}

// Exec is either a graph of nodes or a function holding code.
type Exec struct {
	Kind        ExecKind          `json:"kind"`
	Title       string            `json:"title,omitempty"`
	Code        string            `json:"code,omitempty"`
	ExtDeps     []string          `json:"extDeps,omitempty"`
	Ports       []*Port           `json:"ports,omitempty"`
	Nodes       []*Node           `json:"nodes,omitempty"`
	Connections []Connection      `json:"connections,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`

	// PresetPath is set while the exec is an unmodified instance of a preset.
	PresetPath string `json:"presetPath,omitempty"`
}

// NewGraphExec returns an empty graph exec.
func NewGraphExec(title string) *Exec {
	return &Exec{Kind: ExecGraph, Title: title}
}

// NewFuncExec returns a function exec holding code.
func NewFuncExec(title, code string) *Exec {
	return &Exec{Kind: ExecFunc, Title: title, Code: code}
}

// Clone returns a deep copy of the exec and everything nested in it.
func (e *Exec) Clone() *Exec {
	if e == nil {
		return nil
	}
	c := &Exec{
		Kind:        e.Kind,
		Title:       e.Title,
		Code:        e.Code,
		ExtDeps:     slices.Clone(e.ExtDeps),
		Connections: slices.Clone(e.Connections),
		Metadata:    maps.Clone(e.Metadata),
		PresetPath:  e.PresetPath,
	}
	if e.Ports != nil {
		c.Ports = make([]*Port, len(e.Ports))
		for i, p := range e.Ports {
			c.Ports[i] = p.Clone()
		}
	}
	if e.Nodes != nil {
		c.Nodes = make([]*Node, len(e.Nodes))
		for i, n := range e.Nodes {
			c.Nodes[i] = n.Clone()
		}
	}
	return c
}

// Node returns the node with the given name.
func (e *Exec) Node(name string) (*Node, bool) {
	i := e.nodeIndex(name)
	if i < 0 {
		return nil, false
	}
	return e.Nodes[i], true
}

// Port returns the exec port with the given name.
func (e *Exec) Port(name string) (*Port, bool) {
	i := e.portIndex(name)
	if i < 0 {
		return nil, false
	}
	return e.Ports[i], true
}

// NodeNames returns the node names in insertion order.
func (e *Exec) NodeNames() []string {
	names := make([]string, len(e.Nodes))
	for i, n := range e.Nodes {
		names[i] = n.Name
	}
	return names
}

// PortNames returns the port names in order.
func (e *Exec) PortNames() []string {
	names := make([]string, len(e.Ports))
	for i, p := range e.Ports {
		names[i] = p.Name
	}
	return names
}

// IsConnected reports whether the connection src -> dst exists.
func (e *Exec) IsConnected(src, dst string) bool {
	return slices.Contains(e.Connections, Connection{Src: src, Dst: dst})
}

func (e *Exec) nodeIndex(name string) int {
	return slices.IndexFunc(e.Nodes, func(n *Node) bool { return n.Name == name })
}

func (e *Exec) portIndex(name string) int {
	return slices.IndexFunc(e.Ports, func(p *Port) bool { return p.Name == name })
}

// Node is a single element of a graph exec.
type Node struct {
	Name string   `json:"name"`
	Kind NodeKind `json:"kind"`
	Pos  Point    `json:"pos"`
	Size Size     `json:"size,omitzero"`

	// Title is the caption of a backdrop.
	Title string `json:"title,omitempty"`

	Comment         string `json:"comment,omitempty"`
	CommentExpanded bool   `json:"commentExpanded,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`

	// Exec is the nested exec of an instance node.
	Exec *Exec `json:"exec,omitempty"`

	// VarType and ExtDep describe a variable node.
	VarType string `json:"varType,omitempty"`
	ExtDep  string `json:"extDep,omitempty"`

	// VarPath is the variable read or written by a get or set node.
	VarPath string `json:"varPath,omitempty"`

	// PinDefaults holds JSON-encoded default values keyed by pin name.
	PinDefaults map[string]string `json:"pinDefaults,omitempty"`
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Metadata = maps.Clone(n.Metadata)
	c.PinDefaults = maps.Clone(n.PinDefaults)
	c.Exec = n.Exec.Clone()
	return &c
}

// Pins returns the connectable pins of the node.
func (n *Node) Pins() []Pin {
	switch n.Kind {
	case NodeInst:
		if n.Exec == nil {
			return nil
		}
		pins := make([]Pin, len(n.Exec.Ports))
		for i, p := range n.Exec.Ports {
			pins[i] = Pin{Name: p.Name, Type: p.Type, TypeSpec: p.TypeSpec}
		}
		return pins
	case NodeVar:
		return []Pin{{Name: ValuePin, Type: PortIO, TypeSpec: n.VarType}}
	case NodeGet:
		return []Pin{{Name: ValuePin, Type: PortOut}}
	case NodeSet:
		return []Pin{{Name: ValuePin, Type: PortIO}}
	}
	return nil
}

// Pin returns the named pin of the node.
func (n *Node) Pin(name string) (Pin, bool) {
	for _, p := range n.Pins() {
		if p.Name == name {
			return p, true
		}
	}
	return Pin{}, false
}

// ValuePin is the single pin exposed by variable, get and set nodes.
const ValuePin = "value"

// Pin is a node-side view of a port.
type Pin struct {
	Name     string
	Type     PortType
	TypeSpec string
}

// Port is an argument of an exec.
type Port struct {
	Name     string   `json:"name"`
	Type     PortType `json:"type"`
	TypeSpec string   `json:"typeSpec,omitempty"`

	// DefaultValue is the JSON-encoded value used when nothing is connected.
	DefaultValue string `json:"defaultValue,omitempty"`

	ExtDep   string            `json:"extDep,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the port.
func (p *Port) Clone() *Port {
	if p == nil {
		return nil
	}
	c := *p
	c.Metadata = maps.Clone(p.Metadata)
	return &c
}

// Connection links a source endpoint to a destination endpoint inside one exec.
// An endpoint is either an exec port name or "node.pin".
type Connection struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}
