package graph

import (
	"fmt"
	"slices"
	"strings"
)

// Scope is an exec resolved inside a binding by its path.
type Scope struct {
	Binding *Binding
	Path    string
	Exec    *Exec

	// Owner is the instance node owning Exec, nil for the root exec.
	Owner *Node

	// Parent is the exec containing Owner, nil for the root exec.
	Parent *Exec
}

// IsRoot reports whether the scope is the binding's root exec.
func (s *Scope) IsRoot() bool {
	return s.Owner == nil
}

// Scope resolves a dot-separated exec path. The empty path is the root exec.
func (b *Binding) Scope(path string) (*Scope, error) {
	s := &Scope{Binding: b, Path: path, Exec: b.Root}
	if s.Exec == nil {
		return nil, notFound(ErrExecNotFound, path)
	}
	if path == "" {
		return s, nil
	}
	for _, name := range strings.Split(path, ".") {
		if s.Exec.Kind != ExecGraph {
			return nil, notFound(ErrExecNotFound, path)
		}
		n, ok := s.Exec.Node(name)
		if !ok || n.Kind != NodeInst || n.Exec == nil {
			return nil, notFound(ErrExecNotFound, path)
		}
		s.Parent, s.Owner, s.Exec = s.Exec, n, n.Exec
	}
	return s, nil
}

// pinPath returns the parent-side endpoint of one of the scope's ports.
func (s *Scope) pinPath(port string) string {
	return s.Owner.Name + "." + port
}

type endpoint struct {
	path string
	node *Node
	pin  Pin
}

func (ep endpoint) isPort() bool {
	return ep.node == nil
}

// Exec ports of type In feed the graph from outside, so inside the exec
// they act as sources. Node pins are the other way around.
func (ep endpoint) canSource() bool {
	if ep.isPort() {
		return ep.pin.Type != PortOut
	}
	return ep.pin.Type != PortIn
}

func (ep endpoint) canSink() bool {
	if ep.isPort() {
		return ep.pin.Type != PortIn
	}
	return ep.pin.Type != PortOut
}

func (e *Exec) endpoint(path string) (endpoint, error) {
	if nodeName, pinName, ok := strings.Cut(path, "."); ok {
		n, found := e.Node(nodeName)
		if !found {
			return endpoint{}, notFound(ErrPortNotFound, path)
		}
		p, found := n.Pin(pinName)
		if !found {
			return endpoint{}, notFound(ErrPortNotFound, path)
		}
		return endpoint{path: path, node: n, pin: p}, nil
	}
	p, found := e.Port(path)
	if !found {
		return endpoint{}, notFound(ErrPortNotFound, path)
	}
	return endpoint{path: path, pin: Pin{Name: p.Name, Type: p.Type, TypeSpec: p.TypeSpec}}, nil
}

// checkConnection validates src -> dst without looking at existing connections.
func (e *Exec) checkConnection(src, dst string) error {
	s, err := e.endpoint(src)
	if err != nil {
		return err
	}
	d, err := e.endpoint(dst)
	if err != nil {
		return err
	}
	switch {
	case !s.canSource():
		return fmt.Errorf("%w: %s cannot be a source", ErrIncompatiblePorts, src)
	case !d.canSink():
		return fmt.Errorf("%w: %s cannot be a destination", ErrIncompatiblePorts, dst)
	case s.node != nil && s.node == d.node:
		return fmt.Errorf("%w: %s and %s are on the same node", ErrIncompatiblePorts, src, dst)
	case s.pin.TypeSpec != "" && d.pin.TypeSpec != "" && s.pin.TypeSpec != d.pin.TypeSpec:
		return fmt.Errorf("%w: %s is %s, %s is %s", ErrIncompatiblePorts, src, s.pin.TypeSpec, dst, d.pin.TypeSpec)
	}
	return nil
}

func (e *Exec) connect(src, dst string) error {
	if e.Kind != ExecGraph {
		return ErrNotGraph
	}
	if err := e.checkConnection(src, dst); err != nil {
		return err
	}
	if e.IsConnected(src, dst) {
		return fmt.Errorf("%w: %s -> %s", ErrAlreadyConnected, src, dst)
	}
	if from, ok := e.sourceOf(dst); ok {
		return fmt.Errorf("%w: %s is fed by %s", ErrDestinationConnected, dst, from)
	}
	e.Connections = append(e.Connections, Connection{Src: src, Dst: dst})
	return nil
}

func (e *Exec) sourceOf(dst string) (string, bool) {
	for _, c := range e.Connections {
		if c.Dst == dst {
			return c.Src, true
		}
	}
	return "", false
}

func (e *Exec) dropConnections(match func(c Connection) bool) {
	e.Connections = slices.DeleteFunc(e.Connections, match)
}

// prune drops connections whose endpoints no longer exist or no longer fit.
func (e *Exec) prune() {
	e.dropConnections(func(c Connection) bool {
		return e.checkConnection(c.Src, c.Dst) != nil
	})
}

func (e *Exec) renameNodeEndpoints(oldName, newName string) {
	rename := func(path string) string {
		if node, pin, ok := strings.Cut(path, "."); ok && node == oldName {
			return newName + "." + pin
		}
		return path
	}
	for i, c := range e.Connections {
		e.Connections[i] = Connection{Src: rename(c.Src), Dst: rename(c.Dst)}
	}
}

func (e *Exec) renameEndpoint(oldPath, newPath string) {
	for i, c := range e.Connections {
		if c.Src == oldPath {
			e.Connections[i].Src = newPath
		}
		if c.Dst == oldPath {
			e.Connections[i].Dst = newPath
		}
	}
}

func endpointNode(path string) string {
	node, _, ok := strings.Cut(path, ".")
	if !ok {
		return ""
	}
	return node
}

func (e *Exec) uniqueNodeName(desired, fallback string) string {
	return uniqueName(cleanName(desired, fallback), func(name string) bool {
		_, ok := e.Node(name)
		return ok
	})
}

func (e *Exec) uniquePortName(desired, fallback string) string {
	return uniqueName(cleanName(desired, fallback), func(name string) bool {
		_, ok := e.Port(name)
		return ok
	})
}

func uniqueName(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// cleanName makes a string usable as a node or port name. Dots separate path
// segments and endpoints, so they cannot appear inside a name.
func cleanName(desired, fallback string) string {
	name := strings.TrimSpace(desired)
	if name == "" {
		name = fallback
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '\t', '\n':
			return '_'
		}
		return r
	}, name)
}
