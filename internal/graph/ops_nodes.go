package graph

import (
	"fmt"
	"slices"
	"strings"
)

// Connect links src to dst inside the exec at path.
func (e *Engine) Connect(b *Binding, path, src, dst string) *Edit {
	desc := fmt.Sprintf("connect %s -> %s", src, dst)
	return e.graphEdit(KindConnect, b, path, desc, func(s *Scope) (string, error) {
		return "", s.Exec.connect(src, dst)
	})
}

// Disconnect removes the connection src -> dst.
func (e *Engine) Disconnect(b *Binding, path, src, dst string) *Edit {
	desc := fmt.Sprintf("disconnect %s -> %s", src, dst)
	return e.graphEdit(KindDisconnect, b, path, desc, func(s *Scope) (string, error) {
		if !s.Exec.IsConnected(src, dst) {
			return "", fmt.Errorf("%w: %s -> %s", ErrNotConnected, src, dst)
		}
		s.Exec.dropConnections(func(c Connection) bool { return c.Src == src && c.Dst == dst })
		return "", nil
	})
}

// MoveNodes sets the position of each named node.
func (e *Engine) MoveNodes(b *Binding, path string, names []string, positions []Point) *Edit {
	desc := fmt.Sprintf("move %s", strings.Join(names, ", "))
	return e.graphEdit(KindMoveNodes, b, path, desc, func(s *Scope) (string, error) {
		if len(names) != len(positions) {
			return "", fmt.Errorf("%w: %d nodes but %d positions", ErrInvalidValue, len(names), len(positions))
		}
		nodes, err := s.Exec.nodes(names)
		if err != nil {
			return "", err
		}
		for i, n := range nodes {
			n.Pos = positions[i]
		}
		return "", nil
	})
}

// RemoveNodes deletes the named nodes and every connection touching them.
func (e *Engine) RemoveNodes(b *Binding, path string, names []string) *Edit {
	desc := fmt.Sprintf("remove %s", strings.Join(names, ", "))
	return e.graphEdit(KindRemoveNodes, b, path, desc, func(s *Scope) (string, error) {
		if _, err := s.Exec.nodes(names); err != nil {
			return "", err
		}
		s.Exec.removeNodes(names)
		return "", nil
	})
}

// ResizeBackDrop moves and resizes a backdrop node.
func (e *Engine) ResizeBackDrop(b *Binding, path, name string, pos Point, size Size) *Edit {
	desc := fmt.Sprintf("resize backdrop %s", name)
	return e.graphEdit(KindResizeBackDrop, b, path, desc, func(s *Scope) (string, error) {
		n, ok := s.Exec.Node(name)
		if !ok {
			return "", notFound(ErrNodeNotFound, name)
		}
		if n.Kind != NodeBackDrop {
			return "", notFound(ErrNotBackDrop, name)
		}
		if size.W < 0 || size.H < 0 {
			return "", fmt.Errorf("%w: negative size", ErrInvalidValue)
		}
		n.Pos, n.Size = pos, size
		return "", nil
	})
}

// EditNode renames a node and merges JSON-object metadata into the node and its exec.
func (e *Engine) EditNode(b *Binding, path, oldName, desiredName, nodeMetadata, execMetadata string) *Edit {
	desc := fmt.Sprintf("edit node %s", oldName)
	return e.graphEdit(KindEditNode, b, path, desc, func(s *Scope) (string, error) {
		n, ok := s.Exec.Node(oldName)
		if !ok {
			return "", notFound(ErrNodeNotFound, oldName)
		}
		if err := mergeMetadata(&n.Metadata, nodeMetadata); err != nil {
			return "", err
		}
		if execMetadata != "" {
			if n.Exec == nil {
				return "", notFound(ErrNotInstance, oldName)
			}
			if err := mergeMetadata(&n.Exec.Metadata, execMetadata); err != nil {
				return "", err
			}
		}
		if desiredName != "" && desiredName != oldName {
			s.Exec.renameNode(n, desiredName)
		}
		return n.Name, nil
	})
}

// SetNodeComment sets the comment of a node and whether it is expanded.
func (e *Engine) SetNodeComment(b *Binding, path, name, comment string, expanded bool) *Edit {
	desc := fmt.Sprintf("comment %s", name)
	return e.graphEdit(KindSetNodeComment, b, path, desc, func(s *Scope) (string, error) {
		n, ok := s.Exec.Node(name)
		if !ok {
			return "", notFound(ErrNodeNotFound, name)
		}
		n.Comment, n.CommentExpanded = comment, expanded
		return "", nil
	})
}

// SetRefVarPath points a get or set node at a different variable.
func (e *Engine) SetRefVarPath(b *Binding, path, name, varPath string) *Edit {
	desc := fmt.Sprintf("set %s variable to %s", name, varPath)
	return e.graphEdit(KindSetRefVarPath, b, path, desc, func(s *Scope) (string, error) {
		n, ok := s.Exec.Node(name)
		if !ok {
			return "", notFound(ErrNodeNotFound, name)
		}
		if n.Kind != NodeGet && n.Kind != NodeSet {
			return "", notFound(ErrNotVariableRef, name)
		}
		n.VarPath = varPath
		return "", nil
	})
}

// AddGraph adds an instance of a new empty graph.
func (e *Engine) AddGraph(b *Binding, path string, pos Point, title string) *Edit {
	return e.addNode(KindAddGraph, b, path, "graph", func(s *Scope) (*Node, error) {
		return &Node{Name: title, Kind: NodeInst, Pos: pos, Exec: NewGraphExec(title)}, nil
	})
}

// AddFunc adds an instance of a new function.
func (e *Engine) AddFunc(b *Binding, path string, pos Point, title, code string) *Edit {
	return e.addNode(KindAddFunc, b, path, "func", func(s *Scope) (*Node, error) {
		return &Node{Name: title, Kind: NodeInst, Pos: pos, Exec: NewFuncExec(title, code)}, nil
	})
}

// InstPreset adds an instance of a library preset.
func (e *Engine) InstPreset(b *Binding, path string, pos Point, presetPath string) *Edit {
	return e.addNode(KindInstPreset, b, path, "node", func(s *Scope) (*Node, error) {
		exec, err := e.Preset(presetPath)
		if err != nil {
			return nil, err
		}
		name := presetPath[strings.LastIndex(presetPath, ".")+1:]
		return &Node{Name: name, Kind: NodeInst, Pos: pos, Exec: exec}, nil
	})
}

// AddVar adds a variable declaration.
func (e *Engine) AddVar(b *Binding, path string, pos Point, desiredName, varType, extDep string) *Edit {
	return e.addNode(KindAddVar, b, path, "var", func(s *Scope) (*Node, error) {
		if strings.TrimSpace(varType) == "" {
			return nil, fmt.Errorf("%w: variable type is empty", ErrInvalidValue)
		}
		return &Node{Name: desiredName, Kind: NodeVar, Pos: pos, VarType: varType, ExtDep: extDep}, nil
	})
}

// AddGet adds a node reading the variable at varPath.
func (e *Engine) AddGet(b *Binding, path string, pos Point, desiredName, varPath string) *Edit {
	return e.addNode(KindAddGet, b, path, "get", func(s *Scope) (*Node, error) {
		return &Node{Name: desiredName, Kind: NodeGet, Pos: pos, VarPath: varPath}, nil
	})
}

// AddSet adds a node writing the variable at varPath.
func (e *Engine) AddSet(b *Binding, path string, pos Point, desiredName, varPath string) *Edit {
	return e.addNode(KindAddSet, b, path, "set", func(s *Scope) (*Node, error) {
		return &Node{Name: desiredName, Kind: NodeSet, Pos: pos, VarPath: varPath}, nil
	})
}

// DefaultBackDropSize is the size given to new backdrops.
var DefaultBackDropSize = Size{W: 160, H: 120}

// AddBackDrop adds an annotation frame.
func (e *Engine) AddBackDrop(b *Binding, path string, pos Point, title string) *Edit {
	return e.addNode(KindAddBackDrop, b, path, "backDrop", func(s *Scope) (*Node, error) {
		return &Node{Name: title, Kind: NodeBackDrop, Pos: pos, Size: DefaultBackDropSize, Title: title}, nil
	})
}

// addNode inserts the node built by mk under a unique name derived from its Name.
func (e *Engine) addNode(kind Kind, b *Binding, path, fallback string, mk func(s *Scope) (*Node, error)) *Edit {
	desc := fmt.Sprintf("add %s", fallback)
	return e.graphEdit(kind, b, path, desc, func(s *Scope) (string, error) {
		n, err := mk(s)
		if err != nil {
			return "", err
		}
		n.Name = s.Exec.uniqueNodeName(n.Name, fallback)
		s.Exec.Nodes = append(s.Exec.Nodes, n)
		return n.Name, nil
	})
}

func (e *Exec) nodes(names []string) ([]*Node, error) {
	if len(names) == 0 {
		return nil, ErrNothingSelected
	}
	nodes := make([]*Node, len(names))
	for i, name := range names {
		n, ok := e.Node(name)
		if !ok {
			return nil, notFound(ErrNodeNotFound, name)
		}
		nodes[i] = n
	}
	return nodes, nil
}

func (e *Exec) removeNodes(names []string) {
	e.Nodes = slices.DeleteFunc(e.Nodes, func(n *Node) bool { return slices.Contains(names, n.Name) })
	e.dropConnections(func(c Connection) bool {
		return slices.Contains(names, endpointNode(c.Src)) || slices.Contains(names, endpointNode(c.Dst))
	})
}

func (e *Exec) renameNode(n *Node, desired string) {
	old := n.Name
	n.Name = ""
	n.Name = e.uniqueNodeName(desired, old)
	e.renameNodeEndpoints(old, n.Name)
}
