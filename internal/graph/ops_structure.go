package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ImplodeNodes moves the named nodes into a new graph instance. Connections
// crossing the selection are rerouted through ports of the new graph.
func (e *Engine) ImplodeNodes(b *Binding, path string, names []string, desiredName string) *Edit {
	desc := fmt.Sprintf("implode %s", strings.Join(names, ", "))
	return e.graphEdit(KindImplodeNodes, b, path, desc, func(s *Scope) (string, error) {
		nodes, err := s.Exec.nodes(names)
		if err != nil {
			return "", err
		}
		selected := make(map[string]bool, len(names))
		var center Point
		for _, n := range nodes {
			selected[n.Name] = true
			center = center.Add(n.Pos)
		}
		center = Point{X: center.X / float64(len(nodes)), Y: center.Y / float64(len(nodes))}

		inner := NewGraphExec(desiredName)
		inst := &Node{Name: s.Exec.uniqueNodeName(desiredName, "graph"), Kind: NodeInst, Pos: center, Exec: inner}

		exposed := make(map[string]string)
		expose := func(pinPath string, t PortType) string {
			if port, ok := exposed[pinPath]; ok {
				return port
			}
			var spec string
			if ep, err := s.Exec.endpoint(pinPath); err == nil {
				spec = ep.pin.TypeSpec
			}
			port := inner.uniquePortName(strings.ReplaceAll(pinPath, ".", "_"), "port")
			inner.Ports = append(inner.Ports, &Port{Name: port, Type: t, TypeSpec: spec})
			exposed[pinPath] = port
			return port
		}

		var outer []Connection
		for _, c := range s.Exec.Connections {
			srcIn, dstIn := selected[endpointNode(c.Src)], selected[endpointNode(c.Dst)]
			switch {
			case srcIn && dstIn:
				inner.Connections = append(inner.Connections, c)
			case dstIn:
				port := expose(c.Dst, PortIn)
				inner.Connections = append(inner.Connections, Connection{Src: port, Dst: c.Dst})
				outer = append(outer, Connection{Src: c.Src, Dst: inst.Name + "." + port})
			case srcIn:
				_, seen := exposed[c.Src]
				port := expose(c.Src, PortOut)
				if !seen {
					inner.Connections = append(inner.Connections, Connection{Src: c.Src, Dst: port})
				}
				outer = append(outer, Connection{Src: inst.Name + "." + port, Dst: c.Dst})
			default:
				outer = append(outer, c)
			}
		}

		for _, n := range nodes {
			n.Pos = n.Pos.Sub(center)
		}
		inner.Nodes = nodes
		s.Exec.Connections = nil
		s.Exec.removeNodes(names)
		s.Exec.Nodes = append(s.Exec.Nodes, inst)
		s.Exec.Connections = outer
		return inst.Name, nil
	})
}

// ExplodeNode replaces a graph instance by its contents. Connections through
// the instance's ports are rewired to the inner nodes directly.
func (e *Engine) ExplodeNode(b *Binding, path, name string) *Edit {
	desc := fmt.Sprintf("explode %s", name)
	return e.graphEdit(KindExplodeNode, b, path, desc, func(s *Scope) (string, error) {
		n, ok := s.Exec.Node(name)
		if !ok {
			return "", notFound(ErrNodeNotFound, name)
		}
		if n.Kind != NodeInst || n.Exec == nil {
			return "", notFound(ErrNotInstance, name)
		}
		if n.Exec.Kind != ExecGraph {
			return "", notFound(ErrNotGraph, name)
		}
		inner := n.Exec

		feeds := make(map[string]string)
		consumers := make(map[string][]string)
		var kept []Connection
		for _, c := range s.Exec.Connections {
			switch {
			case endpointNode(c.Dst) == name:
				feeds[strings.TrimPrefix(c.Dst, name+".")] = c.Src
			case endpointNode(c.Src) == name:
				port := strings.TrimPrefix(c.Src, name+".")
				consumers[port] = append(consumers[port], c.Dst)
			default:
				kept = append(kept, c)
			}
		}
		s.Exec.Connections = kept
		s.Exec.removeNodes([]string{name})

		renamed := make(map[string]string, len(inner.Nodes))
		created := make([]string, 0, len(inner.Nodes))
		for _, in := range inner.Nodes {
			moved := in.Clone()
			moved.Name = s.Exec.uniqueNodeName(in.Name, "node")
			moved.Pos = moved.Pos.Add(n.Pos)
			s.Exec.Nodes = append(s.Exec.Nodes, moved)
			renamed[in.Name] = moved.Name
			created = append(created, moved.Name)
		}
		translate := func(p string) string {
			node, pin, _ := strings.Cut(p, ".")
			return renamed[node] + "." + pin
		}

		for _, c := range inner.Connections {
			srcPort, dstPort := endpointNode(c.Src) == "", endpointNode(c.Dst) == ""
			switch {
			case !srcPort && !dstPort:
				s.Exec.Connections = append(s.Exec.Connections, Connection{Src: translate(c.Src), Dst: translate(c.Dst)})
			case srcPort && !dstPort:
				if from, ok := feeds[c.Src]; ok {
					s.Exec.Connections = append(s.Exec.Connections, Connection{Src: from, Dst: translate(c.Dst)})
				}
			case !srcPort && dstPort:
				for _, to := range consumers[c.Dst] {
					s.Exec.Connections = append(s.Exec.Connections, Connection{Src: translate(c.Src), Dst: to})
				}
			default:
				if from, ok := feeds[c.Src]; ok {
					for _, to := range consumers[c.Dst] {
						s.Exec.Connections = append(s.Exec.Connections, Connection{Src: from, Dst: to})
					}
				}
			}
		}
		s.Exec.prune()
		return strings.Join(created, ","), nil
	})
}

// Clipboard is the JSON form used to copy and paste nodes.
type Clipboard struct {
	Nodes       []*Node      `json:"nodes"`
	Connections []Connection `json:"connections,omitempty"`
}

// Copy serializes the named nodes of the exec at path, together with the
// connections between them.
func (b *Binding) Copy(path string, names []string) (string, error) {
	s, err := b.Scope(path)
	if err != nil {
		return "", err
	}
	nodes, err := s.Exec.nodes(names)
	if err != nil {
		return "", err
	}
	clip := Clipboard{Nodes: make([]*Node, len(nodes))}
	selected := make(map[string]bool, len(nodes))
	for i, n := range nodes {
		clip.Nodes[i] = n.Clone()
		selected[n.Name] = true
	}
	for _, c := range s.Exec.Connections {
		if selected[endpointNode(c.Src)] && selected[endpointNode(c.Dst)] {
			clip.Connections = append(clip.Connections, c)
		}
	}
	data, err := json.Marshal(clip)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Paste inserts clipboard nodes so that their top-left corner lands on pos.
// Pasted connections that no longer fit are dropped.
func (e *Engine) Paste(b *Binding, path, text string, pos Point) *Edit {
	return e.graphEdit(KindPaste, b, path, "paste", func(s *Scope) (string, error) {
		var clip Clipboard
		if err := json.Unmarshal([]byte(text), &clip); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if len(clip.Nodes) == 0 {
			return "", ErrNothingSelected
		}
		corner := Point{X: math.Inf(1), Y: math.Inf(1)}
		for _, n := range clip.Nodes {
			if n == nil {
				return "", fmt.Errorf("%w: null node", ErrInvalidJSON)
			}
			corner.X = math.Min(corner.X, n.Pos.X)
			corner.Y = math.Min(corner.Y, n.Pos.Y)
		}
		offset := pos.Sub(corner)

		renamed := make(map[string]string, len(clip.Nodes))
		created := make([]string, 0, len(clip.Nodes))
		for _, n := range clip.Nodes {
			pasted := n.Clone()
			pasted.Name = s.Exec.uniqueNodeName(n.Name, "node")
			pasted.Pos = pasted.Pos.Add(offset)
			s.Exec.Nodes = append(s.Exec.Nodes, pasted)
			renamed[n.Name] = pasted.Name
			created = append(created, pasted.Name)
		}
		for _, c := range clip.Connections {
			src, ok1 := renameEndpoint(c.Src, renamed)
			dst, ok2 := renameEndpoint(c.Dst, renamed)
			if !ok1 || !ok2 {
				continue
			}
			_ = s.Exec.connect(src, dst)
		}
		return strings.Join(created, ","), nil
	})
}

func renameEndpoint(path string, renamed map[string]string) (string, bool) {
	node, pin, ok := strings.Cut(path, ".")
	if !ok {
		return "", false
	}
	to, ok := renamed[node]
	if !ok {
		return "", false
	}
	return to + "." + pin, true
}
