package graph

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// PortSpec describes a port to add or the changes to apply to one.
type PortSpec struct {
	Name       string
	Type       PortType
	TypeSpec   string
	ExtDep     string
	UIMetadata string
}

// AddPort adds a port to the exec at path. When connectWith is set the new
// port is connected to that endpoint in the direction its type allows.
func (e *Engine) AddPort(b *Binding, path string, spec PortSpec, connectWith string) *Edit {
	desc := fmt.Sprintf("add port %s", spec.Name)
	return e.scopedEdit(KindAddPort, b, path, desc, func(s *Scope) (string, error) {
		if !spec.Type.Valid() {
			return "", fmt.Errorf("%w: %q", ErrInvalidPortType, spec.Type)
		}
		p := &Port{
			Name:     s.Exec.uniquePortName(spec.Name, "port"),
			Type:     spec.Type,
			TypeSpec: spec.TypeSpec,
			ExtDep:   spec.ExtDep,
		}
		if err := mergeMetadata(&p.Metadata, spec.UIMetadata); err != nil {
			return "", err
		}
		s.Exec.Ports = append(s.Exec.Ports, p)
		s.Exec.addExtDep(spec.ExtDep)
		if connectWith != "" {
			var err error
			if p.Type == PortOut {
				err = s.Exec.connect(connectWith, p.Name)
			} else {
				err = s.Exec.connect(p.Name, connectWith)
			}
			if err != nil {
				return "", err
			}
		}
		return p.Name, nil
	})
}

// EditPort renames a port and updates its type, extension dependency and UI metadata.
// Connections that no longer type-check are removed.
func (e *Engine) EditPort(b *Binding, path, oldName string, spec PortSpec) *Edit {
	desc := fmt.Sprintf("edit port %s", oldName)
	return e.scopedEdit(KindEditPort, b, path, desc, func(s *Scope) (string, error) {
		p, ok := s.Exec.Port(oldName)
		if !ok {
			return "", notFound(ErrPortNotFound, oldName)
		}
		if err := mergeMetadata(&p.Metadata, spec.UIMetadata); err != nil {
			return "", err
		}
		if spec.TypeSpec != "" {
			p.TypeSpec = spec.TypeSpec
		}
		if spec.ExtDep != "" {
			p.ExtDep = spec.ExtDep
			s.Exec.addExtDep(spec.ExtDep)
		}
		if spec.Name != "" && spec.Name != oldName {
			s.renamePort(p, spec.Name)
		}
		s.pruneAround()
		return p.Name, nil
	})
}

// RenamePort renames a port of the exec at path.
func (e *Engine) RenamePort(b *Binding, path, oldName, desiredName string) *Edit {
	desc := fmt.Sprintf("rename port %s", oldName)
	return e.scopedEdit(KindRenamePort, b, path, desc, func(s *Scope) (string, error) {
		p, ok := s.Exec.Port(oldName)
		if !ok {
			return "", notFound(ErrPortNotFound, oldName)
		}
		if strings.TrimSpace(desiredName) == "" {
			return "", fmt.Errorf("%w: empty port name", ErrInvalidValue)
		}
		if desiredName != oldName {
			s.renamePort(p, desiredName)
		}
		return p.Name, nil
	})
}

// RemovePort removes a port and every connection using it, on both sides of the exec.
func (e *Engine) RemovePort(b *Binding, path, name string) *Edit {
	desc := fmt.Sprintf("remove port %s", name)
	return e.scopedEdit(KindRemovePort, b, path, desc, func(s *Scope) (string, error) {
		i := s.Exec.portIndex(name)
		if i < 0 {
			return "", notFound(ErrPortNotFound, name)
		}
		s.Exec.Ports = slices.Delete(s.Exec.Ports, i, i+1)
		if s.IsRoot() {
			delete(s.Binding.ArgValues, name)
		}
		s.pruneAround()
		return "", nil
	})
}

// ReorderPorts permutes the ports of the exec. indices[i] is the current
// index of the port that moves to position i.
func (e *Engine) ReorderPorts(b *Binding, path string, indices []uint) *Edit {
	return e.scopedEdit(KindReorderPorts, b, path, "reorder ports", func(s *Scope) (string, error) {
		if len(indices) != len(s.Exec.Ports) {
			return "", fmt.Errorf("%w: %d indices for %d ports", ErrInvalidIndices, len(indices), len(s.Exec.Ports))
		}
		seen := make([]bool, len(indices))
		reordered := make([]*Port, len(indices))
		for i, idx := range indices {
			if int(idx) >= len(indices) || seen[idx] {
				return "", fmt.Errorf("%w: %v is not a permutation", ErrInvalidIndices, indices)
			}
			seen[idx] = true
			reordered[i] = s.Exec.Ports[idx]
		}
		s.Exec.Ports = reordered
		return "", nil
	})
}

// SetPortDefaultValue sets the JSON default of an exec port, or of a node pin
// when portPath has the form "node.pin".
func (e *Engine) SetPortDefaultValue(b *Binding, path, portPath, value string) *Edit {
	desc := fmt.Sprintf("set default of %s", portPath)
	return e.scopedEdit(KindSetPortDefault, b, path, desc, func(s *Scope) (string, error) {
		if !json.Valid([]byte(value)) {
			return "", fmt.Errorf("%w: %q is not JSON", ErrInvalidValue, value)
		}
		if nodeName, pin, ok := strings.Cut(portPath, "."); ok {
			n, found := s.Exec.Node(nodeName)
			if !found {
				return "", notFound(ErrPortNotFound, portPath)
			}
			if _, found := n.Pin(pin); !found {
				return "", notFound(ErrPortNotFound, portPath)
			}
			if n.PinDefaults == nil {
				n.PinDefaults = make(map[string]string)
			}
			n.PinDefaults[pin] = value
			return "", nil
		}
		p, ok := s.Exec.Port(portPath)
		if !ok {
			return "", notFound(ErrPortNotFound, portPath)
		}
		p.DefaultValue = value
		return "", nil
	})
}

func (s *Scope) renamePort(p *Port, desired string) {
	old := p.Name
	p.Name = ""
	p.Name = s.Exec.uniquePortName(desired, old)
	s.Exec.renameEndpoint(old, p.Name)
	if s.Parent != nil {
		s.Parent.renameEndpoint(s.pinPath(old), s.pinPath(p.Name))
	}
	if s.IsRoot() {
		if v, ok := s.Binding.ArgValues[old]; ok {
			delete(s.Binding.ArgValues, old)
			s.Binding.ArgValues[p.Name] = v
		}
	}
}

// pruneAround drops invalid connections inside the exec and on the owner node.
func (s *Scope) pruneAround() {
	s.Exec.prune()
	if s.Parent != nil {
		s.Parent.prune()
	}
}

func (e *Exec) addExtDep(dep string) {
	if dep != "" && !slices.Contains(e.ExtDeps, dep) {
		e.ExtDeps = append(e.ExtDeps, dep)
	}
}

// mergeMetadata merges a JSON object into dst. Non-string values keep their
// JSON encoding. An empty string is a no-op.
func mergeMetadata(dst *map[string]string, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return fmt.Errorf("%w: metadata must be a JSON object: %v", ErrInvalidJSON, err)
	}
	if *dst == nil {
		*dst = make(map[string]string, len(raw))
	}
	for k, v := range raw {
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			(*dst)[k] = str
			continue
		}
		(*dst)[k] = string(v)
	}
	return nil
}
