package graph

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// SetTitle sets the title of the exec at path.
func (e *Engine) SetTitle(b *Binding, path, title string) *Edit {
	desc := fmt.Sprintf("set title to %q", title)
	return e.scopedEdit(KindSetTitle, b, path, desc, func(s *Scope) (string, error) {
		s.Exec.Title = title
		return "", nil
	})
}

// SetCode replaces the code of a function exec.
func (e *Engine) SetCode(b *Binding, path, code string) *Edit {
	return e.scopedEdit(KindSetCode, b, path, "set code", func(s *Scope) (string, error) {
		if s.Exec.Kind != ExecFunc {
			return "", notFound(ErrNotFunc, path)
		}
		s.Exec.Code = code
		return "", nil
	})
}

// SetExtDeps replaces the extension dependencies of the exec.
func (e *Engine) SetExtDeps(b *Binding, path string, deps []string) *Edit {
	desc := fmt.Sprintf("set extension dependencies to %s", strings.Join(deps, ", "))
	return e.scopedEdit(KindSetExtDeps, b, path, desc, func(s *Scope) (string, error) {
		s.Exec.ExtDeps = nil
		for _, d := range deps {
			s.Exec.addExtDep(strings.TrimSpace(d))
		}
		return "", nil
	})
}

// SplitFromPreset detaches the exec at path from the preset it instantiates.
func (e *Engine) SplitFromPreset(b *Binding, path string) *Edit {
	return e.scopedEdit(KindSplitFromPreset, b, path, "split from preset", func(s *Scope) (string, error) {
		if s.Exec.PresetPath == "" {
			return "", notFound(ErrNotPreset, path)
		}
		s.Exec.PresetPath = ""
		return "", nil
	})
}

// CreatePreset stores the exec of an instance node in the preset library
// under dir.name and marks the instance as using it.
func (e *Engine) CreatePreset(b *Binding, path, nodeName, dir, name string) *Edit {
	presetPath := name
	if dir != "" {
		presetPath = strings.TrimSuffix(dir, ".") + "." + name
	}
	desc := fmt.Sprintf("create preset %s from %s", presetPath, nodeName)
	return e.graphEdit(KindCreatePreset, b, path, desc, func(s *Scope) (string, error) {
		n, ok := s.Exec.Node(nodeName)
		if !ok {
			return "", notFound(ErrNodeNotFound, nodeName)
		}
		if n.Kind != NodeInst || n.Exec == nil {
			return "", notFound(ErrNotInstance, nodeName)
		}
		if strings.TrimSpace(name) == "" {
			return "", fmt.Errorf("%w: empty preset name", ErrInvalidValue)
		}
		if err := e.RegisterPreset(presetPath, n.Exec); err != nil {
			return "", err
		}
		n.Exec.PresetPath = presetPath
		return presetPath, nil
	})
}

// SetArgType changes the type of a binding argument. Its value is cleared.
func (e *Engine) SetArgType(b *Binding, argName, typeName string) *Edit {
	desc := fmt.Sprintf("set type of %s to %s", argName, typeName)
	return e.scopedEdit(KindSetArgType, b, "", desc, func(s *Scope) (string, error) {
		p, ok := s.Exec.Port(argName)
		if !ok {
			return "", notFound(ErrPortNotFound, argName)
		}
		if strings.TrimSpace(typeName) == "" {
			return "", fmt.Errorf("%w: empty type name", ErrInvalidValue)
		}
		p.TypeSpec = typeName
		delete(s.Binding.ArgValues, argName)
		s.Exec.prune()
		return "", nil
	})
}

// SetArgValue sets the JSON value of a binding argument.
func (e *Engine) SetArgValue(b *Binding, argName, value string) *Edit {
	desc := fmt.Sprintf("set value of %s", argName)
	return e.scopedEdit(KindSetArgValue, b, "", desc, func(s *Scope) (string, error) {
		p, ok := s.Exec.Port(argName)
		if !ok {
			return "", notFound(ErrPortNotFound, argName)
		}
		if p.Type == PortOut {
			return "", fmt.Errorf("%w: %s is an output", ErrInvalidValue, argName)
		}
		if !json.Valid([]byte(value)) {
			return "", fmt.Errorf("%w: %q is not JSON", ErrInvalidValue, value)
		}
		if s.Binding.ArgValues == nil {
			s.Binding.ArgValues = make(map[string]string)
		}
		s.Binding.ArgValues[argName] = value
		return "", nil
	})
}

// DismissLoadDiags removes the load diagnostics at the given indices.
func (e *Engine) DismissLoadDiags(b *Binding, indices []uint) *Edit {
	return e.newEdit(KindDismissLoadDiags, b, "dismiss load diagnostics", func() (string, error) {
		sorted := slices.Clone(indices)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
		sorted = slices.Compact(sorted)
		for _, idx := range sorted {
			if int(idx) >= len(b.LoadDiags) {
				return "", fmt.Errorf("%w: %d out of %d diagnostics", ErrInvalidIndices, idx, len(b.LoadDiags))
			}
		}
		for _, idx := range sorted {
			b.LoadDiags = slices.Delete(b.LoadDiags, int(idx), int(idx)+1)
		}
		return "", nil
	})
}
