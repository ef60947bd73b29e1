package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"strconv"
)

// bindingJSON is the exchange format of a single binding.
type bindingJSON struct {
	Name      string            `json:"name,omitempty"`
	Root      *Exec             `json:"root"`
	ArgValues map[string]string `json:"argValues,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ExportJSON encodes the binding, or only the exec at path when path is not empty.
func (b *Binding) ExportJSON(path string) ([]byte, error) {
	if path == "" {
		return json.MarshalIndent(bindingJSON{
			Name:      b.Name,
			Root:      b.Root,
			ArgValues: b.ArgValues,
			Metadata:  b.Metadata,
		}, "", "  ")
	}
	s, err := b.Scope(path)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(s.Exec, "", "  ")
}

// ImportJSON creates a new binding from exported JSON. Elements that do not
// load cleanly are dropped and reported in the binding's LoadDiags.
func (e *Engine) ImportJSON(name string, data []byte) (*Binding, error) {
	doc, err := decodeBinding(data)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = doc.Name
	}
	b := &Binding{
		Name:      e.uniqueBindingName(name),
		Root:      doc.Root,
		ArgValues: doc.ArgValues,
		Metadata:  doc.Metadata,
		LoadDiags: sanitize(doc.Root, ""),
	}
	e.attach(b)
	return b, nil
}

// ReloadJSON replaces the content of an existing binding, keeping its id and name.
func (e *Engine) ReloadJSON(b *Binding, data []byte) error {
	doc, err := decodeBinding(data)
	if err != nil {
		return err
	}
	b.Root = doc.Root
	b.ArgValues = doc.ArgValues
	b.Metadata = doc.Metadata
	b.LoadDiags = sanitize(doc.Root, "")
	e.logger.Info("binding reloaded", "binding_id", b.ID, "diagnostics", len(b.LoadDiags))
	return nil
}

// decodeBinding accepts either an exported binding or a bare exec.
func decodeBinding(data []byte) (*bindingJSON, error) {
	var doc bindingJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if doc.Root == nil {
		var exec Exec
		if err := json.Unmarshal(data, &exec); err != nil || exec.Kind == "" {
			return nil, fmt.Errorf("%w: neither a binding nor an exec", ErrInvalidJSON)
		}
		doc.Root = &exec
	}
	return &doc, nil
}

// sanitize repairs a decoded exec tree in place and returns what it changed.
func sanitize(x *Exec, path string) []string {
	var diags []string
	report := func(format string, args ...any) {
		where := path
		if where == "" {
			where = "<root>"
		}
		diags = append(diags, where+": "+fmt.Sprintf(format, args...))
	}
	if x.Kind == "" {
		x.Kind = ExecGraph
	}
	ports := x.Ports[:0]
	for _, p := range x.Ports {
		if p == nil {
			report("dropped null port")
			continue
		}
		if !p.Type.Valid() {
			report("port %s has type %q, using In", p.Name, p.Type)
			p.Type = PortIn
		}
		ports = append(ports, p)
	}
	x.Ports = ports
	seen := make(map[string]bool, len(x.Nodes))
	nodes := x.Nodes[:0]
	for _, n := range x.Nodes {
		if n == nil || n.Name == "" || seen[n.Name] {
			report("dropped unnamed or duplicate node")
			continue
		}
		seen[n.Name] = true
		nodes = append(nodes, n)
		if n.Kind == NodeInst && n.Exec != nil {
			child := n.Name
			if path != "" {
				child = path + "." + n.Name
			}
			diags = append(diags, sanitize(n.Exec, child)...)
		}
	}
	x.Nodes = nodes

	var conns []Connection
	fed := make(map[string]bool, len(x.Connections))
	for _, c := range x.Connections {
		if err := x.checkConnection(c.Src, c.Dst); err != nil {
			report("dropped connection %s -> %s: %v", c.Src, c.Dst, err)
			continue
		}
		if fed[c.Dst] {
			report("dropped connection %s -> %s: destination already connected", c.Src, c.Dst)
			continue
		}
		fed[c.Dst] = true
		conns = append(conns, c)
	}
	x.Connections = conns
	return diags
}

// Document is the persisted form of an engine.
type Document struct {
	Bindings []*Binding       `json:"bindings"`
	Presets  map[string]*Exec `json:"presets,omitempty"`
}

// Save writes every binding and preset to w.
func (e *Engine) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Document{Bindings: e.bindings, Presets: e.presets})
}

// Load replaces the engine content with a document written by Save.
func (e *Engine) Load(r io.Reader) error {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	next := 1
	for _, b := range doc.Bindings {
		if b == nil || b.Root == nil {
			return fmt.Errorf("%w: binding without root", ErrInvalidJSON)
		}
		if id, err := strconv.Atoi(b.ID); err == nil && id >= next {
			next = id + 1
		}
	}
	e.bindings = doc.Bindings
	e.presets = maps.Clone(doc.Presets)
	if e.presets == nil {
		e.presets = make(map[string]*Exec)
	}
	e.nextID = next
	e.logger.Info("document loaded", "bindings", len(e.bindings), "presets", len(e.presets))
	return nil
}
