// Package canvas defines the canvas command set: the argument layers shared
// by graph edit commands and one descriptor per command, each bound to the
// graph engine operation it produces.
package canvas

import (
	"github.com/felixgeelhaar/canvasbridge/internal/command"
	"github.com/felixgeelhaar/canvasbridge/internal/graph"
)

// BindingArgs resolves the binding a command operates on.
type BindingArgs struct {
	engine *graph.Engine

	BindingID string
	Binding   *graph.Binding
}

// DeclareSyntax implements command.Record.
func (r *BindingArgs) DeclareSyntax(s *command.Syntax) {
	s.Required("binding", "b", command.KindString, "id of the binding")
}

// Extract implements command.Record.
func (r *BindingArgs) Extract(a *command.Args) error {
	id, err := a.String("binding")
	if err != nil {
		return err
	}
	b, err := r.engine.Binding(id)
	if err != nil {
		return a.Unresolved("binding", err)
	}
	r.BindingID, r.Binding = id, b
	return nil
}

// ExecArgs resolves the exec inside the binding. The empty path is the root graph.
type ExecArgs struct {
	BindingArgs

	ExecPath string
	Exec     *graph.Scope
}

// DeclareSyntax implements command.Record.
func (r *ExecArgs) DeclareSyntax(s *command.Syntax) {
	r.BindingArgs.DeclareSyntax(s)
	s.Optional("execPath", "e", command.KindString, "", "dot-separated path of the exec, empty for the root")
}

// Extract implements command.Record.
func (r *ExecArgs) Extract(a *command.Args) error {
	if err := r.BindingArgs.Extract(a); err != nil {
		return err
	}
	path, err := a.String("execPath")
	if err != nil {
		return err
	}
	scope, err := r.Binding.Scope(path)
	if err != nil {
		return a.Unresolved("execPath", err)
	}
	r.ExecPath, r.Exec = path, scope
	return nil
}

// CnxnArgs names the two endpoints of a connection.
type CnxnArgs struct {
	ExecArgs

	SrcPort string
	DstPort string
}

// DeclareSyntax implements command.Record.
func (r *CnxnArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	s.Required("srcPort", "s", command.KindString, "source port path")
	s.Required("dstPort", "d", command.KindString, "destination port path")
}

// Extract implements command.Record.
func (r *CnxnArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	var err error
	if r.SrcPort, err = a.String("srcPort"); err != nil {
		return err
	}
	r.DstPort, err = a.String("dstPort")
	return err
}

// NodeArgs adds a position in graph view coordinates.
type NodeArgs struct {
	ExecArgs

	Pos graph.Point
}

// DeclareSyntax implements command.Record.
func (r *NodeArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	s.Optional("x", "x", command.KindFloat, "0", "x position")
	s.Optional("y", "y", command.KindFloat, "0", "y position")
}

// Extract implements command.Record.
func (r *NodeArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	x, y, err := a.Pair("x", "y")
	if err != nil {
		return err
	}
	r.Pos = graph.Point{X: x, Y: y}
	return nil
}

// RefArgs describes a variable reference node.
type RefArgs struct {
	NodeArgs

	DesiredName string
	VarPath     string
}

// DeclareSyntax implements command.Record.
func (r *RefArgs) DeclareSyntax(s *command.Syntax) {
	r.NodeArgs.DeclareSyntax(s)
	s.Optional("desiredName", "n", command.KindString, "", "preferred node name")
	s.Required("varPath", "p", command.KindString, "path of the referenced variable")
}

// Extract implements command.Record.
func (r *RefArgs) Extract(a *command.Args) error {
	if err := r.NodeArgs.Extract(a); err != nil {
		return err
	}
	var err error
	if r.DesiredName, err = a.String("desiredName"); err != nil {
		return err
	}
	r.VarPath, err = a.String("varPath")
	return err
}
