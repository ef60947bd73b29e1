package graph

import (
	"fmt"
	"strings"
)

// Point is a position in graph view coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p translated by -q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Size is the extent of a resizable node.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// PortType is the data direction of a port.
type PortType string

const (
	PortIn  PortType = "In"
	PortOut PortType = "Out"
	PortIO  PortType = "IO"
)

// ParsePortType converts a case-insensitive port type name.
func ParsePortType(s string) (PortType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in":
		return PortIn, nil
	case "out":
		return PortOut, nil
	case "io":
		return PortIO, nil
	}
	return "", fmt.Errorf("%w: %q (want In, Out or IO)", ErrInvalidPortType, s)
}

// Valid reports whether t is one of the known port types.
func (t PortType) Valid() bool {
	return t == PortIn || t == PortOut || t == PortIO
}

// ExecKind distinguishes graphs, which hold nodes, from functions, which hold code.
type ExecKind string

const (
	ExecGraph ExecKind = "graph"
	ExecFunc  ExecKind = "func"
)

// NodeKind is the role of a node inside a graph.
type NodeKind string

const (
	// NodeInst instantiates a nested graph or function.
	NodeInst NodeKind = "inst"

	// NodeVar declares a graph variable.
	NodeVar NodeKind = "var"

	// NodeGet reads a variable by path.
	NodeGet NodeKind = "get"

	// NodeSet writes a variable by path.
	NodeSet NodeKind = "set"

	// NodeBackDrop is a resizable annotation frame without pins.
	NodeBackDrop NodeKind = "backdrop"
)

// Kind names a graph edit. The value is the host command name that produces it.
type Kind string

const (
	KindConnect          Kind = "dfgConnect"
	KindDisconnect       Kind = "dfgDisconnect"
	KindMoveNodes        Kind = "dfgMoveNodes"
	KindImplodeNodes     Kind = "dfgImplodeNodes"
	KindExplodeNode      Kind = "dfgExplodeNode"
	KindPaste            Kind = "dfgPaste"
	KindResizeBackDrop   Kind = "dfgResizeBackDrop"
	KindRemoveNodes      Kind = "dfgRemoveNodes"
	KindAddPort          Kind = "dfgAddPort"
	KindCreatePreset     Kind = "dfgCreatePreset"
	KindEditPort         Kind = "dfgEditPort"
	KindSetArgType       Kind = "dfgSetArgType"
	KindSetArgValue      Kind = "dfgSetArgValue"
	KindSetPortDefault   Kind = "dfgSetPortDefaultValue"
	KindSetTitle         Kind = "dfgSetTitle"
	KindRemovePort       Kind = "dfgRemovePort"
	KindSetCode          Kind = "dfgSetCode"
	KindSetRefVarPath    Kind = "dfgSetRefVarPath"
	KindReorderPorts     Kind = "dfgReorderPorts"
	KindDismissLoadDiags Kind = "dfgDismissLoadDiags"
	KindEditNode         Kind = "dfgEditNode"
	KindRenamePort       Kind = "dfgRenamePort"
	KindSetNodeComment   Kind = "dfgSetNodeComment"
	KindAddBackDrop      Kind = "dfgAddBackDrop"
	KindInstPreset       Kind = "dfgInstPreset"
	KindAddGraph         Kind = "dfgAddGraph"
	KindAddFunc          Kind = "dfgAddFunc"
	KindAddVar           Kind = "dfgAddVar"
	KindAddGet           Kind = "dfgAddGet"
	KindAddSet           Kind = "dfgAddSet"
	KindSetExtDeps       Kind = "dfgSetExtDeps"
	KindSplitFromPreset  Kind = "dfgSplitFromPreset"
)

// Name returns the command name of the edit.
func (k Kind) Name() string {
	return string(k)
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}
