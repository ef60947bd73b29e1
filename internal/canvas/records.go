package canvas

import (
	"fmt"

	"github.com/felixgeelhaar/canvasbridge/internal/command"
	"github.com/felixgeelhaar/canvasbridge/internal/graph"
)

type moveNodesArgs struct {
	ExecArgs
	NodeNames []string
	Positions []graph.Point
}

func (r *moveNodesArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	s.Required("nodeNames", "", command.KindStringList, "nodes to move")
	s.Required("xs", "", command.KindFloatList, "new x position of each node")
	s.Required("ys", "", command.KindFloatList, "new y position of each node")
}

func (r *moveNodesArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	names, err := a.StringList("nodeNames")
	if err != nil {
		return err
	}
	xs, err := a.FloatList("xs")
	if err != nil {
		return err
	}
	ys, err := a.FloatList("ys")
	if err != nil {
		return err
	}
	if len(xs) != len(names) {
		return a.Mismatch("xs", fmt.Errorf("%d values for %d nodes", len(xs), len(names)))
	}
	if len(ys) != len(names) {
		return a.Mismatch("ys", fmt.Errorf("%d values for %d nodes", len(ys), len(names)))
	}
	r.NodeNames = names
	r.Positions = make([]graph.Point, len(names))
	for i := range names {
		r.Positions[i] = graph.Point{X: xs[i], Y: ys[i]}
	}
	return nil
}

// nodeListArgs selects a set of nodes.
type nodeListArgs struct {
	ExecArgs
	NodeNames []string
}

func (r *nodeListArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	s.Required("nodeNames", "", command.KindStringList, "node names")
}

func (r *nodeListArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	names, err := a.StringList("nodeNames")
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return a.Invalid("nodeNames", graph.ErrNothingSelected)
	}
	r.NodeNames = names
	return nil
}

type implodeNodesArgs struct {
	nodeListArgs
	DesiredName string
}

func (r *implodeNodesArgs) DeclareSyntax(s *command.Syntax) {
	r.nodeListArgs.DeclareSyntax(s)
	s.Optional("desiredImplodedNodeName", "", command.KindString, "graph", "name of the new graph node")
}

func (r *implodeNodesArgs) Extract(a *command.Args) error {
	if err := r.nodeListArgs.Extract(a); err != nil {
		return err
	}
	var err error
	r.DesiredName, err = a.String("desiredImplodedNodeName")
	return err
}

// singleNodeArgs names one node with a command-specific flag.
type singleNodeArgs struct {
	ExecArgs
	flag     string
	NodeName string
}

func (r *singleNodeArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	s.Required(r.flag, "", command.KindString, "node name")
}

func (r *singleNodeArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	var err error
	r.NodeName, err = a.String(r.flag)
	return err
}

type pasteArgs struct {
	NodeArgs
	Text string
}

func (r *pasteArgs) DeclareSyntax(s *command.Syntax) {
	r.NodeArgs.DeclareSyntax(s)
	s.Required("text", "", command.KindString, "clipboard JSON")
}

func (r *pasteArgs) Extract(a *command.Args) error {
	if err := r.NodeArgs.Extract(a); err != nil {
		return err
	}
	var err error
	r.Text, err = a.String("text")
	return err
}

type resizeBackDropArgs struct {
	NodeArgs
	NodeName string
	Size     graph.Size
}

func (r *resizeBackDropArgs) DeclareSyntax(s *command.Syntax) {
	r.NodeArgs.DeclareSyntax(s)
	s.Required("nodeName", "", command.KindString, "backdrop node name")
	s.Required("w", "w", command.KindFloat, "width")
	s.Required("h", "h", command.KindFloat, "height")
}

func (r *resizeBackDropArgs) Extract(a *command.Args) error {
	if err := r.NodeArgs.Extract(a); err != nil {
		return err
	}
	var err error
	if r.NodeName, err = a.String("nodeName"); err != nil {
		return err
	}
	w, h, err := a.Pair("w", "h")
	if err != nil {
		return err
	}
	if w < 0 || h < 0 {
		return a.Invalid("w", fmt.Errorf("size %gx%g is negative", w, h))
	}
	r.Size = graph.Size{W: w, H: h}
	return nil
}

// portEditArgs carries the optional attributes shared by add-port and edit-port.
type portEditArgs struct {
	ExecArgs
	Spec graph.PortSpec
}

func (r *portEditArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	s.Optional("typeSpec", "", command.KindString, "", "port type specification")
	s.Optional("extDep", "", command.KindString, "", "extension dependency of the type")
	s.Optional("uiMetadata", "", command.KindString, "", "JSON object of UI metadata")
}

func (r *portEditArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	var err error
	if r.Spec.TypeSpec, err = a.String("typeSpec"); err != nil {
		return err
	}
	if r.Spec.ExtDep, err = a.String("extDep"); err != nil {
		return err
	}
	r.Spec.UIMetadata, err = a.String("uiMetadata")
	return err
}

type addPortArgs struct {
	portEditArgs
	ConnectWith string
}

func (r *addPortArgs) DeclareSyntax(s *command.Syntax) {
	r.portEditArgs.DeclareSyntax(s)
	s.Required("desiredPortName", "", command.KindString, "preferred port name")
	s.Required("portType", "", command.KindString, "In, Out or IO")
	s.Optional("portToConnectWith", "", command.KindString, "", "endpoint to connect the new port to")
}

func (r *addPortArgs) Extract(a *command.Args) error {
	if err := r.portEditArgs.Extract(a); err != nil {
		return err
	}
	var err error
	if r.Spec.Name, err = a.String("desiredPortName"); err != nil {
		return err
	}
	raw, err := a.String("portType")
	if err != nil {
		return err
	}
	if r.Spec.Type, err = graph.ParsePortType(raw); err != nil {
		return a.Invalid("portType", err)
	}
	r.ConnectWith, err = a.String("portToConnectWith")
	return err
}

type editPortArgs struct {
	portEditArgs
	OldName string
}

func (r *editPortArgs) DeclareSyntax(s *command.Syntax) {
	r.portEditArgs.DeclareSyntax(s)
	s.Required("oldPortName", "", command.KindString, "port to edit")
	s.Optional("desiredNewPortName", "", command.KindString, "", "new port name")
}

func (r *editPortArgs) Extract(a *command.Args) error {
	if err := r.portEditArgs.Extract(a); err != nil {
		return err
	}
	var err error
	if r.OldName, err = a.String("oldPortName"); err != nil {
		return err
	}
	r.Spec.Name, err = a.String("desiredNewPortName")
	return err
}

type createPresetArgs struct {
	ExecArgs
	NodeName string
	DirPath  string
	Name     string
}

func (r *createPresetArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	s.Required("nodeName", "", command.KindString, "instance node to turn into a preset")
	s.Optional("presetDirPath", "", command.KindString, "", "dot-separated preset directory")
	s.Required("presetName", "", command.KindString, "preset name")
}

func (r *createPresetArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	var err error
	if r.NodeName, err = a.String("nodeName"); err != nil {
		return err
	}
	if r.DirPath, err = a.String("presetDirPath"); err != nil {
		return err
	}
	r.Name, err = a.String("presetName")
	return err
}

// namedValueArgs reads two string flags: the name of a thing and a value for it.
// Several commands differ only in the flag names.
type namedValueArgs struct {
	ExecArgs
	nameFlag, valueFlag string
	valueRequired       bool
	Name, Value         string
}

func (r *namedValueArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	s.Required(r.nameFlag, "", command.KindString, "")
	if r.valueRequired {
		s.Required(r.valueFlag, "", command.KindString, "")
	} else {
		s.Optional(r.valueFlag, "", command.KindString, "", "")
	}
}

func (r *namedValueArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	var err error
	if r.Name, err = a.String(r.nameFlag); err != nil {
		return err
	}
	r.Value, err = a.String(r.valueFlag)
	return err
}

// argArgs is the binding-scoped form of namedValueArgs, used by argument commands.
type argArgs struct {
	BindingArgs
	valueFlag string
	ArgName   string
	Value     string
}

func (r *argArgs) DeclareSyntax(s *command.Syntax) {
	r.BindingArgs.DeclareSyntax(s)
	s.Required("argName", "", command.KindString, "binding argument name")
	s.Required(r.valueFlag, "", command.KindString, "")
}

func (r *argArgs) Extract(a *command.Args) error {
	if err := r.BindingArgs.Extract(a); err != nil {
		return err
	}
	var err error
	if r.ArgName, err = a.String("argName"); err != nil {
		return err
	}
	r.Value, err = a.String(r.valueFlag)
	return err
}

// textArgs reads a single string flag.
type textArgs struct {
	ExecArgs
	flag     string
	required bool
	Text     string
}

func (r *textArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	if r.required {
		s.Required(r.flag, "", command.KindString, "")
	} else {
		s.Optional(r.flag, "", command.KindString, "", "")
	}
}

func (r *textArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	var err error
	r.Text, err = a.String(r.flag)
	return err
}

type indicesArgs struct {
	ExecArgs
	Indices []uint
}

func (r *indicesArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	s.Required("indices", "", command.KindUintList, "port indices in their new order")
}

func (r *indicesArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	var err error
	r.Indices, err = a.UintList("indices")
	return err
}

type dismissLoadDiagsArgs struct {
	BindingArgs
	Indices []uint
}

func (r *dismissLoadDiagsArgs) DeclareSyntax(s *command.Syntax) {
	r.BindingArgs.DeclareSyntax(s)
	s.Required("indices", "", command.KindUintList, "indices of the diagnostics to dismiss")
}

func (r *dismissLoadDiagsArgs) Extract(a *command.Args) error {
	if err := r.BindingArgs.Extract(a); err != nil {
		return err
	}
	indices, err := a.UintList("indices")
	if err != nil {
		return err
	}
	for _, i := range indices {
		if int(i) >= len(r.Binding.LoadDiags) {
			return a.Invalid("indices", fmt.Errorf("binding has %d diagnostics, got index %d", len(r.Binding.LoadDiags), i))
		}
	}
	r.Indices = indices
	return nil
}

type editNodeArgs struct {
	ExecArgs
	OldName      string
	DesiredName  string
	NodeMetadata string
	ExecMetadata string
}

func (r *editNodeArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	s.Required("oldNodeName", "", command.KindString, "node to edit")
	s.Optional("desiredNewNodeName", "", command.KindString, "", "new node name")
	s.Optional("nodeMetadata", "", command.KindString, "", "JSON object merged into the node metadata")
	s.Optional("execMetadata", "", command.KindString, "", "JSON object merged into the exec metadata")
}

func (r *editNodeArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	var err error
	if r.OldName, err = a.String("oldNodeName"); err != nil {
		return err
	}
	if r.DesiredName, err = a.String("desiredNewNodeName"); err != nil {
		return err
	}
	if r.NodeMetadata, err = a.String("nodeMetadata"); err != nil {
		return err
	}
	r.ExecMetadata, err = a.String("execMetadata")
	return err
}

type setNodeCommentArgs struct {
	ExecArgs
	NodeName string
	Comment  string
	Expanded bool
}

func (r *setNodeCommentArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	s.Required("nodeName", "", command.KindString, "node to comment")
	s.Optional("comment", "", command.KindString, "", "comment text, empty to clear")
	s.Optional("expanded", "", command.KindBool, "false", "show the comment expanded")
}

func (r *setNodeCommentArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	var err error
	if r.NodeName, err = a.String("nodeName"); err != nil {
		return err
	}
	if r.Comment, err = a.String("comment"); err != nil {
		return err
	}
	r.Expanded, err = a.Bool("expanded")
	return err
}

// titledNodeArgs is the add-node layer for nodes created from a title.
type titledNodeArgs struct {
	NodeArgs
	fallback string
	Title    string
}

func (r *titledNodeArgs) DeclareSyntax(s *command.Syntax) {
	r.NodeArgs.DeclareSyntax(s)
	s.Optional("title", "t", command.KindString, r.fallback, "title of the new node")
}

func (r *titledNodeArgs) Extract(a *command.Args) error {
	if err := r.NodeArgs.Extract(a); err != nil {
		return err
	}
	var err error
	r.Title, err = a.String("title")
	return err
}

type addFuncArgs struct {
	titledNodeArgs
	Code string
}

func (r *addFuncArgs) DeclareSyntax(s *command.Syntax) {
	r.titledNodeArgs.DeclareSyntax(s)
	s.Optional("code", "", command.KindString, "", "initial code of the function")
}

func (r *addFuncArgs) Extract(a *command.Args) error {
	if err := r.titledNodeArgs.Extract(a); err != nil {
		return err
	}
	var err error
	r.Code, err = a.String("code")
	return err
}

type instPresetArgs struct {
	NodeArgs
	PresetPath string
}

func (r *instPresetArgs) DeclareSyntax(s *command.Syntax) {
	r.NodeArgs.DeclareSyntax(s)
	s.Required("presetPath", "", command.KindString, "library path of the preset")
}

func (r *instPresetArgs) Extract(a *command.Args) error {
	if err := r.NodeArgs.Extract(a); err != nil {
		return err
	}
	var err error
	r.PresetPath, err = a.String("presetPath")
	return err
}

type addVarArgs struct {
	NodeArgs
	DesiredName string
	Type        string
	ExtDep      string
}

func (r *addVarArgs) DeclareSyntax(s *command.Syntax) {
	r.NodeArgs.DeclareSyntax(s)
	s.Optional("desiredName", "n", command.KindString, "", "preferred node name")
	s.Required("type", "", command.KindString, "type of the variable")
	s.Optional("extDep", "", command.KindString, "", "extension dependency of the type")
}

func (r *addVarArgs) Extract(a *command.Args) error {
	if err := r.NodeArgs.Extract(a); err != nil {
		return err
	}
	var err error
	if r.DesiredName, err = a.String("desiredName"); err != nil {
		return err
	}
	if r.Type, err = a.String("type"); err != nil {
		return err
	}
	r.ExtDep, err = a.String("extDep")
	return err
}

type setExtDepsArgs struct {
	ExecArgs
	ExtDeps []string
}

func (r *setExtDepsArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	s.Optional("extDeps", "", command.KindStringList, "", "extension dependencies, empty to clear")
}

func (r *setExtDepsArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	var err error
	r.ExtDeps, err = a.StringList("extDeps")
	return err
}
