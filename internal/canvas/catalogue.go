package canvas

import (
	"context"
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/canvasbridge/internal/command"
	"github.com/felixgeelhaar/canvasbridge/internal/graph"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/security"
)

// Catalogue builds the canvas command descriptors around one engine.
type Catalogue struct {
	engine   *graph.Engine
	fileRoot string
}

// Option configures a Catalogue.
type Option func(*Catalogue)

// WithFileRoot confines the files commands read and write to dir.
func WithFileRoot(dir string) Option {
	return func(c *Catalogue) { c.fileRoot = dir }
}

// NewCatalogue creates a catalogue whose commands act on engine.
func NewCatalogue(engine *graph.Engine, opts ...Option) *Catalogue {
	c := &Catalogue{engine: engine}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds every canvas command to r.
func Register(r *command.Registry, engine *graph.Engine, opts ...Option) error {
	for _, d := range NewCatalogue(engine, opts...).Descriptors() {
		if err := r.Register(d); err != nil {
			return fmt.Errorf("register %s: %w", d.Name, err)
		}
	}
	return nil
}

func (c *Catalogue) binding() BindingArgs { return BindingArgs{engine: c.engine} }
func (c *Catalogue) exec() ExecArgs       { return ExecArgs{BindingArgs: c.binding()} }
func (c *Catalogue) node() NodeArgs       { return NodeArgs{ExecArgs: c.exec()} }

func (c *Catalogue) cnxn() *CnxnArgs { return &CnxnArgs{ExecArgs: c.exec()} }

func (c *Catalogue) nodeList() *nodeListArgs { return &nodeListArgs{ExecArgs: c.exec()} }

func (c *Catalogue) singleNode(flag string) func() *singleNodeArgs {
	return func() *singleNodeArgs { return &singleNodeArgs{ExecArgs: c.exec(), flag: flag} }
}

func (c *Catalogue) text(flag string, required bool) func() *textArgs {
	return func() *textArgs { return &textArgs{ExecArgs: c.exec(), flag: flag, required: required} }
}

func (c *Catalogue) namedValue(nameFlag, valueFlag string, valueRequired bool) func() *namedValueArgs {
	return func() *namedValueArgs {
		return &namedValueArgs{ExecArgs: c.exec(), nameFlag: nameFlag, valueFlag: valueFlag, valueRequired: valueRequired}
	}
}

func (c *Catalogue) arg(valueFlag string) func() *argArgs {
	return func() *argArgs { return &argArgs{BindingArgs: c.binding(), valueFlag: valueFlag} }
}

func (c *Catalogue) titled(fallback string) func() *titledNodeArgs {
	return func() *titledNodeArgs { return &titledNodeArgs{NodeArgs: c.node(), fallback: fallback} }
}

func (c *Catalogue) ref() *RefArgs { return &RefArgs{NodeArgs: c.node()} }

func (c *Catalogue) source() jsonSource { return jsonSource{root: c.fileRoot} }

// Descriptors returns the catalogue in registration order.
func (c *Catalogue) Descriptors() []command.Descriptor {
	e := c.engine
	return []command.Descriptor{
		command.Define("dfgConnect", c.cnxn,
			func(_ context.Context, r *CnxnArgs) (command.Operation, error) {
				return e.Connect(r.Binding, r.ExecPath, r.SrcPort, r.DstPort), nil
			}, command.WithSummary("Connect two ports")),

		command.Define("dfgDisconnect", c.cnxn,
			func(_ context.Context, r *CnxnArgs) (command.Operation, error) {
				return e.Disconnect(r.Binding, r.ExecPath, r.SrcPort, r.DstPort), nil
			}, command.WithSummary("Remove a connection")),

		command.Define("dfgMoveNodes",
			func() *moveNodesArgs { return &moveNodesArgs{ExecArgs: c.exec()} },
			func(_ context.Context, r *moveNodesArgs) (command.Operation, error) {
				return e.MoveNodes(r.Binding, r.ExecPath, r.NodeNames, r.Positions), nil
			}, command.WithSummary("Move nodes to new positions")),

		command.Define("dfgImplodeNodes",
			func() *implodeNodesArgs { return &implodeNodesArgs{nodeListArgs: *c.nodeList()} },
			func(_ context.Context, r *implodeNodesArgs) (command.Operation, error) {
				return e.ImplodeNodes(r.Binding, r.ExecPath, r.NodeNames, r.DesiredName), nil
			}, command.WithSummary("Collapse nodes into a new graph node")),

		command.Define("dfgExplodeNode", c.singleNode("node"),
			func(_ context.Context, r *singleNodeArgs) (command.Operation, error) {
				return e.ExplodeNode(r.Binding, r.ExecPath, r.NodeName), nil
			}, command.WithSummary("Inline the content of a graph node")),

		command.Define("dfgPaste",
			func() *pasteArgs { return &pasteArgs{NodeArgs: c.node()} },
			func(_ context.Context, r *pasteArgs) (command.Operation, error) {
				return e.Paste(r.Binding, r.ExecPath, r.Text, r.Pos), nil
			}, command.WithSummary("Paste copied nodes")),

		command.Define("dfgResizeBackDrop",
			func() *resizeBackDropArgs { return &resizeBackDropArgs{NodeArgs: c.node()} },
			func(_ context.Context, r *resizeBackDropArgs) (command.Operation, error) {
				return e.ResizeBackDrop(r.Binding, r.ExecPath, r.NodeName, r.Pos, r.Size), nil
			}, command.WithSummary("Move and resize a backdrop")),

		command.Define("dfgRemoveNodes", c.nodeList,
			func(_ context.Context, r *nodeListArgs) (command.Operation, error) {
				return e.RemoveNodes(r.Binding, r.ExecPath, r.NodeNames), nil
			}, command.WithSummary("Remove nodes")),

		command.Define("dfgAddPort",
			func() *addPortArgs { return &addPortArgs{portEditArgs: portEditArgs{ExecArgs: c.exec()}} },
			func(_ context.Context, r *addPortArgs) (command.Operation, error) {
				return e.AddPort(r.Binding, r.ExecPath, r.Spec, r.ConnectWith), nil
			}, command.WithSummary("Add a port to an exec")),

		command.Define("dfgCreatePreset",
			func() *createPresetArgs { return &createPresetArgs{ExecArgs: c.exec()} },
			func(_ context.Context, r *createPresetArgs) (command.Operation, error) {
				return e.CreatePreset(r.Binding, r.ExecPath, r.NodeName, r.DirPath, r.Name), nil
			}, command.WithSummary("Store an instance's exec in the preset library")),

		command.Define("dfgEditPort",
			func() *editPortArgs { return &editPortArgs{portEditArgs: portEditArgs{ExecArgs: c.exec()}} },
			func(_ context.Context, r *editPortArgs) (command.Operation, error) {
				return e.EditPort(r.Binding, r.ExecPath, r.OldName, r.Spec), nil
			}, command.WithSummary("Change the attributes of a port")),

		command.Define("dfgSetArgType", c.arg("typeName"),
			func(_ context.Context, r *argArgs) (command.Operation, error) {
				return e.SetArgType(r.Binding, r.ArgName, r.Value), nil
			}, command.WithSummary("Change the type of a binding argument")),

		command.Define("dfgSetArgValue", c.arg("value"),
			func(_ context.Context, r *argArgs) (command.Operation, error) {
				return e.SetArgValue(r.Binding, r.ArgName, r.Value), nil
			}, command.WithSummary("Set the value of a binding argument")),

		command.Define("dfgSetPortDefaultValue", c.namedValue("portPath", "value", true),
			func(_ context.Context, r *namedValueArgs) (command.Operation, error) {
				return e.SetPortDefaultValue(r.Binding, r.ExecPath, r.Name, r.Value), nil
			}, command.WithSummary("Set the default value of a port or pin")),

		command.Define("dfgSetTitle", c.text("title", true),
			func(_ context.Context, r *textArgs) (command.Operation, error) {
				return e.SetTitle(r.Binding, r.ExecPath, r.Text), nil
			}, command.WithSummary("Set the title of an exec")),

		command.Define("dfgRemovePort", c.text("portName", true),
			func(_ context.Context, r *textArgs) (command.Operation, error) {
				return e.RemovePort(r.Binding, r.ExecPath, r.Text), nil
			}, command.WithSummary("Remove a port")),

		command.Define("dfgSetCode", c.text("code", true),
			func(_ context.Context, r *textArgs) (command.Operation, error) {
				return e.SetCode(r.Binding, r.ExecPath, r.Text), nil
			}, command.WithSummary("Set the code of a function")),

		command.Define("dfgSetRefVarPath", c.namedValue("refName", "varPath", true),
			func(_ context.Context, r *namedValueArgs) (command.Operation, error) {
				return e.SetRefVarPath(r.Binding, r.ExecPath, r.Name, r.Value), nil
			}, command.WithSummary("Point a get or set node at another variable")),

		command.Define("dfgReorderPorts",
			func() *indicesArgs { return &indicesArgs{ExecArgs: c.exec()} },
			func(_ context.Context, r *indicesArgs) (command.Operation, error) {
				return e.ReorderPorts(r.Binding, r.ExecPath, r.Indices), nil
			}, command.WithSummary("Reorder the ports of an exec")),

		command.Define("dfgDismissLoadDiags",
			func() *dismissLoadDiagsArgs { return &dismissLoadDiagsArgs{BindingArgs: c.binding()} },
			func(_ context.Context, r *dismissLoadDiagsArgs) (command.Operation, error) {
				return e.DismissLoadDiags(r.Binding, r.Indices), nil
			}, command.WithSummary("Dismiss load diagnostics")),

		command.Define("dfgEditNode",
			func() *editNodeArgs { return &editNodeArgs{ExecArgs: c.exec()} },
			func(_ context.Context, r *editNodeArgs) (command.Operation, error) {
				return e.EditNode(r.Binding, r.ExecPath, r.OldName, r.DesiredName, r.NodeMetadata, r.ExecMetadata), nil
			}, command.WithSummary("Rename a node and merge metadata")),

		command.Define("dfgRenamePort", c.namedValue("oldPortName", "desiredNewPortName", true),
			func(_ context.Context, r *namedValueArgs) (command.Operation, error) {
				return e.RenamePort(r.Binding, r.ExecPath, r.Name, r.Value), nil
			}, command.WithSummary("Rename a port")),

		command.Define("dfgSetNodeComment",
			func() *setNodeCommentArgs { return &setNodeCommentArgs{ExecArgs: c.exec()} },
			func(_ context.Context, r *setNodeCommentArgs) (command.Operation, error) {
				return e.SetNodeComment(r.Binding, r.ExecPath, r.NodeName, r.Comment, r.Expanded), nil
			}, command.WithSummary("Set the comment of a node")),

		command.Define("dfgAddBackDrop", c.titled("backDrop"),
			func(_ context.Context, r *titledNodeArgs) (command.Operation, error) {
				return e.AddBackDrop(r.Binding, r.ExecPath, r.Pos, r.Title), nil
			}, command.WithSummary("Add a backdrop")),

		command.Define("dfgInstPreset",
			func() *instPresetArgs { return &instPresetArgs{NodeArgs: c.node()} },
			func(_ context.Context, r *instPresetArgs) (command.Operation, error) {
				return e.InstPreset(r.Binding, r.ExecPath, r.Pos, r.PresetPath), nil
			}, command.WithSummary("Instantiate a preset")),

		command.Define("dfgAddGraph", c.titled("graph"),
			func(_ context.Context, r *titledNodeArgs) (command.Operation, error) {
				return e.AddGraph(r.Binding, r.ExecPath, r.Pos, r.Title), nil
			}, command.WithSummary("Add an empty graph node")),

		command.Define("dfgAddFunc",
			func() *addFuncArgs { return &addFuncArgs{titledNodeArgs: *c.titled("func")()} },
			func(_ context.Context, r *addFuncArgs) (command.Operation, error) {
				return e.AddFunc(r.Binding, r.ExecPath, r.Pos, r.Title, r.Code), nil
			}, command.WithSummary("Add a function node")),

		command.Define("dfgAddVar",
			func() *addVarArgs { return &addVarArgs{NodeArgs: c.node()} },
			func(_ context.Context, r *addVarArgs) (command.Operation, error) {
				return e.AddVar(r.Binding, r.ExecPath, r.Pos, r.DesiredName, r.Type, r.ExtDep), nil
			}, command.WithSummary("Add a variable node")),

		command.Define("dfgAddGet", c.ref,
			func(_ context.Context, r *RefArgs) (command.Operation, error) {
				return e.AddGet(r.Binding, r.ExecPath, r.Pos, r.DesiredName, r.VarPath), nil
			}, command.WithSummary("Add a variable get node")),

		command.Define("dfgAddSet", c.ref,
			func(_ context.Context, r *RefArgs) (command.Operation, error) {
				return e.AddSet(r.Binding, r.ExecPath, r.Pos, r.DesiredName, r.VarPath), nil
			}, command.WithSummary("Add a variable set node")),

		command.Define("dfgSetExtDeps",
			func() *setExtDepsArgs { return &setExtDepsArgs{ExecArgs: c.exec()} },
			func(_ context.Context, r *setExtDepsArgs) (command.Operation, error) {
				return e.SetExtDeps(r.Binding, r.ExecPath, r.ExtDeps), nil
			}, command.WithSummary("Replace the extension dependencies of an exec")),

		command.Define("dfgSplitFromPreset",
			func() *ExecArgs { x := c.exec(); return &x },
			func(_ context.Context, r *ExecArgs) (command.Operation, error) {
				return e.SplitFromPreset(r.Binding, r.ExecPath), nil
			}, command.WithSummary("Detach an exec from its preset")),

		command.DefineSnapshot("FabricCanvasSetExecuteShared",
			func() *executeSharedArgs { return &executeSharedArgs{BindingArgs: c.binding()} },
			func(_ context.Context, r *executeSharedArgs) (command.MetadataTarget, string, string, error) {
				return r.Binding, ExecuteSharedKey, strconv.FormatBool(r.Enable), nil
			}, command.WithSummary("Toggle shared execution of a binding")),

		command.DefineQuery("FabricCanvasGetContextID",
			func() noArgs { return noArgs{} },
			func(context.Context, noArgs) (string, error) {
				return e.ContextID(), nil
			}, command.WithSummary("Print the engine context id")),

		command.DefineQuery("FabricCanvasGetBindingID",
			func() *bindingNameArgs { return &bindingNameArgs{engine: e} },
			func(_ context.Context, r *bindingNameArgs) (string, error) {
				return r.Binding.ID, nil
			}, command.WithSummary("Print the id of a named binding")),

		command.DefineQuery("dfgCreateBinding",
			func() *createBindingArgs { return &createBindingArgs{} },
			func(_ context.Context, r *createBindingArgs) (string, error) {
				b := e.CreateBinding(r.Name)
				b.Root.Title = r.Title
				return b.ID, nil
			}, command.WithSummary("Create an empty binding")),

		command.DefineQuery("dfgImportJSON",
			func() *importJSONArgs { return &importJSONArgs{jsonSource: c.source()} },
			func(_ context.Context, r *importJSONArgs) (string, error) {
				b, err := e.ImportJSON(r.Name, r.JSON)
				if err != nil {
					return "", err
				}
				return b.ID, nil
			}, command.WithSummary("Create a binding from JSON")),

		command.DefineQuery("dfgReloadJSON",
			func() *reloadJSONArgs { return &reloadJSONArgs{BindingArgs: c.binding(), jsonSource: c.source()} },
			func(_ context.Context, r *reloadJSONArgs) (string, error) {
				return r.BindingID, e.ReloadJSON(r.Binding, r.JSON)
			}, command.WithSummary("Replace a binding with JSON"), command.InvalidatesHistory()),

		command.DefineQuery("dfgExportJSON",
			func() *exportJSONArgs { return &exportJSONArgs{ExecArgs: c.exec(), root: c.fileRoot} },
			func(_ context.Context, r *exportJSONArgs) (string, error) {
				data, err := r.Binding.ExportJSON(r.ExecPath)
				if err != nil {
					return "", err
				}
				if r.Path == "" {
					return string(data), nil
				}
				return security.WriteFile(r.Path, c.fileRoot, data)
			}, command.WithSummary("Export a binding or exec as JSON")),
	}
}
