package graph

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortedConnections(x *Exec) []Connection {
	out := slices.Clone(x.Connections)
	slices.SortFunc(out, func(a, b Connection) int {
		return strings.Compare(a.Src+a.Dst, b.Src+b.Dst)
	})
	return out
}

func chain(t *testing.T) (*Engine, *Binding) {
	t.Helper()
	e, b := newTestBinding(t)
	addAdder(t, e, b, "a")
	addAdder(t, e, b, "b")
	addAdder(t, e, b, "c")
	mustExecute(t, e.MoveNodes(b, "", []string{"a", "b", "c"}, []Point{{X: 0}, {X: 100}, {X: 200}}))
	mustExecute(t, e.Connect(b, "", "a.result", "b.a"))
	mustExecute(t, e.Connect(b, "", "b.result", "c.a"))
	return e, b
}

func TestEdit_ImplodeNodes(t *testing.T) {
	e, b := chain(t)

	name := mustExecute(t, e.ImplodeNodes(b, "", []string{"b"}, "middle"))

	assert.Equal(t, "middle", name)
	assert.Equal(t, []string{"a", "c", "middle"}, b.Root.NodeNames())
	assert.Equal(t, []Connection{
		{Src: "a.result", Dst: "middle.b_a"},
		{Src: "middle.b_result", Dst: "c.a"},
	}, sortedConnections(b.Root))

	inner, err := b.Scope("middle")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, inner.Exec.NodeNames())
	assert.Equal(t, []string{"b_a", "b_result"}, inner.Exec.PortNames())
	assert.Equal(t, []Connection{
		{Src: "b.result", Dst: "b_result"},
		{Src: "b_a", Dst: "b.a"},
	}, sortedConnections(inner.Exec))
}

func TestEdit_ExplodeReversesImplode(t *testing.T) {
	e, b := chain(t)
	want := sortedConnections(b.Root)
	mustExecute(t, e.ImplodeNodes(b, "", []string{"b"}, ""))

	created := mustExecute(t, e.ExplodeNode(b, "", "graph"))

	assert.Equal(t, "b", created)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, b.Root.NodeNames())
	assert.Equal(t, want, sortedConnections(b.Root))
	n, _ := b.Root.Node("b")
	assert.Equal(t, Point{X: 100}, n.Pos)
}

func TestEdit_ExplodeRejectsFunctions(t *testing.T) {
	e, b := chain(t)

	err := e.ExplodeNode(b, "", "a").Execute()

	assert.ErrorIs(t, err, ErrNotGraph)
}

func TestEdit_CopyPaste(t *testing.T) {
	e, b := chain(t)
	text, err := b.Copy("", []string{"a", "b"})
	require.NoError(t, err)

	created := mustExecute(t, e.Paste(b, "", text, Point{X: 500, Y: 500}))

	assert.Equal(t, "a_2,b_2", created)
	assert.True(t, b.Root.IsConnected("a_2.result", "b_2.a"))
	n, _ := b.Root.Node("b_2")
	assert.Equal(t, Point{X: 600, Y: 500}, n.Pos)

	err = e.Paste(b, "", "{not json", Point{}).Execute()
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestEdit_Ports(t *testing.T) {
	e, b := newTestBinding(t)
	addAdder(t, e, b, "x")

	in := mustExecute(t, e.AddPort(b, "", PortSpec{Name: "value", Type: PortIn, TypeSpec: "Float32"}, "x.a"))
	require.True(t, b.Root.IsConnected(in, "x.a"))
	out := mustExecute(t, e.AddPort(b, "", PortSpec{Name: "sum", Type: PortOut, UIMetadata: `{"uiHidden":"true"}`}, "x.result"))
	require.True(t, b.Root.IsConnected("x.result", out))

	renamed := mustExecute(t, e.RenamePort(b, "x", "a", "lhs"))
	assert.Equal(t, "lhs", renamed)
	assert.True(t, b.Root.IsConnected("value", "x.lhs"))

	mustExecute(t, e.SetPortDefaultValue(b, "", "x.b", "2.5"))
	n, _ := b.Root.Node("x")
	assert.Equal(t, "2.5", n.PinDefaults["b"])

	mustExecute(t, e.RemovePort(b, "x", "lhs"))
	assert.False(t, b.Root.IsConnected("value", "x.lhs"))
	assert.Equal(t, []string{"b", "result"}, n.Exec.PortNames())

	err := e.AddPort(b, "", PortSpec{Name: "p", Type: "sideways"}, "").Execute()
	assert.ErrorIs(t, err, ErrInvalidPortType)
}

func TestEdit_EditPortPrunesIncompatibleConnections(t *testing.T) {
	e, b := newTestBinding(t)
	addAdder(t, e, b, "x")
	addAdder(t, e, b, "y")
	mustExecute(t, e.Connect(b, "", "x.result", "y.a"))

	name := mustExecute(t, e.EditPort(b, "y", "a", PortSpec{Name: "text", TypeSpec: "String"}))

	assert.Equal(t, "text", name)
	assert.Empty(t, b.Root.Connections)
}

func TestEdit_ReorderPorts(t *testing.T) {
	e, b := newTestBinding(t)
	addAdder(t, e, b, "x")

	mustExecute(t, e.ReorderPorts(b, "x", []uint{2, 0, 1}))
	s, _ := b.Scope("x")
	assert.Equal(t, []string{"result", "a", "b"}, s.Exec.PortNames())

	for _, indices := range [][]uint{{0, 1}, {0, 0, 1}, {0, 1, 3}} {
		err := e.ReorderPorts(b, "x", indices).Execute()
		assert.ErrorIs(t, err, ErrInvalidIndices, "indices %v", indices)
	}
}

func TestEdit_ArgValues(t *testing.T) {
	e, b := newTestBinding(t)
	mustExecute(t, e.AddPort(b, "", PortSpec{Name: "count", Type: PortIn, TypeSpec: "UInt32"}, ""))

	mustExecute(t, e.SetArgValue(b, "count", "3"))
	assert.Equal(t, "3", b.ArgValues["count"])

	mustExecute(t, e.SetArgType(b, "count", "SInt32"))
	p, _ := b.Root.Port("count")
	assert.Equal(t, "SInt32", p.TypeSpec)
	assert.NotContains(t, b.ArgValues, "count")

	err := e.SetArgValue(b, "count", "{").Execute()
	assert.ErrorIs(t, err, ErrInvalidValue)
	err = e.SetArgValue(b, "missing", "1").Execute()
	assert.ErrorIs(t, err, ErrPortNotFound)
}

func TestEdit_FuncAndExecSettings(t *testing.T) {
	e, b := newTestBinding(t)
	f := mustExecute(t, e.AddFunc(b, "", Point{}, "", ""))
	g := mustExecute(t, e.AddGraph(b, "", Point{}, ""))

	mustExecute(t, e.SetCode(b, f, "dfgEntry {}"))
	mustExecute(t, e.SetTitle(b, g, "Inner"))
	mustExecute(t, e.SetExtDeps(b, g, []string{"Math", " Geometry", "Math"}))

	fs, _ := b.Scope(f)
	gs, _ := b.Scope(g)
	assert.Equal(t, "dfgEntry {}", fs.Exec.Code)
	assert.Equal(t, "Inner", gs.Exec.Title)
	assert.Equal(t, []string{"Math", "Geometry"}, gs.Exec.ExtDeps)

	err := e.SetCode(b, g, "x").Execute()
	assert.ErrorIs(t, err, ErrNotFunc)
}

func TestEdit_Presets(t *testing.T) {
	e, b := newTestBinding(t)
	addAdder(t, e, b, "x")

	create := e.CreatePreset(b, "", "x", "User.Math", "Adder")
	path := mustExecute(t, create)
	assert.Equal(t, "User.Math.Adder", path)
	assert.Equal(t, []string{"User.Math.Adder"}, e.PresetPaths())

	inst := mustExecute(t, e.InstPreset(b, "", Point{X: 5}, path))
	assert.Equal(t, "Adder", inst)
	s, err := b.Scope(inst)
	require.NoError(t, err)
	assert.Equal(t, path, s.Exec.PresetPath)
	assert.Equal(t, []string{"a", "b", "result"}, s.Exec.PortNames())

	mustExecute(t, e.SplitFromPreset(b, inst))
	s, _ = b.Scope(inst)
	assert.Empty(t, s.Exec.PresetPath)
	err = e.SplitFromPreset(b, inst).Execute()
	assert.ErrorIs(t, err, ErrNotPreset)

	err = e.CreatePreset(b, "", "x", "User.Math", "Adder").Execute()
	assert.ErrorIs(t, err, ErrPresetExists)

	err = e.InstPreset(b, "", Point{}, "Missing.Preset").Execute()
	assert.ErrorIs(t, err, ErrPresetNotFound)
}

func TestEdit_UndoCreatePresetRemovesLibraryEntry(t *testing.T) {
	e, b := newTestBinding(t)
	addAdder(t, e, b, "x")
	create := e.CreatePreset(b, "", "x", "", "Adder")
	mustExecute(t, create)

	require.NoError(t, create.Undo())
	assert.Empty(t, e.PresetPaths())

	require.NoError(t, create.Redo())
	assert.Equal(t, []string{"Adder"}, e.PresetPaths())
}

func TestCodec_ExportImportRoundTrip(t *testing.T) {
	e, b := chain(t)
	mustExecute(t, e.AddPort(b, "", PortSpec{Name: "in", Type: PortIn, TypeSpec: "Float32"}, "a.a"))
	mustExecute(t, e.SetArgValue(b, "in", "1.5"))

	data, err := b.ExportJSON("")
	require.NoError(t, err)
	imported, err := e.ImportJSON("", data)
	require.NoError(t, err)

	assert.NotEqual(t, b.ID, imported.ID)
	assert.Equal(t, b.Name+"_2", imported.Name)
	assert.Empty(t, imported.LoadDiags)
	if diff := cmp.Diff(b.Root, imported.Root); diff != "" {
		t.Errorf("root mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, b.ArgValues, imported.ArgValues)
}

func TestCodec_ImportReportsLoadDiags(t *testing.T) {
	e := NewEngine(nil)
	data := []byte(`{
		"name": "broken",
		"root": {
			"kind": "graph",
			"nodes": [{"name": "v", "kind": "var", "varType": "UInt32"}],
			"connections": [{"src": "ghost.out", "dst": "v.value"}]
		}
	}`)

	b, err := e.ImportJSON("", data)
	require.NoError(t, err)

	require.Len(t, b.LoadDiags, 1)
	assert.Contains(t, b.LoadDiags[0], "ghost.out")
	assert.Empty(t, b.Root.Connections)

	mustExecute(t, e.DismissLoadDiags(b, []uint{0}))
	assert.Empty(t, b.LoadDiags)

	err = e.DismissLoadDiags(b, []uint{0}).Execute()
	assert.ErrorIs(t, err, ErrInvalidIndices)

	_, err = e.ImportJSON("", []byte("nope"))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestCodec_ImportDropsNullPorts(t *testing.T) {
	e := NewEngine(nil)
	data := []byte(`{
		"name": "holes",
		"root": {
			"kind": "graph",
			"ports": [null, {"name": "in", "type": "In", "typeSpec": "Float32"}],
			"nodes": [{"name": "sub", "kind": "inst", "exec": {"kind": "func", "ports": [null]}}]
		}
	}`)

	b, err := e.ImportJSON("", data)
	require.NoError(t, err)

	require.Len(t, b.LoadDiags, 2)
	assert.Equal(t, "<root>: dropped null port", b.LoadDiags[0])
	assert.Equal(t, "sub: dropped null port", b.LoadDiags[1])
	require.Len(t, b.Root.Ports, 1)
	assert.Equal(t, "in", b.Root.Ports[0].Name)
	assert.Empty(t, b.Root.Nodes[0].Exec.Ports)

	_, err = b.ExportJSON("")
	assert.NoError(t, err)
}

func TestCodec_ReloadKeepsIdentity(t *testing.T) {
	e, b := chain(t)
	data, err := b.ExportJSON("")
	require.NoError(t, err)
	mustExecute(t, e.RemoveNodes(b, "", []string{"a", "b", "c"}))

	require.NoError(t, e.ReloadJSON(b, data))

	got, err := e.Binding(b.ID)
	require.NoError(t, err)
	assert.Same(t, b, got)
	assert.Equal(t, []string{"a", "b", "c"}, b.Root.NodeNames())
}

func TestCodec_SaveLoad(t *testing.T) {
	e, b := chain(t)
	mustExecute(t, e.CreatePreset(b, "", "a", "", "Adder"))
	var buf bytes.Buffer
	require.NoError(t, e.Save(&buf))

	loaded := NewEngine(nil)
	require.NoError(t, loaded.Load(&buf))

	require.Len(t, loaded.Bindings(), 1)
	assert.Empty(t, cmp.Diff(b, loaded.Bindings()[0]))
	assert.Equal(t, []string{"Adder"}, loaded.PresetPaths())
	assert.Equal(t, "2", loaded.CreateBinding("").ID)
}
