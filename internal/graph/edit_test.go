package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBinding(t *testing.T) (*Engine, *Binding) {
	t.Helper()
	e := NewEngine(nil)
	return e, e.CreateBinding("canvasNode")
}

func mustExecute(t *testing.T, ed *Edit) string {
	t.Helper()
	require.NoError(t, ed.Execute())
	return ed.Result()
}

// addAdder adds a func node with ports a, b (In) and result (Out).
func addAdder(t *testing.T, e *Engine, b *Binding, name string) string {
	t.Helper()
	node := mustExecute(t, e.AddFunc(b, "", Point{}, name, "result = a + b;"))
	mustExecute(t, e.AddPort(b, node, PortSpec{Name: "a", Type: PortIn, TypeSpec: "Float32"}, ""))
	mustExecute(t, e.AddPort(b, node, PortSpec{Name: "b", Type: PortIn, TypeSpec: "Float32"}, ""))
	mustExecute(t, e.AddPort(b, node, PortSpec{Name: "result", Type: PortOut, TypeSpec: "Float32"}, ""))
	return node
}

func TestEngine_CreateBinding(t *testing.T) {
	e := NewEngine(nil)

	first := e.CreateBinding("")
	second := e.CreateBinding("")

	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "2", second.ID)
	assert.Equal(t, DefaultBindingName, first.Name)
	assert.Equal(t, DefaultBindingName+"_2", second.Name)
	assert.NotEmpty(t, e.ContextID())

	got, err := e.BindingByName(DefaultBindingName + "_2")
	require.NoError(t, err)
	assert.Same(t, second, got)

	_, err = e.Binding("42")
	assert.ErrorIs(t, err, ErrBindingNotFound)
}

func TestEdit_AddGraph(t *testing.T) {
	e, b := newTestBinding(t)

	name := mustExecute(t, e.AddGraph(b, "", Point{X: 10, Y: 20}, "foo"))

	assert.Equal(t, "foo", name)
	n, ok := b.Root.Node("foo")
	require.True(t, ok)
	assert.Equal(t, Point{X: 10, Y: 20}, n.Pos)
	assert.Equal(t, ExecGraph, n.Exec.Kind)

	again := mustExecute(t, e.AddGraph(b, "", Point{}, "foo"))
	assert.Equal(t, "foo_2", again)
}

func TestEdit_UndoRedoRestoresExactState(t *testing.T) {
	e, b := newTestBinding(t)
	mustExecute(t, e.AddGraph(b, "", Point{X: 1, Y: 2}, "foo"))
	before := b.Clone()

	ed := e.MoveNodes(b, "", []string{"foo"}, []Point{{X: 50, Y: 60}})
	require.NoError(t, ed.Execute())
	after := b.Clone()

	require.NoError(t, ed.Undo())
	if diff := cmp.Diff(before, b); diff != "" {
		t.Errorf("undo mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, ed.Redo())
	if diff := cmp.Diff(after, b); diff != "" {
		t.Errorf("redo mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_FailureLeavesBindingUnchanged(t *testing.T) {
	e, b := newTestBinding(t)
	mustExecute(t, e.AddGraph(b, "", Point{}, "foo"))
	before := b.Clone()

	ed := e.MoveNodes(b, "", []string{"foo", "missing"}, []Point{{X: 5}, {X: 6}})
	err := ed.Execute()

	assert.ErrorIs(t, err, ErrNodeNotFound)
	if diff := cmp.Diff(before, b); diff != "" {
		t.Errorf("binding changed after failed edit (-want +got):\n%s", diff)
	}
	assert.ErrorIs(t, ed.Undo(), ErrOperationState)
}

func TestEdit_OutOfOrderCalls(t *testing.T) {
	e, b := newTestBinding(t)
	ed := e.SetTitle(b, "", "title")

	assert.ErrorIs(t, ed.Undo(), ErrOperationState)
	assert.ErrorIs(t, ed.Redo(), ErrOperationState)
	require.NoError(t, ed.Execute())
	assert.ErrorIs(t, ed.Execute(), ErrOperationState)
	assert.ErrorIs(t, ed.Redo(), ErrOperationState)
	require.NoError(t, ed.Undo())
	assert.ErrorIs(t, ed.Undo(), ErrOperationState)
}

func TestEdit_Connect(t *testing.T) {
	e, b := newTestBinding(t)
	x := addAdder(t, e, b, "x")
	y := addAdder(t, e, b, "y")

	require.NoError(t, e.Connect(b, "", x+".result", y+".a").Execute())
	assert.True(t, b.Root.IsConnected("x.result", "y.a"))

	tests := []struct {
		name    string
		src     string
		dst     string
		wantErr error
	}{
		{"duplicate", "x.result", "y.a", ErrAlreadyConnected},
		{"same node", "y.result", "y.a", ErrIncompatiblePorts},
		{"missing pin", "x.nope", "y.b", ErrPortNotFound},
		{"wrong direction", "y.a", "x.b", ErrIncompatiblePorts},
		{"missing node", "z.result", "y.b", ErrPortNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := b.Clone()
			err := e.Connect(b, "", tt.src, tt.dst).Execute()
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, cmp.Diff(before, b))
		})
	}
}

func TestEdit_ConnectDestinationAlreadyFed(t *testing.T) {
	e, b := newTestBinding(t)
	addAdder(t, e, b, "x")
	addAdder(t, e, b, "y")
	addAdder(t, e, b, "z")
	mustExecute(t, e.Connect(b, "", "x.result", "z.a"))

	err := e.Connect(b, "", "y.result", "z.a").Execute()

	assert.ErrorIs(t, err, ErrDestinationConnected)
}

func TestEdit_ConnectTypeMismatch(t *testing.T) {
	e, b := newTestBinding(t)
	addAdder(t, e, b, "x")
	mustExecute(t, e.AddVar(b, "", Point{}, "v", "String", ""))

	err := e.Connect(b, "", "x.result", "v.value").Execute()

	assert.ErrorIs(t, err, ErrIncompatiblePorts)
}

func TestEdit_Disconnect(t *testing.T) {
	e, b := newTestBinding(t)
	addAdder(t, e, b, "x")
	addAdder(t, e, b, "y")
	mustExecute(t, e.Connect(b, "", "x.result", "y.a"))

	require.NoError(t, e.Disconnect(b, "", "x.result", "y.a").Execute())
	assert.Empty(t, b.Root.Connections)

	err := e.Disconnect(b, "", "x.result", "y.a").Execute()
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestEdit_RemoveNodesDropsConnections(t *testing.T) {
	e, b := newTestBinding(t)
	addAdder(t, e, b, "x")
	addAdder(t, e, b, "y")
	mustExecute(t, e.Connect(b, "", "x.result", "y.a"))

	mustExecute(t, e.RemoveNodes(b, "", []string{"x"}))

	assert.Equal(t, []string{"y"}, b.Root.NodeNames())
	assert.Empty(t, b.Root.Connections)
}

func TestEdit_NestedExecPath(t *testing.T) {
	e, b := newTestBinding(t)
	mustExecute(t, e.AddGraph(b, "", Point{}, "outer"))
	mustExecute(t, e.AddGraph(b, "outer", Point{}, "inner"))

	name := mustExecute(t, e.AddBackDrop(b, "outer.inner", Point{X: 3}, "notes"))

	s, err := b.Scope("outer.inner")
	require.NoError(t, err)
	n, ok := s.Exec.Node(name)
	require.True(t, ok)
	assert.Equal(t, NodeBackDrop, n.Kind)
	assert.Equal(t, DefaultBackDropSize, n.Size)

	_, err = b.Scope("outer.missing")
	assert.ErrorIs(t, err, ErrExecNotFound)
	err = e.AddGraph(b, "outer.missing", Point{}, "g").Execute()
	assert.ErrorIs(t, err, ErrExecNotFound)
}

func TestEdit_ResizeBackDrop(t *testing.T) {
	e, b := newTestBinding(t)
	bd := mustExecute(t, e.AddBackDrop(b, "", Point{}, ""))
	g := mustExecute(t, e.AddGraph(b, "", Point{}, ""))

	mustExecute(t, e.ResizeBackDrop(b, "", bd, Point{X: 1, Y: 1}, Size{W: 300, H: 200}))
	n, _ := b.Root.Node(bd)
	assert.Equal(t, Size{W: 300, H: 200}, n.Size)

	err := e.ResizeBackDrop(b, "", g, Point{}, Size{W: 1, H: 1}).Execute()
	assert.ErrorIs(t, err, ErrNotBackDrop)
}

func TestEdit_EditNodeRenamesConnections(t *testing.T) {
	e, b := newTestBinding(t)
	addAdder(t, e, b, "x")
	addAdder(t, e, b, "y")
	mustExecute(t, e.Connect(b, "", "x.result", "y.a"))

	name := mustExecute(t, e.EditNode(b, "", "x", "source", `{"uiColor":"red","uiCollapsed":true}`, ""))

	assert.Equal(t, "source", name)
	assert.True(t, b.Root.IsConnected("source.result", "y.a"))
	n, _ := b.Root.Node("source")
	assert.Equal(t, "red", n.Metadata["uiColor"])
	assert.Equal(t, "true", n.Metadata["uiCollapsed"])

	err := e.EditNode(b, "", "y", "", `not json`, "").Execute()
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestEdit_SetNodeCommentAndRefVarPath(t *testing.T) {
	e, b := newTestBinding(t)
	get := mustExecute(t, e.AddGet(b, "", Point{}, "", "counter"))
	v := mustExecute(t, e.AddVar(b, "", Point{}, "counter", "UInt32", ""))

	mustExecute(t, e.SetNodeComment(b, "", get, "reads the counter", true))
	mustExecute(t, e.SetRefVarPath(b, "", get, "other"))

	n, _ := b.Root.Node(get)
	assert.Equal(t, "get", get)
	assert.Equal(t, "reads the counter", n.Comment)
	assert.True(t, n.CommentExpanded)
	assert.Equal(t, "other", n.VarPath)

	err := e.SetRefVarPath(b, "", v, "x").Execute()
	assert.ErrorIs(t, err, ErrNotVariableRef)
}
