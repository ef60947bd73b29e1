package canvas

import (
	"fmt"

	"github.com/felixgeelhaar/canvasbridge/internal/command"
	"github.com/felixgeelhaar/canvasbridge/internal/graph"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/security"
)

// ExecuteSharedKey is the binding metadata key toggled by FabricCanvasSetExecuteShared.
const ExecuteSharedKey = "executeShared"

type noArgs struct{}

func (noArgs) DeclareSyntax(*command.Syntax) {}
func (noArgs) Extract(*command.Args) error   { return nil }

type bindingNameArgs struct {
	engine  *graph.Engine
	Binding *graph.Binding
}

func (r *bindingNameArgs) DeclareSyntax(s *command.Syntax) {
	s.Required("name", "n", command.KindString, "host name of the binding")
}

func (r *bindingNameArgs) Extract(a *command.Args) error {
	name, err := a.String("name")
	if err != nil {
		return err
	}
	if r.Binding, err = r.engine.BindingByName(name); err != nil {
		return a.Unresolved("name", err)
	}
	return nil
}

type createBindingArgs struct {
	Name  string
	Title string
}

func (r *createBindingArgs) DeclareSyntax(s *command.Syntax) {
	s.Optional("name", "n", command.KindString, graph.DefaultBindingName, "host name of the binding")
	s.Optional("title", "t", command.KindString, "", "title of the root graph")
}

func (r *createBindingArgs) Extract(a *command.Args) error {
	var err error
	if r.Name, err = a.String("name"); err != nil {
		return err
	}
	r.Title, err = a.String("title")
	return err
}

// jsonSource reads JSON either inline or from a file. Exactly one of the two
// flags must be given. Files must lie under root when it is set.
type jsonSource struct {
	root string

	JSON []byte
}

func (r *jsonSource) DeclareSyntax(s *command.Syntax) {
	s.Optional("json", "j", command.KindString, "", "inline JSON")
	s.Optional("path", "p", command.KindString, "", "file to read the JSON from")
}

func (r *jsonSource) Extract(a *command.Args) error {
	inline, err := a.String("json")
	if err != nil {
		return err
	}
	path, err := a.String("path")
	if err != nil {
		return err
	}
	switch {
	case inline != "" && path != "":
		return a.Mismatch("json", fmt.Errorf("json and path are mutually exclusive"))
	case inline != "":
		r.JSON = []byte(inline)
	case path != "":
		data, err := security.ReadFile(path, r.root)
		if err != nil {
			return a.Unresolved("path", err)
		}
		r.JSON = data
	default:
		return a.Mismatch("json", fmt.Errorf("one of json or path is required"))
	}
	return nil
}

type importJSONArgs struct {
	jsonSource
	Name string
}

func (r *importJSONArgs) DeclareSyntax(s *command.Syntax) {
	s.Optional("name", "n", command.KindString, "", "host name of the new binding")
	r.jsonSource.DeclareSyntax(s)
}

func (r *importJSONArgs) Extract(a *command.Args) error {
	var err error
	if r.Name, err = a.String("name"); err != nil {
		return err
	}
	return r.jsonSource.Extract(a)
}

type reloadJSONArgs struct {
	BindingArgs
	jsonSource
}

func (r *reloadJSONArgs) DeclareSyntax(s *command.Syntax) {
	r.BindingArgs.DeclareSyntax(s)
	r.jsonSource.DeclareSyntax(s)
}

func (r *reloadJSONArgs) Extract(a *command.Args) error {
	if err := r.BindingArgs.Extract(a); err != nil {
		return err
	}
	return r.jsonSource.Extract(a)
}

type exportJSONArgs struct {
	ExecArgs
	root string

	Path string
}

func (r *exportJSONArgs) DeclareSyntax(s *command.Syntax) {
	r.ExecArgs.DeclareSyntax(s)
	s.Optional("path", "p", command.KindString, "", "file to write the JSON to")
}

func (r *exportJSONArgs) Extract(a *command.Args) error {
	if err := r.ExecArgs.Extract(a); err != nil {
		return err
	}
	path, err := a.String("path")
	if err != nil || path == "" {
		return err
	}
	if r.Path, err = security.Resolve(path, r.root); err != nil {
		return a.Unresolved("path", err)
	}
	return nil
}

type executeSharedArgs struct {
	BindingArgs
	Enable bool
}

func (r *executeSharedArgs) DeclareSyntax(s *command.Syntax) {
	r.BindingArgs.DeclareSyntax(s)
	s.Required("enable", "", command.KindBool, "run the binding on the shared thread")
}

func (r *executeSharedArgs) Extract(a *command.Args) error {
	if err := r.BindingArgs.Extract(a); err != nil {
		return err
	}
	var err error
	r.Enable, err = a.Bool("enable")
	return err
}
