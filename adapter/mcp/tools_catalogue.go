package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/canvasbridge/adapter/cli"
	"github.com/felixgeelhaar/canvasbridge/internal/command"
	"github.com/felixgeelhaar/canvasbridge/internal/host"
)

type commandDTO struct {
	Name               string `json:"name"`
	Variant            string `json:"variant"`
	Undoable           bool   `json:"undoable"`
	InvalidatesHistory bool   `json:"invalidates_history,omitempty"`
	Summary            string `json:"summary,omitempty"`
}

type syntaxInput struct {
	Command string `json:"command" jsonschema:"required"`
}

type flagDTO struct {
	Name     string `json:"name"`
	Short    string `json:"short,omitempty"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
	Default  string `json:"default,omitempty"`
	Usage    string `json:"usage,omitempty"`
}

type syntaxOutput struct {
	Command string    `json:"command"`
	Flags   []flagDTO `json:"flags"`
	Usage   string    `json:"usage"`
}

func registerCatalogueTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("canvas.commands").
		Description("List every canvas command with its variant").
		Handler(func(ctx context.Context, _ emptyInput) ([]commandDTO, error) {
			session, err := sessionOf(app)
			if err != nil {
				return nil, err
			}
			return listCommands(session.Registry()), nil
		})

	srv.Tool("canvas.syntax").
		Description("Describe the flags a canvas command accepts").
		Handler(func(ctx context.Context, input syntaxInput) (*syntaxOutput, error) {
			session, err := sessionOf(app)
			if err != nil {
				return nil, err
			}
			return describe(session.Registry(), input.Command)
		})

	return nil
}

func listCommands(registry *command.Registry) []commandDTO {
	descriptors := registry.List()
	out := make([]commandDTO, len(descriptors))
	for i, d := range descriptors {
		out[i] = commandDTO{
			Name:               d.Name,
			Variant:            d.Variant.String(),
			Undoable:           d.Undoable(),
			InvalidatesHistory: d.InvalidatesHistory,
			Summary:            d.Summary,
		}
	}
	return out
}

func describe(registry *command.Registry, name string) (*syntaxOutput, error) {
	if name == "" {
		return nil, errors.New("command is required")
	}
	syntax, err := registry.Syntax(name)
	if err != nil {
		return nil, fmt.Errorf("unknown command %q: %w", name, err)
	}
	out := &syntaxOutput{Command: name, Usage: syntax.Usage(name)}
	for _, f := range syntax.Flags() {
		out.Flags = append(out.Flags, flagDTO{
			Name:     f.Name,
			Short:    f.Short,
			Kind:     f.Kind.String(),
			Required: f.Required,
			Default:  f.Default,
			Usage:    f.Usage,
		})
	}
	return out, nil
}

func sessionOf(app *cli.App) (*host.Session, error) {
	if app == nil || app.Container == nil || app.Container.Session == nil {
		return nil, errors.New("canvas session not initialized")
	}
	return app.Container.Session, nil
}
