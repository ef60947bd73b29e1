package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/canvasbridge/adapter/cli"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/outbox"
)

type resource struct {
	uri, name, description string
	read                   func(app *cli.App) (string, error)
}

var resources = []resource{
	{"canvas://document", "Document", "Every binding in the session, in the document file format", readDocument},
	{"canvas://history", "History", "The undo stack, oldest first", readHistory},
	{"canvas://commands", "Commands", "The command catalogue", readCommands},
	{"canvas://stats", "Stats", "Dispatch counters and outbox relay state for this server", readStats},
}

// RegisterResources registers read-only views of the canvas session.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	for _, r := range resources {
		srv.Resource(r.uri).
			Name(r.name).
			Description(r.description).
			MimeType("application/json").
			Handler(func(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContent, error) {
				text, err := r.read(deps.App)
				if err != nil {
					return nil, err
				}
				return &mcp.ResourceContent{URI: uri, MimeType: "application/json", Text: text}, nil
			})
	}
	return nil
}

func readDocument(app *cli.App) (string, error) {
	session, err := sessionOf(app)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = session.Exclusive(func() error { return app.Container.Engine.Save(&buf) })
	return buf.String(), err
}

func readHistory(app *cli.App) (string, error) {
	session, err := sessionOf(app)
	if err != nil {
		return "", err
	}
	return indentJSON(history(session))
}

func readCommands(app *cli.App) (string, error) {
	session, err := sessionOf(app)
	if err != nil {
		return "", err
	}
	return indentJSON(listCommands(session.Registry()))
}

type statsOutput struct {
	Counters map[string]int64 `json:"counters"`
	Outbox   *outbox.Stats    `json:"outbox,omitempty"`
}

func readStats(app *cli.App) (string, error) {
	if _, err := sessionOf(app); err != nil {
		return "", err
	}
	c := app.Container
	out := statsOutput{Counters: c.Metrics.Counters()}
	if c.OutboxProcessor != nil {
		s := c.OutboxProcessor.GetStats()
		out.Outbox = &s
	}
	return indentJSON(out)
}

func indentJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	return string(data), err
}
