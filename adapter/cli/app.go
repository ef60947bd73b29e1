package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/canvasbridge/internal/app"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/security"
)

// App holds the CLI application dependencies.
type App struct {
	Container *app.Container
}

// NewApp creates a CLI application backed by container.
func NewApp(container *app.Container) *App {
	return &App{Container: container}
}

var cliApp *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	cliApp = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return cliApp
}

func requireApp() (*App, error) {
	if cliApp == nil || cliApp.Container == nil {
		return nil, errors.New("application not initialized")
	}
	return cliApp, nil
}

// loadDocument replaces the engine's bindings with the --document file and
// drops any history recorded against the previous ones. A file that does not
// exist yet starts an empty document.
func (a *App) loadDocument() error {
	if documentPath == "" {
		return nil
	}
	f, err := security.Open(documentPath, "")
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()
	if err := a.Container.Engine.Load(f); err != nil {
		return fmt.Errorf("failed to load document %s: %w", documentPath, err)
	}
	a.Container.Session.ClearHistory()
	return nil
}

// saveDocument writes the engine state to --save, or back to --document.
func (a *App) saveDocument() error {
	path := savePath
	if path == "" {
		path = documentPath
	}
	if path == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := a.Container.Engine.Save(&buf); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if _, err := security.WriteFile(path, "", buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

// LoadDocument loads the --document file into a's engine.
func LoadDocument(a *App) error {
	return a.loadDocument()
}
