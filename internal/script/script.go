// Package script replays YAML command scripts through a session.
//
// A script is a list of steps. A command step invokes one canvas command
// with host-style arguments; undo and redo steps walk the history; a history
// step turns recording on or off. A command step may capture its result
// under a name that later steps reference as ${name}.
//
//	name: two vars
//	steps:
//	  - command: dfgCreateBinding
//	    args: [--name, main]
//	    as: bid
//	  - command: dfgAddVar
//	    args: [-b, "${bid}", -n, foo, --type, Float32]
//	  - undo: 1
package script

import (
	"errors"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/security"
)

var (
	ErrEmptyScript = errors.New("script has no steps")
	ErrInvalidStep = errors.New("invalid script step")
)

// Script is a parsed script file.
type Script struct {
	Name string `yaml:"name,omitempty"`
	// ContinueOnError keeps running after a failed step.
	ContinueOnError bool   `yaml:"continueOnError,omitempty"`
	Steps           []Step `yaml:"steps"`
}

// Step is one entry of a script. Exactly one of Command, Undo, Redo or
// History is set.
type Step struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
	As      string   `yaml:"as,omitempty"`
	// ExpectError names the error kind the command must fail with, such as
	// "argument" or "engine". A step failing as expected counts as passed.
	ExpectError string `yaml:"expectError,omitempty"`

	Undo    int   `yaml:"undo,omitempty"`
	Redo    int   `yaml:"redo,omitempty"`
	History *bool `yaml:"history,omitempty"`
}

// Kind names what the step does.
func (s Step) Kind() string {
	switch {
	case s.Command != "":
		return "command"
	case s.Undo > 0:
		return "undo"
	case s.Redo > 0:
		return "redo"
	case s.History != nil:
		return "history"
	}
	return ""
}

func (s Step) validate() error {
	set := 0
	if s.Command != "" {
		set++
	}
	if s.Undo != 0 {
		set++
	}
	if s.Redo != 0 {
		set++
	}
	if s.History != nil {
		set++
	}
	switch {
	case set != 1:
		return fmt.Errorf("%w: exactly one of command, undo, redo or history is required", ErrInvalidStep)
	case s.Undo < 0 || s.Redo < 0:
		return fmt.Errorf("%w: undo and redo counts must be positive", ErrInvalidStep)
	case s.Command == "" && (len(s.Args) > 0 || s.As != "" || s.ExpectError != ""):
		return fmt.Errorf("%w: args, as and expectError only apply to command steps", ErrInvalidStep)
	}
	return nil
}

// Parse decodes and validates a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, ErrEmptyScript
	}
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &s, nil
}

// Load reads and parses a script file. An unnamed script takes its file name.
func Load(path string) (*Script, error) {
	data, err := security.ReadFile(path, "")
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	return s, nil
}
