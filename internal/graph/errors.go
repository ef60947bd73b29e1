package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by graph lookups and edits.
var (
	// ErrBindingNotFound is returned when no binding has the requested id or name.
	ErrBindingNotFound = errors.New("binding not found")

	// ErrExecNotFound is returned when an exec path does not resolve to a graph.
	ErrExecNotFound = errors.New("exec not found")

	// ErrNodeNotFound is returned when a node name does not exist in the exec.
	ErrNodeNotFound = errors.New("node not found")

	// ErrPortNotFound is returned when a port or pin path does not resolve.
	ErrPortNotFound = errors.New("port not found")

	// ErrAlreadyConnected is returned when the exact connection already exists.
	ErrAlreadyConnected = errors.New("ports already connected")

	// ErrDestinationConnected is returned when the destination already has a source.
	ErrDestinationConnected = errors.New("destination port already connected")

	// ErrNotConnected is returned when disconnecting ports that are not connected.
	ErrNotConnected = errors.New("ports not connected")

	// ErrIncompatiblePorts is returned when two ports cannot be connected.
	ErrIncompatiblePorts = errors.New("incompatible ports")

	ErrNotGraph        = errors.New("exec is not a graph")
	ErrNotFunc         = errors.New("exec is not a function")
	ErrNotVariableRef  = errors.New("node is not a variable reference")
	ErrNotBackDrop     = errors.New("node is not a backdrop")
	ErrNotInstance     = errors.New("node is not an instance")
	ErrNotPreset       = errors.New("exec is not a preset instance")
	ErrPresetNotFound  = errors.New("preset not found")
	ErrPresetExists    = errors.New("preset already exists")
	ErrInvalidIndices  = errors.New("invalid indices")
	ErrInvalidValue    = errors.New("invalid value")
	ErrInvalidJSON     = errors.New("invalid json")
	ErrInvalidPortType = errors.New("invalid port type")
	ErrNothingSelected = errors.New("no nodes given")

	// ErrOperationState is returned when an edit is executed, undone or redone out of order.
	ErrOperationState = errors.New("operation not in a valid state")
)

func notFound(sentinel error, name string) error {
	return fmt.Errorf("%w: %q", sentinel, name)
}
