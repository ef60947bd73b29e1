// Package host plays the part of the application that embeds the canvas
// commands: it owns the undo stack, prints errors the way the host console
// does, and serializes every command dispatch through a Session.
package host
