package eventbus

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Routing keys of command lifecycle events.
const (
	RoutingExecuted = "canvas.command.executed"
	RoutingFailed   = "canvas.command.failed"
	RoutingUndone   = "canvas.command.undone"
	RoutingRedone   = "canvas.command.redone"

	// RoutingAll matches every command lifecycle event.
	RoutingAll = "canvas.command.#"
)

// CommandEvent reports one step in the life of a command invocation.
type CommandEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	RoutingKey   string    `json:"routing_key"`
	OccurredAt   time.Time `json:"occurred_at"`
	InvocationID string    `json:"invocation_id,omitempty"`
	ContextID    string    `json:"context_id,omitempty"`
	Command      string    `json:"command"`
	Args         []string  `json:"args,omitempty"`
	Description  string    `json:"description,omitempty"`
	Result       string    `json:"result,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// NewCommandEvent creates an event with a fresh id and the current time.
func NewCommandEvent(routingKey, command string) *CommandEvent {
	return &CommandEvent{
		EventID:    uuid.New(),
		RoutingKey: routingKey,
		OccurredAt: time.Now().UTC(),
		Command:    command,
	}
}

// Marshal encodes the event as the JSON message body.
func (e *CommandEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses a message body. routingKey fills in events that were
// published without one in the body.
func DecodeEvent(routingKey string, body []byte) (*CommandEvent, error) {
	var e CommandEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("decode %s event: %w", routingKey, err)
	}
	if e.RoutingKey == "" {
		e.RoutingKey = routingKey
	}
	return &e, nil
}

// MatchRoutingKey reports whether key matches the topic pattern the way a
// RabbitMQ topic exchange does: words are dot separated, "*" matches exactly
// one word and "#" matches zero or more.
func MatchRoutingKey(pattern, key string) bool {
	return matchWords(strings.Split(pattern, "."), strings.Split(key, "."))
}

func matchWords(pattern, key []string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case "#":
			for i := 0; i <= len(key); i++ {
				if matchWords(pattern[1:], key[i:]) {
					return true
				}
			}
			return false
		case "*":
			if len(key) == 0 {
				return false
			}
		default:
			if len(key) == 0 || key[0] != pattern[0] {
				return false
			}
		}
		pattern, key = pattern[1:], key[1:]
	}
	return len(key) == 0
}
