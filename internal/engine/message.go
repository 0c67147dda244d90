// Package engine implements the recipe execution core: variable validation,
// template rendering, agent transcript extraction and the run lifecycle.
package engine

import (
	"encoding/json"
	"fmt"
)

// Role discriminates the message variants exchanged with the agent runtime.
type Role string

const (
	RoleUser       Role = "user"
	RoleAgent      Role = "agent"
	RoleToolResult Role = "tool_result"
)

// Message is one entry of an agent transcript. The set of implementations
// is closed: UserMessage, AgentMessage and ToolResultMessage.
type Message interface {
	Role() Role
}

// UserMessage carries an instruction sent to the agent.
type UserMessage struct {
	Text string
}

func (UserMessage) Role() Role { return RoleUser }

// ToolInvocation is a tool call requested by the agent.
type ToolInvocation struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// AgentMessage is an agent-authored message. Text may be empty when the
// message only carries pending tool invocations.
type AgentMessage struct {
	Text            string
	ToolInvocations []ToolInvocation
}

func (AgentMessage) Role() Role { return RoleAgent }

// ToolResultMessage carries the serialized output of one tool call.
type ToolResultMessage struct {
	ToolName string
	Content  string
}

func (ToolResultMessage) Role() Role { return RoleToolResult }

// WireMessage is the JSON shape of a Message on the agent sidecar protocol.
type WireMessage struct {
	Role            Role             `json:"role"`
	Text            string           `json:"text,omitempty"`
	ToolInvocations []ToolInvocation `json:"tool_invocations,omitempty"`
	ToolName        string           `json:"tool_name,omitempty"`
	Content         string           `json:"content,omitempty"`
}

// ToWire converts messages to their wire representation.
func ToWire(msgs []Message) []WireMessage {
	wire := make([]WireMessage, 0, len(msgs))
	for _, m := range msgs {
		switch m := m.(type) {
		case UserMessage:
			wire = append(wire, WireMessage{Role: RoleUser, Text: m.Text})
		case AgentMessage:
			wire = append(wire, WireMessage{Role: RoleAgent, Text: m.Text, ToolInvocations: m.ToolInvocations})
		case ToolResultMessage:
			wire = append(wire, WireMessage{Role: RoleToolResult, ToolName: m.ToolName, Content: m.Content})
		}
	}
	return wire
}

// FromWire converts wire messages back to the closed variant. A message with
// an unrecognized role is rejected rather than guessed at.
func FromWire(wire []WireMessage) ([]Message, error) {
	msgs := make([]Message, 0, len(wire))
	for i, w := range wire {
		switch w.Role {
		case RoleUser:
			msgs = append(msgs, UserMessage{Text: w.Text})
		case RoleAgent:
			msgs = append(msgs, AgentMessage{Text: w.Text, ToolInvocations: w.ToolInvocations})
		case RoleToolResult:
			msgs = append(msgs, ToolResultMessage{ToolName: w.ToolName, Content: w.Content})
		default:
			return nil, fmt.Errorf("message %d: unknown role %q", i, w.Role)
		}
	}
	return msgs, nil
}

// UnmarshalTranscript decodes a JSON transcript into messages.
func UnmarshalTranscript(data []byte) ([]Message, error) {
	var wire []WireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	return FromWire(wire)
}
