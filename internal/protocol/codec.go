// Package protocol serializes assembly instructions, state snapshots, and
// classifier intents across the transport boundary. The codec defines the
// message schema only; socket and session mechanics live in the server.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/conneroisu/weave/internal/types"
)

// UnknownActionError indicates an instruction whose action is not one of
// add, remove, update, reorganize. The engine drops such instructions whole.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown instruction action %q", e.Action)
}

// IntentError indicates an inbound classifier message that violates the
// intent shape contract.
type IntentError struct {
	Reason string
}

func (e *IntentError) Error() string {
	return "invalid intent: " + e.Reason
}

// EncodeInstruction serializes an instruction for the wire.
func EncodeInstruction(instruction types.Instruction) ([]byte, error) {
	if !instruction.Action.Valid() {
		return nil, &UnknownActionError{Action: string(instruction.Action)}
	}
	return json.Marshal(instruction)
}

// DecodeInstruction parses a wire instruction, rejecting unknown actions.
func DecodeInstruction(data []byte) (types.Instruction, error) {
	var instruction types.Instruction
	if err := json.Unmarshal(data, &instruction); err != nil {
		return types.Instruction{}, fmt.Errorf("decode instruction: %w", err)
	}
	if !instruction.Action.Valid() {
		return types.Instruction{}, &UnknownActionError{Action: string(instruction.Action)}
	}
	return instruction, nil
}

// EncodeSnapshot serializes an assembly state snapshot for observers.
func EncodeSnapshot(state types.AssemblyState) ([]byte, error) {
	return json.Marshal(state)
}

// DecodeSnapshot parses a snapshot message.
func DecodeSnapshot(data []byte) (types.AssemblyState, error) {
	var state types.AssemblyState
	if err := json.Unmarshal(data, &state); err != nil {
		return types.AssemblyState{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return state, nil
}

// DecodeIntent parses an inbound classifier intent, enforcing the load
// bearing parts of its shape: a non-empty type and a confidence in [0, 1].
func DecodeIntent(data []byte) (types.Intent, error) {
	var intent types.Intent
	if err := json.Unmarshal(data, &intent); err != nil {
		return types.Intent{}, fmt.Errorf("decode intent: %w", err)
	}
	if intent.Type == "" {
		return types.Intent{}, &IntentError{Reason: "missing type"}
	}
	if intent.Confidence < 0 || intent.Confidence > 1 {
		return types.Intent{}, &IntentError{Reason: fmt.Sprintf("confidence %v outside [0,1]", intent.Confidence)}
	}
	return intent, nil
}
