package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/weave/internal/types"
)

func TestEncodeInstruction(t *testing.T) {
	instruction := types.Instruction{
		Action: types.ActionAdd,
		Layout: "two-column",
		Components: []types.ComponentInstance{
			{
				ID:    "ProductGrid-1",
				Type:  "ProductGrid",
				Props: map[string]interface{}{"category": "laptops"},
				Position: types.Position{
					Area:  "main",
					Order: 0,
				},
			},
		},
		Animation: &types.AnimationConfig{Enter: "fade", Duration: 0.4},
	}

	data, err := EncodeInstruction(instruction)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "add", raw["action"])
	assert.Equal(t, "two-column", raw["layout"])
	assert.NotContains(t, raw, "componentIds")
	assert.NotContains(t, raw, "updates")
}

func TestEncodeInstruction_RejectsUnknownAction(t *testing.T) {
	_, err := EncodeInstruction(types.Instruction{Action: "explode"})

	var unknownErr *UnknownActionError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "explode", unknownErr.Action)
}

func TestDecodeInstruction_RoundTrip(t *testing.T) {
	original := types.Instruction{
		Action:       types.ActionRemove,
		ComponentIDs: []string{"a", "b"},
		Animation:    &types.AnimationConfig{Exit: "fade", Duration: 0.2},
	}

	data, err := EncodeInstruction(original)
	require.NoError(t, err)

	decoded, err := DecodeInstruction(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeInstruction_UpdatePositionPatch(t *testing.T) {
	decoded, err := DecodeInstruction([]byte(`{
		"action": "update",
		"updates": [
			{"id": "x", "props": {"pageSize": 24}, "position": {"order": 3}}
		]
	}`))
	require.NoError(t, err)

	require.Len(t, decoded.Updates, 1)
	update := decoded.Updates[0]
	assert.Equal(t, "x", update.ID)
	require.NotNil(t, update.Position)
	require.NotNil(t, update.Position.Order)
	assert.Equal(t, 3, *update.Position.Order)
	// Absent patch fields stay nil so the engine knows not to touch them
	assert.Nil(t, update.Position.Area)
	assert.Nil(t, update.Position.Width)
}

func TestDecodeInstruction_RejectsUnknownAction(t *testing.T) {
	_, err := DecodeInstruction([]byte(`{"action": "teleport"}`))

	var unknownErr *UnknownActionError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "teleport", unknownErr.Action)
}

func TestDecodeInstruction_RejectsMalformedJSON(t *testing.T) {
	_, err := DecodeInstruction([]byte(`{"action": `))

	assert.Error(t, err)
	var unknownErr *UnknownActionError
	assert.False(t, errors.As(err, &unknownErr))
}

func TestSnapshotRoundTrip(t *testing.T) {
	state := types.AssemblyState{
		Components: []types.ComponentState{
			{
				ComponentInstance: types.ComponentInstance{
					ID:    "WelcomeHero-1",
					Type:  "WelcomeHero",
					Props: map[string]interface{}{"title": "Welcome"},
				},
				Status:    types.StateMounted,
				MountedAt: 1700000000000,
			},
		},
		Layout:    "centered",
		Timestamp: 1700000000123,
	}

	data, err := EncodeSnapshot(state)
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestDecodeIntent(t *testing.T) {
	intent, err := DecodeIntent([]byte(`{
		"type": "product_browse",
		"confidence": 0.85,
		"entities": {"category": "laptops"},
		"context": {"urgency": "high"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "product_browse", intent.Type)
	assert.InDelta(t, 0.85, intent.Confidence, 1e-9)
	assert.Equal(t, "laptops", intent.Entity("category"))
	assert.Equal(t, "high", intent.ContextString("urgency"))
}

func TestDecodeIntent_Invalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing type", `{"confidence": 0.9}`},
		{"empty type", `{"type": "", "confidence": 0.9}`},
		{"confidence above one", `{"type": "greeting", "confidence": 1.5}`},
		{"negative confidence", `{"type": "greeting", "confidence": -0.1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeIntent([]byte(tc.data))

			var intentErr *IntentError
			assert.ErrorAs(t, err, &intentErr)
		})
	}
}

func TestDecodeIntent_MalformedJSON(t *testing.T) {
	_, err := DecodeIntent([]byte(`not json`))

	assert.Error(t, err)
	var intentErr *IntentError
	assert.False(t, errors.As(err, &intentErr))
}
