package assembly

import "github.com/conneroisu/weave/internal/types"

// transitions is the component lifecycle state machine. A component only
// moves along these edges; no state is skipped. Removed is terminal: the id
// is deleted from the active set, not retained as a tombstone.
var transitions = map[types.LifecycleState][]types.LifecycleState{
	types.StatePending:    {types.StateMounting},
	types.StateMounting:   {types.StateMounted},
	types.StateMounted:    {types.StateUpdating, types.StateUnmounting},
	types.StateUpdating:   {types.StateMounted, types.StateUnmounting},
	types.StateUnmounting: {types.StateRemoved},
}

// canTransition reports whether the state machine allows moving from one
// lifecycle state to another.
func canTransition(from, to types.LifecycleState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
