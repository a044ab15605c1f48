// Package types provides common type definitions used throughout Weave.
// This package contains shared types to avoid circular dependencies between
// the mapper, assembly engine, protocol codec, and server packages.
package types

// Intent is the structured classification of one conversational turn,
// produced by an external classifier. It is immutable after creation and
// consumed by the intent mapper only.
type Intent struct {
	// Type is the intent label (e.g., "greeting", "product_browse")
	Type string `json:"type"`
	// Confidence is the classifier's confidence in [0, 1]
	Confidence float64 `json:"confidence"`
	// Entities holds free-form extracted entities keyed by name
	Entities map[string]interface{} `json:"entities,omitempty"`
	// Context holds conversational context tags (e.g., urgency)
	Context map[string]interface{} `json:"context,omitempty"`
}

// Entity returns a named entity value, or nil when absent.
func (i Intent) Entity(name string) interface{} {
	if i.Entities == nil {
		return nil
	}
	return i.Entities[name]
}

// ContextString returns a context tag as a string, or "" when absent or not
// a string.
func (i Intent) ContextString(name string) string {
	if i.Context == nil {
		return ""
	}
	s, _ := i.Context[name].(string)
	return s
}

// LifecycleState tracks where a component is in its mount/unmount lifecycle.
type LifecycleState string

const (
	StatePending    LifecycleState = "pending"
	StateMounting   LifecycleState = "mounting"
	StateMounted    LifecycleState = "mounted"
	StateUpdating   LifecycleState = "updating"
	StateUnmounting LifecycleState = "unmounting"
	StateRemoved    LifecycleState = "removed"
)

// Position describes where a component is rendered. Positions are recomputed
// wholesale by the layout engine when the layout key changes; they are never
// partially patched outside an explicit update instruction.
type Position struct {
	Area       string `json:"area"`
	Order      int    `json:"order"`
	Width      string `json:"width,omitempty"`
	GridColumn int    `json:"gridColumn,omitempty"`
	GridRow    int    `json:"gridRow,omitempty"`
}

// PositionPatch is a partial position override carried by an update
// instruction. Nil fields leave the current value untouched.
type PositionPatch struct {
	Area       *string `json:"area,omitempty"`
	Order      *int    `json:"order,omitempty"`
	Width      *string `json:"width,omitempty"`
	GridColumn *int    `json:"gridColumn,omitempty"`
	GridRow    *int    `json:"gridRow,omitempty"`
}

// AnimationConfig describes the enter/exit animation applied when an
// instruction mounts or unmounts components. The assembly engine only
// schedules and awaits these; interpolation belongs to the executor.
type AnimationConfig struct {
	Enter    string  `json:"enter,omitempty"`
	Exit     string  `json:"exit,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Stagger  float64 `json:"stagger,omitempty"`
	Ease     string  `json:"ease,omitempty"`
}

// ComponentInstance is a concrete component synthesized from a rule
// definition during the mapper merge. The ID is globally unique within the
// active set for the lifetime of the component.
type ComponentInstance struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	Props          map[string]interface{} `json:"props"`
	Position       Position               `json:"position"`
	AnimationDelay float64                `json:"animationDelay"`
}

// ComponentUpdate is one field-level update record inside an update
// instruction.
type ComponentUpdate struct {
	ID       string                 `json:"id"`
	Props    map[string]interface{} `json:"props,omitempty"`
	Position *PositionPatch         `json:"position,omitempty"`
}

// Action identifies the kind of assembly instruction.
type Action string

const (
	ActionAdd        Action = "add"
	ActionRemove     Action = "remove"
	ActionUpdate     Action = "update"
	ActionReorganize Action = "reorganize"
)

// Valid reports whether the action is one of the four known values.
func (a Action) Valid() bool {
	switch a {
	case ActionAdd, ActionRemove, ActionUpdate, ActionReorganize:
		return true
	default:
		return false
	}
}

// Instruction is the wire-level unit of change flowing from the decision
// process to the assembly engine. Instructions are transient and never
// stored.
type Instruction struct {
	Action       Action              `json:"action"`
	Components   []ComponentInstance `json:"components,omitempty"`
	ComponentIDs []string            `json:"componentIds,omitempty"`
	Updates      []ComponentUpdate   `json:"updates,omitempty"`
	Layout       string              `json:"layout,omitempty"`
	Animation    *AnimationConfig    `json:"animation,omitempty"`
}

// ComponentState is a component instance plus the lifecycle bookkeeping
// owned exclusively by the assembly engine.
type ComponentState struct {
	ComponentInstance
	// Status is the current lifecycle state, serialized for snapshots
	Status LifecycleState `json:"status"`
	// MountedAt is the mount timestamp in Unix milliseconds (0 until mounted)
	MountedAt int64 `json:"mountedAt"`
}

// AssemblyState is the derived snapshot emitted to subscribers after every
// applied instruction. It is recomputed on demand and never persisted.
type AssemblyState struct {
	Components []ComponentState `json:"components"`
	Layout     string           `json:"layout"`
	Timestamp  int64            `json:"timestamp"`
}
