// Package layout computes per-component positions from a layout key and the
// active component list. The computation is deterministic and idempotent:
// order is always derived from stable input index, never from unordered
// iteration, so ties are impossible.
package layout

import (
	"sync"

	"github.com/conneroisu/weave/internal/types"
)

// Layout keys understood by the engine. Any other key falls back to the
// default single-column layout.
const (
	KeyCentered  = "centered"
	KeyTwoColumn = "two-column"
	KeyGrid      = "grid"
	KeyDefault   = "default"
)

// Areas assigned by the engine.
const (
	AreaCenter  = "center"
	AreaSidebar = "sidebar"
	AreaMain    = "main"
	AreaGrid    = "grid"
)

const (
	centeredMaxWidth = "800px"
	fullWidth        = "100%"
	gridColumns      = 3
)

// DefaultSidebarTypes is the fixed set of component types routed to the
// sidebar area under the two-column layout.
var DefaultSidebarTypes = []string{"FilterPanel", "NavigationPanel"}

// Engine computes positions for the active component set. It retains no
// component-specific state beyond remembering the last-applied layout key
// for introspection.
type Engine struct {
	sidebarTypes map[string]struct{}

	mutex   sync.Mutex
	lastKey string
}

// NewEngine creates a layout engine. An empty sidebarTypes slice selects the
// default sidebar set.
func NewEngine(sidebarTypes []string) *Engine {
	if len(sidebarTypes) == 0 {
		sidebarTypes = DefaultSidebarTypes
	}
	set := make(map[string]struct{}, len(sidebarTypes))
	for _, t := range sidebarTypes {
		set[t] = struct{}{}
	}
	return &Engine{sidebarTypes: set}
}

// ComputePositions returns a position for every component in the input,
// keyed by component id. The input order is the only ordering source.
func (e *Engine) ComputePositions(components []types.ComponentState, layoutKey string) map[string]types.Position {
	positions := make(map[string]types.Position, len(components))

	switch layoutKey {
	case KeyCentered:
		for i, c := range components {
			positions[c.ID] = types.Position{
				Area:  AreaCenter,
				Order: i,
				Width: centeredMaxWidth,
			}
		}

	case KeyTwoColumn:
		sidebarOrder := 0
		mainOrder := 0
		for _, c := range components {
			if _, ok := e.sidebarTypes[c.Type]; ok {
				positions[c.ID] = types.Position{Area: AreaSidebar, Order: sidebarOrder}
				sidebarOrder++
				continue
			}
			// Unknown types default to main
			positions[c.ID] = types.Position{Area: AreaMain, Order: mainOrder}
			mainOrder++
		}

	case KeyGrid:
		for i, c := range components {
			positions[c.ID] = types.Position{
				Area:       AreaGrid,
				Order:      i,
				GridColumn: (i % gridColumns) + 1,
				GridRow:    (i / gridColumns) + 1,
			}
		}

	default:
		// Universal fallback, including the "default" key
		for i, c := range components {
			positions[c.ID] = types.Position{
				Area:  AreaMain,
				Order: i,
				Width: fullWidth,
			}
		}
	}

	e.mutex.Lock()
	e.lastKey = layoutKey
	e.mutex.Unlock()

	return positions
}

// LastKey returns the most recently applied layout key.
func (e *Engine) LastKey() string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.lastKey
}

// IsSidebarType reports whether a component type belongs to the sidebar set.
func (e *Engine) IsSidebarType(componentType string) bool {
	_, ok := e.sidebarTypes[componentType]
	return ok
}
