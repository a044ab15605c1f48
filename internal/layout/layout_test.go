package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conneroisu/weave/internal/types"
)

func component(id, componentType string) types.ComponentState {
	return types.ComponentState{
		ComponentInstance: types.ComponentInstance{ID: id, Type: componentType},
		Status:            types.StateMounted,
	}
}

func TestComputePositions_Centered(t *testing.T) {
	engine := NewEngine(nil)
	components := []types.ComponentState{
		component("a", "WelcomeHero"),
		component("b", "SuggestionCards"),
	}

	positions := engine.ComputePositions(components, KeyCentered)

	assert.Len(t, positions, 2)
	assert.Equal(t, types.Position{Area: AreaCenter, Order: 0, Width: centeredMaxWidth}, positions["a"])
	assert.Equal(t, types.Position{Area: AreaCenter, Order: 1, Width: centeredMaxWidth}, positions["b"])
}

func TestComputePositions_TwoColumn(t *testing.T) {
	engine := NewEngine(nil)
	components := []types.ComponentState{
		component("grid", "ProductGrid"),
		component("filter", "FilterPanel"),
		component("results", "SearchResults"),
		component("nav", "NavigationPanel"),
	}

	positions := engine.ComputePositions(components, KeyTwoColumn)

	// Sidebar members ordered by their relative position among sidebar members
	assert.Equal(t, AreaSidebar, positions["filter"].Area)
	assert.Equal(t, 0, positions["filter"].Order)
	assert.Equal(t, AreaSidebar, positions["nav"].Area)
	assert.Equal(t, 1, positions["nav"].Order)

	// Everything else goes to main, ordered among main members
	assert.Equal(t, AreaMain, positions["grid"].Area)
	assert.Equal(t, 0, positions["grid"].Order)
	assert.Equal(t, AreaMain, positions["results"].Area)
	assert.Equal(t, 1, positions["results"].Order)
}

func TestComputePositions_TwoColumn_UnknownTypesDefaultToMain(t *testing.T) {
	engine := NewEngine(nil)
	components := []types.ComponentState{
		component("x", "SomethingNovel"),
	}

	positions := engine.ComputePositions(components, KeyTwoColumn)

	assert.Equal(t, AreaMain, positions["x"].Area)
}

func TestComputePositions_TwoColumn_CustomSidebarSet(t *testing.T) {
	engine := NewEngine([]string{"ChatPanel"})
	components := []types.ComponentState{
		component("chat", "ChatPanel"),
		component("filter", "FilterPanel"),
	}

	positions := engine.ComputePositions(components, KeyTwoColumn)

	assert.Equal(t, AreaSidebar, positions["chat"].Area)
	// FilterPanel is not in the custom set
	assert.Equal(t, AreaMain, positions["filter"].Area)
}

func TestComputePositions_Grid(t *testing.T) {
	engine := NewEngine(nil)
	components := make([]types.ComponentState, 7)
	for i := range components {
		components[i] = component(string(rune('a'+i)), "ProductGrid")
	}

	positions := engine.ComputePositions(components, KeyGrid)

	// Row-major, 3 columns fixed
	assert.Equal(t, types.Position{Area: AreaGrid, Order: 0, GridColumn: 1, GridRow: 1}, positions["a"])
	assert.Equal(t, types.Position{Area: AreaGrid, Order: 2, GridColumn: 3, GridRow: 1}, positions["c"])
	assert.Equal(t, types.Position{Area: AreaGrid, Order: 3, GridColumn: 1, GridRow: 2}, positions["d"])
	assert.Equal(t, types.Position{Area: AreaGrid, Order: 6, GridColumn: 1, GridRow: 3}, positions["g"])
}

func TestComputePositions_DefaultFallback(t *testing.T) {
	engine := NewEngine(nil)
	components := []types.ComponentState{
		component("a", "WelcomeHero"),
		component("b", "FilterPanel"),
	}

	for _, key := range []string{KeyDefault, "", "something-unknown"} {
		positions := engine.ComputePositions(components, key)

		assert.Equal(t, types.Position{Area: AreaMain, Order: 0, Width: fullWidth}, positions["a"], "key %q", key)
		assert.Equal(t, types.Position{Area: AreaMain, Order: 1, Width: fullWidth}, positions["b"], "key %q", key)
	}
}

func TestComputePositions_Idempotent(t *testing.T) {
	engine := NewEngine(nil)
	components := []types.ComponentState{
		component("a", "ProductGrid"),
		component("b", "FilterPanel"),
		component("c", "SearchResults"),
	}

	first := engine.ComputePositions(components, KeyTwoColumn)
	second := engine.ComputePositions(components, KeyTwoColumn)

	assert.Equal(t, first, second)
}

func TestComputePositions_EmptyInput(t *testing.T) {
	engine := NewEngine(nil)

	positions := engine.ComputePositions(nil, KeyGrid)

	assert.Empty(t, positions)
}

func TestLastKey(t *testing.T) {
	engine := NewEngine(nil)
	assert.Equal(t, "", engine.LastKey())

	engine.ComputePositions(nil, KeyCentered)
	assert.Equal(t, KeyCentered, engine.LastKey())

	engine.ComputePositions(nil, "custom")
	assert.Equal(t, "custom", engine.LastKey())
}

func TestIsSidebarType(t *testing.T) {
	engine := NewEngine(nil)

	assert.True(t, engine.IsSidebarType("FilterPanel"))
	assert.True(t, engine.IsSidebarType("NavigationPanel"))
	assert.False(t, engine.IsSidebarType("ProductGrid"))
}
