package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// app imports layout and card; layout imports card.
func appGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	g.AddComponent("App", nil)
	g.AddComponent("Layout", nil)
	g.AddComponent("Card", nil)
	require.NoError(t, g.AddImport("App", "Layout"))
	require.NoError(t, g.AddImport("App", "Card"))
	require.NoError(t, g.AddImport("Layout", "Card"))
	return g
}

func TestAddImport_Validation(t *testing.T) {
	g := New()
	g.AddComponent("App", nil)

	assert.Error(t, g.AddImport("App", "Missing"))
	assert.Error(t, g.AddImport("Missing", "App"))
	assert.Error(t, g.AddImport("App", "App"))
}

func TestAddImport_Deduplicates(t *testing.T) {
	g := New()
	g.AddComponent("App", nil)
	g.AddComponent("Card", nil)
	require.NoError(t, g.AddImport("App", "Card"))
	require.NoError(t, g.AddImport("App", "Card"))

	_, edges := g.Size()
	assert.Equal(t, 1, edges)
}

func TestRoots(t *testing.T) {
	g := appGraph(t)
	assert.Equal(t, []string{"App"}, g.Roots())
}

func TestHasCycle(t *testing.T) {
	g := appGraph(t)
	cyclic, _ := g.HasCycle()
	assert.False(t, cyclic)

	require.NoError(t, g.AddImport("Card", "App"))
	cyclic, cycle := g.HasCycle()
	require.True(t, cyclic)
	assert.Equal(t, cycle[0], cycle[len(cycle)-1], "cycle path closes on itself")
	assert.Contains(t, cycle, "App")
	assert.Contains(t, cycle, "Card")
}

func TestTopologicalSort(t *testing.T) {
	g := appGraph(t)
	order, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, order, 3)

	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	assert.Less(t, pos["Card"], pos["Layout"])
	assert.Less(t, pos["Layout"], pos["App"])
}

func TestTopologicalSort_Cycle(t *testing.T) {
	g := appGraph(t)
	require.NoError(t, g.AddImport("Card", "App"))
	_, err := g.TopologicalSort()
	assert.Error(t, err)
}

func TestLevels(t *testing.T) {
	g := appGraph(t)
	levels, err := g.Levels()
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Equal(t, []string{"Card"}, levels[0])
	assert.Equal(t, []string{"Layout"}, levels[1])
	assert.Equal(t, []string{"App"}, levels[2])
}

func TestAffected(t *testing.T) {
	g := appGraph(t)

	assert.Equal(t, []string{"App", "Card", "Layout"}, g.Affected([]string{"Card"}))
	assert.Equal(t, []string{"App", "Layout"}, g.Affected([]string{"Layout"}))
	assert.Equal(t, []string{"App"}, g.Affected([]string{"App"}))
	assert.Empty(t, g.Affected([]string{"Unknown"}))
}
