package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	pipeerrors "github.com/alexisbeaulieu97/pipego/pkg/errors"
)

func graphOf(t *testing.T, nodes []string, edges [][2]string) *Graph {
	t.Helper()
	g := NewGraph()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func requireTopological(t *testing.T, order []string, edges [][2]string) {
	t.Helper()
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range edges {
		require.Less(t, pos[e[0]], pos[e[1]], "%s must precede %s", e[0], e[1])
	}
}

func TestTopologicalSortRespectsEdges(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		nodes []string
		edges [][2]string
		want  []string
	}{
		{
			name:  "chain",
			nodes: []string{"c", "b", "a"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "ties go to the smallest id",
			nodes: []string{"z", "y", "x", "out"},
			edges: [][2]string{{"z", "out"}, {"x", "out"}, {"y", "out"}},
			want:  []string{"x", "y", "z", "out"},
		},
		{
			name:  "diamond",
			nodes: []string{"src", "left", "right", "sink"},
			edges: [][2]string{{"src", "right"}, {"src", "left"}, {"left", "sink"}, {"right", "sink"}},
		},
		{
			name:  "released node sorts among ready nodes",
			nodes: []string{"a", "d", "b", "c"},
			edges: [][2]string{{"a", "b"}},
			want:  []string{"a", "b", "c", "d"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := graphOf(t, tc.nodes, tc.edges)
			order, err := g.TopologicalSort()
			require.NoError(t, err)
			require.Len(t, order, len(tc.nodes))
			requireTopological(t, order, tc.edges)
			if len(tc.want) > 0 {
				require.Equal(t, tc.want, order[:len(tc.want)])
			}
		})
	}
}

func TestTopologicalSortDiamondIsStable(t *testing.T) {
	t.Parallel()

	edges := [][2]string{{"src", "right"}, {"src", "left"}, {"left", "sink"}, {"right", "sink"}}
	g := graphOf(t, []string{"sink", "right", "left", "src"}, edges)
	order, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Equal(t, []string{"src", "left", "right", "sink"}, order)
}

func TestTopologicalSortFailsOnCycles(t *testing.T) {
	t.Parallel()

	g := graphOf(t, []string{"a", "b", "c", "d"}, [][2]string{{"d", "a"}, {"a", "b"}, {"b", "c"}, {"c", "a"}})
	order, err := g.TopologicalSort()
	require.Nil(t, order)

	var validationErr *pipeerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, err.Error(), "a -> b -> c -> a")
}

func TestTopologicalSortSelfLoop(t *testing.T) {
	t.Parallel()

	g := graphOf(t, []string{"a"}, [][2]string{{"a", "a"}})
	_, err := g.TopologicalSort()
	require.ErrorContains(t, err, "a -> a")
}

func TestAddEdgeRequiresNodes(t *testing.T) {
	t.Parallel()

	g := graphOf(t, []string{"a"}, nil)
	require.Error(t, g.AddEdge("a", "missing"))
	require.Error(t, g.AddEdge("missing", "a"))
}

func TestPruneDropsDisconnectedNodes(t *testing.T) {
	t.Parallel()

	g := graphOf(t, []string{"a", "b", "lonely", "alone"}, [][2]string{{"a", "b"}})
	require.Equal(t, []string{"alone", "lonely"}, g.Prune())
	require.Equal(t, []string{"a", "b"}, g.Nodes())
	require.True(t, g.Has("b"))
	require.False(t, g.Has("lonely"))
}
