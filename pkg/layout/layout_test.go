package layout

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jespino/bookmap/pkg/projection"
)

func testPipeline() *Pipeline {
	opts := DefaultOptions()
	opts.Policy.MaxIterations = 120
	return NewPipeline(opts, zerolog.Nop())
}

func TestPipelineDegenerateInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []Item
	}{
		{name: "no items", items: nil},
		{name: "two items", items: []Item{{ID: 1, Topics: "war"}, {ID: 2, Topics: "history"}}},
		{name: "no topics", items: []Item{{ID: 1}, {ID: 2, Topics: " | "}, {ID: 3}, {ID: 4}}},
	}

	p := testPipeline()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			coords, err := p.Compute(context.Background(), tt.items)
			require.NoError(t, err)
			assert.NotNil(t, coords)
			assert.Empty(t, coords)
		})
	}
}

func TestPipelineCoversEveryID(t *testing.T) {
	t.Parallel()

	themes := []string{
		"war|history", "war", "romance", "war|romance", "history",
		"science|space", "space", "science|history", "romance|drama", "drama",
		"war|drama", "space|war",
	}
	items := make([]Item, len(themes))
	for i, theme := range themes {
		items[i] = Item{ID: 100 + i, Topics: theme}
	}

	coords, err := testPipeline().Compute(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, coords, len(items))
	for _, item := range items {
		p, ok := coords[item.ID]
		require.True(t, ok, "missing id %d", item.ID)
		for axis := 0; axis < 2; axis++ {
			assert.GreaterOrEqual(t, p[axis], projection.DefaultPadding-1e-9)
			assert.LessOrEqual(t, p[axis], 100-projection.DefaultPadding+1e-9)
		}
	}
}

func TestPipelineCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := make([]Item, 6)
	for i := range items {
		items[i] = Item{ID: i, Topics: fmt.Sprintf("t%d|shared", i)}
	}

	coords, err := testPipeline().Compute(ctx, items)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, coords)
}

func TestPipelineVectorizeSharesParser(t *testing.T) {
	t.Parallel()

	p := testPipeline()
	items := []Item{{ID: 1, Topics: "a|b"}, {ID: 2, Topics: "a|b"}, {ID: 3, Topics: "c"}}

	vocab, vectors := p.Vectorize(items)
	assert.Equal(t, []string{"a", "b", "c"}, vocab.Words())
	assert.Equal(t, [][]float64{{1, 1, 0}, {1, 1, 0}, {0, 0, 1}}, vectors)

	stats := p.Parser().Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestFuncComputer(t *testing.T) {
	t.Parallel()

	var c Computer = Func(func(ctx context.Context, items []Item) (projection.Coordinates, error) {
		return projection.Coordinates{items[0].ID: {1, 2}}, nil
	})
	coords, err := c.Compute(context.Background(), []Item{{ID: 4}})
	require.NoError(t, err)
	assert.Equal(t, projection.Point{1, 2}, coords[4])
}

func TestIDs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{3, 1, 2}, IDs([]Item{{ID: 3}, {ID: 1}, {ID: 2}}))
	assert.Empty(t, IDs(nil))
}
