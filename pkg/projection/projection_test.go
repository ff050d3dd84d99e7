package projection

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyParamsFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		n              int
		wantPerplexity float64
		wantIterations int
	}{
		{name: "three points", n: 3, wantPerplexity: 2, wantIterations: 300},
		{name: "small batch hits min perplexity", n: 12, wantPerplexity: 5, wantIterations: 300},
		{name: "grows with n", n: 60, wantPerplexity: 15, wantIterations: 300},
		{name: "perplexity capped", n: 400, wantPerplexity: 30, wantIterations: 300},
		{name: "budget shrinks iterations", n: 2500, wantPerplexity: 30, wantIterations: 200},
		{name: "iterations floor", n: 10000, wantPerplexity: 30, wantIterations: 100},
	}

	policy := DefaultPolicy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			params := policy.ParamsFor(tt.n)
			assert.Equal(t, tt.wantPerplexity, params.Perplexity)
			assert.Equal(t, tt.wantIterations, params.Iterations)
			assert.Equal(t, 10.0, params.LearningRate)
		})
	}
}

func TestPolicyBounds(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()
	for _, n := range []int{3, 4, 5, 7, 20, 100, 1000, 5000, 50000} {
		params := policy.ParamsFor(n)
		assert.Less(t, params.Perplexity, float64(n), "n=%d", n)
		assert.LessOrEqual(t, params.Perplexity, 30.0, "n=%d", n)
		assert.GreaterOrEqual(t, params.Iterations, 100, "n=%d", n)
		assert.LessOrEqual(t, params.Iterations, 300, "n=%d", n)
	}

	assert.LessOrEqual(t, policy.ParamsFor(1000).Iterations, 300)
}

func TestEmbedTooFewPoints(t *testing.T) {
	t.Parallel()

	engine := NewEngine(DefaultPolicy())
	for _, vectors := range [][][]float64{nil, {{1, 0}}, {{1, 0}, {0, 1}}} {
		points, err := engine.Embed(context.Background(), vectors)
		require.NoError(t, err)
		assert.Nil(t, points)
	}
}

func TestEmbedEmptyVocabulary(t *testing.T) {
	t.Parallel()

	points, err := NewEngine(DefaultPolicy()).Embed(context.Background(), [][]float64{{}, {}, {}, {}})
	require.NoError(t, err)
	assert.Nil(t, points)
}

func TestEmbedRaggedInput(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(DefaultPolicy()).Embed(context.Background(), [][]float64{{1, 0}, {0, 1}, {1}})
	assert.ErrorIs(t, err, ErrRaggedInput)
}

func TestEmbedCancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	points, err := NewEngine(DefaultPolicy()).Embed(ctx, distinctVectors(8, 4))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, points)
}

func TestEmbedProducesFinitePoints(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()
	policy.MaxIterations = 120
	vectors := distinctVectors(10, 4)

	points, err := NewEngine(policy).Embed(context.Background(), vectors)
	require.NoError(t, err)
	require.Len(t, points, len(vectors))
	for _, p := range points {
		assert.False(t, math.IsNaN(p[0]) || math.IsNaN(p[1]))
		assert.False(t, math.IsInf(p[0], 0) || math.IsInf(p[1], 0))
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	points := []Point{{-10, 0}, {0, 5}, {10, 10}}
	coords := Normalize(points, []int{7, 8, 9}, DefaultPadding)

	require.Len(t, coords, 3)
	assert.InDelta(t, 5, coords[7][0], 1e-9)
	assert.InDelta(t, 5, coords[7][1], 1e-9)
	assert.InDelta(t, 50, coords[8][0], 1e-9)
	assert.InDelta(t, 50, coords[8][1], 1e-9)
	assert.InDelta(t, 95, coords[9][0], 1e-9)
	assert.InDelta(t, 95, coords[9][1], 1e-9)
}

func TestNormalizeBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		points  []Point
		padding float64
	}{
		{name: "spread", points: []Point{{-3.2, 1e6}, {4.5, -2}, {0.1, 7}, {99, 42}}, padding: 5},
		{name: "tiny range", points: []Point{{1e-9, 2e-9}, {2e-9, 1e-9}, {1.5e-9, 1.5e-9}}, padding: 5},
		{name: "no padding", points: []Point{{1, 2}, {3, 4}, {5, 0}}, padding: 0},
		{name: "wide padding", points: []Point{{1, 2}, {3, 4}, {5, 0}}, padding: 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ids := make([]int, len(tt.points))
			for i := range ids {
				ids[i] = i + 1
			}
			coords := Normalize(tt.points, ids, tt.padding)
			require.Len(t, coords, len(tt.points))
			for id, p := range coords {
				for axis := 0; axis < 2; axis++ {
					assert.GreaterOrEqual(t, p[axis], tt.padding-1e-9, "id %d", id)
					assert.LessOrEqual(t, p[axis], 100-tt.padding+1e-9, "id %d", id)
				}
			}
		})
	}
}

func TestNormalizeCollapsedAxis(t *testing.T) {
	t.Parallel()

	coords := Normalize([]Point{{2, 3}, {2, 3}, {2, 3}}, []int{1, 2, 3}, DefaultPadding)
	for _, p := range coords {
		assert.Equal(t, Point{DefaultPadding, DefaultPadding}, p)
	}

	coords = Normalize([]Point{{0, 3}, {10, 3}, {5, 3}}, []int{1, 2, 3}, DefaultPadding)
	assert.InDelta(t, 50, coords[3][0], 1e-9)
	assert.Equal(t, DefaultPadding, coords[3][1])
}

func TestNormalizeEmpty(t *testing.T) {
	t.Parallel()

	coords := Normalize(nil, nil, DefaultPadding)
	assert.NotNil(t, coords)
	assert.Empty(t, coords)
}

func TestCoordinatesIDs(t *testing.T) {
	t.Parallel()

	coords := Coordinates{9: {}, 2: {}, 5: {}}
	assert.Equal(t, []int{2, 5, 9}, coords.IDs())
}

func TestErrNumericalWraps(t *testing.T) {
	t.Parallel()

	err := errors.Wrap(ErrNumerical, "boom")
	assert.ErrorIs(t, err, ErrNumerical)
}

// distinctVectors returns n binary vectors of length dim with no two equal.
func distinctVectors(n, dim int) [][]float64 {
	vectors := make([][]float64, n)
	for i := range vectors {
		v := make([]float64, dim)
		for bit := 0; bit < dim; bit++ {
			if (i+1)>>bit&1 == 1 {
				v[bit] = 1
			}
		}
		vectors[i] = v
	}
	return vectors
}
