// Package projection reduces topic feature vectors to a 2-D layout with
// t-distributed stochastic neighbor embedding and maps the result into a
// padded percentage space suitable for direct screen placement.
//
// The numeric work is delegated to github.com/danaugrs/go-tsne over a gonum
// dense matrix. Engine adds the pieces around it: batch-size adaptive
// hyperparameters (see Policy), cooperative cancellation between gradient
// steps, and containment of numeric failures.
package projection

import (
	"context"
	"fmt"
	"math"

	"github.com/danaugrs/go-tsne/tsne"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// MinPoints is the smallest batch that gets an embedding.
	MinPoints = 3

	// Dimensions of the embedding output.
	Dimensions = 2
)

var (
	// ErrNumerical reports a failure inside the embedding step, such as a
	// degenerate input matrix or a non-finite solution.
	ErrNumerical = errors.New("numerical failure during embedding")

	// ErrRaggedInput reports feature vectors of different lengths.
	ErrRaggedInput = errors.New("feature vectors have different lengths")
)

// Point is a 2-D coordinate, encoded as [x, y].
type Point [2]float64

// Engine runs t-SNE over binary feature vectors.
// It holds no per-run state and is safe for concurrent use.
type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Policy returns the hyperparameter policy of the engine.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Embed returns one 2-D point per input vector, in input order.
//
// Fewer than MinPoints vectors, or vectors of length zero, yield (nil, nil):
// there is no layout to compute. Cancelling ctx stops the optimisation at the
// next iteration and returns ctx.Err(). Panics raised by the numeric code are
// recovered and reported as ErrNumerical.
func (e *Engine) Embed(ctx context.Context, vectors [][]float64) (points []Point, err error) {
	n := len(vectors)
	if n < MinPoints {
		return nil, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, nil
	}

	data := make([]float64, 0, n*dim)
	for _, vector := range vectors {
		if len(vector) != dim {
			return nil, ErrRaggedInput
		}
		data = append(data, vector...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			points = nil
			err = errors.Wrapf(ErrNumerical, "%v", r)
		}
	}()

	params := e.policy.ParamsFor(n)
	x := mat.NewDense(n, dim, data)

	t := tsne.NewTSNE(Dimensions, params.Perplexity, params.LearningRate, params.Iterations, false)
	cancelled := false
	t.EmbedData(x, func(iter int, divergence float64, embedding mat.Matrix) bool {
		if ctx.Err() != nil {
			cancelled = true
			return true
		}
		return false
	})
	if cancelled {
		return nil, ctx.Err()
	}

	var y mat.Matrix = t.Y
	rows, cols := y.Dims()
	if rows != n || cols < Dimensions {
		return nil, errors.Wrapf(ErrNumerical, "solution has shape %dx%d, want %dx%d", rows, cols, n, Dimensions)
	}

	points = make([]Point, n)
	for i := range points {
		px, py := y.At(i, 0), y.At(i, 1)
		if !finite(px) || !finite(py) {
			return nil, errors.Wrap(ErrNumerical, fmt.Sprintf("non-finite coordinate for point %d", i))
		}
		points[i] = Point{px, py}
	}

	return points, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
