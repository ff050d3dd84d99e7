// Package layout chains topic parsing, vectorization, t-SNE and
// normalization into a single computation that turns a batch of items into a
// coordinate map.
package layout

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jespino/bookmap/pkg/embedding"
	"github.com/jespino/bookmap/pkg/projection"
	"github.com/jespino/bookmap/pkg/topics"
)

// Item is the minimal per-book input of a layout: a stable id and the raw
// pipe-delimited theme string.
type Item struct {
	ID     int    `json:"id"`
	Topics string `json:"topics"`
}

// Computer produces a coordinate map for a batch of items.
type Computer interface {
	Compute(ctx context.Context, items []Item) (projection.Coordinates, error)
}

// Options configure a Pipeline.
type Options struct {
	MaxTopics    int
	Padding      float64
	TagCacheSize int
	Policy       projection.Policy
}

func DefaultOptions() Options {
	return Options{
		MaxTopics:    embedding.MaxTopics,
		Padding:      projection.DefaultPadding,
		TagCacheSize: topics.DefaultCacheSize,
		Policy:       projection.DefaultPolicy(),
	}
}

// Pipeline is the default Computer. The tag parser and its cache are shared
// by every computation; vocabulary and vectors are built fresh each time.
type Pipeline struct {
	opts   Options
	parser *topics.Parser
	engine *projection.Engine
	logger zerolog.Logger
}

func NewPipeline(opts Options, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		opts:   opts,
		parser: topics.NewParser(opts.TagCacheSize),
		engine: projection.NewEngine(opts.Policy),
		logger: logger.With().Str("component", "layout").Logger(),
	}
}

// Parser exposes the shared tag parser, mainly for cache statistics.
func (p *Pipeline) Parser() *topics.Parser {
	return p.parser
}

// Vectorize builds the batch vocabulary and one feature vector per item.
func (p *Pipeline) Vectorize(items []Item) (*embedding.Vocabulary, [][]float64) {
	raws := make([]string, len(items))
	for i, item := range items {
		raws[i] = item.Topics
	}
	return embedding.Vectorize(p.parser, raws, p.opts.MaxTopics)
}

// Compute returns the normalized coordinates of items keyed by id.
//
// Degenerate input (fewer than three items, no topics at all) and numerical
// failures both produce an empty map with a nil error. Only cancellation of
// ctx is returned as an error.
func (p *Pipeline) Compute(ctx context.Context, items []Item) (projection.Coordinates, error) {
	if len(items) < projection.MinPoints {
		return projection.Coordinates{}, nil
	}

	start := time.Now()
	vocab, vectors := p.Vectorize(items)

	points, err := p.engine.Embed(ctx, vectors)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		p.logger.Warn().Err(err).Int("items", len(items)).Msg("embedding failed")
		return projection.Coordinates{}, nil
	}
	if points == nil {
		p.logger.Debug().Int("items", len(items)).Int("topics", vocab.Len()).Msg("nothing to embed")
		return projection.Coordinates{}, nil
	}

	coords := projection.Normalize(points, IDs(items), p.opts.Padding)

	params := p.opts.Policy.ParamsFor(len(items))
	p.logger.Debug().
		Int("items", len(items)).
		Int("topics", vocab.Len()).
		Float64("perplexity", params.Perplexity).
		Int("iterations", params.Iterations).
		Dur("took", time.Since(start)).
		Msg("layout computed")

	return coords, nil
}

// Func adapts a plain function to the Computer interface.
type Func func(ctx context.Context, items []Item) (projection.Coordinates, error)

func (f Func) Compute(ctx context.Context, items []Item) (projection.Coordinates, error) {
	return f(ctx, items)
}

// IDs returns the ids of items in order.
func IDs(items []Item) []int {
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
