package projection

import "math"

// Policy derives t-SNE hyperparameters from the batch size so that the cost
// of one embedding stays roughly constant: perplexity grows with n and the
// iteration count shrinks as n grows, both within fixed bounds.
type Policy struct {
	PerplexityDivisor int     `toml:"perplexity_divisor"`
	MinPerplexity     float64 `toml:"min_perplexity"`
	MaxPerplexity     float64 `toml:"max_perplexity"`
	IterationBudget   int     `toml:"iteration_budget"`
	MinIterations     int     `toml:"min_iterations"`
	MaxIterations     int     `toml:"max_iterations"`
	LearningRate      float64 `toml:"learning_rate"`
}

// Params are the hyperparameters of one embedding run.
type Params struct {
	Perplexity   float64
	Iterations   int
	LearningRate float64
}

func DefaultPolicy() Policy {
	return Policy{
		PerplexityDivisor: 4,
		MinPerplexity:     5,
		MaxPerplexity:     30,
		IterationBudget:   500000,
		MinIterations:     100,
		MaxIterations:     300,
		LearningRate:      10,
	}
}

// ParamsFor returns the hyperparameters for a batch of n points.
//
//	perplexity = clamp(floor(n / divisor), min, max), capped below n
//	iterations = clamp(floor(budget / n), min, max)
func (p Policy) ParamsFor(n int) Params {
	if n <= 0 {
		return Params{Perplexity: p.MinPerplexity, Iterations: p.MaxIterations, LearningRate: p.LearningRate}
	}

	divisor := max(p.PerplexityDivisor, 1)
	perplexity := math.Floor(float64(n) / float64(divisor))
	perplexity = math.Min(p.MaxPerplexity, math.Max(p.MinPerplexity, perplexity))
	// The Gaussian calibration needs fewer effective neighbours than points.
	if perplexity >= float64(n) {
		perplexity = math.Max(1, float64(n-1))
	}

	iterations := p.IterationBudget / n
	iterations = min(p.MaxIterations, max(p.MinIterations, iterations))

	return Params{
		Perplexity:   perplexity,
		Iterations:   iterations,
		LearningRate: p.LearningRate,
	}
}
