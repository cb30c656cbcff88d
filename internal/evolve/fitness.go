package evolve

import (
	"fmt"

	"github.com/wonny/aegis/v13/optimizer/internal/portfolio"
)

// floorRatio is the share of the best score the fitness floor is raised to
const floorRatio = 0.9

// fitnessTable holds the selection state of one generation
type fitnessTable struct {
	fitness    []float64 // shifted, clamped
	scaled     []float64 // raw scaled scores
	real       []float64 // reporting only
	min        float64   // raised floor
	max        float64
	total      float64
	cumulative []float64
}

// computeFitness evaluates every member and builds the roulette wheel.
// The table is only returned once every step succeeded.
func computeFitness(population []*portfolio.Portfolio, eval Evaluator) (*fitnessTable, error) {
	n := len(population)
	t := &fitnessTable{
		fitness:    make([]float64, n),
		scaled:     make([]float64, n),
		real:       make([]float64, n),
		cumulative: make([]float64, n),
	}

	// 1. Evaluate
	for i, p := range population {
		if err := eval.Evaluate(p); err != nil {
			return nil, fmt.Errorf("%w: individual %d: %w", ErrEvaluationFailed, i, err)
		}
		score := eval.ScaledScore()
		t.scaled[i] = score
		t.real[i] = eval.RealScore()

		if i == 0 || score < t.min {
			t.min = score
		}
		if i == 0 || score > t.max {
			t.max = score
		}
	}

	// 2. Raise the floor to keep selection pressure on near-uniform scores
	if t.min == t.max {
		t.min = floorRatio * t.min
	} else if raised := floorRatio * t.max; raised > t.min {
		t.min = raised
	}

	// 3. Shift and clamp
	for i, score := range t.scaled {
		shifted := score - t.min
		if shifted <= portfolio.Epsilon {
			shifted = 0
		}
		t.fitness[i] = shifted
		t.total += shifted
	}

	if t.total <= portfolio.Epsilon {
		return nil, fmt.Errorf("%w: total=%g (min=%g max=%g)", ErrDegenerateFitness, t.total, t.min, t.max)
	}

	// 4. Cumulative selection probability
	var acc float64
	for i, f := range t.fitness {
		acc += f / t.total
		t.cumulative[i] = acc
	}

	return t, nil
}

// spin returns the first index whose cumulative probability exceeds r
func (t *fitnessTable) spin(r float64) int {
	for i, c := range t.cumulative {
		if c > r {
			return i
		}
	}
	// 부동소수 오차: 마지막 개체로 대체
	return len(t.cumulative) - 1
}

// best returns the index of the highest shifted fitness (first on ties)
func (t *fitnessTable) best() int {
	idx := 0
	for i, f := range t.fitness {
		if f > t.fitness[idx] {
			idx = i
		}
	}
	return idx
}
