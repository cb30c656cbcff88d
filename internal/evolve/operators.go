package evolve

import (
	"github.com/wonny/aegis/v13/optimizer/internal/portfolio"
)

// selectPopulation draws PopulationSize clones by roulette wheel, with replacement
func (e *Evolver) selectPopulation() []*portfolio.Portfolio {
	next := make([]*portfolio.Portfolio, len(e.population))
	for i := range next {
		idx := e.table.spin(e.rng.Float64())
		next[i] = e.population[idx].Clone()
	}
	return next
}

// crossover pairs candidates in scan order; a leftover pending one stays unchanged
func (e *Evolver) crossover(pool []*portfolio.Portfolio) int {
	var pending *portfolio.Portfolio
	crossed := 0

	for _, p := range pool {
		if e.rng.Float64() >= e.cfg.CrossoverProbability {
			continue
		}
		if pending == nil {
			pending = p
			continue
		}
		e.cross(pending, p)
		pending = nil
		crossed++
	}

	return crossed
}

// cross swaps the amounts of 1..n random sites between a and b, then renormalizes both
func (e *Evolver) cross(a, b *portfolio.Portfolio) {
	n := a.Len()
	sites := 1 + portfolio.Intn(e.rng, n)

	for s := 0; s < sites; s++ {
		portfolio.Swap(a, b, portfolio.Intn(e.rng, n))
	}

	a.Normalize(e.total)
	b.Normalize(e.total)
}

// mutate scales single holdings by a factor in [0.5, 1.5)
func (e *Evolver) mutate(pool []*portfolio.Portfolio) int {
	mutatedCount := 0

	for _, p := range pool {
		mutated := false
		for i := 0; i < p.Len(); i++ {
			if e.rng.Float64() < e.cfg.MutationProbability {
				p.Scale(i, 0.5+e.rng.Float64())
				mutated = true
			}
		}
		if mutated {
			p.Normalize(e.total)
			mutatedCount++
		}
	}

	return mutatedCount
}

// correct zeroes holdings above MaxHolding (repair operator)
func (e *Evolver) correct(pool []*portfolio.Portfolio) int {
	corrected := 0

	for _, p := range pool {
		if p.CapHoldings(e.cfg.MaxHolding) {
			p.Normalize(e.total)
			corrected++
		}
	}

	return corrected
}
