package evolve

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis/v13/optimizer/internal/portfolio"
	"github.com/wonny/aegis/v13/optimizer/pkg/logger"
)

// Evolver drives the generational genetic algorithm over portfolio allocations
// ⭐ SSOT: 세대 진화(선택/교차/돌연변이/수정/엘리트) 로직은 여기서만
type Evolver struct {
	cfg    Config
	total  float64
	eval   Evaluator
	rng    portfolio.RandomSource
	logger *logger.Logger

	population []*portfolio.Portfolio
	table      *fitnessTable
	generation int
}

// Best is the highest-fitness member of the current generation
type Best struct {
	Portfolio *portfolio.Portfolio // clone, safe to modify
	Index     int
	Score     float64 // scaled score (floor added back)
	RealScore float64
}

// New seeds a population of cfg.PopulationSize random portfolios over the
// template's universe, all summing to the template's total, and scores them.
func New(
	cfg Config,
	template *portfolio.Portfolio,
	eval Evaluator,
	rng portfolio.RandomSource,
	log *logger.Logger,
) (*Evolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if eval == nil {
		return nil, ErrNilEvaluator
	}
	if template == nil {
		return nil, portfolio.ErrEmptyUniverse
	}
	if log == nil {
		log = logger.Nop()
	}

	total := template.Total()
	permuter, err := portfolio.NewPermuter(template, total, rng)
	if err != nil {
		return nil, fmt.Errorf("seed population: %w", err)
	}

	population := make([]*portfolio.Portfolio, cfg.PopulationSize)
	for i := range population {
		if population[i], err = permuter.Next(); err != nil {
			return nil, fmt.Errorf("seed population: %w", err)
		}
	}

	table, err := computeFitness(population, eval)
	if err != nil {
		return nil, fmt.Errorf("initial fitness: %w", err)
	}

	e := &Evolver{
		cfg:        cfg,
		total:      total,
		eval:       eval,
		rng:        rng,
		logger:     log.WithComponent("evolve"),
		population: population,
		table:      table,
	}

	e.logger.WithFields(map[string]interface{}{
		"population": cfg.PopulationSize,
		"assets":     template.Len(),
		"total":      total,
	}).Debug("Population seeded")

	return e, nil
}

// Evolve advances one generation.
// On error the current generation is kept as it was; the error is fatal for the run.
func (e *Evolver) Evolve() error {
	next := e.selectPopulation()
	crossed := e.crossover(next)
	mutated := e.mutate(next)
	corrected := e.correct(next)

	// Elitism: 이전 세대 최고 개체를 0번 슬롯에 무조건 보존
	next[0] = e.population[e.table.best()].Clone()

	table, err := computeFitness(next, e.eval)
	if err != nil {
		e.logger.WithError(err).WithField("generation", e.generation+1).Error("Generation failed")
		return fmt.Errorf("generation %d: %w", e.generation+1, err)
	}

	e.population = next
	e.table = table
	e.generation++

	if e.logger.Enabled(zerolog.DebugLevel) {
		best := e.Best()
		e.logger.WithFields(map[string]interface{}{
			"generation": e.generation,
			"best_score": best.Score,
			"best_real":  best.RealScore,
			"crossed":    crossed,
			"mutated":    mutated,
			"corrected":  corrected,
		}).Debug("Generation evolved")
	}

	return nil
}

// Best returns the member with the highest shifted fitness
func (e *Evolver) Best() Best {
	idx := e.table.best()
	return Best{
		Portfolio: e.population[idx].Clone(),
		Index:     idx,
		Score:     e.table.fitness[idx] + e.table.min,
		RealScore: e.table.real[idx],
	}
}

// Generation returns the number of completed Evolve calls
func (e *Evolver) Generation() int {
	return e.generation
}

// PopulationSize returns the fixed population size
func (e *Evolver) PopulationSize() int {
	return len(e.population)
}

// Total returns the allocation total every member is normalized to
func (e *Evolver) Total() float64 {
	return e.total
}

// Population returns clones of the current members
func (e *Evolver) Population() []*portfolio.Portfolio {
	out := make([]*portfolio.Portfolio, len(e.population))
	for i, p := range e.population {
		out[i] = p.Clone()
	}
	return out
}

// Fitness returns a copy of the shifted fitness values, indexed like Population
func (e *Evolver) Fitness() []float64 {
	out := make([]float64, len(e.table.fitness))
	copy(out, e.table.fitness)
	return out
}

// CrossoverProbability returns the current crossover probability
func (e *Evolver) CrossoverProbability() float64 { return e.cfg.CrossoverProbability }

// MutationProbability returns the current per-holding mutation probability
func (e *Evolver) MutationProbability() float64 { return e.cfg.MutationProbability }

// MaxHolding returns the current per-holding cap
func (e *Evolver) MaxHolding() float64 { return e.cfg.MaxHolding }

// SetCrossoverProbability changes the crossover probability for later generations
func (e *Evolver) SetCrossoverProbability(p float64) error {
	if err := validateProbability("crossover", p); err != nil {
		return err
	}
	e.cfg.CrossoverProbability = p
	return nil
}

// SetMutationProbability changes the mutation probability for later generations
func (e *Evolver) SetMutationProbability(p float64) error {
	if err := validateProbability("mutation", p); err != nil {
		return err
	}
	e.cfg.MutationProbability = p
	return nil
}

// SetMaxHolding changes the per-holding cap for later generations
func (e *Evolver) SetMaxHolding(max float64) error {
	if !(max > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidMaxHolding, max)
	}
	e.cfg.MaxHolding = max
	return nil
}
