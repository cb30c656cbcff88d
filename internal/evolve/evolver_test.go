package evolve

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis/v13/optimizer/internal/portfolio"
	"github.com/wonny/aegis/v13/optimizer/pkg/logger"
)

func testConfig(size int) Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = size
	cfg.CrossoverProbability = 0.5
	cfg.MutationProbability = 0.1
	return cfg
}

func newTestEvolver(t *testing.T, size int, seed int64) (*Evolver, *prefEvaluator) {
	t.Helper()
	eval := newPrefEvaluator()
	e, err := New(testConfig(size), template3(9), eval, portfolio.NewRand(seed), logger.Nop())
	require.NoError(t, err)
	return e, eval
}

func TestNew_Preconditions(t *testing.T) {
	rng := portfolio.NewRand(1)
	eval := newPrefEvaluator()

	tests := []struct {
		name     string
		cfg      Config
		template *portfolio.Portfolio
		eval     Evaluator
		rng      portfolio.RandomSource
		wantErr  error
	}{
		{"zero population", testConfig(0), template3(9), eval, rng, ErrInvalidPopulation},
		{"negative population", testConfig(-3), template3(9), eval, rng, ErrInvalidPopulation},
		{"empty universe", testConfig(5), portfolio.New(), eval, rng, portfolio.ErrEmptyUniverse},
		{"nil template", testConfig(5), nil, eval, rng, portfolio.ErrEmptyUniverse},
		{"zero total", testConfig(5), template3(0), eval, rng, portfolio.ErrNonPositiveTotal},
		{"nil evaluator", testConfig(5), template3(9), nil, rng, ErrNilEvaluator},
		{"nil random", testConfig(5), template3(9), eval, nil, portfolio.ErrNilRandom},
		{"bad crossover", Config{PopulationSize: 5, CrossoverProbability: 2, MaxHolding: 1}, template3(9), eval, rng, ErrInvalidProbability},
		{"bad max holding", Config{PopulationSize: 5, MaxHolding: 0}, template3(9), eval, rng, ErrInvalidMaxHolding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, tt.template, tt.eval, tt.rng, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNew_DegenerateInitialFitness(t *testing.T) {
	_, err := New(testConfig(10), template3(9), &listEvaluator{scores: []float64{0}}, portfolio.NewRand(1), nil)
	assert.ErrorIs(t, err, ErrDegenerateFitness)
}

func TestNew_SeedsPopulation(t *testing.T) {
	e, eval := newTestEvolver(t, 20, 42)

	assert.Equal(t, 20, e.PopulationSize())
	assert.Equal(t, 9.0, e.Total())
	assert.Len(t, e.Fitness(), 20)
	assert.Equal(t, 20, eval.calls)
	assert.Equal(t, 0, e.Generation())

	for _, p := range e.Population() {
		assert.Equal(t, []string{"A", "B", "C"}, p.Codes())
		assert.InDelta(t, 9.0, p.Total(), 1e-9)
	}
}

func TestEvolve_KeepsSizeAndTotal(t *testing.T) {
	e, _ := newTestEvolver(t, 25, 7)

	for g := 1; g <= 30; g++ {
		require.NoError(t, e.Evolve())
		assert.Equal(t, g, e.Generation())
		assert.Equal(t, 25, e.PopulationSize())
		assert.Len(t, e.Fitness(), 25)
	}

	for _, p := range e.Population() {
		assert.InDelta(t, 9.0, p.Total(), 1e-4)
		assert.Equal(t, 3, p.Len())
	}
}

func TestEvolve_ElitismMonotonic(t *testing.T) {
	e, _ := newTestEvolver(t, 30, 2024)

	prev := e.Best().Score
	for g := 0; g < 60; g++ {
		require.NoError(t, e.Evolve())
		cur := e.Best().Score
		assert.GreaterOrEqual(t, cur, prev-1e-12, "generation %d", e.Generation())
		prev = cur
	}
}

func TestEvolve_ElitePreservedInSlotZero(t *testing.T) {
	e, _ := newTestEvolver(t, 15, 5)

	for g := 0; g < 10; g++ {
		elite := e.Best().Portfolio.Amounts()
		require.NoError(t, e.Evolve())
		assert.Equal(t, elite, e.Population()[0].Amounts())
	}
}

func TestEvolve_Improves(t *testing.T) {
	e, _ := newTestEvolver(t, 40, 99)
	initial := e.Best()

	require.NoError(t, e.Run(context.Background(), 150, nil))
	final := e.Best()

	assert.GreaterOrEqual(t, final.Score, initial.Score)
	// 선호도 A > B > C: 최고 개체는 A 비중이 가장 큼
	p := final.Portfolio
	assert.Greater(t, p.Get("A"), p.Get("C"))
}

func TestEvolve_Deterministic(t *testing.T) {
	a, _ := newTestEvolver(t, 20, 31337)
	b, _ := newTestEvolver(t, 20, 31337)

	for g := 0; g < 25; g++ {
		require.NoError(t, a.Evolve())
		require.NoError(t, b.Evolve())
	}

	assert.Equal(t, a.Best().Portfolio.Amounts(), b.Best().Portfolio.Amounts())
	assert.Equal(t, a.Fitness(), b.Fitness())
}

func TestEvolve_FailureKeepsGeneration(t *testing.T) {
	e, eval := newTestEvolver(t, 10, 8)
	require.NoError(t, e.Evolve())

	before := e.Population()
	fitness := e.Fitness()
	eval.failAt = eval.calls + 4

	err := e.Evolve()
	require.ErrorIs(t, err, ErrEvaluationFailed)
	assert.Contains(t, err.Error(), "generation 2")

	assert.Equal(t, 1, e.Generation())
	assert.Equal(t, fitness, e.Fitness())
	after := e.Population()
	for i := range before {
		assert.Equal(t, before[i].Amounts(), after[i].Amounts())
	}
}

func TestEvolve_MaxHolding(t *testing.T) {
	e, _ := newTestEvolver(t, 20, 12)
	require.NoError(t, e.SetMaxHolding(8.5))

	for g := 0; g < 5; g++ {
		require.NoError(t, e.Evolve())
	}
	assert.Equal(t, 8.5, e.MaxHolding())
	assert.Equal(t, 20, e.PopulationSize())
	for _, p := range e.Population() {
		assert.LessOrEqual(t, p.Total(), 9.0+1e-6)
	}
}

func TestEvolver_Setters(t *testing.T) {
	e, _ := newTestEvolver(t, 5, 1)

	require.NoError(t, e.SetCrossoverProbability(0.8))
	require.NoError(t, e.SetMutationProbability(0.2))
	assert.Equal(t, 0.8, e.CrossoverProbability())
	assert.Equal(t, 0.2, e.MutationProbability())
	assert.True(t, math.IsInf(e.MaxHolding(), 1))

	assert.ErrorIs(t, e.SetCrossoverProbability(-0.1), ErrInvalidProbability)
	assert.ErrorIs(t, e.SetMutationProbability(1.1), ErrInvalidProbability)
	assert.ErrorIs(t, e.SetMaxHolding(0), ErrInvalidMaxHolding)
	assert.Equal(t, 0.8, e.CrossoverProbability(), "rejected values are not applied")
}

func TestBest_ReturnsClone(t *testing.T) {
	e, _ := newTestEvolver(t, 10, 4)

	best := e.Best()
	fitness := e.Fitness()
	for i, f := range fitness {
		assert.LessOrEqual(t, f, fitness[best.Index], "index %d", i)
	}

	best.Portfolio.Set("A", 1000)
	assert.NotEqual(t, 1000.0, e.Best().Portfolio.Get("A"))
}

func TestBest_ScoreOnOriginalScale(t *testing.T) {
	eval := &listEvaluator{scores: []float64{1, 2, 3, 4}}
	e, err := New(testConfig(4), template3(9), eval, portfolio.NewRand(1), nil)
	require.NoError(t, err)

	best := e.Best()
	assert.Equal(t, 3, best.Index)
	assert.InDelta(t, 4.0, best.Score, 1e-12)
	assert.Equal(t, -4.0, best.RealScore)
}

func TestRun(t *testing.T) {
	e, _ := newTestEvolver(t, 10, 6)

	var seen []int
	err := e.Run(context.Background(), 5, func(s GenerationStats) {
		seen = append(seen, s.Generation)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seen)
}

func TestRun_Cancelled(t *testing.T) {
	e, _ := newTestEvolver(t, 10, 6)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Run(ctx, 5, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, e.Generation())
}

func TestStats(t *testing.T) {
	e, _ := newTestEvolver(t, 12, 10)
	require.NoError(t, e.Evolve())

	s := e.Stats()
	best := e.Best()
	assert.Equal(t, 1, s.Generation)
	assert.Equal(t, best.Index, s.BestIndex)
	assert.Equal(t, best.Score, s.BestScore)
	assert.GreaterOrEqual(t, s.BestScore, s.MeanScore)
	assert.GreaterOrEqual(t, s.StdDevScore, 0.0)
	assert.Greater(t, s.TotalFitness, portfolio.Epsilon)
	assert.LessOrEqual(t, s.FitnessFloor, s.BestScore)
}

func TestStats_SingleMember(t *testing.T) {
	e, _ := newTestEvolver(t, 1, 10)
	require.NoError(t, e.Evolve())

	s := e.Stats()
	assert.Equal(t, 0.0, s.StdDevScore)
	assert.Equal(t, 0, s.BestIndex)
}
